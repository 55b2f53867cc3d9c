package auth

import "context"

type actorKey struct{}

// WithActor binds the acting user id to ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the acting user id and whether one was bound.
func ActorFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}

// ActorResolver returns a function that yields the bound actor or fallback.
// The result plugs into datastore.Options.ActorID.
func ActorResolver(fallback string) func(context.Context) string {
	return func(ctx context.Context) string {
		if id, ok := ActorFromContext(ctx); ok {
			return id
		}
		return fallback
	}
}
