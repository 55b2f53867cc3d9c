package datastore

import "context"

type bypassKey struct{}

// WithoutIsolation marks ctx as an authorized cross-tenant path. Queries run
// with it skip the tenant and soft-delete predicate, so they also see deleted
// rows. Audit stamping and the delete rewrite still apply. Only background and
// administrative jobs should call this.
func WithoutIsolation(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

// IsolationBypassed reports whether ctx was produced by WithoutIsolation.
func IsolationBypassed(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}
