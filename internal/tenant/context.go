package tenant

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Resolver holds the tenant resolved for one request. It is created by the
// request boundary, initialized once and reset when the request ends. A
// Resolver is never shared between requests and needs no locking; the Cache
// behind it is the only shared state.
//
// Outside of Initialize a Resolver is either fully initialized or fully reset.
type Resolver struct {
	directory Directory
	cache     Cache
	logger    *zap.Logger

	tenantID    string
	tenantCode  string
	tenant      *Tenant
	settings    TenantSettings
	initialized bool
}

// NewResolver creates an uninitialized Resolver.
func NewResolver(directory Directory, cache Cache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{directory: directory, cache: cache, logger: logger}
}

// Initialize resolves code through the cache, then the directory on a miss.
// It fails with ErrTenantCodeEmpty for "" and with a KindTenantNotFound error
// when no live active tenant has that code. Any failure leaves r reset.
func (r *Resolver) Initialize(ctx context.Context, code string) error {
	ctx, span := tracer.Start(ctx, "Resolver.Initialize")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.code", code))

	if code == "" {
		r.Reset()
		return ErrTenantCodeEmpty
	}

	t, ok := r.cache.Get(ctx, code)
	span.SetAttributes(attribute.Bool("tenant.cache_hit", ok))
	if !ok {
		found, err := r.directory.FindActiveByCode(ctx, code)
		if err != nil {
			r.Reset()
			if errors.Is(err, ErrTenantNotFound) {
				span.SetStatus(codes.Error, "tenant not found")
				return notFoundByCode(code)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "directory lookup failed")
			return fmt.Errorf("resolve tenant %q: %w", code, err)
		}
		r.cache.Set(ctx, code, found)
		t = found
	}

	r.tenantID = t.ID
	r.tenantCode = t.Code
	r.tenant = t
	r.settings = t.Settings.Clone()
	r.initialized = true

	r.logger.Debug("tenant resolved", zap.String("tenant_code", code), zap.String("tenant_id", t.ID), zap.Bool("cache_hit", ok))
	return nil
}

// Reset clears all resolved state. Safe to call any number of times.
func (r *Resolver) Reset() {
	r.tenantID = ""
	r.tenantCode = ""
	r.tenant = nil
	r.settings = TenantSettings{}
	r.initialized = false
}

func (r *Resolver) TenantID() string { return r.tenantID }

func (r *Resolver) TenantCode() string { return r.tenantCode }

// Tenant returns the resolved record, nil when not initialized.
func (r *Resolver) Tenant() *Tenant { return r.tenant }

func (r *Resolver) Settings() TenantSettings { return r.settings }

func (r *Resolver) IsInitialized() bool { return r.initialized }

type resolverKey struct{}

// WithResolver attaches r to ctx.
func WithResolver(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

// FromContext returns the request's Resolver.
func FromContext(ctx context.Context) (*Resolver, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(resolverKey{}).(*Resolver)
	return r, ok && r != nil
}

// CurrentTenantID returns the tenant id resolved for ctx. It is "" when no
// Resolver is attached or it has not been initialized, which matches no rows.
func CurrentTenantID(ctx context.Context) string {
	r, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return r.TenantID()
}

// RequireInitialized returns the initialized Resolver for ctx or ErrUninitializedContext.
func RequireInitialized(ctx context.Context) (*Resolver, error) {
	r, ok := FromContext(ctx)
	if !ok || !r.IsInitialized() {
		return nil, ErrUninitializedContext
	}
	return r, nil
}
