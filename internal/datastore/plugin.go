// Package datastore scopes gorm access to the tenant resolved for the request.
//
// The Plugin installs callbacks that filter every query on tenant-scoped models
// (models embedding common.BaseEntity) by the current tenant and the soft-delete
// flag, stamp audit columns on create and update, and turn deletes into updates.
package datastore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"edusuite/internal/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Options wires the plugin to the request scope.
type Options struct {
	// TenantID returns the tenant bound to ctx, "" when none is resolved.
	TenantID func(ctx context.Context) string
	// ActorID returns the acting user bound to ctx.
	ActorID func(ctx context.Context) string
	Now     func() time.Time
	Logger  *zap.Logger
}

// Plugin is a gorm.Plugin enforcing tenant isolation and audit stamping.
type Plugin struct {
	opts   Options
	scoped sync.Map // reflect.Type -> bool
}

var entityType = reflect.TypeOf((*common.Entity)(nil)).Elem()

// New creates the plugin. Missing functions fall back to an empty tenant, the
// "system" actor and UTC wall time.
func New(opts Options) *Plugin {
	if opts.TenantID == nil {
		opts.TenantID = func(context.Context) string { return "" }
	}
	if opts.ActorID == nil {
		opts.ActorID = func(context.Context) string { return "system" }
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Plugin{opts: opts}
}

func (p *Plugin) Name() string {
	return "edusuite:tenancy"
}

// Initialize registers the callbacks on db.
func (p *Plugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenancy:query", p.isolate); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenancy:row", p.isolate); err != nil {
		return err
	}
	if err := db.Callback().Create().Before("gorm:create").Register("tenancy:stamp_create", p.stampCreate); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenancy:stamp_update", p.stampUpdate); err != nil {
		return err
	}
	if err := db.Callback().Update().After("tenancy:stamp_update").Before("gorm:update").Register("tenancy:update", p.isolateUpdate); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("tenancy:soft_delete", p.softDelete)
}

// RegisterEntities validates at startup that each model has the tenant-scoped
// shape. Models are also detected lazily, this only fails fast on bad tags.
func (p *Plugin) RegisterEntities(db *gorm.DB, models ...common.Entity) error {
	for _, m := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("datastore: parse %T: %w", m, err)
		}
		if !p.isScoped(stmt.Schema) {
			return fmt.Errorf("datastore: %T lacks tenant-scoped columns", m)
		}
		p.opts.Logger.Debug("tenant-scoped entity registered", zap.String("table", stmt.Schema.Table))
	}
	return nil
}

// isScoped reports whether rows of s belong to a tenant.
func (p *Plugin) isScoped(s *schema.Schema) bool {
	if s == nil {
		return false
	}
	if v, ok := p.scoped.Load(s.ModelType); ok {
		return v.(bool)
	}
	ok := reflect.PointerTo(s.ModelType).Implements(entityType)
	for _, col := range []string{common.ColumnTenantID, common.ColumnIsDeleted, common.ColumnDeletedAt, common.ColumnDeletedBy} {
		if s.LookUpField(col) == nil {
			ok = false
		}
	}
	p.scoped.Store(s.ModelType, ok)
	return ok
}

func (p *Plugin) applies(db *gorm.DB) bool {
	return db.Error == nil && db.Statement.Schema != nil && p.isScoped(db.Statement.Schema)
}
