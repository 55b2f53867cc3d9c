package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edusuite/internal/common"
	"edusuite/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("edusuite/internal/tenant")

// Scope narrows a directory lookup.
type Scope = func(*gorm.DB) *gorm.DB

// ByCode matches the tenant code exactly.
func ByCode(code string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("code = ?", code)
	}
}

// Directory is the durable store of tenant records.
type Directory interface {
	Insert(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	// Find returns tenants matching every scope.
	Find(ctx context.Context, scopes ...Scope) ([]*Tenant, error)
	// FindActiveByCode returns the live, active tenant for code or ErrTenantNotFound.
	FindActiveByCode(ctx context.Context, code string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	// Delete physically removes the record.
	Delete(ctx context.Context, id string) error
}

type gormDirectory struct {
	db *gorm.DB
}

// NewDirectory creates a gorm backed Directory.
func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

// Insert relies on the unique code index for concurrent creates of the same
// code. The db must be opened with TranslateError for the conflict to surface.
func (d *gormDirectory) Insert(ctx context.Context, t *Tenant) error {
	err := d.db.WithContext(ctx).Create(t).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflictCode(t.Code)
	}
	return err
}

func (d *gormDirectory) GetByID(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (d *gormDirectory) Find(ctx context.Context, scopes ...Scope) ([]*Tenant, error) {
	var out []*Tenant
	if err := d.db.WithContext(ctx).Scopes(scopes...).Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *gormDirectory) FindActiveByCode(ctx context.Context, code string) (*Tenant, error) {
	ctx, span := tracer.Start(ctx, "Directory.FindActiveByCode",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tenant.code", code)),
	)
	defer span.End()

	start := time.Now()
	var t Tenant
	err := d.db.WithContext(ctx).
		Scopes(ByCode(code), common.NotDeleted(), common.ActiveOnly()).
		Take(&t).Error
	metrics.TenantDirectoryLookupDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("find tenant by code: %w", err)
	}
	return &t, nil
}

func (d *gormDirectory) List(ctx context.Context) ([]*Tenant, error) {
	return d.Find(ctx)
}

func (d *gormDirectory) Update(ctx context.Context, t *Tenant) error {
	res := d.db.WithContext(ctx).Model(t).Select("*").Omit("id", "code", "created_at").Updates(t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (d *gormDirectory) Delete(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Where("id = ?", id).Delete(&Tenant{}).Error
}
