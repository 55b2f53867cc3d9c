package datastore

import (
	"context"
	"errors"

	"edusuite/internal/common"
	"edusuite/internal/metrics"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a row does not exist or is not visible to the
// current tenant. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("datastore: not found")

// Scope narrows a query, e.g. common.ActiveOnly() or a caller predicate.
type Scope = func(*gorm.DB) *gorm.DB

// Repository is a typed CRUD facade over a tenant-scoped model. Filtering and
// audit stamping come from the Plugin, the repository only delegates.
type Repository[T any, PT interface {
	*T
	common.Entity
}] struct {
	db *gorm.DB
}

// NewRepository binds a repository for T to db. db must have the Plugin installed.
func NewRepository[T any, PT interface {
	*T
	common.Entity
}](db *gorm.DB) *Repository[T, PT] {
	return &Repository[T, PT]{db: db}
}

// GetByID returns ErrNotFound for missing, soft-deleted and foreign rows alike.
func (r *Repository[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	var e T
	if err := r.db.WithContext(ctx).Where(common.ColumnID+" = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetAll returns every visible row.
func (r *Repository[T, PT]) GetAll(ctx context.Context) ([]T, error) {
	return r.Find(ctx)
}

// Find returns visible rows matching all scopes.
func (r *Repository[T, PT]) Find(ctx context.Context, scopes ...Scope) ([]T, error) {
	var out []T
	if err := r.db.WithContext(ctx).Scopes(scopes...).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// List returns one page of visible rows matching scopes plus the total count.
func (r *Repository[T, PT]) List(ctx context.Context, page common.PaginationRequest, scopes ...Scope) ([]T, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := make([]T, 0)
	if total == 0 {
		return out, 0, nil
	}
	err := r.db.WithContext(ctx).
		Scopes(scopes...).
		Scopes(common.Paginate(page)).
		Order(common.ColumnCreatedAt + " DESC").
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Add inserts e. Id, tenant and creation stamp are assigned on write.
func (r *Repository[T, PT]) Add(ctx context.Context, e *T) (*T, error) {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// Update writes all mutable columns of e and returns the stored row.
func (r *Repository[T, PT]) Update(ctx context.Context, e *T) (*T, error) {
	id := PT(e).Base().ID
	if id == "" {
		return nil, ErrNotFound
	}

	res := r.db.WithContext(ctx).Model(e).Select("*").Updates(e)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete soft-deletes the row with id. It is a no-op when the row is not
// visible, no not-found signal is given.
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx)
	res := tx.Where(common.ColumnID+" = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		metrics.SoftDeletesTotal.WithLabelValues(res.Statement.Table).Inc()
	}
	return nil
}
