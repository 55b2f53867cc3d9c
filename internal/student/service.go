package student

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edusuite/internal/common"
	"edusuite/internal/datastore"
	"edusuite/internal/tenant"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = datastore.ErrNotFound
	ErrLimitReached  = errors.New("student: tenant student limit reached")
	ErrInvalidParams = errors.New("student: invalid parameters")
)

// Params are the caller supplied fields of a student. Tenant and audit columns
// are never taken from callers.
type Params struct {
	AdmissionNumber string
	FirstName       string
	LastName        string
	DateOfBirth     time.Time
	Gender          string
	ContactNumber   string
	EmailAddress    string
	Address         string
	AdmissionDate   time.Time
	CurrentClass    string
	Section         string
}

// ListFilter optional list filters
type ListFilter struct {
	CurrentClass string
	Section      string
	Search       string
}

// Service manages students of the tenant resolved for the request.
type Service interface {
	Create(ctx context.Context, params Params) (*Student, error)
	Get(ctx context.Context, id string) (*Student, error)
	List(ctx context.Context, page common.PaginationRequest, filter ListFilter) ([]Student, int64, error)
	Update(ctx context.Context, id string, params Params) (*Student, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db     *gorm.DB
	repo   *datastore.Repository[Student, *Student]
	logger *zap.Logger
}

// NewService creates a Service over db. db must carry the datastore plugin.
func NewService(db *gorm.DB, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		db:     db,
		repo:   datastore.NewRepository[Student](db),
		logger: logger,
	}
}

func (s *service) Create(ctx context.Context, params Params) (*Student, error) {
	r, err := tenant.RequireInitialized(ctx)
	if err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	st := &Student{}
	params.apply(st)
	limit := r.Settings().MaxStudentsAllowed
	if limit <= 0 {
		if _, err := s.repo.Add(ctx, st); err != nil {
			return nil, err
		}
	} else if err := s.addWithinLimit(ctx, r.TenantID(), limit, st); err != nil {
		return nil, err
	}

	s.logger.Info("student created",
		zap.String("tenant_id", st.TenantID),
		zap.String("student_id", st.ID),
	)
	return st, nil
}

// addWithinLimit counts and inserts in one transaction holding the tenant row
// lock, so concurrent creates for a tenant cannot overshoot limit.
func (s *service) addWithinLimit(ctx context.Context, tenantID string, limit int, st *Student) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", tenantID).
			Take(&tenant.Tenant{}).Error
		if err != nil {
			return err
		}

		repo := datastore.NewRepository[Student](tx)
		_, total, err := repo.List(ctx, common.PaginationRequest{Page: 1, PageSize: 1})
		if err != nil {
			return err
		}
		if total >= int64(limit) {
			return ErrLimitReached
		}
		_, err = repo.Add(ctx, st)
		return err
	})
}

func (s *service) Get(ctx context.Context, id string) (*Student, error) {
	if _, err := tenant.RequireInitialized(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, page common.PaginationRequest, filter ListFilter) ([]Student, int64, error) {
	if _, err := tenant.RequireInitialized(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, page, filter.scopes()...)
}

func (s *service) Update(ctx context.Context, id string, params Params) (*Student, error) {
	if _, err := tenant.RequireInitialized(ctx); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	params.apply(st)
	return s.repo.Update(ctx, st)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := tenant.RequireInitialized(ctx); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (p Params) validate() error {
	switch {
	case strings.TrimSpace(p.AdmissionNumber) == "":
		return fmt.Errorf("%w: admission number is required", ErrInvalidParams)
	case strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "":
		return fmt.Errorf("%w: first and last name are required", ErrInvalidParams)
	case strings.TrimSpace(p.CurrentClass) == "":
		return fmt.Errorf("%w: current class is required", ErrInvalidParams)
	case p.DateOfBirth.IsZero() || p.AdmissionDate.IsZero():
		return fmt.Errorf("%w: date of birth and admission date are required", ErrInvalidParams)
	case p.AdmissionDate.Before(p.DateOfBirth):
		return fmt.Errorf("%w: admission date precedes date of birth", ErrInvalidParams)
	}
	return nil
}

func (p Params) apply(st *Student) {
	st.AdmissionNumber = strings.TrimSpace(p.AdmissionNumber)
	st.FirstName = strings.TrimSpace(p.FirstName)
	st.LastName = strings.TrimSpace(p.LastName)
	st.DateOfBirth = p.DateOfBirth.UTC()
	st.Gender = p.Gender
	st.ContactNumber = p.ContactNumber
	st.EmailAddress = strings.TrimSpace(p.EmailAddress)
	st.Address = p.Address
	st.AdmissionDate = p.AdmissionDate.UTC()
	st.CurrentClass = strings.TrimSpace(p.CurrentClass)
	st.Section = p.Section
}

func (f ListFilter) scopes() []datastore.Scope {
	var out []datastore.Scope
	if f.CurrentClass != "" {
		class := f.CurrentClass
		out = append(out, func(db *gorm.DB) *gorm.DB { return db.Where("current_class = ?", class) })
	}
	if f.Section != "" {
		section := f.Section
		out = append(out, func(db *gorm.DB) *gorm.DB { return db.Where("section = ?", section) })
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		out = append(out, func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(admission_number) LIKE ?", like, like, like)
		})
	}
	return out
}
