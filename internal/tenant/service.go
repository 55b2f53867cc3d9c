package tenant

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IDGenerator abstracts ID generation so tests can pin ids.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// TenantService manages tenant records. It writes to the directory only; cached
// resolutions keep serving the previous record until their TTL elapses.
type TenantService interface {
	CreateTenant(ctx context.Context, params CreateTenantParams) (*Tenant, error)
	UpdateTenant(ctx context.Context, id string, params UpdateTenantParams) (*Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	GetTenantByCode(ctx context.Context, code string) (*Tenant, error)
	ListTenants(ctx context.Context) ([]*Tenant, error)
}

// StorageParams input for StorageSettings; zero fields take defaults.
type StorageParams struct {
	Provider         StorageProvider
	ContainerName    string
	MaxStorageInMB   int
	AllowedFileTypes []string
}

// SettingsParams input for TenantSettings; zero fields take defaults.
type SettingsParams struct {
	TimeZone           string
	Locale             string
	CurrencyCode       string
	DateFormat         string
	TimeFormat         string
	UsesDaylightSaving bool
	MaxUsersAllowed    int
	MaxStudentsAllowed int
	Storage            *StorageParams
}

// CreateTenantParams inputs for a new tenant.
type CreateTenantParams struct {
	Code     string
	Name     string
	Settings *SettingsParams
}

// UpdateTenantParams inputs for an update; nil fields are left unchanged.
// The code cannot be changed.
type UpdateTenantParams struct {
	Name     *string
	IsActive *bool
	Settings *SettingsParams
}

type tenantService struct {
	directory Directory
	ids       IDGenerator
	logger    *zap.Logger
}

// NewTenantService constructs a TenantService. ids may be nil.
func NewTenantService(directory Directory, ids IDGenerator, logger *zap.Logger) TenantService {
	if ids == nil {
		ids = uuidGenerator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tenantService{directory: directory, ids: ids, logger: logger}
}

func (s *tenantService) CreateTenant(ctx context.Context, params CreateTenantParams) (*Tenant, error) {
	params.Code = strings.TrimSpace(params.Code)
	params.Name = strings.TrimSpace(params.Name)
	if err := validateCode(params.Code); err != nil {
		return nil, err
	}
	if err := validateName(params.Name); err != nil {
		return nil, err
	}

	existing, err := s.directory.Find(ctx, ByCode(params.Code))
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, conflictCode(params.Code)
	}

	settings := s.buildSettings(params.Settings, "")
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	t := &Tenant{
		ID:       s.ids.NewID(),
		Code:     params.Code,
		Name:     params.Name,
		IsActive: true,
		Settings: settings,
	}
	if err := s.directory.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tenant created", zap.String("tenant_id", t.ID), zap.String("code", t.Code))
	return t, nil
}

func (s *tenantService) UpdateTenant(ctx context.Context, id string, params UpdateTenantParams) (*Tenant, error) {
	t, err := s.directory.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		t.Name = name
	}
	if params.IsActive != nil {
		t.IsActive = *params.IsActive
	}
	if params.Settings != nil {
		settings := s.buildSettings(params.Settings, t.Settings.Storage.ContainerName)
		if err := validateSettings(settings); err != nil {
			return nil, err
		}
		t.Settings = settings
	}

	if err := s.directory.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tenant updated", zap.String("tenant_id", t.ID), zap.String("code", t.Code))
	return t, nil
}

func (s *tenantService) DeleteTenant(ctx context.Context, id string) error {
	if err := s.directory.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("tenant deleted", zap.String("tenant_id", id))
	return nil
}

func (s *tenantService) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	return s.directory.GetByID(ctx, id)
}

// GetTenantByCode looks the code up in the directory regardless of the active flag.
func (s *tenantService) GetTenantByCode(ctx context.Context, code string) (*Tenant, error) {
	found, err := s.directory.Find(ctx, ByCode(code))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrTenantNotFound
	}
	return found[0], nil
}

func (s *tenantService) ListTenants(ctx context.Context) ([]*Tenant, error) {
	return s.directory.List(ctx)
}

// buildSettings fills omitted values from DefaultSettings. An empty container
// name keeps currentContainer or, when that is empty too, gets a generated one.
func (s *tenantService) buildSettings(p *SettingsParams, currentContainer string) TenantSettings {
	out := DefaultSettings()
	if p != nil {
		out.TimeZone = orDefault(p.TimeZone, out.TimeZone)
		out.Locale = orDefault(p.Locale, out.Locale)
		out.CurrencyCode = strings.ToUpper(orDefault(p.CurrencyCode, out.CurrencyCode))
		out.DateFormat = orDefault(p.DateFormat, out.DateFormat)
		out.TimeFormat = orDefault(p.TimeFormat, out.TimeFormat)
		out.UsesDaylightSaving = p.UsesDaylightSaving
		if p.MaxUsersAllowed != 0 {
			out.MaxUsersAllowed = p.MaxUsersAllowed
		}
		if p.MaxStudentsAllowed != 0 {
			out.MaxStudentsAllowed = p.MaxStudentsAllowed
		}
		if sp := p.Storage; sp != nil {
			if sp.Provider != "" {
				out.Storage.Provider = sp.Provider
			}
			out.Storage.ContainerName = sp.ContainerName
			if sp.MaxStorageInMB != 0 {
				out.Storage.MaxStorageInMB = sp.MaxStorageInMB
			}
			if len(sp.AllowedFileTypes) > 0 {
				out.Storage.AllowedFileTypes = normalizeFileTypes(sp.AllowedFileTypes)
			}
		}
	}

	if out.Storage.ContainerName == "" {
		out.Storage.ContainerName = currentContainer
	}
	if out.Storage.ContainerName == "" {
		out.Storage.ContainerName = newContainerName()
	}
	return out
}

// newContainerName returns tenant-<32 hex digits>, valid for blob and bucket naming.
func newContainerName() string {
	return "tenant-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func normalizeFileTypes(in []string) FileTypes {
	out := make(FileTypes, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, ext := range in {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

var (
	codePattern      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	timeZonePattern  = regexp.MustCompile(`^(UTC|[A-Za-z]+/[A-Za-z_]+)$`)
	localePattern    = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)
	currencyPattern  = regexp.MustCompile(`^[A-Z]{3}$`)
	containerPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

func validateCode(code string) error {
	if code == "" {
		return ErrTenantCodeEmpty
	}
	if n := len(code); n < 3 || n > 50 {
		return invalidf("Tenant code must be between 3 and 50 characters")
	}
	if !codePattern.MatchString(code) {
		return invalidf("Tenant code can only contain letters, numbers, hyphens and underscores")
	}
	return nil
}

func validateName(name string) error {
	if n := len([]rune(name)); n < 3 || n > 100 {
		return invalidf("Tenant name must be between 3 and 100 characters")
	}
	return nil
}

func validateSettings(s TenantSettings) error {
	switch {
	case !timeZonePattern.MatchString(s.TimeZone):
		return invalidf("Invalid time zone format: %s", s.TimeZone)
	case !localePattern.MatchString(s.Locale):
		return invalidf("Invalid locale format: %s", s.Locale)
	case !currencyPattern.MatchString(s.CurrencyCode):
		return invalidf("Currency code must be 3 letters")
	case s.MaxUsersAllowed < 1 || s.MaxUsersAllowed > 1000:
		return invalidf("Max users must be between 1 and 1000")
	case s.MaxStudentsAllowed < 1 || s.MaxStudentsAllowed > 10000:
		return invalidf("Max students must be between 1 and 10000")
	}

	st := s.Storage
	switch {
	case !st.Provider.Valid():
		return invalidf("Unknown storage provider: %s", st.Provider)
	case len(st.ContainerName) < 3 || len(st.ContainerName) > 63:
		return invalidf("Container name must be between 3 and 63 characters")
	case !containerPattern.MatchString(st.ContainerName):
		return invalidf("Container name can only contain lowercase letters, numbers and hyphens")
	case st.MaxStorageInMB < 1024 || st.MaxStorageInMB > 10240:
		return invalidf("Max storage must be between 1024 and 10240 MB")
	case len(st.AllowedFileTypes) == 0:
		return invalidf("At least one allowed file type is required")
	}
	return nil
}
