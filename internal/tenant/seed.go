package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout of a tenant seed file:
//
//	tenants:
//	  - code: acme
//	    name: Acme Academy
//	    settings:
//	      timeZone: Asia/Kolkata
//	      storage:
//	        provider: S3
type SeedFile struct {
	Tenants []SeedTenant `yaml:"tenants"`
}

type SeedTenant struct {
	Code     string        `yaml:"code"`
	Name     string        `yaml:"name"`
	Inactive bool          `yaml:"inactive"`
	Settings *SeedSettings `yaml:"settings"`
}

type SeedSettings struct {
	TimeZone           string       `yaml:"timeZone"`
	Locale             string       `yaml:"locale"`
	CurrencyCode       string       `yaml:"currencyCode"`
	DateFormat         string       `yaml:"dateFormat"`
	TimeFormat         string       `yaml:"timeFormat"`
	UsesDaylightSaving bool         `yaml:"usesDaylightSaving"`
	MaxUsersAllowed    int          `yaml:"maxUsersAllowed"`
	MaxStudentsAllowed int          `yaml:"maxStudentsAllowed"`
	Storage            *SeedStorage `yaml:"storage"`
}

type SeedStorage struct {
	Provider         string   `yaml:"provider"`
	ContainerName    string   `yaml:"containerName"`
	MaxStorageInMB   int      `yaml:"maxStorageInMB"`
	AllowedFileTypes []string `yaml:"allowedFileTypes"`
}

// ParseSeed decodes a seed document.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse tenant seed: %w", err)
	}
	return &f, nil
}

// SeedFromFile creates every tenant listed in path through svc. Codes that
// already exist are skipped. It returns the number of tenants created.
func SeedFromFile(ctx context.Context, svc TenantService, path string, logger *zap.Logger) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open tenant seed: %w", err)
	}
	defer fh.Close()

	f, err := ParseSeed(fh)
	if err != nil {
		return 0, err
	}
	return Seed(ctx, svc, f, logger)
}

// Seed applies f through svc.
func Seed(ctx context.Context, svc TenantService, f *SeedFile, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	created := 0
	for _, st := range f.Tenants {
		t, err := svc.CreateTenant(ctx, CreateTenantParams{
			Code:     st.Code,
			Name:     st.Name,
			Settings: st.Settings.params(),
		})
		if KindOf(err) == KindConflict {
			logger.Debug("seed tenant exists", zap.String("code", st.Code))
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed tenant %q: %w", st.Code, err)
		}
		if st.Inactive {
			inactive := false
			if _, err := svc.UpdateTenant(ctx, t.ID, UpdateTenantParams{IsActive: &inactive}); err != nil {
				return created, fmt.Errorf("deactivate seed tenant %q: %w", st.Code, err)
			}
		}
		created++
	}
	logger.Info("tenant seed applied", zap.Int("created", created), zap.Int("listed", len(f.Tenants)))
	return created, nil
}

func (s *SeedSettings) params() *SettingsParams {
	if s == nil {
		return nil
	}
	p := &SettingsParams{
		TimeZone:           s.TimeZone,
		Locale:             s.Locale,
		CurrencyCode:       s.CurrencyCode,
		DateFormat:         s.DateFormat,
		TimeFormat:         s.TimeFormat,
		UsesDaylightSaving: s.UsesDaylightSaving,
		MaxUsersAllowed:    s.MaxUsersAllowed,
		MaxStudentsAllowed: s.MaxStudentsAllowed,
	}
	if s.Storage != nil {
		p.Storage = &StorageParams{
			Provider:         StorageProvider(s.Storage.Provider),
			ContainerName:    s.Storage.ContainerName,
			MaxStorageInMB:   s.Storage.MaxStorageInMB,
			AllowedFileTypes: s.Storage.AllowedFileTypes,
		}
	}
	return p
}
