package tenant

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("tenant-id-%d", s.n)
}

func newTestService(t *testing.T) (TenantService, Directory) {
	t.Helper()
	dir := newTestDirectory(t)
	return NewTenantService(dir, &seqIDs{}, nil), dir
}

var generatedContainer = regexp.MustCompile(`^tenant-[0-9a-f]{32}$`)

func TestCreateTenant_Defaults(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTenant(ctx, CreateTenantParams{Code: " ACME ", Name: "Acme Academy"})
	require.NoError(t, err)
	assert.Equal(t, "tenant-id-1", created.ID)
	assert.Equal(t, "ACME", created.Code)
	assert.True(t, created.IsActive)
	assert.Equal(t, "UTC", created.Settings.TimeZone)
	assert.Equal(t, ProviderAzureBlob, created.Settings.Storage.Provider)
	assert.Regexp(t, generatedContainer, created.Settings.Storage.ContainerName)

	stored, err := dir.FindActiveByCode(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, created.Settings, stored.Settings)
}

func TestCreateTenant_ExplicitSettings(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.CreateTenant(context.Background(), CreateTenantParams{
		Code: "BETA",
		Name: "Beta School",
		Settings: &SettingsParams{
			TimeZone:           "Asia/Kolkata",
			Locale:             "hi-IN",
			CurrencyCode:       "usd",
			MaxStudentsAllowed: 50,
			Storage: &StorageParams{
				Provider:         ProviderS3,
				ContainerName:    "beta-files",
				MaxStorageInMB:   2048,
				AllowedFileTypes: []string{"PDF", ".pdf", " .png "},
			},
		},
	})
	require.NoError(t, err)

	s := created.Settings
	assert.Equal(t, "Asia/Kolkata", s.TimeZone)
	assert.Equal(t, "hi-IN", s.Locale)
	assert.Equal(t, "USD", s.CurrencyCode)
	assert.Equal(t, "dd/MM/yyyy", s.DateFormat)
	assert.Equal(t, 100, s.MaxUsersAllowed)
	assert.Equal(t, 50, s.MaxStudentsAllowed)
	assert.Equal(t, ProviderS3, s.Storage.Provider)
	assert.Equal(t, "beta-files", s.Storage.ContainerName)
	assert.Equal(t, 2048, s.Storage.MaxStorageInMB)
	assert.Equal(t, FileTypes{".pdf", ".png"}, s.Storage.AllowedFileTypes)
}

func TestCreateTenant_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params CreateTenantParams
		kind   Kind
	}{
		{"empty code", CreateTenantParams{Code: "  ", Name: "Acme"}, KindTenantCodeEmpty},
		{"short code", CreateTenantParams{Code: "AC", Name: "Acme"}, KindInvalid},
		{"bad code chars", CreateTenantParams{Code: "AC ME", Name: "Acme"}, KindInvalid},
		{"short name", CreateTenantParams{Code: "ACME", Name: "A"}, KindInvalid},
		{"bad time zone", CreateTenantParams{Code: "ACME", Name: "Acme", Settings: &SettingsParams{TimeZone: "Mars"}}, KindInvalid},
		{"bad locale", CreateTenantParams{Code: "ACME", Name: "Acme", Settings: &SettingsParams{Locale: "english"}}, KindInvalid},
		{"too many students", CreateTenantParams{Code: "ACME", Name: "Acme", Settings: &SettingsParams{MaxStudentsAllowed: 20000}}, KindInvalid},
		{"bad provider", CreateTenantParams{Code: "ACME", Name: "Acme", Settings: &SettingsParams{Storage: &StorageParams{Provider: "GCS"}}}, KindInvalid},
		{"bad container", CreateTenantParams{Code: "ACME", Name: "Acme", Settings: &SettingsParams{Storage: &StorageParams{ContainerName: "Upper_Case"}}}, KindInvalid},
		{"storage too small", CreateTenantParams{Code: "ACME", Name: "Acme", Settings: &SettingsParams{Storage: &StorageParams{MaxStorageInMB: 10}}}, KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTenant(ctx, tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}

	all, err := svc.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateTenant_Conflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTenant(ctx, CreateTenantParams{Code: "ACME", Name: "Acme Academy"})
	require.NoError(t, err)

	_, err = svc.CreateTenant(ctx, CreateTenantParams{Code: "ACME", Name: "Other Academy"})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.EqualError(t, err, "Tenant with code ACME already exists")
}

// staleDirectory never reports existing codes, as when two creates race
// past the duplicate check.
type staleDirectory struct {
	Directory
}

func (staleDirectory) Find(context.Context, ...Scope) ([]*Tenant, error) {
	return nil, nil
}

func TestCreateTenant_RacingDuplicateIsConflict(t *testing.T) {
	svc := NewTenantService(staleDirectory{Directory: newTestDirectory(t)}, &seqIDs{}, nil)
	ctx := context.Background()

	_, err := svc.CreateTenant(ctx, CreateTenantParams{Code: "ACME", Name: "Acme Academy"})
	require.NoError(t, err)

	_, err = svc.CreateTenant(ctx, CreateTenantParams{Code: "ACME", Name: "Acme Again"})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestUpdateTenant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTenant(ctx, CreateTenantParams{Code: "ACME", Name: "Acme Academy"})
	require.NoError(t, err)
	container := created.Settings.Storage.ContainerName

	name := "Acme International"
	inactive := false
	updated, err := svc.UpdateTenant(ctx, created.ID, UpdateTenantParams{
		Name:     &name,
		IsActive: &inactive,
		Settings: &SettingsParams{TimeZone: "Europe/London", Storage: &StorageParams{MaxStorageInMB: 4096}},
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Europe/London", updated.Settings.TimeZone)
	assert.Equal(t, 4096, updated.Settings.Storage.MaxStorageInMB)
	assert.Equal(t, container, updated.Settings.Storage.ContainerName)

	// inactive tenants are still reachable by code for administration
	byCode, err := svc.GetTenantByCode(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, name, byCode.Name)

	bad := "x"
	_, err = svc.UpdateTenant(ctx, created.ID, UpdateTenantParams{Name: &bad})
	assert.Equal(t, KindInvalid, KindOf(err))

	_, err = svc.UpdateTenant(ctx, "missing", UpdateTenantParams{Name: &name})
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestDeleteAndLookup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTenant(ctx, CreateTenantParams{Code: "ACME", Name: "Acme Academy"})
	require.NoError(t, err)

	got, err := svc.GetTenant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.Code)

	require.NoError(t, svc.DeleteTenant(ctx, created.ID))
	_, err = svc.GetTenant(ctx, created.ID)
	assert.ErrorIs(t, err, ErrTenantNotFound)
	_, err = svc.GetTenantByCode(ctx, "ACME")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
