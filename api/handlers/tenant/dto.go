package tenant

import (
	tenantSvc "edusuite/internal/tenant"
)

// StorageRequest storage settings in a request body; omitted fields take defaults.
type StorageRequest struct {
	Provider         string   `json:"provider"`
	ContainerName    string   `json:"containerName"`
	MaxStorageInMB   int      `json:"maxStorageInMB"`
	AllowedFileTypes []string `json:"allowedFileTypes"`
}

// SettingsRequest tenant settings in a request body
type SettingsRequest struct {
	TimeZone           string          `json:"timeZone"`
	Locale             string          `json:"locale"`
	CurrencyCode       string          `json:"currencyCode"`
	DateFormat         string          `json:"dateFormat"`
	TimeFormat         string          `json:"timeFormat"`
	UsesDaylightSaving bool            `json:"usesDaylightSaving"`
	MaxUsersAllowed    int             `json:"maxUsersAllowed"`
	MaxStudentsAllowed int             `json:"maxStudentsAllowed"`
	Storage            *StorageRequest `json:"storage"`
}

// CreateTenantRequest body of POST /api/tenants
type CreateTenantRequest struct {
	Code     string           `json:"code" binding:"required"`
	Name     string           `json:"name" binding:"required"`
	Settings *SettingsRequest `json:"settings"`
}

// UpdateTenantRequest body of PUT /api/tenants/:id
type UpdateTenantRequest struct {
	Name     *string          `json:"name"`
	IsActive *bool            `json:"isActive"`
	Settings *SettingsRequest `json:"settings"`
}

// WarmupResponse body of POST /api/tenants/cache/warmup
type WarmupResponse struct {
	Status string `json:"status"`
}

func (r *SettingsRequest) toParams() *tenantSvc.SettingsParams {
	if r == nil {
		return nil
	}
	p := &tenantSvc.SettingsParams{
		TimeZone:           r.TimeZone,
		Locale:             r.Locale,
		CurrencyCode:       r.CurrencyCode,
		DateFormat:         r.DateFormat,
		TimeFormat:         r.TimeFormat,
		UsesDaylightSaving: r.UsesDaylightSaving,
		MaxUsersAllowed:    r.MaxUsersAllowed,
		MaxStudentsAllowed: r.MaxStudentsAllowed,
	}
	if r.Storage != nil {
		p.Storage = &tenantSvc.StorageParams{
			Provider:         tenantSvc.StorageProvider(r.Storage.Provider),
			ContainerName:    r.Storage.ContainerName,
			MaxStorageInMB:   r.Storage.MaxStorageInMB,
			AllowedFileTypes: r.Storage.AllowedFileTypes,
		}
	}
	return p
}
