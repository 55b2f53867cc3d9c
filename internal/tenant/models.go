package tenant

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// StorageProvider identifies the blob backend a tenant's files live in.
type StorageProvider string

const (
	ProviderAzureBlob       StorageProvider = "AzureBlob"
	ProviderLocalFileSystem StorageProvider = "LocalFileSystem"
	ProviderS3              StorageProvider = "S3"
)

// Valid reports whether p is a known provider.
func (p StorageProvider) Valid() bool {
	switch p {
	case ProviderAzureBlob, ProviderLocalFileSystem, ProviderS3:
		return true
	}
	return false
}

// DefaultAllowedFileTypes is applied when a tenant is created without an explicit list.
var DefaultAllowedFileTypes = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".jpg", ".jpeg", ".png"}

// FileTypes is a set of file extensions persisted as one comma-joined column.
type FileTypes []string

func (f FileTypes) Value() (driver.Value, error) {
	return strings.Join(f, ","), nil
}

func (f *FileTypes) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("tenant: cannot scan %T into FileTypes", src)
	}

	if raw == "" {
		*f = FileTypes{}
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(FileTypes, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*f = out
	return nil
}

func (FileTypes) GormDataType() string {
	return "text"
}

// StorageSettings is owned by TenantSettings and has no identity of its own.
type StorageSettings struct {
	Provider         StorageProvider `json:"provider" gorm:"size:32;not null"`
	ContainerName    string          `json:"containerName" gorm:"size:63;not null"`
	MaxStorageInMB   int             `json:"maxStorageInMB" gorm:"not null"`
	AllowedFileTypes FileTypes       `json:"allowedFileTypes" gorm:"not null"`
}

// TenantSettings holds per-tenant regional preferences and limits.
type TenantSettings struct {
	TimeZone           string          `json:"timeZone" gorm:"size:64;not null"`
	Locale             string          `json:"locale" gorm:"size:10;not null"`
	CurrencyCode       string          `json:"currencyCode" gorm:"size:3;not null"`
	DateFormat         string          `json:"dateFormat" gorm:"size:32;not null"`
	TimeFormat         string          `json:"timeFormat" gorm:"size:32;not null"`
	UsesDaylightSaving bool            `json:"usesDaylightSaving" gorm:"not null"`
	MaxUsersAllowed    int             `json:"maxUsersAllowed" gorm:"not null"`
	MaxStudentsAllowed int             `json:"maxStudentsAllowed" gorm:"not null"`
	Storage            StorageSettings `json:"storage" gorm:"embedded;embeddedPrefix:storage_"`
}

// DefaultSettings returns the settings applied to a tenant created without any.
// The container name is left empty and generated by the service.
func DefaultSettings() TenantSettings {
	return TenantSettings{
		TimeZone:           "UTC",
		Locale:             "en-US",
		CurrencyCode:       "INR",
		DateFormat:         "dd/MM/yyyy",
		TimeFormat:         "HH:mm:ss",
		UsesDaylightSaving: false,
		MaxUsersAllowed:    100,
		MaxStudentsAllowed: 1000,
		Storage:            DefaultStorageSettings(),
	}
}

// DefaultStorageSettings returns the storage defaults without a container name.
func DefaultStorageSettings() StorageSettings {
	return StorageSettings{
		Provider:         ProviderAzureBlob,
		MaxStorageInMB:   5120,
		AllowedFileTypes: append(FileTypes(nil), DefaultAllowedFileTypes...),
	}
}

// Tenant is an organization sharing the platform. Code is the natural key
// callers send in the tenant header and never changes after creation.
type Tenant struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	Code      string         `json:"code" gorm:"size:50;uniqueIndex;not null"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	IsActive  bool           `json:"isActive" gorm:"not null"`
	IsDeleted bool           `json:"-" gorm:"not null;index"`
	Settings  TenantSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// Clone returns a deep copy so cached records are never shared by reference.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Settings = t.Settings.Clone()
	return &cp
}

// Clone returns a deep copy of s.
func (s TenantSettings) Clone() TenantSettings {
	cp := s
	if s.Storage.AllowedFileTypes != nil {
		cp.Storage.AllowedFileTypes = append(FileTypes(nil), s.Storage.AllowedFileTypes...)
	}
	return cp
}
