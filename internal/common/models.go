package common

import "time"

// BaseEntity carries the tenant and audit columns every tenant-scoped table has.
// TenantID and the Created* fields are stamped on insert and never rewritten.
// Deletes set IsDeleted and the Deleted* fields instead of removing the row.
type BaseEntity struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	TenantID   string     `json:"tenantId" gorm:"size:36;not null;index"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	CreatedBy  string     `json:"createdBy" gorm:"size:100;not null"`
	ModifiedAt *time.Time `json:"modifiedAt,omitempty"`
	ModifiedBy *string    `json:"modifiedBy,omitempty" gorm:"size:100"`
	IsDeleted  bool       `json:"-" gorm:"not null;index"`
	DeletedAt  *time.Time `json:"-"`
	DeletedBy  *string    `json:"-" gorm:"size:100"`
}

// Base exposes the embedded audit columns.
func (b *BaseEntity) Base() *BaseEntity {
	return b
}

// Entity is implemented by any model embedding BaseEntity.
type Entity interface {
	Base() *BaseEntity
}

// Audit column names
const (
	ColumnID         = "id"
	ColumnTenantID   = "tenant_id"
	ColumnCreatedAt  = "created_at"
	ColumnCreatedBy  = "created_by"
	ColumnModifiedAt = "modified_at"
	ColumnModifiedBy = "modified_by"
	ColumnIsDeleted  = "is_deleted"
	ColumnDeletedAt  = "deleted_at"
	ColumnDeletedBy  = "deleted_by"
)

// ImmutableColumns are never written by an update.
var ImmutableColumns = []string{
	ColumnID, ColumnTenantID, ColumnCreatedAt, ColumnCreatedBy,
	ColumnIsDeleted, ColumnDeletedAt, ColumnDeletedBy,
}
