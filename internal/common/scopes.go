package common

import "gorm.io/gorm"

// NotDeleted excludes soft-deleted rows.
// usage: db.Scopes(common.NotDeleted()).Find(&tenants)
func NotDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(ColumnIsDeleted+" = ?", false)
	}
}

// OnlyDeleted selects soft-deleted rows only. Tenant-scoped tables need an
// isolation bypass for this to return anything.
func OnlyDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(ColumnIsDeleted+" = ?", true)
	}
}

// ByTenant filters on tenant_id
func ByTenant(tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(ColumnTenantID+" = ?", tenantID)
	}
}

// ActiveOnly filters on is_active
func ActiveOnly() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true)
	}
}

// Paginate applies offset and limit, clamping page size to [1, 100]
func Paginate(req PaginationRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.GetOffset()).Limit(req.GetPageSize())
	}
}
