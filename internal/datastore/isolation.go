package datastore

import (
	"reflect"

	"edusuite/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const scopedSetting = "tenancy:scoped"

// isolate adds tenant_id = current AND is_deleted = false to reads.
func (p *Plugin) isolate(db *gorm.DB) {
	if !p.applies(db) {
		return
	}
	p.addPredicate(db.Statement)
}

// isolateUpdate confines updates to live rows of the current tenant.
func (p *Plugin) isolateUpdate(db *gorm.DB) {
	if !p.applies(db) {
		return
	}
	stmt := db.Statement
	if _, ok := stmt.Clauses["WHERE"]; !ok && !stmt.AllowGlobalUpdate && !hasPrimaryKey(stmt) {
		// the predicate below would otherwise satisfy gorm's missing-where guard
		db.AddError(gorm.ErrMissingWhereClause)
		return
	}
	p.addPredicate(stmt)
}

// addPredicate is idempotent per statement. The tenant id is read from the
// statement context when the query executes, so an unresolved request
// filters on the empty tenant and sees nothing. A bypassed context gets no
// predicate at all.
func (p *Plugin) addPredicate(stmt *gorm.Statement) {
	if _, done := stmt.Settings.Load(scopedSetting); done {
		return
	}
	stmt.Settings.Store(scopedSetting, true)
	if IsolationBypassed(stmt.Context) {
		return
	}

	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: common.ColumnTenantID}, Value: p.opts.TenantID(stmt.Context)},
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: common.ColumnIsDeleted}, Value: false},
	}})
}

// hasPrimaryKey reports whether the statement model carries a non-zero primary key.
func hasPrimaryKey(stmt *gorm.Statement) bool {
	if stmt.Model == nil || stmt.Schema == nil {
		return false
	}
	rv := reflect.Indirect(reflect.ValueOf(stmt.Model))
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Slice {
		return false
	}
	_, values := schema.GetIdentityFieldValuesMap(stmt.Context, rv, stmt.Schema.PrimaryFields)
	return len(values) > 0
}
