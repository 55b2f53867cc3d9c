package datastore

import (
	"reflect"
	"time"

	"edusuite/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// stampCreate sets id, tenant and creator on every row being inserted.
// Caller supplied tenant and audit values are overwritten.
func (p *Plugin) stampCreate(db *gorm.DB) {
	if !p.applies(db) {
		return
	}
	ctx := db.Statement.Context
	tenantID := p.opts.TenantID(ctx)
	actor := p.opts.ActorID(ctx)
	now := p.opts.Now()

	eachEntity(db.Statement.ReflectValue, func(b *common.BaseEntity) {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.TenantID = tenantID
		b.CreatedAt = now
		b.CreatedBy = actor
		b.ModifiedAt = nil
		b.ModifiedBy = nil
		b.IsDeleted = false
		b.DeletedAt = nil
		b.DeletedBy = nil
	})

	if c, ok := db.Statement.Clauses["ON CONFLICT"]; ok {
		if onConflict, ok := c.Expression.(clause.OnConflict); ok {
			p.guardUpsert(db.Statement, onConflict, now, actor)
		}
	}
}

// guardUpsert confines the DO UPDATE branch of an upsert, including the one
// gorm's Save falls back to, to a live row of the current tenant and keeps
// immutable columns out of its SET list. UpdateAll is expanded here because
// gorm would otherwise expand it later over every column.
func (p *Plugin) guardUpsert(stmt *gorm.Statement, onConflict clause.OnConflict, now time.Time, actor string) {
	if onConflict.DoNothing {
		return
	}

	immutable := make(map[string]bool, len(common.ImmutableColumns)+2)
	for _, col := range common.ImmutableColumns {
		immutable[col] = true
	}
	immutable[common.ColumnModifiedAt] = true
	immutable[common.ColumnModifiedBy] = true

	updates := make(clause.Set, 0, len(onConflict.DoUpdates)+2)
	for _, a := range onConflict.DoUpdates {
		if !immutable[a.Column.Name] {
			updates = append(updates, a)
		}
	}
	if onConflict.UpdateAll {
		selected, restricted := stmt.SelectAndOmitColumns(true, true)
		columns := make([]string, 0, len(stmt.Schema.DBNames))
		for _, name := range stmt.Schema.DBNames {
			field := stmt.Schema.LookUpField(name)
			if field == nil || field.PrimaryKey || immutable[name] || field.AutoCreateTime > 0 {
				continue
			}
			if v, ok := selected[name]; (ok && v) || (!ok && !restricted) {
				columns = append(columns, name)
			}
		}
		updates = append(updates, clause.AssignmentColumns(columns)...)
		onConflict.UpdateAll = false
	}

	if len(updates) == 0 {
		onConflict.DoUpdates = nil
		onConflict.DoNothing = true
		stmt.AddClause(onConflict)
		return
	}
	onConflict.DoUpdates = append(updates,
		clause.Assignment{Column: clause.Column{Name: common.ColumnModifiedAt}, Value: now},
		clause.Assignment{Column: clause.Column{Name: common.ColumnModifiedBy}, Value: actor},
	)
	if len(onConflict.Columns) == 0 && onConflict.OnConstraint == "" {
		for _, name := range stmt.Schema.PrimaryFieldDBNames {
			onConflict.Columns = append(onConflict.Columns, clause.Column{Name: name})
		}
	}

	guard := []clause.Expression{
		clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: common.ColumnIsDeleted}, Value: false},
	}
	if !IsolationBypassed(stmt.Context) {
		guard = append([]clause.Expression{
			clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: common.ColumnTenantID}, Value: p.opts.TenantID(stmt.Context)},
		}, guard...)
	}
	onConflict.Where.Exprs = append(onConflict.Where.Exprs, guard...)
	stmt.AddClause(onConflict)
}

// stampUpdate sets the modification stamp and keeps creation, tenant and
// deletion columns out of the SET list.
func (p *Plugin) stampUpdate(db *gorm.DB) {
	if !p.applies(db) {
		return
	}
	stmt := db.Statement
	actor := p.opts.ActorID(stmt.Context)
	now := p.opts.Now()

	stmt.Omits = append(stmt.Omits, common.ImmutableColumns...)
	if len(stmt.Selects) > 0 {
		stmt.Selects = append(stmt.Selects, common.ColumnModifiedAt, common.ColumnModifiedBy)
	}
	stmt.SetColumn(common.ColumnModifiedAt, &now, true)
	stmt.SetColumn(common.ColumnModifiedBy, &actor, true)
}

// softDelete rewrites DELETE into UPDATE ... SET is_deleted = true, deleted_at,
// deleted_by. The SQL is built here so gorm:delete only executes it.
func (p *Plugin) softDelete(db *gorm.DB) {
	if !p.applies(db) || db.Statement.SQL.Len() > 0 {
		return
	}
	stmt := db.Statement
	actor := p.opts.ActorID(stmt.Context)
	now := p.opts.Now()

	stmt.AddClause(clause.Set{
		{Column: clause.Column{Name: common.ColumnIsDeleted}, Value: true},
		{Column: clause.Column{Name: common.ColumnDeletedAt}, Value: now},
		{Column: clause.Column{Name: common.ColumnDeletedBy}, Value: actor},
	})

	addPrimaryKeyConditions(stmt, stmt.ReflectValue)
	if stmt.Model != nil && stmt.Dest != stmt.Model {
		addPrimaryKeyConditions(stmt, reflect.Indirect(reflect.ValueOf(stmt.Model)))
	}

	if _, ok := stmt.Clauses["WHERE"]; !ok && !stmt.AllowGlobalUpdate {
		db.AddError(gorm.ErrMissingWhereClause)
		return
	}
	p.addPredicate(stmt)
	if IsolationBypassed(stmt.Context) {
		// keep the first deletion stamp
		stmt.AddClause(clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: common.ColumnIsDeleted}, Value: false},
		}})
	}

	stmt.AddClauseIfNotExists(clause.Update{})
	stmt.Build(stmt.DB.Callback().Update().Clauses...)

	if stmt.ReflectValue.CanAddr() {
		eachEntity(stmt.ReflectValue, func(b *common.BaseEntity) {
			b.IsDeleted = true
			b.DeletedAt = &now
			b.DeletedBy = &actor
		})
	}
}

func addPrimaryKeyConditions(stmt *gorm.Statement, rv reflect.Value) {
	if stmt.Schema == nil || (rv.Kind() != reflect.Struct && rv.Kind() != reflect.Slice) {
		return
	}
	_, values := schema.GetIdentityFieldValuesMap(stmt.Context, rv, stmt.Schema.PrimaryFields)
	column, inValues := schema.ToQueryValues(stmt.Table, stmt.Schema.PrimaryFieldDBNames, values)
	if len(inValues) > 0 {
		stmt.AddClause(clause.Where{Exprs: []clause.Expression{clause.IN{Column: column, Values: inValues}}})
	}
}

// eachEntity calls fn for the entity or every element of a slice of entities.
func eachEntity(rv reflect.Value, fn func(*common.BaseEntity)) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			eachEntity(reflect.Indirect(rv.Index(i)), fn)
		}
	case reflect.Struct:
		if !rv.CanAddr() {
			return
		}
		if e, ok := rv.Addr().Interface().(common.Entity); ok {
			fn(e.Base())
		}
	}
}
