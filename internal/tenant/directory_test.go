package tenant

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormLogger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Tenant{}))
	return db
}

func newTestDirectory(t *testing.T) Directory {
	return NewDirectory(newTestDB(t))
}

func TestDirectory_FindActiveByCode(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	dir := NewDirectory(db)

	require.NoError(t, dir.Insert(ctx, sampleTenant("ACME")))
	gone := sampleTenant("GONE")
	gone.IsActive = false
	require.NoError(t, dir.Insert(ctx, gone))
	dead := sampleTenant("DEAD")
	require.NoError(t, dir.Insert(ctx, dead))
	require.NoError(t, db.Model(&Tenant{}).Where("id = ?", dead.ID).Update("is_deleted", true).Error)

	got, err := dir.FindActiveByCode(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "id-ACME", got.ID)
	assert.Equal(t, sampleTenant("ACME").Settings, got.Settings)

	for _, code := range []string{"GONE", "DEAD", "acme", "NOPE"} {
		_, err := dir.FindActiveByCode(ctx, code)
		assert.ErrorIs(t, err, ErrTenantNotFound, code)
	}
}

func TestDirectory_CRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	dir := NewDirectory(db)

	require.NoError(t, dir.Insert(ctx, sampleTenant("BETA")))
	require.NoError(t, dir.Insert(ctx, sampleTenant("ACME")))

	all, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ACME", all[0].Code)

	got, err := dir.GetByID(ctx, "id-BETA")
	require.NoError(t, err)
	got.Name = "Beta Academy"
	got.IsActive = false
	got.Code = "RENAMED"
	require.NoError(t, dir.Update(ctx, got))

	again, err := dir.GetByID(ctx, "id-BETA")
	require.NoError(t, err)
	assert.Equal(t, "Beta Academy", again.Name)
	assert.False(t, again.IsActive)
	assert.Equal(t, "BETA", again.Code)

	assert.ErrorIs(t, dir.Update(ctx, &Tenant{ID: "missing", Code: "X"}), ErrTenantNotFound)

	require.NoError(t, dir.Delete(ctx, "id-BETA"))
	_, err = dir.GetByID(ctx, "id-BETA")
	assert.ErrorIs(t, err, ErrTenantNotFound)

	// removal is physical
	var count int64
	require.NoError(t, db.Model(&Tenant{}).Where("id = ?", "id-BETA").Count(&count).Error)
	assert.Zero(t, count)
}

func TestDirectory_InsertDuplicateCodeIsConflict(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(t)
	require.NoError(t, dir.Insert(ctx, sampleTenant("ACME")))

	dup := sampleTenant("ACME")
	dup.ID = "another-id"
	err := dir.Insert(ctx, dup)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.EqualError(t, err, "Tenant with code ACME already exists")
}
