package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"edusuite/internal/auth"
	"edusuite/internal/common"
	"edusuite/internal/datastore"
	"edusuite/internal/student"
	"edusuite/internal/tenant"
	"edusuite/internal/worker/tasks"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type tenantCtxKey struct{}

func asTenant(id string) context.Context {
	return context.WithValue(context.Background(), tenantCtxKey{}, id)
}

func setupHandler(t *testing.T) (*TenantHandler, *gorm.DB, *tenant.MemoryCache) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Use(datastore.New(datastore.Options{
		TenantID: func(ctx context.Context) string {
			id, _ := ctx.Value(tenantCtxKey{}).(string)
			return id
		},
		ActorID: auth.ActorResolver("system"),
	})))
	require.NoError(t, db.AutoMigrate(&tenant.Tenant{}, &student.Student{}))

	dir := tenant.NewDirectory(db)
	cache := tenant.NewMemoryCache(time.Minute)
	h := NewTenantHandler(db, dir, cache, []common.Entity{&student.Student{}}, nil)
	return h, db, cache
}

func addStudent(t *testing.T, db *gorm.DB, ctx context.Context, admission string) *student.Student {
	t.Helper()
	st := &student.Student{
		AdmissionNumber: admission,
		FirstName:       "Ravi",
		LastName:        "Shah",
		DateOfBirth:     time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		AdmissionDate:   time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
		CurrentClass:    "7",
	}
	require.NoError(t, db.WithContext(ctx).Create(st).Error)
	return st
}

func TestSoftDeleteReport(t *testing.T) {
	h, db, _ := setupHandler(t)
	t1, t2 := asTenant("T1"), asTenant("T2")

	a := addStudent(t, db, t1, "A1")
	b := addStudent(t, db, t1, "A2")
	addStudent(t, db, t1, "A3")
	c := addStudent(t, db, t2, "B1")

	require.NoError(t, db.WithContext(t1).Delete(a).Error)
	require.NoError(t, db.WithContext(t1).Delete(b).Error)
	require.NoError(t, db.WithContext(t2).Delete(c).Error)

	counts, err := h.SoftDeleteReport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []SoftDeleteCount{
		{Table: "students", TenantID: "T1", Count: 2},
		{Table: "students", TenantID: "T2", Count: 1},
	}, counts)

	counts, err = h.SoftDeleteReport(context.Background(), []string{"other_table"})
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestHandleSoftDeleteReport(t *testing.T) {
	h, db, _ := setupHandler(t)
	st := addStudent(t, db, asTenant("T1"), "A1")
	require.NoError(t, db.WithContext(asTenant("T1")).Delete(st).Error)

	payload, err := json.Marshal(tasks.SoftDeleteReportPayload{RequestedBy: "scheduler", Tables: []string{"students"}})
	require.NoError(t, err)
	assert.NoError(t, h.HandleSoftDeleteReport(context.Background(), asynq.NewTask(tasks.TypeSoftDeleteReport, payload)))

	err = h.HandleSoftDeleteReport(context.Background(), asynq.NewTask(tasks.TypeSoftDeleteReport, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleCacheWarmup(t *testing.T) {
	h, _, cache := setupHandler(t)
	ctx := context.Background()

	settings := tenant.DefaultSettings()
	settings.Storage.ContainerName = "tenant-acme"
	require.NoError(t, h.directory.Insert(ctx, &tenant.Tenant{ID: "t-acme", Code: "ACME", Name: "Acme", IsActive: true, Settings: settings}))
	require.NoError(t, h.directory.Insert(ctx, &tenant.Tenant{ID: "t-gone", Code: "GONE", Name: "Gone", Settings: settings}))

	payload, err := json.Marshal(tasks.CacheWarmupPayload{RequestedBy: "admin"})
	require.NoError(t, err)
	require.NoError(t, h.HandleCacheWarmup(ctx, asynq.NewTask(tasks.TypeTenantCacheWarmup, payload)))

	got, ok := cache.Get(ctx, "ACME")
	require.True(t, ok)
	assert.Equal(t, "t-acme", got.ID)
	_, ok = cache.Get(ctx, "GONE")
	assert.False(t, ok)

	err = h.HandleCacheWarmup(ctx, asynq.NewTask(tasks.TypeTenantCacheWarmup, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
