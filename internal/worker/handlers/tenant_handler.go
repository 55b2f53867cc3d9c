package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"edusuite/internal/common"
	"edusuite/internal/datastore"
	"edusuite/internal/metrics"
	"edusuite/internal/tenant"
	"edusuite/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantHandler runs tenant maintenance tasks
type TenantHandler struct {
	db        *gorm.DB
	directory tenant.Directory
	cache     tenant.Cache
	entities  []common.Entity
	logger    *zap.Logger
}

// NewTenantHandler creates the handler. entities are the tenant-scoped models
// covered by the soft-delete report.
func NewTenantHandler(db *gorm.DB, directory tenant.Directory, cache tenant.Cache, entities []common.Entity, logger *zap.Logger) *TenantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantHandler{
		db:        db,
		directory: directory,
		cache:     cache,
		entities:  entities,
		logger:    logger,
	}
}

// HandleCacheWarmup loads every active tenant into the resolution cache
func (h *TenantHandler) HandleCacheWarmup(ctx context.Context, t *asynq.Task) error {
	var payload tasks.CacheWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	n, err := tenant.WarmCache(ctx, h.directory, h.cache)
	if err != nil {
		return err
	}
	h.logger.Info("tenant cache warmed", zap.Int("tenants", n), zap.String("requested_by", payload.RequestedBy))
	return nil
}

// SoftDeleteCount soft-deleted rows of one table for one tenant
type SoftDeleteCount struct {
	Table    string `json:"table"`
	TenantID string `json:"tenant_id"`
	Count    int64  `json:"count"`
}

// HandleSoftDeleteReport counts tombstones per tenant across all tenants.
func (h *TenantHandler) HandleSoftDeleteReport(ctx context.Context, t *asynq.Task) error {
	var payload tasks.SoftDeleteReportPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	counts, err := h.SoftDeleteReport(ctx, payload.Tables)
	if err != nil {
		return err
	}
	for _, c := range counts {
		metrics.SoftDeletedRows.WithLabelValues(c.Table, c.TenantID).Set(float64(c.Count))
		h.logger.Info("soft-deleted rows",
			zap.String("table", c.Table),
			zap.String("tenant_id", c.TenantID),
			zap.Int64("count", c.Count),
		)
	}
	return nil
}

// SoftDeleteReport is the cross-tenant query behind HandleSoftDeleteReport.
// It is the only caller of the isolation bypass in the server.
func (h *TenantHandler) SoftDeleteReport(ctx context.Context, tables []string) ([]SoftDeleteCount, error) {
	want := make(map[string]bool, len(tables))
	for _, t := range tables {
		want[t] = true
	}

	adminCtx := datastore.WithoutIsolation(ctx)
	var out []SoftDeleteCount
	for _, model := range h.entities {
		stmt := &gorm.Statement{DB: h.db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		table := stmt.Schema.Table
		if len(want) > 0 && !want[table] {
			continue
		}

		var rows []SoftDeleteCount
		err := h.db.WithContext(adminCtx).
			Model(model).
			Select(common.ColumnTenantID + " AS tenant_id, COUNT(*) AS count").
			Where(common.ColumnIsDeleted+" = ?", true).
			Group(common.ColumnTenantID).
			Order(common.ColumnTenantID).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("count soft deletes in %s: %w", table, err)
		}
		for i := range rows {
			rows[i].Table = table
		}
		out = append(out, rows...)
	}
	return out, nil
}
