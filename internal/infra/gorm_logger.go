package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edusuite/internal/config"
	"edusuite/internal/datastore"
	"edusuite/internal/logger"

	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

// SQLLogger writes gorm statements to zap with the request and tenant fields
// of the statement context. Statements issued through datastore.WithoutIsolation
// are tagged so cross-tenant reads stand out in the logs.
type SQLLogger struct {
	Base          *zap.Logger
	Level         gormLogger.LogLevel
	SlowThreshold time.Duration
}

// NewSQLLogger builds the gorm logger for cfg.
func NewSQLLogger(base *zap.Logger, cfg *config.DatabaseConfig) *SQLLogger {
	return &SQLLogger{
		Base:          base.Named("sql"),
		Level:         sqlLogLevel(cfg),
		SlowThreshold: time.Duration(cfg.SlowThreshold) * time.Millisecond,
	}
}

// sqlLogLevel honors database.log_level and otherwise logs every statement
// only for local setups.
func sqlLogLevel(cfg *config.DatabaseConfig) gormLogger.LogLevel {
	switch strings.ToLower(cfg.LogLevel) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "warn":
		return gormLogger.Warn
	case "info":
		return gormLogger.Info
	}
	if cfg.Driver == "sqlite" || cfg.SSLMode == "disable" {
		return gormLogger.Info
	}
	return gormLogger.Warn
}

func (l *SQLLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	clone := *l
	clone.Level = level
	return &clone
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormLogger.Info {
		l.forContext(ctx).Info(fmt.Sprintf(msg, data...))
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormLogger.Warn {
		l.forContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormLogger.Error {
		l.forContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs failures and slow statements at their own level and everything
// else at debug. A missing record is expected on tenant lookups and is not an error.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormLogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	log := l.forContext(ctx).With(
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	)

	switch {
	case err != nil && !errors.Is(err, gormLogger.ErrRecordNotFound) && l.Level >= gormLogger.Error:
		log.Error("sql error", zap.Error(err))
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.Level >= gormLogger.Warn:
		log.Warn("slow sql", zap.Duration("threshold", l.SlowThreshold))
	case l.Level >= gormLogger.Info:
		log.Debug("sql")
	}
}

func (l *SQLLogger) forContext(ctx context.Context) *zap.Logger {
	log := logger.WithContext(ctx, l.Base)
	if datastore.IsolationBypassed(ctx) {
		log = log.With(zap.Bool("isolation_bypassed", true))
	}
	return log
}
