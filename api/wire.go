package api

import (
	"context"
	"fmt"
	"strings"

	studentHandlers "edusuite/api/handlers/student"
	tenantHandlers "edusuite/api/handlers/tenant"
	"edusuite/internal/auth"
	"edusuite/internal/common"
	"edusuite/internal/config"
	"edusuite/internal/datastore"
	"edusuite/internal/infra"
	"edusuite/internal/infra/queue"
	middlewarepkg "edusuite/internal/middleware"
	"edusuite/internal/student"
	tenantSvc "edusuite/internal/tenant"
	"edusuite/internal/worker"
	workerHandlers "edusuite/internal/worker/handlers"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScopedEntities lists every tenant-scoped model. New models must be added
// here so they are validated, migrated and covered by the soft-delete report.
func ScopedEntities() []common.Entity {
	return []common.Entity{
		&student.Student{},
	}
}

// AppContainer holds the wired services
type AppContainer struct {
	// infrastructure
	DB          *gorm.DB
	Config      *config.Config
	Logger      *zap.Logger
	RedisClient redis.UniversalClient
	QueueClient queue.Client

	JWTService *auth.JWTService

	// tenancy
	Directory     tenantSvc.Directory
	TenantCache   tenantSvc.Cache
	TenantService tenantSvc.TenantService

	StudentService student.Service

	TenantTasks  *workerHandlers.TenantHandler
	WorkerServer *worker.Server

	limiters []*middlewarepkg.RateLimiter
}

// Handlers HTTP handlers
type Handlers struct {
	Tenant  *tenantHandlers.TenantHandler
	Student *studentHandlers.StudentHandler
}

// InstallTenancy registers the isolation plugin on db, validates the scoped
// models and, when enabled, migrates the schema. It must run before any
// tenant-scoped query.
func InstallTenancy(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	plugin := datastore.New(datastore.Options{
		TenantID: tenantSvc.CurrentTenantID,
		ActorID:  auth.ActorResolver(cfg.Auth.DefaultActor),
		Logger:   log,
	})
	if err := db.Use(plugin); err != nil {
		return fmt.Errorf("install tenancy plugin: %w", err)
	}

	entities := ScopedEntities()
	if err := plugin.RegisterEntities(db, entities...); err != nil {
		return err
	}

	if !cfg.Database.AutoMigrate {
		return nil
	}
	models := []interface{}{&tenantSvc.Tenant{}}
	for _, e := range entities {
		models = append(models, e)
	}
	return infra.AutoMigrate(db, models...)
}

// InitContainer wires the services. db must already carry the tenancy plugin.
func InitContainer(db *gorm.DB, cfg *config.Config, log *zap.Logger) (*AppContainer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &AppContainer{
		DB:     db,
		Config: cfg,
		Logger: log,
	}

	c.initRedis(cfg)
	c.initAuth(cfg)
	if err := c.initTenancy(db, cfg); err != nil {
		return nil, err
	}
	c.StudentService = student.NewService(db, log.Named("student"))
	if err := c.initWorker(db, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// InitHandlers creates the HTTP handlers
func (c *AppContainer) InitHandlers() *Handlers {
	return &Handlers{
		Tenant:  tenantHandlers.NewTenantHandler(c.TenantService, c.QueueClient, c.Logger.Named("tenant_api")),
		Student: studentHandlers.NewStudentHandler(c.StudentService, c.Logger.Named("student_api")),
	}
}

// NewResolver returns a fresh per-request tenant resolver
func (c *AppContainer) NewResolver() *tenantSvc.Resolver {
	return tenantSvc.NewResolver(c.Directory, c.TenantCache, c.Logger)
}

// Close stops the rate limiters and releases the queue client
func (c *AppContainer) Close() {
	for _, rl := range c.limiters {
		rl.Stop()
	}
	c.limiters = nil
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			c.Logger.Warn("close queue client", zap.Error(err))
		}
	}
}

// initRedis connects only when a redis-backed feature is configured. A failed
// connection disables those features instead of failing startup.
func (c *AppContainer) initRedis(cfg *config.Config) {
	wantCache := strings.EqualFold(cfg.Tenancy.CacheBackend, "redis")
	if !wantCache && !cfg.Worker.Enabled {
		return
	}

	var features []string
	if wantCache {
		features = append(features, "tenant_cache")
	}
	if cfg.Worker.Enabled {
		features = append(features, "jobs")
	}
	client, err := infra.InitRedis(context.Background(), &cfg.Redis, features...)
	if err != nil {
		c.Logger.Warn("redis unavailable, falling back to in-process cache and disabling jobs", zap.Error(err))
		return
	}
	c.RedisClient = client
	c.QueueClient = queue.NewClient(queue.RedisConnOpt(cfg.Redis))
}

func (c *AppContainer) initAuth(cfg *config.Config) {
	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		// without a secret every bearer token is rejected and requests run as the default actor
		c.Logger.Warn("auth.jwt_secret not set, bearer tokens will be rejected")
		return
	}
	c.JWTService = auth.NewJWTService(secret, cfg.Auth.Issuer)
}

func (c *AppContainer) initTenancy(db *gorm.DB, cfg *config.Config) error {
	c.Directory = tenantSvc.NewDirectory(db)

	ttl := cfg.Tenancy.CacheTTL
	switch {
	case strings.EqualFold(cfg.Tenancy.CacheBackend, "redis") && c.RedisClient != nil:
		c.TenantCache = tenantSvc.NewRedisCache(c.RedisClient, ttl, c.Logger.Named("tenant_cache"))
	case cfg.Tenancy.CacheBackend == "" || strings.EqualFold(cfg.Tenancy.CacheBackend, "memory") ||
		strings.EqualFold(cfg.Tenancy.CacheBackend, "redis"):
		c.TenantCache = tenantSvc.NewMemoryCache(ttl)
	default:
		return fmt.Errorf("unsupported tenancy.cache_backend %q (memory, redis)", cfg.Tenancy.CacheBackend)
	}

	c.TenantService = tenantSvc.NewTenantService(c.Directory, nil, c.Logger.Named("tenant"))
	return nil
}

func (c *AppContainer) initWorker(db *gorm.DB, cfg *config.Config) error {
	c.TenantTasks = workerHandlers.NewTenantHandler(db, c.Directory, c.TenantCache, ScopedEntities(), c.Logger.Named("tasks"))
	if !cfg.Worker.Enabled || c.RedisClient == nil {
		return nil
	}

	srv, err := worker.NewServer(queue.RedisConnOpt(cfg.Redis), cfg.Worker, c.TenantTasks, c.Logger.Named("worker"))
	if err != nil {
		return err
	}
	c.WorkerServer = srv
	return nil
}
