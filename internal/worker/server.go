package worker

import (
	"context"
	"fmt"

	"edusuite/internal/config"
	"edusuite/internal/worker/handlers"
	"edusuite/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Server runs the asynq worker and the periodic task scheduler
type Server struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

// NewServer registers the tenant maintenance handlers and schedules
func NewServer(redisOpt asynq.RedisConnOpt, cfg config.WorkerConfig, tenantHandler *handlers.TenantHandler, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{"default": 3, "low": 1}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeTenantCacheWarmup, tenantHandler.HandleCacheWarmup)
	mux.HandleFunc(tasks.TypeSoftDeleteReport, tenantHandler.HandleSoftDeleteReport)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if cfg.WarmupCron != "" {
		if _, err := scheduler.Register(cfg.WarmupCron, asynq.NewTask(tasks.TypeTenantCacheWarmup, nil), asynq.Queue("default")); err != nil {
			return nil, fmt.Errorf("schedule cache warmup: %w", err)
		}
	}
	if _, err := scheduler.Register("@daily", asynq.NewTask(tasks.TypeSoftDeleteReport, nil), asynq.Queue("low")); err != nil {
		return nil, fmt.Errorf("schedule soft-delete report: %w", err)
	}

	return &Server{
		server:    srv,
		scheduler: scheduler,
		mux:       mux,
		logger:    logger,
	}, nil
}

// Start runs the worker and scheduler in the background
func (s *Server) Start() error {
	s.logger.Info("worker starting")
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	return s.scheduler.Start()
}

// Shutdown stops the scheduler and drains the worker
func (s *Server) Shutdown() {
	s.logger.Info("worker stopping")
	s.scheduler.Shutdown()
	s.server.Shutdown()
}
