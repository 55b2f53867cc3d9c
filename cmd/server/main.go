package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"edusuite/api"
	"edusuite/internal/config"
	"edusuite/internal/infra"
	"edusuite/internal/logger"
	"edusuite/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// APP_* variables may come from a .env file
	loadEnvFile()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	cfg, err := config.Load(env, os.Getenv("APP_CONFIG_FILE"))
	if err != nil {
		fmt.Printf("load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath); err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting edusuite",
		zap.String("env", env),
		zap.String("mode", cfg.Server.Mode),
	)

	db, err := infra.InitDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}

	if err := api.InstallTenancy(db, cfg, logger.Get().Named("datastore")); err != nil {
		logger.Fatal("install tenancy", zap.Error(err))
	}

	container, err := api.InitContainer(db, cfg, logger.Get())
	if err != nil {
		logger.Fatal("init container", zap.Error(err))
	}

	if cfg.Tenancy.SeedFile != "" {
		n, err := tenant.SeedFromFile(context.Background(), container.TenantService, cfg.Tenancy.SeedFile, logger.Get())
		if err != nil {
			logger.Fatal("seed tenants", zap.Error(err))
		}
		logger.Info("tenant seed applied", zap.Int("created", n), zap.String("file", cfg.Tenancy.SeedFile))
	}

	gin.SetMode(cfg.Server.Mode)
	router := api.SetupRouter(container, container.InitHandlers())

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if container.WorkerServer != nil {
		if err := container.WorkerServer.Start(); err != nil {
			logger.Fatal("start worker", zap.Error(err))
		}
	}

	gracefulShutdown(server, container)
}

// loadEnvFile loads the nearest .env walking up from the working directory
// and the executable directory.
func loadEnvFile() {
	if path := resolveEnvPath(); path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("load env file %s: %v\n", path, err)
		} else {
			fmt.Printf("loaded env file: %s\n", path)
		}
	}
}

func resolveEnvPath() string {
	for _, path := range collectEnvCandidates() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func collectEnvCandidates() []string {
	seen := make(map[string]struct{})
	var candidates []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		candidates = append(candidates, path)
	}

	traverse := func(start string) {
		dir := filepath.Clean(start)
		for i := 0; i < 8; i++ {
			if dir == "" || dir == string(filepath.Separator) || dir == "." {
				break
			}
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if wd, err := os.Getwd(); err == nil {
		traverse(wd)
	}
	if exe, err := os.Executable(); err == nil {
		traverse(filepath.Dir(exe))
	}
	return candidates
}

func gracefulShutdown(server *http.Server, container *api.AppContainer) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}

	if container.WorkerServer != nil {
		container.WorkerServer.Shutdown()
	}
	container.Close()

	if err := infra.CloseRedis(); err != nil {
		logger.Error("close redis", zap.Error(err))
	}
	if err := infra.CloseDatabase(); err != nil {
		logger.Error("close database", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
