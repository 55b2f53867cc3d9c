package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edusuite/internal/config"
	"edusuite/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPingTimeout = 5 * time.Second

var globalRedis redis.UniversalClient

// redisOptions maps cfg onto a single UniversalOptions so one constructor
// serves every mode. It returns the normalized mode name.
func redisOptions(cfg *config.RedisConfig) (*redis.UniversalOptions, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "standalone"
	}

	opts := &redis.UniversalOptions{
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	switch mode {
	case "standalone":
		opts.Addrs = []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}
	case "sentinel":
		if cfg.MasterName == "" || len(cfg.SentinelAddrs) == 0 {
			return nil, mode, fmt.Errorf("sentinel mode requires master_name and sentinel_addrs")
		}
		opts.MasterName = cfg.MasterName
		opts.Addrs = cfg.SentinelAddrs
		opts.SentinelPassword = cfg.SentinelPassword
	case "cluster":
		if len(cfg.ClusterAddrs) == 0 {
			return nil, mode, fmt.Errorf("cluster mode requires cluster_addrs")
		}
		opts.Addrs = cfg.ClusterAddrs
		opts.IsClusterMode = true
		// cluster nodes only serve db 0
		opts.DB = 0
	default:
		return nil, mode, fmt.Errorf("unsupported redis mode: %s (standalone, sentinel, cluster)", mode)
	}
	return opts, mode, nil
}

// InitRedis connects the client shared by the tenant cache and the job queue.
// features names the consumers that asked for it and is only logged.
func InitRedis(ctx context.Context, cfg *config.RedisConfig, features ...string) (redis.UniversalClient, error) {
	opts, mode, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis (%s %s): %w", mode, strings.Join(opts.Addrs, ","), err)
	}

	logger.WithContext(ctx, nil).Info("redis connected",
		zap.String("mode", mode),
		zap.Strings("addrs", opts.Addrs),
		zap.Strings("features", features),
	)

	globalRedis = rdb
	return rdb, nil
}

// CloseRedis closes the global client
func CloseRedis() error {
	if globalRedis != nil {
		return globalRedis.Close()
	}
	return nil
}
