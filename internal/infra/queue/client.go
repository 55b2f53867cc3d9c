package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edusuite/internal/worker/tasks"

	"github.com/hibiken/asynq"
)

// Client enqueues background tenant maintenance jobs
type Client interface {
	EnqueueCacheWarmup(requestedBy string) error
	EnqueueSoftDeleteReport(payload tasks.SoftDeleteReportPayload) error
	Close() error
}

type asynqClient struct {
	client *asynq.Client
}

// NewClient creates a queue client on the given redis connection
func NewClient(opt asynq.RedisConnOpt) Client {
	return &asynqClient{client: asynq.NewClient(opt)}
}

func (c *asynqClient) EnqueueCacheWarmup(requestedBy string) error {
	payload, err := json.Marshal(tasks.CacheWarmupPayload{RequestedBy: requestedBy})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// one pending warm-up is enough
	_, err = c.client.Enqueue(asynq.NewTask(tasks.TypeTenantCacheWarmup, payload),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Queue("default"),
		asynq.Unique(time.Minute),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

func (c *asynqClient) EnqueueSoftDeleteReport(payload tasks.SoftDeleteReportPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = c.client.Enqueue(asynq.NewTask(tasks.TypeSoftDeleteReport, data),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("low"),
	)
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

func (c *asynqClient) Close() error {
	return c.client.Close()
}
