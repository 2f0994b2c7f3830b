// Package scheduler provides the asynq task queue: the client enqueues
// work from the API process, the worker consumes it.
package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"quotescan_backend/platform/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueScanAnalyze queues document analysis for a confirmed scan. Goes
// to the critical queue: someone is watching a spinner for this one.
func (c *Client) EnqueueScanAnalyze(ctx context.Context, scanID uuid.UUID) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("task client not configured")
	}

	task, err := NewScanAnalyzeTask(ScanAnalyzePayload{ScanID: scanID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueCritical), asynq.MaxRetry(3))
	return err
}

// EnqueueScanSweep queues a sweep of stuck scans.
func (c *Client) EnqueueScanSweep(ctx context.Context) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("task client not configured")
	}

	_, err := c.client.EnqueueContext(ctx, NewScanSweepTask(), asynq.Queue(QueueLow))
	return err
}

// EnqueueLeadRevalue queues a classifier re-run for one lead.
func (c *Client) EnqueueLeadRevalue(ctx context.Context, leadID uuid.UUID) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("task client not configured")
	}

	task, err := NewLeadRevalueTask(LeadRevaluePayload{LeadID: leadID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueLow))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
