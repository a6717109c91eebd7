package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrCacheMiss = errors.New("cache miss")

type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewClient builds the Redis client shared by the task cache and the job
// queue.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

const taskKeyPrefix = "task:"

func TaskKey(id uuid.UUID) string {
	return taskKeyPrefix + id.String()
}

// TaskCache stores task snapshots as JSON under task:<id>. Calls go
// through a circuit breaker so a failing Redis is skipped quickly.
type TaskCache struct {
	client  redis.UniversalClient
	breaker *CircuitBreaker
	ttl     time.Duration
	metrics *monitoring.Metrics
	log     zerolog.Logger
}

func NewTaskCache(client redis.UniversalClient, ttl time.Duration, metrics *monitoring.Metrics, log zerolog.Logger) *TaskCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TaskCache{
		client:  client,
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		ttl:     ttl,
		metrics: metrics,
		log:     log.With().Str("component", "task_cache").Logger(),
	}
}

// Get returns ErrCacheMiss when the key is absent; any other error means
// Redis could not be consulted.
func (c *TaskCache) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, TaskKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		c.metrics.CacheLookup("error")
		return nil, fmt.Errorf("get task from cache: %w", err)
	}
	if data == nil {
		c.metrics.CacheLookup("miss")
		return nil, ErrCacheMiss
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		c.metrics.CacheLookup("error")
		return nil, fmt.Errorf("decode cached task: %w", err)
	}
	c.metrics.CacheLookup("hit")
	return &task, nil
}

func (c *TaskCache) Set(ctx context.Context, task *models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	return c.breaker.Execute(func() error {
		return c.client.Set(ctx, TaskKey(task.ID), data, c.ttl).Err()
	})
}

func (c *TaskCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.breaker.Execute(func() error {
		return c.client.Del(ctx, TaskKey(id)).Err()
	})
}

func (c *TaskCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *TaskCache) Stats() map[string]any {
	return c.breaker.Stats()
}
