package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"task-manager/api/internal/monitoring"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type JobHandler func(ctx context.Context, job *Job) error

type Config struct {
	Concurrency  int
	PollInterval time.Duration
	Queues       []string
	JobTimeout   time.Duration
	// BaseBackoff is the delay before the first retry; it doubles on every
	// further attempt.
	BaseBackoff time.Duration
}

type Worker struct {
	queue    *JobQueue
	client   redis.UniversalClient
	handlers map[JobType]JobHandler
	cfg      Config
	metrics  *monitoring.Metrics
	log      zerolog.Logger

	mu     sync.RWMutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(queue *JobQueue, cfg Config, metrics *monitoring.Metrics, log zerolog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = []string{DefaultQueue}
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Minute
	}
	return &Worker{
		queue:    queue,
		client:   queue.client,
		handlers: make(map[JobType]JobHandler),
		cfg:      cfg,
		metrics:  metrics,
		log:      log.With().Str("component", "worker").Logger(),
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches the worker goroutines. They run until ctx is done or Stop
// is called.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.log.Info().Int("concurrency", w.cfg.Concurrency).Strs("queues", w.cfg.Queues).Msg("starting worker")
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
}

// Stop cancels the workers and waits for in-flight jobs to return.
func (w *Worker) Stop() {
	w.mu.RLock()
	cancel := w.cancel
	w.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.log.Info().Msg("worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	for ctx.Err() == nil {
		if _, err := w.ProcessNext(ctx); err != nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("error processing job")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessNext promotes due retries, then waits up to PollInterval for one
// job and runs it. It reports whether a job was taken.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	if _, err := w.queue.PromoteDue(ctx); err != nil {
		return false, err
	}

	result, err := w.client.BLPop(ctx, w.cfg.PollInterval, w.cfg.Queues...).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pop job: %w", err)
	}
	if len(result) < 2 {
		return false, fmt.Errorf("invalid job result")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return true, fmt.Errorf("unmarshal job from %s: %w", result[0], err)
	}
	if job.Queue == "" {
		job.Queue = result[0]
	}
	return true, w.execute(ctx, &job)
}

func (w *Worker) execute(ctx context.Context, job *Job) error {
	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	log := w.log.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Logger()
	if !ok {
		w.metrics.JobProcessed(string(job.Type), "unknown")
		log.Error().Msg("no handler registered for job type")
		return w.queue.bury(ctx, job, fmt.Errorf("no handler registered for job type %q", job.Type))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	log.Debug().Int("attempt", job.Attempts+1).Msg("processing job")
	err := handler(jobCtx, job)
	if err == nil {
		w.metrics.JobProcessed(string(job.Type), "succeeded")
		log.Info().Msg("job completed")
		return nil
	}

	job.Attempts++
	if job.Attempts < job.MaxTries {
		job.ProcessAt = w.queue.now().Add(w.backoff(job.Attempts)).UTC()
		w.metrics.JobProcessed(string(job.Type), "retried")
		log.Warn().Err(err).Int("attempt", job.Attempts).Int("max_tries", job.MaxTries).
			Time("retry_at", job.ProcessAt).Msg("job failed, retrying")
		return w.queue.push(ctx, job)
	}

	w.metrics.JobProcessed(string(job.Type), "dead")
	log.Error().Err(err).Int("attempts", job.Attempts).Msg("job failed permanently")
	return w.queue.bury(ctx, job, err)
}

func (w *Worker) backoff(attempt int) time.Duration {
	return w.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
}
