package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const JobTypeEmailNotification JobType = "email_notification"

const (
	DefaultQueue = "notifications"
	RetryQueue   = "retry_queue"
	DeadQueue    = "dead_queue"

	DefaultMaxTries = 3
)

type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	MaxTries  int             `json:"max_tries"`
	CreatedAt time.Time       `json:"created_at"`
	ProcessAt time.Time       `json:"process_at"`
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return nil
}

// DeadJob is what lands in the dead queue once a job exhausts its tries.
type DeadJob struct {
	Job      Job       `json:"original_job"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// JobQueue pushes jobs onto Redis lists. Jobs due in the future are parked
// in a sorted set scored by their due time until a worker promotes them.
type JobQueue struct {
	client   redis.UniversalClient
	maxTries int
	now      func() time.Time
}

func NewJobQueue(client redis.UniversalClient, maxTries int) *JobQueue {
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	return &JobQueue{client: client, maxTries: maxTries, now: time.Now}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload any) (*Job, error) {
	return q.EnqueueAt(ctx, queue, jobType, payload, q.now())
}

func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload any, processAt time.Time) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}

	now := q.now().UTC()
	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Queue:     queue,
		Payload:   raw,
		MaxTries:  q.maxTries,
		CreatedAt: now,
		ProcessAt: processAt.UTC(),
	}
	if err := q.push(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (q *JobQueue) push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if job.ProcessAt.After(q.now()) {
		err = q.client.ZAdd(ctx, RetryQueue, redis.Z{
			Score:  float64(job.ProcessAt.UnixMilli()),
			Member: data,
		}).Err()
	} else {
		err = q.client.RPush(ctx, job.Queue, data).Err()
	}
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// promoteScript moves one member of the retry set onto its list. The push
// runs before the removal so a failed push leaves the job scheduled.
var promoteScript = redis.NewScript(`
if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then
  return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
redis.call('ZREM', KEYS[1], ARGV[1])
return 1
`)

// PromoteDue moves scheduled jobs whose time has come onto their queue and
// reports how many were moved.
func (q *JobQueue) PromoteDue(ctx context.Context) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, RetryQueue, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprint(q.now().UnixMilli()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("read scheduled jobs: %w", err)
	}

	moved := 0
	for _, data := range due {
		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return moved, fmt.Errorf("unmarshal scheduled job: %w", err)
		}
		// 0 means another worker claimed it first
		claimed, err := promoteScript.Run(ctx, q.client, []string{RetryQueue, job.Queue}, data).Int()
		if err != nil {
			return moved, fmt.Errorf("promote job %s: %w", job.ID, err)
		}
		moved += claimed
	}
	return moved, nil
}

func (q *JobQueue) Size(ctx context.Context, queue string) (int64, error) {
	if queue == RetryQueue {
		return q.client.ZCard(ctx, queue).Result()
	}
	return q.client.LLen(ctx, queue).Result()
}

// DeadJobs returns the dead queue contents, oldest first.
func (q *JobQueue) DeadJobs(ctx context.Context) ([]DeadJob, error) {
	items, err := q.client.LRange(ctx, DeadQueue, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read dead queue: %w", err)
	}
	dead := make([]DeadJob, 0, len(items))
	for _, item := range items {
		var d DeadJob
		if err := json.Unmarshal([]byte(item), &d); err != nil {
			return nil, fmt.Errorf("unmarshal dead job: %w", err)
		}
		dead = append(dead, d)
	}
	return dead, nil
}

func (q *JobQueue) bury(ctx context.Context, job *Job, jobErr error) error {
	data, err := json.Marshal(DeadJob{Job: *job, Error: jobErr.Error(), FailedAt: q.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal dead job: %w", err)
	}
	return q.client.RPush(ctx, DeadQueue, data).Err()
}
