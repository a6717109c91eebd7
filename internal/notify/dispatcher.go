package notify

import (
	"bytes"
	"context"
	"html/template"
	"sync"
	"time"

	"task-manager/api/internal/models"
	"task-manager/api/internal/worker"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, queue string, jobType worker.JobType, payload any) (*worker.Job, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

var emailTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <p>Hello {{.Name}},</p>
    <p>{{.Message}}</p>
    <h3>{{.Task.Title}}</h3>
    {{with .Task.Description}}<p>{{.}}</p>{{end}}
    <p style="font-size: 12px; color: #6b7280;">Status: {{.Task.Status}}</p>
  </div>
</body>
</html>`))

// DefaultEnqueueTimeout bounds one notification's lookup and enqueue.
const DefaultEnqueueTimeout = 5 * time.Second

// Dispatcher turns task events into queued email jobs. Events are handled
// off the caller's goroutine and never fail it: lookup and enqueue errors
// are logged and dropped.
type Dispatcher struct {
	queue     Enqueuer
	users     UserLookup
	queueName string
	timeout   time.Duration
	log       zerolog.Logger

	pending sync.WaitGroup
}

func NewDispatcher(queue Enqueuer, users UserLookup, queueName string, log zerolog.Logger) *Dispatcher {
	if queueName == "" {
		queueName = worker.DefaultQueue
	}
	return &Dispatcher{
		queue:     queue,
		users:     users,
		queueName: queueName,
		timeout:   DefaultEnqueueTimeout,
		log:       log.With().Str("component", "notify").Logger(),
	}
}

// Wait blocks until every dispatched notification has been enqueued or
// given up on.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

func (d *Dispatcher) TaskAssigned(ctx context.Context, task *models.Task) {
	if task == nil || task.AssignedToID == nil {
		return
	}
	d.dispatch(ctx, *task.AssignedToID, task, "Task assigned: "+task.Title, "A task has been assigned to you.")
}

// TaskCompleted notifies the assignee, or the completer when the task was
// never assigned.
func (d *Dispatcher) TaskCompleted(ctx context.Context, task *models.Task) {
	if task == nil {
		return
	}
	recipient := task.AssignedToID
	if recipient == nil {
		recipient = task.CompletedByID
	}
	if recipient == nil {
		return
	}
	d.dispatch(ctx, *recipient, task, "Task completed: "+task.Title, "A task you are involved in has been completed.")
}

// dispatch outlives the request that triggered it but not the timeout.
func (d *Dispatcher) dispatch(ctx context.Context, userID uuid.UUID, task *models.Task, subject, message string) {
	snapshot := *task
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		defer cancel()
		d.notify(ctx, userID, &snapshot, subject, message)
	}()
}

func (d *Dispatcher) notify(ctx context.Context, userID uuid.UUID, task *models.Task, subject, message string) {
	log := d.log.With().Str("task_id", task.ID.String()).Str("user_id", userID.String()).Logger()

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up notification recipient")
		return
	}
	if user == nil {
		log.Warn().Msg("notification recipient no longer exists")
		return
	}

	var body bytes.Buffer
	if err := emailTemplate.Execute(&body, map[string]any{
		"Name":    user.FullName(),
		"Message": message,
		"Task":    task,
	}); err != nil {
		log.Error().Err(err).Msg("failed to render notification")
		return
	}

	job, err := d.queue.Enqueue(ctx, d.queueName, worker.JobTypeEmailNotification, EmailPayload{
		Recipient: user.Email,
		Subject:   subject,
		Body:      body.String(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to enqueue notification")
		return
	}
	log.Debug().Str("job_id", job.ID).Msg("notification enqueued")
}
