package notify

import (
	"context"
	"errors"
	"time"

	"task-manager/api/internal/cache"
	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/worker"

	"github.com/rs/zerolog"
)

type EmailPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type EmailLogStore interface {
	Add(ctx context.Context, entry *models.EmailLog) error
}

// EmailJobHandler runs email_notification jobs: it delivers the message and
// records the outcome in the email log. A failed delivery is returned so
// the worker can retry it.
type EmailJobHandler struct {
	mailer  Mailer
	logs    EmailLogStore
	breaker *cache.CircuitBreaker
	metrics *monitoring.Metrics
	log     zerolog.Logger
}

func NewEmailJobHandler(mailer Mailer, logs EmailLogStore, metrics *monitoring.Metrics, log zerolog.Logger) *EmailJobHandler {
	return &EmailJobHandler{
		mailer:  mailer,
		logs:    logs,
		breaker: cache.NewCircuitBreaker(cache.DefaultCircuitBreakerConfig()),
		metrics: metrics,
		log:     log.With().Str("component", "email_job").Logger(),
	}
}

func (h *EmailJobHandler) Handle(ctx context.Context, job *worker.Job) error {
	var payload EmailPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}

	skipped := false
	err := h.breaker.Execute(func() error {
		deliverErr := h.mailer.Deliver(ctx, payload.Recipient, payload.Subject, payload.Body)
		if errors.Is(deliverErr, ErrNotConfigured) {
			skipped = true
			return nil
		}
		return deliverErr
	})
	if skipped {
		h.log.Warn().Str("job_id", job.ID).Msg("email skipped: smtp not configured")
		return nil
	}

	entry := &models.EmailLog{
		Recipient: payload.Recipient,
		Subject:   payload.Subject,
		Body:      payload.Body,
		Status:    models.EmailStatusSent,
		Attempts:  job.Attempts + 1,
		SentAt:    time.Now().UTC(),
	}
	if err != nil {
		msg := err.Error()
		entry.Status = models.EmailStatusFailed
		entry.ErrorMessage = &msg
	}
	h.metrics.EmailDelivered(string(entry.Status))

	if logErr := h.logs.Add(ctx, entry); logErr != nil {
		h.log.Error().Err(logErr).Str("job_id", job.ID).Msg("failed to record email log")
	}
	return err
}
