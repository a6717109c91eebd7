package services

import (
	"context"
	"strings"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/database"
	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// TaskService implements the task lifecycle: CREATED, then assigned while
// still CREATED, then COMPLETED.
type TaskService struct {
	tasks   *repositories.TaskRepository
	tx      *database.TxManager
	metrics *monitoring.Metrics
	log     zerolog.Logger
}

func NewTaskService(tasks *repositories.TaskRepository, tx *database.TxManager, metrics *monitoring.Metrics, log zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:   tasks,
		tx:      tx,
		metrics: metrics,
		log:     log.With().Str("service", "tasks").Logger(),
	}
}

// Create persists task with status CREATED regardless of what was passed.
func (s *TaskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.ID = uuid.Nil
	task.Title = strings.TrimSpace(task.Title)
	task.Status = models.TaskStatusCreated
	task.AssignedToID = nil
	task.CompletedByID = nil

	if err := s.tasks.Add(ctx, task); err != nil {
		return nil, err
	}

	s.metrics.TaskTransition("create")
	s.log.Info().Str("task_id", task.ID.String()).Msg("task created")
	return task, nil
}

// GetByID returns nil, nil when the task does not exist.
func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

// ReferencingUser lists the tasks assigned to or completed by userID.
func (s *TaskService) ReferencingUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.tasks.IDsReferencingUser(ctx, userID)
}

func (s *TaskService) ListAll(ctx context.Context) ([]models.Task, error) {
	return s.tasks.FindAll(ctx)
}

func (s *TaskService) Update(ctx context.Context, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.Invalid(apperr.Violation{Field: "status", Message: "status must be one of: CREATED IN_PROGRESS COMPLETED"})
	}
	return s.tasks.Update(ctx, id, patch)
}

// Assign sets the assignee. It returns nil, nil for an unknown task and a
// NotFound error with code TASK_NOT_ASSIGNABLE when the task is not in
// CREATED; the task is left untouched in both cases.
func (s *TaskService) Assign(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	var updated *models.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.FindByID(ctx, taskID)
		if err != nil || task == nil {
			return err
		}
		if task.Status != models.TaskStatusCreated {
			return apperr.New(apperr.KindNotFound, "TASK_NOT_ASSIGNABLE", "task can only be assigned while CREATED")
		}

		updated, err = s.tasks.Update(ctx, taskID, models.TaskPatch{
			AssignedToID: models.Some(userID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		s.metrics.TaskTransition("assign")
		s.log.Info().Str("task_id", taskID.String()).Str("user_id", userID.String()).Msg("task assigned")
	}
	return updated, nil
}

// Complete marks the task COMPLETED by userID whatever its current status,
// so completing twice overwrites the completer.
func (s *TaskService) Complete(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	status := models.TaskStatusCompleted
	var updated *models.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.tasks.Update(ctx, taskID, models.TaskPatch{
			Status:        &status,
			CompletedByID: models.Some(userID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		s.metrics.TaskTransition("complete")
		s.log.Info().Str("task_id", taskID.String()).Str("user_id", userID.String()).Msg("task completed")
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := s.tasks.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.metrics.TaskTransition("delete")
		s.log.Info().Str("task_id", id.String()).Msg("task deleted")
	}
	return deleted, nil
}
