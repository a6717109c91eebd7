package services

import (
	"context"
	"errors"

	"task-manager/api/internal/cache"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// TaskCache is the read-through store consulted by CachedTaskService.
type TaskCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Set(ctx context.Context, task *models.Task) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// CachedTaskService caches GetByID and drops the entry on every write.
// Cache failures are logged and fall back to the database.
type CachedTaskService struct {
	*TaskService
	cache TaskCache
	log   zerolog.Logger
}

func NewCachedTaskService(tasks *TaskService, taskCache TaskCache, log zerolog.Logger) *CachedTaskService {
	return &CachedTaskService{
		TaskService: tasks,
		cache:       taskCache,
		log:         log.With().Str("service", "cached_tasks").Logger(),
	}
}

func (s *CachedTaskService) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.cache.Get(ctx, id)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn().Err(err).Str("task_id", id.String()).Msg("task cache unavailable")
	}

	task, err = s.TaskService.GetByID(ctx, id)
	if err != nil || task == nil {
		return task, err
	}
	if err := s.cache.Set(ctx, task); err != nil {
		s.log.Warn().Err(err).Str("task_id", id.String()).Msg("failed to cache task")
	}
	return task, nil
}

func (s *CachedTaskService) Update(ctx context.Context, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	defer s.invalidate(ctx, id)
	return s.TaskService.Update(ctx, id, patch)
}

func (s *CachedTaskService) Assign(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	defer s.invalidate(ctx, taskID)
	return s.TaskService.Assign(ctx, taskID, userID)
}

func (s *CachedTaskService) Complete(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	defer s.invalidate(ctx, taskID)
	return s.TaskService.Complete(ctx, taskID, userID)
}

func (s *CachedTaskService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	defer s.invalidate(ctx, id)
	return s.TaskService.Delete(ctx, id)
}

// InvalidateTasks drops cached copies of tasks whose stored row changed
// outside this service, such as references nulled by a user delete.
func (s *CachedTaskService) InvalidateTasks(ctx context.Context, ids []uuid.UUID) {
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
}

func (s *CachedTaskService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("task_id", id.String()).Msg("failed to invalidate cached task")
	}
}
