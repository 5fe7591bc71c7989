package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-system/internal/api/metrics"
	"github.com/99minutos/task-system/internal/core/domain"
	"github.com/99minutos/task-system/internal/core/ports"
)

type TaskService struct {
	tasks       ports.TaskRepository
	users       ports.UserRepository
	idempotency ports.IdempotencyStore
	activity    ports.ActivityPublisher
	logger      zerolog.Logger
}

func NewTaskService(
	tasks ports.TaskRepository,
	users ports.UserRepository,
	idempotency ports.IdempotencyStore,
	activity ports.ActivityPublisher,
	logger zerolog.Logger,
) *TaskService {
	return &TaskService{
		tasks:       tasks,
		users:       users,
		idempotency: idempotency,
		activity:    activity,
		logger:      logger,
	}
}

// CreateTask creates a task owned by the caller. If an idempotency key is
// provided and was already used by the same caller, the task created by that
// request is returned without side effects. A retry that arrives while the
// first request is still creating gets ErrRequestInFlight.
func (s *TaskService) CreateTask(ctx context.Context, in ports.CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", domain.ErrValidation)
	}

	key := in.IdempotencyKey
	if key != "" {
		existing, claimed, err := s.claim(ctx, in.OwnerID, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		if !claimed {
			key = ""
		}
	}

	created, err := s.insert(ctx, in)
	if err != nil {
		if key != "" {
			if rerr := s.idempotency.Release(ctx, in.OwnerID, key); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if key != "" {
		if err := s.idempotency.Complete(ctx, in.OwnerID, key, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("task_id", created.ID).Msg("failed to store idempotency key")
		}
	}

	s.record(created.ID, in.OwnerID, domain.ActivityCreated)
	s.logger.Info().Str("task_id", created.ID).Str("owner_id", in.OwnerID).Msg("task created")
	return created, nil
}

func (s *TaskService) insert(ctx context.Context, in ports.CreateTaskInput) (*domain.Task, error) {
	if in.AssignedTo != "" {
		if err := s.checkAssignee(ctx, in.AssignedTo); err != nil {
			return nil, err
		}
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityLow
	}
	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}

	now := time.Now().UTC()
	created, err := s.tasks.Create(ctx, &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      status,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   in.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// claim reserves key for this request. It returns the task an earlier request
// created under key, or claimed=false when the store is unavailable and the
// creation proceeds without idempotency.
func (s *TaskService) claim(ctx context.Context, ownerID, key string) (*domain.Task, bool, error) {
	reserved, taskID, err := s.idempotency.Reserve(ctx, ownerID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency store unavailable, creating anyway")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if taskID == "" {
		return nil, false, domain.ErrRequestInFlight
	}

	existing, err := s.tasks.FindByID(ctx, taskID)
	if err != nil || !existing.OwnedBy(ownerID) {
		// The earlier task is gone; this request takes the key over.
		return nil, true, nil
	}
	metrics.IdempotentReplaysTotal.Inc()
	s.logger.Info().Str("idempotency_key", key).Str("task_id", existing.ID).Msg("idempotent replay")
	return existing, false, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("%w: assigned user does not exist", domain.ErrValidation)
		}
		return fmt.Errorf("check assignee: %w", err)
	}
	return nil
}

// ListTasks returns the caller's tasks matching the optional filters.
func (s *TaskService) ListTasks(ctx context.Context, in ports.ListTasksInput) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx, ports.TaskFilter{
		CreatedBy:  in.OwnerID,
		Priority:   in.Priority,
		Status:     in.Status,
		AssignedTo: in.AssignedTo,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update to a task the caller owns.
func (s *TaskService) UpdateTask(ctx context.Context, in ports.UpdateTaskInput) (*domain.Task, error) {
	if in.Patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}
	if in.Patch.Title != nil && strings.TrimSpace(*in.Patch.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
	}
	if in.Patch.Description != nil && strings.TrimSpace(*in.Patch.Description) == "" {
		return nil, fmt.Errorf("%w: description cannot be empty", domain.ErrValidation)
	}

	if err := s.authorize(ctx, in.TaskID, in.OwnerID); err != nil {
		return nil, err
	}
	if in.Patch.AssignedTo != nil && *in.Patch.AssignedTo != "" {
		if err := s.checkAssignee(ctx, *in.Patch.AssignedTo); err != nil {
			return nil, err
		}
	}

	updated, err := s.tasks.Update(ctx, in.TaskID, in.OwnerID, in.Patch)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.record(updated.ID, in.OwnerID, domain.ActivityUpdated)
	s.logger.Info().Str("task_id", updated.ID).Str("owner_id", in.OwnerID).Msg("task updated")
	return updated, nil
}

// DeleteTask removes a task the caller owns and returns it.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	if err := s.authorize(ctx, taskID, ownerID); err != nil {
		return nil, err
	}

	deleted, err := s.tasks.Delete(ctx, taskID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}

	s.record(deleted.ID, ownerID, domain.ActivityDeleted)
	s.logger.Info().Str("task_id", deleted.ID).Str("owner_id", ownerID).Msg("task deleted")
	return deleted, nil
}

// authorize distinguishes a missing task from one owned by someone else.
// The repository write is still scoped by owner, so a concurrent change of
// ownership cannot slip through.
func (s *TaskService) authorize(ctx context.Context, taskID, ownerID string) error {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("find task: %w", err)
	}
	if !task.OwnedBy(ownerID) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *TaskService) record(taskID, actorID string, action domain.ActivityAction) {
	metrics.TaskMutationsTotal.WithLabelValues(string(action)).Inc()
	s.activity.Enqueue(domain.TaskActivity{
		TaskID:  taskID,
		ActorID: actorID,
		Action:  action,
		At:      time.Now().UTC(),
	})
}
