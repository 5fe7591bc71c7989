package ports

import (
	"context"

	"github.com/99minutos/task-system/internal/core/domain"
)

// CreateTaskInput carries all data needed to create a task.
type CreateTaskInput struct {
	OwnerID        string
	Title          string
	Description    string
	Priority       domain.TaskPriority // empty = default
	Status         domain.TaskStatus   // empty = default
	AssignedTo     string
	IdempotencyKey string
}

// ListTasksInput carries the caller and optional filters.
type ListTasksInput struct {
	OwnerID    string
	Priority   domain.TaskPriority
	Status     domain.TaskStatus
	AssignedTo string
}

// UpdateTaskInput identifies the task and the caller attempting the change.
type UpdateTaskInput struct {
	OwnerID string
	TaskID  string
	Patch   TaskPatch
}

// TaskService defines use-case operations for tasks.
type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	ListTasks(ctx context.Context, input ListTasksInput) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, input UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
}

// IdempotencyStore remembers which task a creation key produced.
//
// Reserve claims the key atomically. When the key is already held it reports
// the task stored under it, or an empty id while the holder is still creating.
// Complete stores the created task id; Release frees a claim whose creation
// failed.
type IdempotencyStore interface {
	Reserve(ctx context.Context, ownerID, key string) (reserved bool, taskID string, err error)
	Complete(ctx context.Context, ownerID, key, taskID string) error
	Release(ctx context.Context, ownerID, key string) error
}
