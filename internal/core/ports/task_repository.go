package ports

import (
	"context"

	"github.com/99minutos/task-system/internal/core/domain"
)

// TaskFilter carries the query parameters for listing tasks.
// CreatedBy is always set by the service layer.
type TaskFilter struct {
	CreatedBy  string
	Priority   domain.TaskPriority // optional
	Status     domain.TaskStatus   // optional
	AssignedTo string              // optional
}

// TaskPatch lists the fields to change; nil means "leave as is".
// An empty AssignedTo clears the assignee.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
	Status      *domain.TaskStatus
	AssignedTo  *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.AssignedTo == nil
}

// TaskRepository persists tasks. Lookups of unknown or malformed ids return
// domain.ErrTaskNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	// Update and Delete only match a task created by ownerID.
	Update(ctx context.Context, id, ownerID string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID string) (*domain.Task, error)
}
