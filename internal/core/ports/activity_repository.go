package ports

import (
	"context"

	"github.com/99minutos/task-system/internal/core/domain"
)

// ActivityRepository appends to the task audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity domain.TaskActivity) error
}

// ActivityPublisher hands activity records off for asynchronous recording.
type ActivityPublisher interface {
	Enqueue(activity domain.TaskActivity)
}
