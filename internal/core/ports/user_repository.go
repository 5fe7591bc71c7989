package ports

import (
	"context"

	"github.com/99minutos/task-system/internal/core/domain"
)

// UserRepository is the credential store. Lookups return
// domain.ErrUserNotFound when no record matches; Create returns
// domain.ErrUserExists when the email is already taken.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
