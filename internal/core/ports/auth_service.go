package ports

import (
	"context"
	"time"

	"github.com/99minutos/task-system/internal/core/domain"
)

// SignupInput carries the fields accepted at registration.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID string, role domain.Role) (string, time.Time, error)
}

// TokenVerifier checks identity tokens. Verify returns
// domain.ErrTokenExpired or domain.ErrTokenMalformed on failure.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// PasswordHasher produces and checks salted one-way password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
	// Burn spends the same work as a failed Verify. Used when there is no
	// stored hash to compare against.
	Burn(plaintext string)
}
