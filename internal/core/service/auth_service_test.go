package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/task-system/internal/core/domain"
	"github.com/99minutos/task-system/internal/core/ports"
)

type stubUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	nextID  int
	findErr error
	creates int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	r.creates++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.nextID)
	r.byEmail[copy.Email] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.byEmail[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byEmail))
	for _, u := range r.byEmail {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func signup(name, email, password string) ports.SignupInput {
	return ports.SignupInput{Name: name, Email: email, Password: password}
}

func newTestAuthService(t *testing.T) (*AuthService, *stubUserRepo, *TokenService) {
	t.Helper()
	repo := newStubUserRepo()
	tokens, err := NewTokenService([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(repo, newTestHasher(t), tokens, zerolog.Nop()), repo, tokens
}

func TestAuthService_Signup_Success(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	user, err := svc.Signup(context.Background(), signup("Alice", " A@X.com ", "secret1"))
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if user.Email != "a@x.com" {
		t.Fatalf("email not normalised: %q", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", user.Role)
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	cases := []struct{ name, email, password string }{
		{"", "a@x.com", "secret1"},
		{"Alice", "", "secret1"},
		{"Alice", "a@x.com", ""},
		{"   ", "a@x.com", "secret1"},
	}
	for _, c := range cases {
		if _, err := svc.Signup(context.Background(), signup(c.name, c.email, c.password)); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%+v: expected ErrValidation, got %v", c, err)
		}
	}
	if repo.creates != 0 {
		t.Fatalf("validation failures must not create users")
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	if _, err := svc.Signup(context.Background(), signup("Bob", "bob@example.com", "pass123")); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, err := svc.Signup(context.Background(), signup("Bobby", "BOB@example.com", "pass456"))
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if repo.creates != 1 {
		t.Fatalf("expected exactly one record, got %d", repo.creates)
	}
	stored, _ := repo.FindByEmail(context.Background(), "bob@example.com")
	if stored.Name != "Bob" {
		t.Fatalf("existing record was mutated: %+v", stored)
	}
}

func TestAuthService_Signup_StoreFailure(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.findErr = errors.New("connection refused")

	_, err := svc.Signup(context.Background(), signup("Eve", "eve@example.com", "pass123"))
	if err == nil || errors.Is(err, domain.ErrUserExists) || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	created, err := svc.Signup(context.Background(), signup("Carol", "carol@example.com", "s3cret"))
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "Carol@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.User == nil || res.User.ID != created.ID {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiry must be in the future: %v", res.ExpiresAt)
	}

	id, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if id.UserID != created.ID || id.Role != domain.RoleUser {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestAuthService_Login_NoEnumeration(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	_, _ = svc.Signup(context.Background(), signup("Dave", "dave@example.com", "goodpass"))

	_, wrongPassword := svc.Login(context.Background(), "dave@example.com", "badpass")
	_, unknownEmail := svc.Login(context.Background(), "ghost@example.com", "badpass")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("errors differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.findErr = errors.New("connection refused")

	_, err := svc.Login(context.Background(), "dave@example.com", "pass")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	if _, err := svc.Login(context.Background(), "", "pass"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	created, _ := svc.Signup(context.Background(), signup("Fay", "fay@example.com", "pass123"))

	me, err := svc.Me(context.Background(), created.ID)
	if err != nil || me.Email != "fay@example.com" {
		t.Fatalf("Me: %+v, %v", me, err)
	}
	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	in := signup("Root", "root@example.com", "rootpass")

	if err := svc.EnsureAdmin(context.Background(), in); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), in); err != nil {
		t.Fatalf("second EnsureAdmin must be a no-op, got %v", err)
	}
	if repo.creates != 1 {
		t.Fatalf("expected one admin record, got %d", repo.creates)
	}

	users, _ := svc.ListUsers(context.Background())
	if len(users) != 1 || users[0].Role != domain.RoleAdmin {
		t.Fatalf("unexpected users: %+v", users)
	}
	if strings.Contains(users[0].PasswordHash, "rootpass") {
		t.Fatalf("plaintext leaked into hash")
	}
}
