package domain

import "errors"

var (
	ErrValidation = errors.New("validation failed")

	ErrMissingCredential  = errors.New("missing credential")
	ErrTokenMalformed     = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrMissingSigningKey  = errors.New("signing key is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("email already registered")
	ErrTaskNotFound = errors.New("task not found")

	ErrRequestInFlight = errors.New("a request with this idempotency key is still in progress")
)
