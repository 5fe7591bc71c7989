package handler

import (
	"time"

	"github.com/99minutos/task-system/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signupRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signupResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type loginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// --- Tasks ---

type createTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status      string `json:"status"      validate:"omitempty,oneof=pending in-progress completed"`
	AssignedTo  string `json:"assignedTo"  validate:"omitempty,mongodb"`
}

type listTasksQuery struct {
	Priority   string `query:"priority"   validate:"omitempty,oneof=low medium high"`
	Status     string `query:"status"     validate:"omitempty,oneof=pending in-progress completed"`
	AssignedTo string `query:"assignedTo" validate:"omitempty,mongodb"`
}

// editTaskRequest is a partial update; absent fields are left unchanged and
// an empty assignedTo clears the assignee.
type editTaskRequest struct {
	Title       *string `json:"title"       validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,min=1,max=5000"`
	Priority    *string `json:"priority"    validate:"omitnil,oneof=low medium high"`
	Status      *string `json:"status"      validate:"omitnil,oneof=pending in-progress completed"`
	AssignedTo  *string `json:"assignedTo"  validate:"omitnil,assignee"`
}

type taskResponse struct {
	Message string       `json:"message"`
	Task    *domain.Task `json:"task"`
}
