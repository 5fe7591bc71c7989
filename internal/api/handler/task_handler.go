package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-system/internal/core/domain"
	"github.com/99minutos/task-system/internal/core/ports"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// TaskHandler handles HTTP requests for task operations. Every route is
// behind the Auth middleware and acts on behalf of the caller.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create handles POST /task/create.
//
// @Summary      Create a task
// @Tags         task
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replays return the task created by the first request"
// @Param        body             body      createTaskRequest  true   "Task details"
// @Success      201              {object}  taskResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /task/create [post]
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return fmt.Errorf("%w: %s must be at most %d characters", domain.ErrValidation, headerIdempotencyKey, maxIdempotencyKeyLen)
	}

	task, err := h.service.CreateTask(c.Request().Context(), ports.CreateTaskInput{
		OwnerID:        id.UserID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TaskPriority(req.Priority),
		Status:         domain.TaskStatus(req.Status),
		AssignedTo:     req.AssignedTo,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, taskResponse{Message: "New Task Created", Task: task})
}

// List handles GET /task.
//
// @Summary      List the caller's tasks
// @Tags         task
// @Produce      json
// @Security     BearerAuth
// @Param        priority    query     string  false  "low, medium or high"
// @Param        status      query     string  false  "pending, in-progress or completed"
// @Param        assignedTo  query     string  false  "Assignee user id"
// @Success      200         {array}   domain.Task
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Router       /task [get]
func (h *TaskHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var q listTasksQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	tasks, err := h.service.ListTasks(c.Request().Context(), ports.ListTasksInput{
		OwnerID:    id.UserID,
		Priority:   domain.TaskPriority(q.Priority),
		Status:     domain.TaskStatus(q.Status),
		AssignedTo: q.AssignedTo,
	})
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

// Edit handles PUT /task/edit/:id.
//
// @Summary      Update a task
// @Tags         task
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Task id"
// @Param        body  body      editTaskRequest  true  "Fields to change"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /task/edit/{id} [put]
func (h *TaskHandler) Edit(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req editTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.service.UpdateTask(c.Request().Context(), ports.UpdateTaskInput{
		OwnerID: id.UserID,
		TaskID:  c.Param("id"),
		Patch:   req.toPatch(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, taskResponse{Message: "Update Successfully", Task: task})
}

// Delete handles DELETE /task/delete/:id.
//
// @Summary      Delete a task
// @Tags         task
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  taskResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /task/delete/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	task, err := h.service.DeleteTask(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, taskResponse{Message: "Delete Successfully", Task: task})
}

func (r editTaskRequest) toPatch() ports.TaskPatch {
	p := ports.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
	}
	if r.Priority != nil {
		v := domain.TaskPriority(*r.Priority)
		p.Priority = &v
	}
	if r.Status != nil {
		v := domain.TaskStatus(*r.Status)
		p.Status = &v
	}
	return p
}
