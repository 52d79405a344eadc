package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/dto"
	apierrors "github.com/yukikurage/smart-task-api/internal/errors"
	"github.com/yukikurage/smart-task-api/internal/middleware"
	"github.com/yukikurage/smart-task-api/internal/models"
	"github.com/yukikurage/smart-task-api/internal/repository"
	"github.com/yukikurage/smart-task-api/internal/services"
	"github.com/yukikurage/smart-task-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTask creates a new task and tries to label it.
// The bearer credential is checked by the service, not by middleware.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	credential, err := auth.BearerToken(c.Request)
	if err != nil {
		apierrors.MissingCredential(c)
		return
	}

	type CreateTaskRequest struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), credential, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ListTasks returns the current user's tasks
// Can filter by label and completed
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{OwnerID: identity.ID}

	if raw := c.Query("label"); raw != "" {
		label, ok := models.ParseLabel(raw)
		if !ok {
			apierrors.BadRequest(c, "Invalid label")
			return
		}
		input.Label = &label
	}
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid completed filter")
			return
		}
		input.Completed = &completed
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.Limit = params.Limit

	tasks, total, params, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseUpdateTaskRequest(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), identity.ID, task.ID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), identity.ID, task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// parseUpdateTaskRequest keeps only the fields that were sent.
// due_date and image_url may be null to clear them.
func parseUpdateTaskRequest(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if value, ok := raw["title"]; ok {
		title, ok := value.(string)
		if !ok {
			return input, errors.New("title must be a string")
		}
		input.Title = &title
	}
	if value, ok := raw["description"]; ok {
		description, ok := value.(string)
		if !ok {
			return input, errors.New("description must be a string")
		}
		input.Description = &description
	}
	if value, ok := raw["due_date"]; ok {
		switch v := value.(type) {
		case nil:
			input.ClearDueDate = true
		case string:
			dueDate, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return input, errors.New("due_date must be an RFC3339 timestamp")
			}
			input.DueDate = &dueDate
		default:
			return input, errors.New("due_date must be an RFC3339 timestamp or null")
		}
	}
	if value, ok := raw["completed"]; ok {
		completed, ok := value.(bool)
		if !ok {
			return input, errors.New("completed must be a boolean")
		}
		input.Completed = &completed
	}
	if value, ok := raw["image_url"]; ok {
		switch v := value.(type) {
		case nil:
			input.ClearImageURL = true
		case string:
			input.ImageURL = &v
		default:
			return input, errors.New("image_url must be a string or null")
		}
	}

	return input, nil
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		apierrors.MissingCredential(c)
	case errors.Is(err, auth.ErrUnauthenticated):
		apierrors.Unauthorized(c, "Invalid or expired credential")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.ConstraintViolation(c, "Title is required")
	case errors.Is(err, services.ErrTitleTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrConstraintViolation):
		apierrors.ConstraintViolation(c, "")
	case errors.Is(err, repository.ErrStoreUnavailable):
		apierrors.StoreUnavailable(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}
