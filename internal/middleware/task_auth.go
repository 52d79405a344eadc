package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/smart-task-api/internal/constants"
	apierrors "github.com/yukikurage/smart-task-api/internal/errors"
	"github.com/yukikurage/smart-task-api/internal/models"
	"github.com/yukikurage/smart-task-api/internal/repository"
	"github.com/yukikurage/smart-task-api/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter.
// Tasks owned by someone else are reported as not found.
func RequireTaskAccess(taskService *services.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("id")
		if _, err := uuid.Parse(taskID); err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		identity, exists := GetIdentity(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := taskService.GetTask(c.Request.Context(), identity.ID, taskID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTaskNotFound):
				apierrors.NotFound(c, "Task not found")
			case errors.Is(err, repository.ErrStoreUnavailable):
				apierrors.StoreUnavailable(c, "")
			default:
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}

	task, ok := value.(*models.Task)
	return task, ok && task != nil
}
