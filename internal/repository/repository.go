package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/smart-task-api/internal/models"
	"github.com/yukikurage/smart-task-api/internal/utils"
)

var (
	// ErrNotFound is returned when no task with the id exists for the owner.
	ErrNotFound = errors.New("task repository: task not found")
	// ErrConstraintViolation is returned when the row breaks a schema constraint.
	ErrConstraintViolation = errors.New("task repository: constraint violation")
	// ErrStoreUnavailable is returned for every other store failure.
	ErrStoreUnavailable = errors.New("task repository: store unavailable")
)

// TaskRepository defines the interface for task data access.
// Every read and write except UpdateLabel is scoped by owner.
type TaskRepository interface {
	// Create inserts a new, incomplete and unlabelled task
	Create(ctx context.Context, task *models.Task) error

	// UpdateLabel sets the label of a task and refreshes its update time
	UpdateLabel(ctx context.Context, id string, label models.Label) (*models.Task, error)

	// FindByID finds one of the owner's tasks
	FindByID(ctx context.Context, ownerID, id string) (*models.Task, error)

	// List retrieves the owner's tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves every mutable field of a task
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes one of the owner's tasks
	Delete(ctx context.Context, ownerID, id string) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OwnerID    string
	Label      *models.Label
	Completed  *bool
	Pagination utils.PaginationParams
}
