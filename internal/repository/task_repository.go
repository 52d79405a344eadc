package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/smart-task-api/internal/database"
	"github.com/yukikurage/smart-task-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db, now: time.Now}
}

// Create creates a new task. Completion and label always start unset.
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.OwnerID == "" {
		return fmt.Errorf("%w: owner is required", ErrConstraintViolation)
	}
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrConstraintViolation)
	}

	task.Completed = false
	task.Label = nil

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// UpdateLabel sets the label of a task and refreshes updated_at
func (r *GormTaskRepository) UpdateLabel(ctx context.Context, id string, label models.Label) (*models.Task, error) {
	if !label.Valid() {
		return nil, fmt.Errorf("%w: unknown label %q", ErrConstraintViolation, label)
	}

	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"label":      label,
			"updated_at": r.now(),
		})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

// FindByID finds a task by ID for its owner
func (r *GormTaskRepository) FindByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		First(&task, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination, newest first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.OwnedBy(filter.OwnerID))

	// Apply filters
	if filter.Label != nil {
		query = query.Where("label = ?", *filter.Label)
	}
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	listQuery := query.Order("created_at DESC").Order("id")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	tasks := []models.Task{}
	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, translateError(err)
	}

	return tasks, total, nil
}

// Update updates a task. Owner and label are never written here.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrConstraintViolation)
	}
	task.UpdatedAt = r.now()

	result := r.db.WithContext(ctx).
		Model(task).
		Scopes(database.OwnedBy(task.OwnerID)).
		Select("title", "description", "due_date", "completed", "image_url", "updated_at").
		Updates(task)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Delete(&models.Task{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translateError maps driver and gorm errors onto the repository errors
func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(strings.ToLower(err.Error()), "constraint failed"):
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
