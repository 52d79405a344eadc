package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/constants"
	"github.com/yukikurage/smart-task-api/internal/models"
	"github.com/yukikurage/smart-task-api/internal/repository"
	"github.com/yukikurage/smart-task-api/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	// ErrTitleRequired is a constraint violation so it maps like a store rejection
	ErrTitleRequired = fmt.Errorf("%w: title is required", repository.ErrConstraintViolation)
	ErrTitleTooLong  = fmt.Errorf("title must be at most %d characters", constants.MaxTitleLength)
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	verifier auth.Verifier
	labeler  LabelSuggester
	enrich   bool
	logger   *zap.Logger
}

// NewTaskService creates a new TaskService. A nil labeler or enrich=false
// turns label suggestions off.
func NewTaskService(
	taskRepo repository.TaskRepository,
	verifier auth.Verifier,
	labeler LabelSuggester,
	enrich bool,
	logger *zap.Logger,
) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		taskRepo: taskRepo,
		verifier: verifier,
		labeler:  labeler,
		enrich:   enrich && labeler != nil,
		logger:   logger,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	OwnerID   string
	Label     *models.Label
	Completed *bool
	Page      int
	Limit     int
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	DueDate       *time.Time
	ClearDueDate  bool
	Completed     *bool
	ImageURL      *string
	ClearImageURL bool
}

// CreateTask authenticates the caller, stores the task and then tries to
// label it. Only the first three steps can fail the request.
func (s *TaskService) CreateTask(ctx context.Context, credential string, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, auth.ErrMissingCredential
	}

	identity, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		if errors.Is(err, auth.ErrMissingCredential) || errors.Is(err, auth.ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrUnauthenticated, err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	task := &models.Task{
		OwnerID:     identity.ID,
		Title:       title,
		Description: input.Description,
		DueDate:     input.DueDate,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if !s.enrich {
		return task, nil
	}

	label, ok := s.labeler.Suggest(ctx, task.Title, task.Description)
	if !ok {
		return task, nil
	}

	labelled, err := s.taskRepo.UpdateLabel(ctx, task.ID, label)
	if err != nil {
		s.logger.Warn("failed to store suggested label",
			zap.String("task_id", task.ID),
			zap.String("label", string(label)),
			zap.Error(err),
		)
		return task, nil
	}

	return labelled, nil
}

// ListTasks returns the owner's tasks matching the filters
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, utils.PaginationParams, error) {
	params := utils.NewPaginationParams(input.Page, input.Limit)

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		OwnerID:    input.OwnerID,
		Label:      input.Label,
		Completed:  input.Completed,
		Pagination: params,
	})
	if err != nil {
		return nil, 0, params, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, params, nil
}

// GetTask returns one of the owner's tasks
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if utf8.RuneCountInString(title) > constants.MaxTitleLength {
			return nil, ErrTitleTooLong
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	if input.ClearImageURL {
		task.ImageURL = nil
	} else if input.ImageURL != nil {
		task.ImageURL = input.ImageURL
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTask deletes one of the owner's tasks
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}
