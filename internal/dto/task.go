package dto

import (
	"time"

	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/models"
	"github.com/yukikurage/smart-task-api/internal/utils"
)

// IdentityDTO represents the authenticated caller in API responses
type IdentityDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Label       *models.Label `json:"label,omitempty"`
	DueDate     *time.Time    `json:"due_date"`
	Completed   bool          `json:"completed"`
	ImageURL    *string       `json:"image_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// Conversion functions

// ToIdentityDTO converts a verified identity to IdentityDTO
func ToIdentityDTO(identity auth.Identity) IdentityDTO {
	return IdentityDTO{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		OwnerID:     task.OwnerID,
		Title:       task.Title,
		Description: task.Description,
		Label:       task.Label,
		DueDate:     task.DueDate,
		Completed:   task.Completed,
		ImageURL:    task.ImageURL,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
