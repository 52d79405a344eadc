package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/database"
	"github.com/yukikurage/smart-task-api/internal/dto"
	apierrors "github.com/yukikurage/smart-task-api/internal/errors"
	"github.com/yukikurage/smart-task-api/internal/middleware"
	"github.com/yukikurage/smart-task-api/internal/models"
	"github.com/yukikurage/smart-task-api/internal/repository"
	"github.com/yukikurage/smart-task-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type mapVerifier map[string]*auth.Identity

func (v mapVerifier) Verify(_ context.Context, credential string) (*auth.Identity, error) {
	if identity, ok := v[credential]; ok {
		return identity, nil
	}
	return nil, fmt.Errorf("%w: unknown credential", auth.ErrUnauthenticated)
}

type fixedSuggester struct {
	label models.Label
	calls int
}

func (s *fixedSuggester) Suggest(context.Context, string, string) (models.Label, bool) {
	s.calls++
	return s.label, s.label != ""
}

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db        *gorm.DB
	repo      *repository.GormTaskRepository
	suggester *fixedSuggester
	router    *gin.Engine
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), database.Options(false))
	suite.Require().NoError(err)
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	// Run migrations
	suite.Require().NoError(database.Migrate(suite.db, zap.NewNop()))

	verifier := mapVerifier{
		"alice-token": {ID: "alice", Email: "alice@example.com", DisplayName: "Alice"},
		"bob-token":   {ID: "bob", Email: "bob@example.com", DisplayName: "Bob"},
	}
	suite.repo = repository.NewTaskRepository(suite.db)
	suite.suggester = &fixedSuggester{label: models.LabelWork}
	taskService := services.NewTaskService(suite.repo, verifier, suite.suggester, true, zap.NewNop())

	handler := NewTaskHandler(taskService)
	authHandler := NewAuthHandler()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Create router
	suite.router = gin.New()
	api := suite.router.Group("/api")
	api.POST("/tasks", handler.CreateTask)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(verifier))
	protected.GET("/auth/me", authHandler.GetCurrentUser)
	protected.GET("/tasks", handler.ListTasks)

	task := protected.Group("/tasks/:id")
	task.Use(middleware.RequireTaskAccess(taskService))
	task.GET("", handler.GetTask)
	task.PATCH("", handler.UpdateTask)
	task.DELETE("", handler.DeleteTask)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper function to send a request with an optional bearer token
func (suite *TaskHandlerTestSuite) do(method, url, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		encoded, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) createTestTask(ownerID, title string) *models.Task {
	task := &models.Task{OwnerID: ownerID, Title: title, Description: "Test Description"}
	suite.Require().NoError(suite.repo.Create(context.Background(), task))
	return task
}

func (suite *TaskHandlerTestSuite) countTasks() int64 {
	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	return count
}

func (suite *TaskHandlerTestSuite) decodeTask(w *httptest.ResponseRecorder) dto.TaskDTO {
	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func (suite *TaskHandlerTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body apierrors.APIError
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(suite.T(), body.Message)
	return body.Code
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	w := suite.do(http.MethodPost, "/api/tasks", "alice-token", map[string]any{
		"title":       "Prepare slides",
		"description": "Monday meeting",
		"due_date":    "2025-06-01T09:00:00Z",
	})

	suite.Equal(http.StatusOK, w.Code)
	task := suite.decodeTask(w)
	suite.Equal("alice", task.OwnerID)
	suite.Equal("Prepare slides", task.Title)
	suite.False(task.Completed)
	suite.Require().NotNil(task.Label)
	suite.Equal(models.LabelWork, *task.Label)
	suite.Require().NotNil(task.DueDate)
	suite.Equal(int64(1), suite.countTasks())
}

func (suite *TaskHandlerTestSuite) TestCreateTask_WithoutLabel() {
	suite.suggester.label = ""

	w := suite.do(http.MethodPost, "/api/tasks", "alice-token", map[string]any{"title": "Think"})

	suite.Equal(http.StatusOK, w.Code)
	var raw map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &raw))
	suite.NotContains(raw, "label")
	suite.Equal(false, raw["completed"])
}

func (suite *TaskHandlerTestSuite) TestCreateTask_MissingCredential() {
	w := suite.do(http.MethodPost, "/api/tasks", "", map[string]any{"title": "Prepare slides"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeMissingCredential, suite.errorCode(w))
	suite.Zero(suite.countTasks())
	suite.Zero(suite.suggester.calls)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidCredential() {
	w := suite.do(http.MethodPost, "/api/tasks", "forged", map[string]any{"title": "Prepare slides"})

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apierrors.ErrCodeUnauthorized, suite.errorCode(w))
	suite.Zero(suite.countTasks())
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidBody() {
	w := suite.do(http.MethodPost, "/api/tasks", "alice-token", `{"title": `)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidInput, suite.errorCode(w))

	w = suite.do(http.MethodPost, "/api/tasks", "alice-token", map[string]any{"description": "no title"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeConstraintViolation, suite.errorCode(w))

	suite.Zero(suite.countTasks())
}

func (suite *TaskHandlerTestSuite) TestCreateTask_StoreUnavailable() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	suite.Require().NoError(sqlDB.Close())

	w := suite.do(http.MethodPost, "/api/tasks", "alice-token", map[string]any{"title": "Prepare slides"})

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal(apierrors.ErrCodeStoreUnavailable, suite.errorCode(w))
	suite.Zero(suite.suggester.calls)
}

func (suite *TaskHandlerTestSuite) TestListTasks() {
	suite.createTestTask("alice", "Task 1")
	suite.createTestTask("alice", "Task 2")
	labelled := suite.createTestTask("alice", "Task 3")
	_, err := suite.repo.UpdateLabel(context.Background(), labelled.ID, models.LabelHome)
	suite.Require().NoError(err)
	suite.createTestTask("bob", "Bob's task")

	w := suite.do(http.MethodGet, "/api/tasks?page=1&limit=2", "alice-token", nil)
	suite.Equal(http.StatusOK, w.Code)

	var resp dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Tasks, 2)
	suite.Equal(int64(3), resp.Pagination.Total)
	suite.Equal(2, resp.Pagination.Limit)
	for _, task := range resp.Tasks {
		suite.Equal("alice", task.OwnerID)
	}

	w = suite.do(http.MethodGet, "/api/tasks?label=Home", "alice-token", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Tasks, 1)
	suite.Equal("Task 3", resp.Tasks[0].Title)

	w = suite.do(http.MethodGet, "/api/tasks?completed=true", "alice-token", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Empty(resp.Tasks)
	suite.NotNil(resp.Tasks)
}

func (suite *TaskHandlerTestSuite) TestListTasks_InvalidFilters() {
	w := suite.do(http.MethodGet, "/api/tasks?label=urgent", "alice-token", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/tasks?completed=maybe", "alice-token", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/tasks", "", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeMissingCredential, suite.errorCode(w))
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	task := suite.createTestTask("alice", "Mine")

	w := suite.do(http.MethodGet, "/api/tasks/"+task.ID, "alice-token", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("Mine", suite.decodeTask(w).Title)

	w = suite.do(http.MethodGet, "/api/tasks/"+task.ID, "bob-token", nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apierrors.ErrCodeNotFound, suite.errorCode(w))
}

func (suite *TaskHandlerTestSuite) TestUpdateTask() {
	task := suite.createTestTask("alice", "Draft")
	due := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	suite.Require().NoError(suite.db.Model(task).Update("due_date", due).Error)

	w := suite.do(http.MethodPatch, "/api/tasks/"+task.ID, "alice-token", map[string]any{
		"title":     "Final",
		"completed": true,
		"due_date":  nil,
		"image_url": "https://cdn.example.com/final.png",
	})
	suite.Equal(http.StatusOK, w.Code)

	updated := suite.decodeTask(w)
	suite.Equal("Final", updated.Title)
	suite.Equal("Test Description", updated.Description)
	suite.True(updated.Completed)
	suite.Nil(updated.DueDate)
	suite.Require().NotNil(updated.ImageURL)
	suite.Equal("https://cdn.example.com/final.png", *updated.ImageURL)

	w = suite.do(http.MethodPatch, "/api/tasks/"+task.ID, "alice-token", map[string]any{"image_url": nil})
	suite.Equal(http.StatusOK, w.Code)
	suite.Nil(suite.decodeTask(w).ImageURL)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_Invalid() {
	task := suite.createTestTask("alice", "Draft")

	tests := []struct {
		name string
		body any
		code string
	}{
		{"empty title", map[string]any{"title": ""}, apierrors.ErrCodeConstraintViolation},
		{"title not a string", map[string]any{"title": 7}, apierrors.ErrCodeInvalidInput},
		{"bad due date", map[string]any{"due_date": "tomorrow"}, apierrors.ErrCodeInvalidInput},
		{"completed not a bool", map[string]any{"completed": "yes"}, apierrors.ErrCodeInvalidInput},
		{"malformed json", `{"title"`, apierrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do(http.MethodPatch, "/api/tasks/"+task.ID, "alice-token", tt.body)
			suite.Equal(http.StatusBadRequest, w.Code)
			suite.Equal(tt.code, suite.errorCode(w))
		})
	}

	w := suite.do(http.MethodPatch, "/api/tasks/"+task.ID, "bob-token", map[string]any{"title": "Hijack"})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task := suite.createTestTask("alice", "Temporary")

	w := suite.do(http.MethodDelete, "/api/tasks/"+task.ID, "bob-token", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodDelete, "/api/tasks/"+task.ID, "alice-token", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Zero(suite.countTasks())

	w = suite.do(http.MethodGet, "/api/tasks/"+task.ID, "alice-token", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetCurrentUser() {
	w := suite.do(http.MethodGet, "/api/auth/me", "alice-token", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"id":"alice","email":"alice@example.com","display_name":"Alice"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/api/auth/me", "forged", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}

func TestParseUpdateTaskRequest(t *testing.T) {
	input, err := parseUpdateTaskRequest(map[string]any{
		"description": "",
		"due_date":    "2025-01-01T00:00:00Z",
		"image_url":   nil,
	})
	assert.NoError(t, err)
	assert.Nil(t, input.Title)
	assert.NotNil(t, input.Description)
	assert.NotNil(t, input.DueDate)
	assert.False(t, input.ClearDueDate)
	assert.True(t, input.ClearImageURL)

	_, err = parseUpdateTaskRequest(map[string]any{"image_url": 3})
	assert.Error(t, err)
}
