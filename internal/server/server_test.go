package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/database"
	"github.com/yukikurage/smart-task-api/internal/models"
	"github.com/yukikurage/smart-task-api/internal/repository"
	"github.com/yukikurage/smart-task-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, credential string) (*auth.Identity, error) {
	if credential != "good-token" {
		return nil, fmt.Errorf("%w: unknown credential", auth.ErrUnauthenticated)
	}
	return &auth.Identity{ID: "alice", Email: "alice@example.com"}, nil
}

type homeSuggester struct{}

func (homeSuggester) Suggest(context.Context, string, string) (models.Label, bool) {
	return models.LabelHome, true
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), database.Options(false))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	verifier := tokenVerifier{}
	taskService := services.NewTaskService(repository.NewTaskRepository(db), verifier, homeSuggester{}, true, zap.NewNop())

	return NewRouter(Deps{TaskService: taskService, Verifier: verifier, Logger: zap.NewNop()})
}

func TestNewRouter_CreateThenFetch(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Water plants"}`))
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "home", created["label"])
	assert.Equal(t, "alice", created["owner_id"])

	id, ok := created["id"].(string)
	require.True(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Water plants"`)
}

func TestNewRouter_Routes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		token  string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/auth/me", "good-token", http.StatusOK},
		{http.MethodGet, "/api/auth/me", "", http.StatusBadRequest},
		{http.MethodGet, "/api/tasks", "good-token", http.StatusOK},
		{http.MethodGet, "/api/tasks", "bad-token", http.StatusUnauthorized},
		{http.MethodPost, "/api/tasks", "", http.StatusBadRequest},
		{http.MethodGet, "/api/tasks/0c9a3f5e-4d1b-4c7a-8e2f-6b5d4c3b2a10", "good-token", http.StatusNotFound},
		{http.MethodDelete, "/api/tasks/0c9a3f5e-4d1b-4c7a-8e2f-6b5d4c3b2a10", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRun_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	router := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, ln, router, zap.NewNop())
	}()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
