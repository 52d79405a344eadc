package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/handlers"
	"github.com/yukikurage/smart-task-api/internal/middleware"
	"github.com/yukikurage/smart-task-api/internal/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests may run after a stop signal
const ShutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	TaskService *services.TaskService
	Verifier    auth.Verifier
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with every route
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(deps.Logger))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler()
	taskHandler := handlers.NewTaskHandler(deps.TaskService)
	requireAuth := middleware.RequireAuth(deps.Verifier)
	requireTask := middleware.RequireTaskAccess(deps.TaskService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		tasks := api.Group("/tasks")
		{
			// Create checks the credential itself so enrichment stays in one flow
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", requireAuth, taskHandler.ListTasks)
			tasks.GET("/:id", requireAuth, requireTask, taskHandler.GetTask)
			tasks.PATCH("/:id", requireAuth, requireTask, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireAuth, requireTask, taskHandler.DeleteTask)
		}
	}

	return r
}

// Run serves handler on ln until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
