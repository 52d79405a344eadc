package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/smart-task-api/internal/config"
	"github.com/yukikurage/smart-task-api/internal/database"
	"github.com/yukikurage/smart-task-api/internal/logging"
	"github.com/yukikurage/smart-task-api/internal/repository"
	"github.com/yukikurage/smart-task-api/internal/server"
	"github.com/yukikurage/smart-task-api/internal/services"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "smart-task-api",
		Short:         "Task API with AI label suggestions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a .yaml or .toml config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(configPath)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	// serve is the default
	root.RunE = serveCmd.RunE
	return root
}

// setup loads configuration and builds the logger
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runMigrate(configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	return database.Migrate(db, logger)
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, logger); err != nil {
		return err
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}
	suggester, err := newSuggester(ctx, cfg, logger)
	if err != nil {
		return err
	}

	taskService := services.NewTaskService(
		repository.NewTaskRepository(db),
		verifier,
		suggester,
		cfg.LabelSuggestionsEnabled,
		logger,
	)
	router := server.NewRouter(server.Deps{
		TaskService: taskService,
		Verifier:    verifier,
		Logger:      logger,
	})

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.Port, err)
	}
	return server.Run(ctx, ln, router, logger)
}
