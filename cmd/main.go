package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storycraft/internal/config"
	"storycraft/internal/handler"
	"storycraft/internal/model"
	"storycraft/internal/render"
	"storycraft/internal/service"
	"storycraft/internal/storage"
	"storycraft/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath string
	prompt     string
	modelName  string
	apiKey     string
)

var rootCmd = &cobra.Command{
	Use:   "storycraft",
	Short: "StoryCraft AI story generator",
	Long: `StoryCraft turns a prompt into a story and keeps it in a library.

Run without --prompt to serve the web app and JSON API.
With --prompt it generates one story, prints it and exits.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	rootCmd.Flags().StringVar(&prompt, "prompt", "", "generate one story from this prompt, print it and exit")
	rootCmd.Flags().StringVar(&modelName, "model", "", "model to use (overrides config)")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "provider API key (overrides config and environment)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Override(modelName, apiKey)

	// stdout carries the story in single-prompt mode
	logOut := io.Writer(os.Stdout)
	if prompt != "" {
		logOut = os.Stderr
	}
	if err := logger.InitWithOutput(cfg.Log.Level, cfg.Log.Format, logOut); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	chatModel, err := model.NewChatModel(ctx, cfg.Provider, cfg.Generation)
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}

	generator, err := service.NewGenerator(ctx, chatModel, cfg.ModelName(), cfg.Generation)
	if err != nil {
		return fmt.Errorf("compose story graph: %w", err)
	}
	storyService := service.NewStoryService(store, generator, cfg.Generation.CleanOutput)

	if prompt != "" {
		md, err := newTerminalRenderer()
		if err != nil {
			return fmt.Errorf("create terminal renderer: %w", err)
		}
		return runSinglePrompt(ctx, storyService, md, prompt, os.Stdout)
	}
	return serve(cfg, store, storyService)
}

func serve(cfg *config.Config, store storage.Storage, storyService *service.StoryService) error {
	tracker, err := service.NewSubmissionTracker(storyService, cfg.Submissions.Workers, cfg.Submissions.TTL)
	if err != nil {
		return fmt.Errorf("create submission tracker: %w", err)
	}

	scheduler, err := service.NewScheduler(cfg, store, tracker)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	scheduler.Start()

	storyHandler := handler.NewStoryHandler(storyService, tracker, cfg.Server.MaxUploadBytes)
	webHandler := handler.NewWebHandler(storyService, tracker, render.NewRenderer(), cfg.Server.MaxUploadBytes)

	router, err := handler.NewRouter(cfg, storyHandler, webHandler)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("StoryCraft listening on port %d (provider %s, model %s, storage %s)",
			cfg.Server.Port, cfg.Provider.Name, cfg.ModelName(), cfg.Storage.Type)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-serverErr:
		logger.Errorf("Server failed: %v", runErr)
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	scheduler.Stop(ctx)
	if err := tracker.Shutdown(shutdownTimeout); err != nil {
		logger.Errorf("Submission tracker shutdown: %v", err)
	}
	logger.Info("Server stopped")
	return runErr
}
