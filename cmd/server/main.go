// Package main runs the yatube web server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/yatube/internal/cache"
	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/metrics"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/render"
	"github.com/anonto42/yatube/internal/router"
	"github.com/anonto42/yatube/pkg/config"
	"github.com/anonto42/yatube/pkg/firebase"
	"github.com/anonto42/yatube/web"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "yatube"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		setupLogger(cfg)
		return cfg, nil
	}

	serve := func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	}

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Yatube blogging platform",
		SilenceUsage: true,
		RunE:         serve,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		RunE:  serve,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			db, err := config.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := models.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			slog.Info("Schema is up to date")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := slog.Default()

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := models.AutoMigrate(db.SQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store, err := newMediaStorage(cfg, db)
	if err != nil {
		return err
	}

	renderer, err := newRenderer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	deps := router.Dependencies{
		DB:         db,
		Media:      store,
		IndexCache: cache.NewPageCache("index_page", cfg.IndexCacheTTL),
		Sessions:   middleware.NewSessionManager(cfg.SessionSecret, cfg.IsProduction()),
		Renderer:   renderer,
	}
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("initialize firebase: %w", err)
		}
		deps.Firebase = app.AuthClient
	}

	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e, logger)
	router.SetupRoutes(e, deps)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server stopped", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Yatube ready", "version", Version, "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Metrics server shutdown", "error", err)
	}
	return e.Shutdown(shutdownCtx)
}

func newMediaStorage(cfg *config.Config, db *config.DB) (media.Storage, error) {
	if cfg.MediaBackend == config.MediaGridFS {
		return media.NewGridFSStorage(db.Mongo.Database(cfg.MongoDatabase))
	}
	return media.NewLocalStorage(cfg.MediaRoot)
}

// newRenderer uses the embedded templates unless a template directory is
// configured, in which case it serves and watches that directory.
func newRenderer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*render.Renderer, error) {
	if cfg.TemplateDir == "" {
		return render.New(web.Templates())
	}
	r, err := render.New(os.DirFS(cfg.TemplateDir))
	if err != nil {
		return nil, err
	}
	if err := r.Watch(ctx, cfg.TemplateDir, logger); err != nil {
		return nil, fmt.Errorf("watch templates: %w", err)
	}
	return r, nil
}
