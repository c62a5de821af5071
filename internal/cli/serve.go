package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/api"
	"github.com/happyrobot-antonio/rechazos/internal/rejection/infrastructure"
	"github.com/happyrobot-antonio/rechazos/internal/shared/auth"
	"github.com/happyrobot-antonio/rechazos/internal/shared/config"
	"github.com/happyrobot-antonio/rechazos/internal/shared/database"
	"github.com/happyrobot-antonio/rechazos/internal/shared/metrics"
	secmiddleware "github.com/happyrobot-antonio/rechazos/internal/shared/middleware"
)

func cmdServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the rejection case API server",
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.CORS)
	r.Use(secmiddleware.BodyLimit)
	r.Use(metrics.Middleware)

	limiter := secmiddleware.NewIPRateLimiter(50, 100)
	r.Use(limiter.Middleware)

	r.Get("/health", healthHandler())
	r.Get("/ready", readyHandler(db))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		repo := infrastructure.NewPostgresRepository(db.Pool)
		handler := api.NewHandler(repo)
		r.Mount("/cases", handler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logrus.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("server shutdown error")
		}
		close(done)
	}()

	logrus.WithFields(logrus.Fields{
		"port": cfg.Server.Port,
		"env":  cfg.Server.Env,
	}).Info("server listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logrus.Info("server stopped")
	return nil
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func readyHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
