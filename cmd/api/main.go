package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/go-registration-api/internal/application/notification"
	"github.com/go-registration-api/internal/application/registration"
	"github.com/go-registration-api/internal/application/verification"
	"github.com/go-registration-api/internal/config"
	"github.com/go-registration-api/internal/infrastructure/postgres"
	"github.com/go-registration-api/internal/infrastructure/smtp"
	"github.com/go-registration-api/internal/pkg/metrics"
	transporthttp "github.com/go-registration-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Bootstrap(ctx, db); err != nil {
		slog.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	m := metrics.New()
	mailer := smtp.NewMailer(cfg)
	dispatcher := notification.NewDispatcher(mailer, m, 64)

	codeEngine := verification.NewService(verification.ServiceDeps{
		CodeStore:  postgres.NewCodeRepo(db),
		CodeLength: cfg.CodeLength,
	})
	registrationSvc := registration.NewService(registration.ServiceDeps{
		UserRepo:          postgres.NewUserRepo(db),
		CodeEngine:        codeEngine,
		Tx:                postgres.NewTxRunner(db),
		Notifier:          dispatcher,
		Metrics:           m,
		CodeTTL:           cfg.CodeTTL,
		PasswordMinLength: cfg.PasswordMinLength,
	})

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		RegistrationSvc: registrationSvc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	// Drain queued validation e-mails once no new requests can arrive.
	dispatcher.Close()
	slog.Info("server stopped")
}
