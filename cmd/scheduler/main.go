package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabmatch_backend/internal/email"
	"collabmatch_backend/internal/events"
	"collabmatch_backend/internal/notification"
	"collabmatch_backend/internal/scheduler"
	"collabmatch_backend/platform/config"
	"collabmatch_backend/platform/db"
	"collabmatch_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Reminder events raised by the worker are delivered the same way as in
	// the API process: persisted in-app, pushed over SSE (no-op here), and
	// emailed when SMTP is configured.
	sender := initEmailSender(cfg, cfg.GetAppBaseURL(), log)
	notificationModule := notification.New(pool, sender, log)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, pool, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)

	eventBus.Wait()
	log.Info("scheduler worker stopped")
}

func initEmailSender(cfg config.EmailConfig, baseURL string, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		log.Warn("email sending disabled; reminder notifications are in-app only")
		return email.NopSender{}
	}

	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
		baseURL,
	)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		delay := baseDelay * time.Duration(attempt)
		log.Warn("retrying after failure", "operation", name, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
