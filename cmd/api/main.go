package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabmatch_backend/internal/adapters"
	"collabmatch_backend/internal/connections"
	connsvc "collabmatch_backend/internal/connections/service"
	"collabmatch_backend/internal/email"
	"collabmatch_backend/internal/events"
	apphttp "collabmatch_backend/internal/http"
	"collabmatch_backend/internal/http/router"
	"collabmatch_backend/internal/matching"
	"collabmatch_backend/internal/messaging"
	"collabmatch_backend/internal/notification"
	"collabmatch_backend/internal/payments"
	"collabmatch_backend/internal/profiles"
	"collabmatch_backend/internal/scheduler"
	"collabmatch_backend/migrations"
	"collabmatch_backend/platform/config"
	"collabmatch_backend/platform/db"
	"collabmatch_backend/platform/kvstore"
	"collabmatch_backend/platform/logger"
	"collabmatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	rateLimitStore := initRateLimitStore(cfg, log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender := initEmailSender(cfg, cfg.GetAppBaseURL(), log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	profilesModule := profiles.NewModule(pool)
	matchingModule := matching.NewModule(pool, profilesModule.Service(), val, log)
	paymentsModule := payments.NewModule(pool, eventBus)

	// Messaging is built without a promoter; connections needs messaging and
	// messaging needs connections, so one side is wired late.
	messagingModule := messaging.NewModule(pool, nil, eventBus, val, log)

	connectionsModule := connections.NewModule(pool, profilesModule.Service(), eventBus, val, log, connsvc.Options{
		Conversations: messagingModule.Service(),
		Messenger:     adapters.Messenger{Service: messagingModule.Service()},
		Payments:      adapters.PaymentCreator{Service: paymentsModule.Service()},
		Reminders:     reminderScheduler,
		ReminderDelay: cfg.GetCollabReminderDelay(),
	})
	messagingModule.Service().SetPromoter(connectionsModule.Service())

	// Notification module subscribes to domain events and serves its own routes
	notificationModule := notification.New(pool, sender, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         db.NewPoolAdapter(pool),
		EventBus:       eventBus,
		RateLimitStore: rateLimitStore,
		Modules: []apphttp.Module{
			profilesModule,
			matchingModule,
			connectionsModule,
			messagingModule,
			paymentsModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		notificationModule.Close()
		matchingModule.Drain()
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRateLimitStore(cfg *config.Config, log *logger.Logger) kvstore.Store {
	if cfg.GetRedisURL() == "" {
		return nil
	}

	store, err := kvstore.NewRedisStore(cfg.GetRedisURL())
	if err != nil {
		log.Warn("redis unavailable; falling back to process-local rate limiting", "error", err)
		return nil
	}
	log.Info("redis rate limit store initialized")
	return store
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (connsvc.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; collaboration reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func initEmailSender(cfg config.EmailConfig, baseURL string, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		log.Warn("email sending disabled; notifications are in-app only")
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
