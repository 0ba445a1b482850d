// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snapbrief/snapbrief/internal/auth"
	"github.com/snapbrief/snapbrief/internal/config"
	"github.com/snapbrief/snapbrief/internal/delivery"
	"github.com/snapbrief/snapbrief/internal/delivery/email"
	"github.com/snapbrief/snapbrief/internal/delivery/messages"
	deliverypostgres "github.com/snapbrief/snapbrief/internal/delivery/postgres"
	"github.com/snapbrief/snapbrief/internal/delivery/webhook"
	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/snapbrief/snapbrief/internal/pkg/ctxlog"
	"github.com/snapbrief/snapbrief/internal/pkg/httputil"
	"github.com/snapbrief/snapbrief/internal/pkg/metrics"
	"github.com/snapbrief/snapbrief/internal/pkg/postgres"
	"github.com/snapbrief/snapbrief/internal/preview"
	"github.com/snapbrief/snapbrief/internal/snapapps"
	snapappspostgres "github.com/snapbrief/snapbrief/internal/snapapps/postgres"
	"github.com/snapbrief/snapbrief/internal/subscriptions"
	subscriptionspostgres "github.com/snapbrief/snapbrief/internal/subscriptions/postgres"
	"github.com/snapbrief/snapbrief/internal/version"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	previewCache  *preview.Cache
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc

	deliveryScheduler *delivery.Scheduler
	deliveryWorker    *delivery.Worker
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	go app.collectDBMetrics(metricsCtx)

	router, err := app.setupRouter(metricsCtx)
	if err != nil {
		db.Close()
		metricsCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Stop the delivery pipeline before the servers so in-flight briefings
	// finish against a live database.
	if a.deliveryScheduler != nil {
		a.deliveryScheduler.Stop()
	}
	if a.deliveryWorker != nil {
		a.deliveryWorker.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	if err := a.previewCache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close preview cache: %w", err))
	}

	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// DeliveryWorker returns the delivery worker instance.
// Used in tests to access worker state. Returns nil if delivery disabled.
func (a *App) DeliveryWorker() *delivery.Worker {
	return a.deliveryWorker
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	subscriptionsRepo := subscriptionspostgres.NewRepository(a.db)
	subscriptionsService := subscriptions.NewService(subscriptionsRepo)
	subscriptionsHandler := subscriptions.NewHandler(subscriptionsService)

	snapAppsRepo := snapappspostgres.NewRepository(a.db)
	snapAppsService := snapapps.NewService(snapAppsRepo)
	snapAppsHandler := snapapps.NewHandler(snapAppsService)

	a.previewCache = preview.NewCache(preview.CacheConfig{
		Enabled: a.config.PreviewCache.Enabled,
		Addr:    a.config.PreviewCache.Addr,
		TTL:     a.config.PreviewCache.TTL,
	})

	previewRenderer, err := preview.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create preview renderer: %w", err)
	}
	previewHandler := preview.NewHandler(snapAppsService, previewRenderer, a.previewCache)

	deliveryRepo := deliverypostgres.NewRepository(a.db)
	deliveryHandler := delivery.NewHandler(deliveryRepo)

	if a.config.Delivery.Enabled {
		if err := a.startDelivery(ctx, deliveryRepo, subscriptionsRepo); err != nil {
			return nil, err
		}
	}

	var verifier *auth.Verifier
	if a.config.Admin.Enabled {
		verifier, err = auth.NewVerifier(auth.Config{
			SecretKey: a.config.Admin.JWTSecret,
			Issuer:    a.config.Admin.JWTIssuer,
		})
		if err != nil {
			return nil, fmt.Errorf("create token verifier: %w", err)
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		subscriptionsHandler.RegisterRoutes(r)
		snapAppsHandler.RegisterRoutes(r)
		previewHandler.RegisterRoutes(r)

		if verifier != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(httputil.AdminAuthMiddleware(verifier))

				subscriptionsHandler.RegisterAdminRoutes(r)
				snapAppsHandler.RegisterAdminRoutes(r)
				deliveryHandler.RegisterAdminRoutes(r)
			})
		}
	})

	return r, nil
}

func (a *App) startDelivery(ctx context.Context, repo delivery.Repository, source delivery.SubscriptionSource) error {
	cfg := a.config.Delivery

	slog.Info("delivery configured",
		"email_enabled", cfg.Email.Enabled,
		"messages_enabled", cfg.Messages.Enabled,
	)

	emailSender, err := email.NewSender(email.Config{
		Enabled:      cfg.Email.Enabled,
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUser:     cfg.Email.SMTPUser,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromAddress:  cfg.Email.FromAddress,
	})
	if err != nil {
		return fmt.Errorf("create email sender: %w", err)
	}

	messagesConfig := messages.Config{
		Enabled:    cfg.Messages.Enabled,
		GatewayURL: cfg.Messages.GatewayURL,
		APIKey:     cfg.Messages.APIKey,
		RateLimit:  cfg.Messages.RateLimit,
		Timeout:    cfg.Messages.Timeout,
	}
	imessageSender, err := messages.NewSender(domain.DeliveryMethodIMessage, messagesConfig)
	if err != nil {
		return fmt.Errorf("create imessage sender: %w", err)
	}
	smsSender, err := messages.NewSender(domain.DeliveryMethodSMS, messagesConfig)
	if err != nil {
		return fmt.Errorf("create sms sender: %w", err)
	}

	// Webhook targets are per-subscription; the sender is always available.
	webhookSender := webhook.NewSender(webhook.Config{
		SigningSecret: cfg.Webhook.SigningSecret,
		Timeout:       cfg.Webhook.Timeout,
	})

	dispatcher := delivery.NewDispatcher(emailSender, imessageSender, smsSender, webhookSender)

	renderer, err := delivery.NewRenderer()
	if err != nil {
		return fmt.Errorf("create delivery renderer: %w", err)
	}

	a.deliveryScheduler = delivery.NewScheduler(delivery.SchedulerConfig{
		TickInterval:    cfg.Scheduler.TickInterval,
		MaxAttempts:     cfg.Retry.MaxAttempts,
		StuckAfter:      cfg.Scheduler.StuckAfter,
		SentRetention:   cfg.Scheduler.SentRetention,
		CleanupInterval: cfg.Scheduler.CleanupInterval,
	}, repo, source)
	a.deliveryScheduler.Start(ctx)

	a.deliveryWorker = delivery.NewWorker(delivery.WorkerConfig{
		BatchSize:         cfg.Worker.BatchSize,
		PollInterval:      cfg.Worker.PollInterval,
		InitialBackoff:    cfg.Retry.InitialBackoff,
		MaxBackoff:        cfg.Retry.MaxBackoff,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		NumWorkers:        cfg.Worker.NumWorkers,
	}, repo, source, dispatcher, renderer)
	a.deliveryWorker.Start(ctx)

	return nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	if err := a.previewCache.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Preview cache unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
