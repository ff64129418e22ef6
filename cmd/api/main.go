package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/estudiolume/leads-api/cmd/mainconfig"
	"github.com/estudiolume/leads-api/internal/api/router"
	appconfig "github.com/estudiolume/leads-api/internal/config"
	"github.com/estudiolume/leads-api/internal/http/handlers"
	"github.com/estudiolume/leads-api/internal/identity"
	"github.com/estudiolume/leads-api/internal/leads"
	"github.com/estudiolume/leads-api/internal/notify"
	"github.com/estudiolume/leads-api/internal/observability/metrics"
	"github.com/estudiolume/leads-api/internal/ratelimit"
	"github.com/estudiolume/leads-api/internal/turnstile"
	"github.com/estudiolume/leads-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leads API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Lead storage: Postgres when configured, in-memory otherwise.
	var repo leads.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = leads.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory lead store")
		repo = leads.NewInMemoryRepository()
	}

	// Rate limiting: shared Redis store when configured, else per-process.
	var limiter ratelimit.Limiter
	if rl := ratelimit.NewRedisLimiter(ratelimit.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		TLS:      cfg.RedisTLS,
	}, cfg.RateLimitWindow, cfg.RateLimitMax, logger); rl != nil {
		defer func() { _ = rl.Close() }()
		limiter = rl
	} else {
		fw := ratelimit.NewFixedWindow(cfg.RateLimitWindow, cfg.RateLimitMax)
		defer fw.Stop()
		limiter = fw
	}

	verifier := turnstile.NewClient(cfg.TurnstileSecret, logger.Component("turnstile"),
		turnstile.WithVerifyURL(cfg.TurnstileVerifyURL))
	resolver := identity.NewClient(cfg.IdentityBaseURL, cfg.IdentityAnonKey, logger.Component("identity"))

	// Lead notification email, best-effort.
	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		if ses := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger.Component("notify")); ses != nil {
			sender = ses
		}
	case "sendgrid":
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger.Component("notify")); sg != nil {
			sender = sg
		}
	}
	notifier := notify.NewService(sender, cfg.LeadsNotifyTo, cfg.PublicBaseURL, logger.Component("notify"))

	leadMetrics := metrics.NewLeadMetrics(nil)

	leadsHandler := leads.NewHandler(repo, verifier, notifier, leadMetrics, logger.Component("leads"))
	adminHandler := handlers.NewAdminLeadsHandler(repo, leadMetrics, logger.Component("admin"))

	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		AdminLeadsHandler:  adminHandler,
		Limiter:            limiter,
		IdentityResolver:   resolver,
		AdminEmails:        cfg.AdminEmails,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
