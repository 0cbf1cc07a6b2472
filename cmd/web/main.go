package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/nominee-director-site/cmd/mainconfig"
	"github.com/wolfman30/nominee-director-site/internal/api/router"
	appconfig "github.com/wolfman30/nominee-director-site/internal/config"
	"github.com/wolfman30/nominee-director-site/internal/fallback"
	"github.com/wolfman30/nominee-director-site/internal/formsubmit"
	"github.com/wolfman30/nominee-director-site/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/nominee-director-site/internal/http/middleware"
	"github.com/wolfman30/nominee-director-site/internal/notify"
	"github.com/wolfman30/nominee-director-site/internal/observability/metrics"
	"github.com/wolfman30/nominee-director-site/internal/requests"
	"github.com/wolfman30/nominee-director-site/internal/session"
	"github.com/wolfman30/nominee-director-site/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting nominee-director-site server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	relay, err := formsubmit.New(formsubmit.Config{
		BaseURL:    cfg.FormSubmitBaseURL,
		EndpointID: endpointID(cfg),
		Timeout:    cfg.FormSubmitTimeout,
		Logger:     logger.Component("formsubmit"),
	})
	if err != nil {
		logger.Error("failed to configure form relay", "error", err)
		os.Exit(1)
	}

	store, closeStore := setupSessionStore(ctx, cfg, logger)
	defer closeStore()

	metricsHandler, formMetrics := setupFormMetrics()

	alerter := notify.NewAlerter(setupEmailSender(ctx, cfg, logger), notify.AlerterConfig{
		Recipients: []string{cfg.OpsAlertEmail},
		SiteName:   cfg.BusinessName,
	}, logger.Component("alerts"))

	formsHandler := handlers.NewFormsHandler(handlers.FormsConfig{
		Relay:    relay,
		Sessions: store,
		Requests: requests.NewManager(),
		Alerter:  alerter,
		Metrics:  formMetrics,
		ContactFallback: fallback.Trigger{
			Address:       cfg.BusinessEmail,
			SubjectPrefix: "Contact Request",
		},
		ApplicationFallback: fallback.Trigger{
			Address:       cfg.BusinessEmail,
			SubjectPrefix: "Nominee Director Application",
		},
		AutoResponse: cfg.AutoResponseText,
		Cookie: session.CookieOptions{
			Secure: cfg.CookieSecure,
			TTL:    cfg.SessionTTL,
		},
		Logger: logger,
	})

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		Forms:              formsHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FormSubmitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
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

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// endpointID falls back to the business address, which FormSubmit accepts
// in place of a hashed form id.
func endpointID(cfg *appconfig.Config) string {
	if cfg.FormSubmitEndpointID != "" {
		return cfg.FormSubmitEndpointID
	}
	return cfg.BusinessEmail
}

func setupFormMetrics() (http.Handler, *metrics.FormMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewFormMetrics(reg)
}

// setupSessionStore uses redis when REDIS_ADDR is set and the in-memory store otherwise.
func setupSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.Store, func()) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set; sessions are kept in memory")
		return session.NewMemoryStore(), func() {}
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis unavailable; sessions are kept in memory", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return session.NewMemoryStore(), func() {}
	}
	logger.Info("using redis session store", "addr", cfg.RedisAddr)
	return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }
}

// setupEmailSender picks the alert transport from EMAIL_PROVIDER. Anything
// misconfigured degrades to the stub, which only logs.
func setupEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("SENDGRID_API_KEY not set; alerts fall back to stub sender")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config; alerts fall back to stub sender", "error", err)
			break
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
	return notify.NewStubEmailSender(logger)
}
