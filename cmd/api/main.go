package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-booking/cmd/mainconfig"
	"github.com/wolfman30/clinic-booking/internal/api/router"
	"github.com/wolfman30/clinic-booking/internal/app/bootstrap"
	"github.com/wolfman30/clinic-booking/internal/appointments"
	"github.com/wolfman30/clinic-booking/internal/auth"
	"github.com/wolfman30/clinic-booking/internal/catalog"
	"github.com/wolfman30/clinic-booking/internal/clinic"
	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/doctors"
	httpmiddleware "github.com/wolfman30/clinic-booking/internal/http/middleware"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/patients"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

func main() {
	// An absent .env is normal outside local development.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if cfg.AuthJWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := bootstrap.BuildPostgresPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	settings, settingsStore := bootstrap.BuildSettings(redisClient, cfg)

	var sesClient notify.SESAPI
	if cfg.EmailProvider == "ses" {
		client, err := mainconfig.NewSESClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		sesClient = client
	}
	emailSender := bootstrap.BuildEmailSender(cfg, sesClient, logger)
	notifier := notify.NewNotifier(emailSender, settings, logger)
	smsSender := notify.NewLogSMSSender(cfg.Env == "development", logger)

	metricsHandler, bookingMetrics := setupMetrics()
	tokens := auth.NewTokenIssuer(cfg.AuthJWTSecret, cfg.AccessTokenTTL, cfg.AppointmentTokenTTL)

	// Repositories and services
	catalogDirectory := catalog.NewDirectory(catalog.NewPostgresRepository(pool), logger)
	appointmentsRepo := appointments.NewPostgresRepository(pool)
	doctorService := doctors.NewService(doctors.NewPostgresRepository(pool), catalogDirectory, appointmentsRepo, settings, bookingMetrics, logger)
	patientService := patients.NewService(patients.NewPostgresRepository(pool), logger)
	appointmentService := appointments.NewService(appointments.Deps{
		Repo:     appointmentsRepo,
		Doctors:  doctorService,
		Catalog:  catalogDirectory,
		Patients: patientService,
		Tokens:   tokens,
		Notifier: notifier,
		Metrics:  bookingMetrics,
		Logger:   logger,
	})

	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	authLimiter := buildAuthRateLimiter(limiterCtx, cfg)

	routerCfg := &router.Config{
		Logger:              logger,
		CatalogHandler:      catalog.NewHandler(catalogDirectory, logger),
		DoctorsHandler:      doctors.NewHandler(doctorService, logger),
		AppointmentsHandler: appointments.NewHandler(appointmentService, logger),
		PatientsHandler:     patients.NewHandler(patientService, logger),
		AuthHandler:         buildAuthHandler(cfg, redisClient, patientService, smsSender, tokens, bookingMetrics, logger),
		AccessTokens:        tokens,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      metricsHandler,
		HealthChecks:        healthChecks(pool.Ping, redisClient),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AuthRateLimiter:     authLimiter,
	}
	if settingsStore != nil {
		routerCfg.ClinicHandler = clinic.NewHandler(settingsStore, logger)
	} else {
		logger.Warn("redis unavailable; clinic settings are read-only defaults")
	}

	srv := newServer(":"+cfg.Port, router.New(routerCfg))

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		return
	}

	logger.Info("server stopped")
}

// setupMetrics registers booking metrics and runtime collectors on a private
// registry and returns the handler that exposes them.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), bookingMetrics
}

// buildAuthRateLimiter returns nil when rate limiting is disabled. The
// eviction loop stops with ctx.
func buildAuthRateLimiter(ctx context.Context, cfg *appconfig.Config) *httpmiddleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, 5*time.Minute)
	return limiter
}

// buildAuthHandler returns nil when Redis is unavailable, since OTP codes
// live there.
func buildAuthHandler(cfg *appconfig.Config, redisClient *redis.Client, lookup auth.PatientLookup, sms notify.SMSSender, tokens *auth.TokenIssuer, m *metrics.BookingMetrics, logger *logging.Logger) *auth.Handler {
	if redisClient == nil {
		logger.Warn("redis unavailable; patient login disabled")
		return nil
	}
	service := auth.NewService(lookup, auth.NewRedisCodeStore(redisClient, cfg.OTPTTL), sms, tokens, auth.Options{
		MaxAttempts: cfg.OTPMaxAttempts,
		Metrics:     m,
		Logger:      logger,
	})
	return auth.NewHandler(service, cfg.SecureCookies, logger)
}

func healthChecks(pingPostgres func(context.Context) error, redisClient *redis.Client) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{"postgres": pingPostgres}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
