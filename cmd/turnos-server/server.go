package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	"github.com/turnos/turnos/internal/config"
	"github.com/turnos/turnos/internal/domain/appointment"
	"github.com/turnos/turnos/internal/domain/confirmation"
	"github.com/turnos/turnos/internal/domain/doctor"
	"github.com/turnos/turnos/internal/domain/obrasocial"
	"github.com/turnos/turnos/internal/domain/study"
	"github.com/turnos/turnos/internal/domain/tarifa"
	"github.com/turnos/turnos/internal/platform/auth"
	"github.com/turnos/turnos/internal/platform/db"
	"github.com/turnos/turnos/internal/platform/jobs"
	"github.com/turnos/turnos/internal/platform/metrics"
	"github.com/turnos/turnos/internal/platform/middleware"
)

// rateLimitConfig falls back to the package defaults when no rate is set.
func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
		if cfg.RateLimitBurst > 0 {
			rl.BurstSize = cfg.RateLimitBurst
		}
	}
	return rl
}

func authConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:  []byte(cfg.AuthJWTSecret),
		Issuer:  cfg.AuthIssuer,
		Skipper: auth.PublicSkipper,
	}
}

func runServer() error {
	// Logger
	logger := newLogger()

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Prices and fees are written as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	collector := metrics.NewCollector()
	svcs, err := newServices(ctx, cfg, pool, collector, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))
	e.Use(collector.Middleware())

	authCfg := authConfig(cfg)
	if authCfg.Enabled() {
		logger.Info().Msg("staff routes require a bearer token")
	}
	e.Use(auth.Middleware(authCfg))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(collector.Handler()))

	// Public entry points are rate limited per client.
	limit := middleware.RateLimit(rateLimitConfig(cfg))

	api := e.Group("")
	doctor.NewHandler(svcs.doctors).RegisterRoutes(api)
	study.NewHandler(svcs.studies).RegisterRoutes(api)
	obrasocial.NewHandler(svcs.obrasSociales).RegisterRoutes(api)
	tarifa.NewHandler(svcs.tarifas).RegisterRoutes(api)

	apptHandler := appointment.NewHandler(svcs.appointments)
	apptHandler.RegisterRoutes(api)
	apptHandler.RegisterCreate(api, limit)

	confirmation.NewHandler(svcs.confirmations, cfg.WhatsAppVerifyToken,
		logger.With().Str("component", "webhook").Logger()).RegisterRoutes(api, limit)

	// Background jobs
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	runner := jobs.NewRunner(logger, collector)
	if cfg.ReminderEnabled {
		runner.Add(svcs.reminders.Job(cfg.ReminderInterval))
	} else {
		logger.Info().Msg("reminder job disabled")
	}
	runner.Add(sweepJob(svcs.appointments, cfg.SweepInterval))
	runner.Start(jobCtx)

	// Start server
	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Msg("starting turnos server")

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	runner.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
