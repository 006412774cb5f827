package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/config"
	"github.com/Rehan0707/DocNear/internal/domain/appointment"
	"github.com/Rehan0707/DocNear/internal/domain/assistant"
	"github.com/Rehan0707/DocNear/internal/domain/availability"
	"github.com/Rehan0707/DocNear/internal/domain/discovery"
	"github.com/Rehan0707/DocNear/internal/domain/identity"
	"github.com/Rehan0707/DocNear/internal/platform/auth"
	"github.com/Rehan0707/DocNear/internal/platform/db"
	"github.com/Rehan0707/DocNear/internal/platform/middleware"
	"github.com/Rehan0707/DocNear/internal/platform/websocket"
)

const version = "0.1.0"

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg.Env)

	// Error reporting
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Release:     "docnear@" + version,
		}); err != nil {
			logger.Error().Err(err).Msg("sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
			logger.Info().Msg("sentry enabled")
		}
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Realtime hub
	hub := websocket.NewHub(logger)

	// Identity
	issuer := auth.NewTokenIssuer(auth.JWTConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
	})
	identitySvc := identity.NewService(
		db.NewTransactor(pool),
		identity.NewCredentialRepoPG(pool),
		identity.NewSessionRepoPG(pool),
		identity.NewProfileRepoPG(pool),
		issuer, cfg.RefreshTokenTTL, logger,
	)
	identitySvc.Subscribe(identity.WebSocketBridge(hub, logger))
	identitySvc.Subscribe(identity.AuditSubscriber(logger))

	// Availability, appointments, discovery
	availabilitySvc := availability.NewService(availability.NewRepoPG(pool), identitySvc, hub, logger)
	appointmentSvc := appointment.NewService(appointment.NewRepoPG(pool), availabilitySvc, hub, logger)
	discoverySvc := discovery.NewService(discovery.NewRepoPG(pool))

	// Assistant
	var generator assistant.Generator
	if cfg.AIEnabled() {
		generator = assistant.NewGeminiClient(assistant.GeminiConfig{
			APIKey:  cfg.AIAPIKey,
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
		})
	} else {
		logger.Warn().Msg("AI_API_KEY is not set; the assistant will answer with a configuration message")
	}
	assistantSvc := assistant.NewService(generator, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(auth.Authenticate(issuer, identitySvc))
	e.Use(middleware.Audit(logger))

	// API groups
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Credential endpoints get a stricter per-IP budget.
	credentialLimit := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.AuthRateLimitRPS,
		BurstSize:         cfg.AuthRateLimitBurst,
		KeyFunc:           middleware.IPKey,
	})

	identity.NewHandler(identitySvc).RegisterRoutes(apiV1, credentialLimit)
	availability.NewHandler(availabilitySvc).RegisterRoutes(apiV1)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)
	discovery.NewHandler(discoverySvc).RegisterRoutes(apiV1)
	assistant.NewHandler(assistantSvc).RegisterRoutes(apiV1, credentialLimit)

	websocket.NewHandler(hub, issuer, identitySvc, cfg.CORSOrigins, logger).RegisterRoutes(e.Group(""))

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"version":    version,
			"ws_clients": hub.ClientCount(),
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	return serve(e, cfg, logger)
}

// serve runs e until SIGINT or SIGTERM, then drains in-flight requests. A
// listener failure is returned so deferred cleanup in runServer still runs.
func serve(e *echo.Echo, cfg *config.Config, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		sentry.CaptureException(err)
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
