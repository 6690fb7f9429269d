package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/background"
	"github.com/culthread/backoffice/internal/config"
	"github.com/culthread/backoffice/internal/handlers"
	middlewareCustom "github.com/culthread/backoffice/internal/middleware"
	"github.com/culthread/backoffice/internal/models"
	"github.com/culthread/backoffice/internal/repositories"
	"github.com/culthread/backoffice/internal/routes"
	"github.com/culthread/backoffice/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Audit log: the only durable state this service produces
	auditStore := repositories.NewFileAuditStore(cfg.Audit.FilePath)
	auditService := services.NewAuditService(auditStore, cfg.Audit.MaxEntries, logger)

	// Token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry)

	// Core services
	credentialService := services.NewCredentialService(models.AdminIdentity{
		Username:     cfg.Auth.AdminUsername,
		Role:         cfg.Auth.AdminRole,
		PasswordHash: cfg.Auth.AdminPasswordHash,
	})
	attemptService := services.NewAttemptService(services.AttemptConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		LockoutDuration: cfg.Auth.LockoutDuration,
	}, auditService, logger)
	sessionService := services.NewSessionService(tokenManager, auditService, cfg.Auth.SessionTimeout, logger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	authService := services.NewAuthService(
		credentialService,
		attemptService,
		sessionService,
		tokenManager,
		auditService,
		timingDelay,
		logger,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Janitor for idle sessions and stale attempt records
	janitor := background.NewJanitor(sessionService, attemptService, logger, cfg.Auth.JanitorInterval)

	// Router
	corsConfig := middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(router, authHandler, auditHandler, authService, cfg.Auth.AdminRole)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()

	go janitor.Start(janitorCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	janitorCancel()
	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
