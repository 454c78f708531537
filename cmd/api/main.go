// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/passtalk/passtalk/internal/ai"
	"github.com/passtalk/passtalk/internal/chat"
	"github.com/passtalk/passtalk/internal/config"
	"github.com/passtalk/passtalk/internal/handler"
	"github.com/passtalk/passtalk/internal/importexport"
	"github.com/passtalk/passtalk/internal/middleware"
	"github.com/passtalk/passtalk/internal/store"
	"github.com/passtalk/passtalk/pkg/logger"
	"github.com/passtalk/passtalk/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "passtalk", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the on-device store
	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	entries := store.NewEntries(db, cfg.DeviceID)
	settings := store.NewSettings(db)
	secrets := store.NewSecrets(db)
	messages := store.NewMessages(db)

	// Initialize the AI provider client
	aiClient := ai.NewClient(secrets, settings, ai.Defaults{
		Endpoint:     cfg.AIEndpoint,
		Model:        cfg.AIModel,
		SystemPrompt: cfg.AISystemPrompt,
	}, cfg.AITimeout, log)

	// Restore the transcript and start the conversation session
	history, err := messages.All()
	if err != nil {
		log.Warn("failed to restore chat transcript", zap.Error(err))
	}
	orchestrator := chat.NewOrchestrator(aiClient, entries, log,
		chat.WithRecorder(messages),
		chat.WithHistory(history),
	)

	importer := importexport.NewImporter(entries)
	exporter := importexport.NewExporter(entries)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	sessionHandler := handler.NewSessionHandler(cfg.AccessToken, cfg.JWTSecret, cfg.JWTExpiration, log)
	chatHandler := handler.NewChatHandler(orchestrator, log)
	entryHandler := handler.NewEntryHandler(entries, log)
	settingsHandler := handler.NewSettingsHandler(settings, secrets, aiClient, log)
	importExportHandler := handler.NewImportExportHandler(importer, exporter, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Session issuance
	r.Post("/api/v1/session", sessionHandler.Create)

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Conversation
		r.Route("/chat", func(r chi.Router) {
			r.Get("/messages", chatHandler.List)
			r.Post("/messages", chatHandler.Send)
		})

		// Credential entries
		r.Route("/entries", func(r chi.Router) {
			r.Post("/", entryHandler.Create)
			r.Get("/", entryHandler.List)
			r.Post("/import", importExportHandler.Import)
			r.Get("/export", importExportHandler.Export)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", entryHandler.Get)
				r.Put("/", entryHandler.Update)
				r.Delete("/", entryHandler.Delete)
			})
		})

		// Provider settings
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.Get)
			r.Put("/", settingsHandler.Update)
			r.Post("/test", settingsHandler.Test)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}
