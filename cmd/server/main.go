package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hrdocs/internal/auth"
	"hrdocs/internal/config"
	"hrdocs/internal/explorer"
	"hrdocs/internal/handler"
	"hrdocs/internal/middleware"
	"hrdocs/internal/repository"
	serviceDocsys "hrdocs/internal/service/docsystem"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
		"content_backend", cfg.ContentBackend,
	)

	// JWT verifier; without JWKS_URL the dev viewer headers are trusted
	var jwtVerifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		jwtVerifier, err = auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	} else if cfg.IsDev() {
		logger.Warn("DEV MODE: JWKS_URL not set, trusting X-Viewer-ID and X-Viewer-Role headers")
	} else {
		log.Fatalf("JWKS_URL is required outside the dev environment")
	}

	ctx := context.Background()

	// Item store
	rawStore, closeStore, err := repository.OpenItemStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open item store: %v", err)
	}
	defer closeStore()
	store := serviceDocsys.NewInstrumentedStore(rawStore, cfg.StoreTimeout, logger)

	// Content store
	contentStore, err := repository.OpenContentStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open content store: %v", err)
	}

	// Document services
	collator, err := serviceDocsys.NewNameCollator(cfg.CollationLocale)
	if err != nil {
		log.Fatalf("Failed to create name collator: %v", err)
	}
	policy := serviceDocsys.DefaultPolicy()
	archives := serviceDocsys.NewLazyArchiveProvider(serviceDocsys.NewArchiveLoader(cfg.ArchiveEnabled), logger)

	services := &explorer.Services{
		Store:     store,
		Mutations: serviceDocsys.NewMutationEngine(store, policy, collator, logger),
		Transfers: serviceDocsys.NewTransferEngine(store, contentStore, archives, policy, collator, cfg.MaxUploadBytes, logger),
		Policy:    policy,
		Collator:  collator,
	}
	manager := explorer.NewManager(services, cfg.SessionCacheSize, cfg.SessionTTL, logger)

	explorerHandler := handler.NewExplorerHandler(manager, cfg.MaxUploadBytes, logger)
	healthHandler := handler.NewHealthHandler(manager)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	explorerHandler.RegisterRoutes(mux)

	// Build middleware chain
	var handler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Metrics → Routes
	handler = middleware.Metrics()(handler)
	handler = middleware.AuthMiddleware(jwtVerifier, logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Viewer-ID", "X-Viewer-Role"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Archive-Entries", "X-Archive-Skipped"},
		AllowCredentials: true,
	})
	handler = corsHandler.Handler(handler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
}
