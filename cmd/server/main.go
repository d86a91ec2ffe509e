package main

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lancecerto/lancecerto/internal"
	"github.com/lancecerto/lancecerto/internal/ai"
	"github.com/lancecerto/lancecerto/internal/ai/gemini"
	aimock "github.com/lancecerto/lancecerto/internal/ai/mock"
	"github.com/lancecerto/lancecerto/internal/billing"
	"github.com/lancecerto/lancecerto/internal/export"
	"github.com/lancecerto/lancecerto/internal/handler"
	"github.com/lancecerto/lancecerto/internal/metrics"
	"github.com/lancecerto/lancecerto/internal/middleware"
	"github.com/lancecerto/lancecerto/internal/repository"
	"github.com/lancecerto/lancecerto/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize AI provider
	var provider ai.TextProvider
	switch cfg.AIProvider {
	case "mock":
		provider = aimock.New(logger)
		logger.Warn("Using mock AI provider; generated proposals are canned")
	default:
		provider, err = gemini.New(gemini.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, logger)
		if err != nil {
			return fmt.Errorf("gemini provider initialization failed: %w", err)
		}
	}

	// Initialize billing. A nil service keeps the API functional without
	// Stripe credentials; billing endpoints answer 503.
	var billingService billing.Service
	if cfg.StripeConfigured() {
		billingService = billing.NewStripeService(
			cfg.StripeSecretKey,
			cfg.StripeWebhookSecret,
			cfg.FrontendURL,
			billing.PriceConfig{
				StarterPriceID: cfg.StripePriceStarter,
				PremiumPriceID: cfg.StripePricePremium,
			},
		)
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe not configured; billing endpoints will answer 503")
	}

	// Initialize services
	subscriptionService := service.NewSubscriptionService(repo, logger)
	proposalService := service.NewProposalService(repo, repo, provider, logger)
	premiumService := service.NewPremiumService(repo, repo, repo, provider, logger)

	// Initialize handlers
	proposalHandler := handler.NewProposalHandler(proposalService, logger)
	billingHandler := handler.NewBillingHandler(billingService, subscriptionService, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, subscriptionService, logger)
	premiumHandler := handler.NewPremiumHandler(premiumService, logger)
	exportHandler := handler.NewExportHandler(subscriptionService, []export.Generator{
		export.NewPDFGenerator(),
		export.NewDOCXGenerator(),
	}, logger)
	healthHandler := handler.NewHealthHandler(db, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	healthHandler.RegisterRoutes(mux)
	billingHandler.RegisterRoutes(mux)
	premiumHandler.RegisterRoutes(mux)
	exportHandler.RegisterRoutes(mux)

	// Proposal routes are registered directly so generation gets its own
	// rate limit, bucketed by the userId in the request body rather than by
	// IP so one user cannot exhaust a shared NAT bucket.
	generationLimiter := middleware.NewRateLimiter(10, 15*time.Minute, logger)
	generationMw := middleware.NewRateLimitMiddleware(generationLimiter, logger).
		WithKeyFunc(middleware.UserIDKeyFunc)
	mux.Handle("POST /api/gerar-lance", generationMw.Limit(http.HandlerFunc(proposalHandler.HandleGenerate)))
	mux.HandleFunc("GET /api/jobs/{userId}", proposalHandler.HandleListJobs)

	webhookLimiter := middleware.NewRateLimiter(30, time.Minute, logger)
	webhookMw := middleware.NewRateLimitMiddleware(webhookLimiter, logger)
	mux.Handle("POST /api/webhook", webhookMw.Limit(http.HandlerFunc(webhookHandler.HandleStripeWebhook)))

	// Metrics endpoint, outside the /api rate limit
	mux.Handle("GET /metrics", metricsAuth(cfg, promhttp.Handler()))

	// ==========================================================================
	// Middleware stack (outermost first)
	// ==========================================================================

	apiLimiter := middleware.NewRateLimiter(100, 15*time.Minute, logger)
	apiMw := middleware.NewRateLimitMiddleware(apiLimiter, logger)

	isSecure := cfg.Env != "development"
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	corsMw := middleware.NewCORS(cfg.AllowedOrigins)

	var root http.Handler = mux
	root = limitAPI(apiMw, root)
	root = metrics.Middleware(root)
	root = loggingMw.Handler(root)
	root = corsMw(root)
	root = securityMw.Handler(root)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "ai_provider", cfg.AIProvider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// limitAPI applies the global rate limit to /api routes only. Health probes
// and the metrics scrape stay unthrottled.
func limitAPI(mw *middleware.RateLimitMiddleware, next http.Handler) http.Handler {
	limited := mw.Limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != "/api/health" {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsAuth protects the Prometheus endpoint with basic auth when
// credentials are configured.
func metricsAuth(cfg *internal.Config, next http.Handler) http.Handler {
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.MetricsUsername)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.MetricsPassword)) == 1
		if !ok || !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
