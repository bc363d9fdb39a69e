package main

import (
	"context"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clera-dev/clera-gateway/internal/broker"
	"github.com/clera-dev/clera-gateway/internal/config"
	"github.com/clera-dev/clera-gateway/internal/handler"
	"github.com/clera-dev/clera-gateway/internal/middleware"
	"github.com/clera-dev/clera-gateway/internal/pkg/logger"
	"github.com/clera-dev/clera-gateway/internal/repository"
	"github.com/clera-dev/clera-gateway/internal/routeauth"
	"github.com/clera-dev/clera-gateway/internal/service"
)

func main() {
	// 0. Initialize Logger
	logger.Init("info")

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.Watch()

	// 2. Initialize Persistence
	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	logger.Info("✅ Connected to PostgreSQL")

	// Status cache and idempotency state (Redis > memory). Lookups fall
	// through to Postgres without the cache.
	var statusCache service.StatusCache
	var idemStore middleware.IdempotencyStore = middleware.NewInMemIdempotencyStore()
	if cfg.Redis.Addr != "" {
		cache, err := repository.NewStatusCache(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			statusCache = cache
			idemStore = repository.NewRedisIdempotencyStore(cache.Client, 24*time.Hour)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back to memory", "error", err)
		}
	}

	onboardingRepo := repository.NewOnboardingRepo(db)
	subscriptionRepo := repository.NewSubscriptionRepo(db)
	fundingRepo := repository.NewFundingRepo(db)

	// 3. Initialize Core Services
	sessionVerifier := service.NewSessionVerifier(cfg)
	if err := sessionVerifier.StartKeyCache(context.Background()); err != nil {
		log.Fatalf("Failed to start JWKS cache: %v", err)
	}

	brokerClient := broker.NewClient(cfg)
	var plaidClient service.PlaidAPI
	if cfg.Plaid.ClientID != "" {
		plaidClient = broker.NewPlaidClient(cfg)
	}

	statusSvc := service.NewStatusService(onboardingRepo, subscriptionRepo, fundingRepo, statusCache, cfg)
	fundingSvc := service.NewFundingService(fundingRepo, brokerClient, plaidClient, statusCache, cfg)
	accountSvc := service.NewAccountService(db, brokerClient, onboardingRepo)

	auditSvc, err := service.NewAuditService("./logs", repository.NewPostgresAuditRepo(db))
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	// Transfer event stream reconciles the funding ledger in the background.
	var stream *broker.EventStream
	if cfg.Broker.EventsURL != "" && cfg.Broker.APIKey != "" {
		stream = broker.NewEventStream(cfg.Broker.EventsURL, cfg.Broker.APIKey, cfg.Broker.APISecret, fundingSvc.HandleTransferEvent)
		stream.Start()
	}

	resolver := routeauth.NewResolver(routeauth.DefaultTable())

	// 4. Initialize Handlers
	accountHandler := handler.NewAccountHandler(accountSvc)
	fundingHandler := handler.NewFundingHandler(fundingSvc, accountSvc)
	systemHandler := handler.NewSystemHandler(subscriptionRepo, fundingSvc, statusCache)
	auditHandler := handler.NewAuditHandler(auditSvc)

	// 5. Setup Router
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))
	r.Use(middleware.SessionMiddleware(sessionVerifier))
	r.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit.QPS, cfg.RateLimit.Burst)))
	r.Use(middleware.AccessControl(resolver, statusSvc))
	r.Use(middleware.IdempotencyMiddleware(idemStore))

	// Health Check
	r.GET("/api/health", handler.Health)

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Account and funding APIs. Access requirements are enforced by the
	// route table, not per-handler.
	r.POST("/api/broker/create-account", accountHandler.CreateAccount)
	r.GET("/api/account/status", accountHandler.Status)
	r.GET("/api/account/audit", auditHandler.List)
	r.POST("/api/broker/connect-bank", fundingHandler.ConnectBank)
	r.GET("/api/broker/bank-status", fundingHandler.ListRelationships)
	r.POST("/api/broker/transfer", fundingHandler.InitiateTransfer)
	r.GET("/api/broker/transfer", fundingHandler.ListTransfers)

	// System routes (shared secret, no user session)
	system := r.Group("/")
	system.Use(middleware.SystemMiddleware(cfg))
	{
		system.POST("/api/webhooks/stripe", systemHandler.StripeWebhook)
		system.POST("/api/cron/reconcile", systemHandler.Reconcile)
	}

	// Everything else falls through to the frontend, gated by the same rules.
	if cfg.Server.UpstreamURL != "" {
		upstream, err := url.Parse(cfg.Server.UpstreamURL)
		if err != nil {
			log.Fatalf("Invalid upstream URL: %v", err)
		}
		proxy := httputil.NewSingleHostReverseProxy(upstream)
		r.NoRoute(func(c *gin.Context) {
			proxy.ServeHTTP(c.Writer, c.Request)
		})
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 Clera gateway started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if stream != nil {
		stream.Stop()
	}
	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
