package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athletiq/socialgraph/internal/cache"
	"github.com/athletiq/socialgraph/internal/config"
	"github.com/athletiq/socialgraph/internal/database"
	"github.com/athletiq/socialgraph/internal/handlers"
	"github.com/athletiq/socialgraph/internal/logging"
	"github.com/athletiq/socialgraph/internal/middleware"
	"github.com/athletiq/socialgraph/internal/queue"
	"github.com/athletiq/socialgraph/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.Default.SetLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]any{
			"env": cfg.Server.Environment,
		})
	}

	logger.Info("Starting social graph server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]any{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]any{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Background work stops with the server.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Deferred mutation queue. Without a sync endpoint the queue stays in
	// offline mode and mutations accumulate until an operator drains them.
	mutationQueue := queue.NewRedisQueue(redisDB.Client, "socialgraph:mutations", logger)
	if cfg.Sync.BaseURL != "" {
		syncClient := &http.Client{Timeout: 10 * time.Second}
		go mutationQueue.Run(ctx, queue.RunOptions{
			ProbeInterval: cfg.Sync.ProbeInterval,
			DrainInterval: cfg.Sync.DrainInterval,
			Probe:         syncProbe(syncClient, cfg.Sync.BaseURL),
			Deliver:       syncDeliver(syncClient, cfg.Sync.BaseURL),
		})
		logger.Info("Sync loop started", map[string]any{"base_url": cfg.Sync.BaseURL})
	} else {
		logger.Warn("SYNC_BASE_URL not set; deferred mutations will accumulate")
	}

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	kvStore := database.NewKVStore(db.Pool)
	profileCache := cache.NewRedisCache(redisDB.Client, "socialgraph")

	profileService := services.NewProfileService(dbAdapter)
	relationships := services.NewRelationshipStore(kvStore, mutationQueue, logger)
	if err := relationships.Load(ctx); err != nil {
		return fmt.Errorf("loading relationship state: %w", err)
	}
	feed := services.NewActivityFeed(kvStore, mutationQueue, cfg.Social.FeedRetention, logger)
	if err := feed.Load(ctx); err != nil {
		return fmt.Errorf("loading activity feed: %w", err)
	}
	graph := services.NewSocialGraphService(
		relationships, feed, profileService, profileCache,
		cfg.Social.ProfileCacheTTL, cfg.Social.SearchLimit, logger,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	socialHandler := handlers.NewSocialHandler(graph, logger)
	profileHandler := handlers.NewProfileHandler(graph, logger)
	feedHandler := handlers.NewFeedHandler(graph, logger)

	// Initialize middleware
	identity := middleware.NewIdentity()
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	requestLogger := middleware.NewRequestLogger(logger)
	searchLimiter := middleware.NewRateLimiter(redisDB.Client, cfg.Social.SearchRateLimit, time.Minute, "ratelimit:search")

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Friend request endpoints
	mux.HandleFunc("POST /api/social/friend-requests", socialHandler.SendFriendRequest)
	mux.HandleFunc("GET /api/social/friend-requests", socialHandler.ListPendingRequests)
	mux.HandleFunc("GET /api/social/friend-requests/sent", socialHandler.ListSentRequests)
	mux.HandleFunc("PUT /api/social/friend-requests/{id}/accept", socialHandler.AcceptFriendRequest)
	mux.HandleFunc("PUT /api/social/friend-requests/{id}/decline", socialHandler.DeclineFriendRequest)
	mux.HandleFunc("DELETE /api/social/friend-requests/{id}/cancel", socialHandler.CancelFriendRequest)

	// Friend endpoints
	mux.HandleFunc("GET /api/social/friends", socialHandler.ListFriends)
	mux.HandleFunc("DELETE /api/social/friends/{id}", socialHandler.RemoveFriend)

	// Follow endpoints
	mux.HandleFunc("POST /api/social/follows", socialHandler.Follow)
	mux.HandleFunc("DELETE /api/social/follows", socialHandler.Unfollow)

	// Block endpoints
	mux.HandleFunc("POST /api/social/blocks", socialHandler.Block)
	mux.HandleFunc("DELETE /api/social/blocks", socialHandler.Unblock)
	mux.HandleFunc("GET /api/social/blocks", socialHandler.ListBlocked)

	// Profile endpoints
	mux.HandleFunc("GET /api/athletes/{id}", profileHandler.Get)
	mux.Handle("GET /api/athletes/search", searchLimiter.Limit(http.HandlerFunc(profileHandler.Search)))

	// Feed endpoints
	mux.HandleFunc("GET /api/feed", feedHandler.Get)
	mux.HandleFunc("POST /api/activities", feedHandler.CreateActivity)
	mux.HandleFunc("POST /api/activities/{id}/reactions", feedHandler.AddReaction)

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = identity.Apply(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]any{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]any{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

// syncProbe reports whether the remote sync API answers its health endpoint.
func syncProbe(client *http.Client, baseURL string) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode < http.StatusInternalServerError
	}
}

// syncDeliver replays one deferred mutation against the remote sync API.
// CREATE maps to POST and UPDATE to PUT.
func syncDeliver(client *http.Client, baseURL string) queue.DeliverFunc {
	return func(ctx context.Context, m queue.Mutation) error {
		method := http.MethodPost
		if m.Kind == queue.KindUpdate {
			method = http.MethodPut
		}
		req, err := http.NewRequestWithContext(ctx, method, baseURL+m.Path, bytes.NewReader(m.Payload))
		if err != nil {
			return fmt.Errorf("building sync request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Mutation-ID", m.ID.String())

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("delivering %s %s: %w", method, m.Path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("sync API rejected %s %s: status %d", method, m.Path, resp.StatusCode)
		}
		return nil
	}
}
