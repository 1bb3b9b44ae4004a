// Package app wires configuration, infrastructure, and every domain
// package into the api/worker/migrate runtime modes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/clearvoice/feedback/internal/config"
	"github.com/clearvoice/feedback/internal/crypto"
	"github.com/clearvoice/feedback/internal/httpserver"
	"github.com/clearvoice/feedback/internal/platform"
	"github.com/clearvoice/feedback/internal/telemetry"
	"github.com/clearvoice/feedback/pkg/aipipeline"
	"github.com/clearvoice/feedback/pkg/auth"
	"github.com/clearvoice/feedback/pkg/classifier"
	"github.com/clearvoice/feedback/pkg/embedding"
	"github.com/clearvoice/feedback/pkg/enduser"
	"github.com/clearvoice/feedback/pkg/feedback"
	"github.com/clearvoice/feedback/pkg/queue"
	"github.com/clearvoice/feedback/pkg/team"
	"github.com/clearvoice/feedback/pkg/theme"
	"github.com/clearvoice/feedback/pkg/vectorindex"
	"github.com/clearvoice/feedback/pkg/widget"
	"github.com/clearvoice/feedback/pkg/workspace"
)

const serviceVersion = "dev"

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the requested mode.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting clearvoice", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, "clearvoice", serviceVersion)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("shutting down tracer", "error", err)
		}
	}()

	if cfg.Mode == "migrate" {
		if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("migrations applied")
		return nil
	}

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg)
	case "worker":
		return runWorker(ctx, cfg, logger, db, rdb)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

// newAIAdapters selects the embedding/vector-index/classifier adapters per
// the capability-binding vocabulary (AI, VECTORIZE, CLAUDE_API_KEY). Only
// memory-backed adapters exist for embedding/vectorindex in this service;
// "memory://" is also the configuration default, so no external dependency
// is required to run locally.
func newAIAdapters(cfg *config.Config, logger *slog.Logger) (embedding.Provider, vectorindex.Index, classifier.Classifier) {
	embedder := embedding.Provider(embedding.NewMemoryProvider())
	if cfg.EmbeddingURL != "memory://" {
		logger.Warn("unrecognized AI embedding binding, falling back to memory provider", "ai", cfg.EmbeddingURL)
	}

	index := vectorindex.Index(vectorindex.NewMemoryIndex())
	if cfg.VectorIndexURL != "memory://" {
		logger.Warn("unrecognized VECTORIZE binding, falling back to memory index", "vectorize", cfg.VectorIndexURL)
	}

	var clf classifier.Classifier
	if cfg.ClaudeAPIKey != "" {
		clf = classifier.NewAnthropicClassifier(cfg.ClaudeAPIKey, cfg.ClaudeModel)
		logger.Info("classifier: using Anthropic", "model", cfg.ClaudeModel)
	} else {
		clf = classifier.NewHeuristicClassifier()
		logger.Info("classifier: using keyword heuristic (CLAUDE_API_KEY not set)")
	}

	return embedder, index, clf
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	accessTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("parsing access token ttl %q: %w", cfg.AccessTokenTTL, err)
	}
	issuer, err := crypto.NewTokenIssuer(cfg.AdminAPIToken, accessTTL)
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	// Stores
	authStore := auth.NewStore(db)
	workspaceStore := workspace.NewStore(db)
	endUserStore := enduser.NewStore(db)
	teamStore := team.NewStore(db)
	feedbackStore := feedback.NewStore(db)
	themeStore := theme.NewStore(db)
	aiStore := aipipeline.NewStore(db)

	// Queue backend, shared between the api process (enqueue only) and the
	// worker process (consume).
	queueBackend := queue.Backend(queue.NewRedisBackend(rdb))

	// Services
	workspaceService := workspace.NewService(workspaceStore)
	teamService := team.NewService(teamStore, authStore)
	feedbackService := feedback.NewService(feedbackStore, workspaceService, endUserStore, queueBackend)

	// HTTP server
	srv := httpserver.NewServer(httpserver.Config{CORSAllowedOrigins: cfg.CORSAllowedOrigins}, logger, db, rdb, metricsReg, auth.Middleware(issuer, authStore))

	// spec §6.1: unauthenticated liveness probe and the widget bootstrap asset.
	srv.Router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpserver.Respond(w, http.StatusOK, map[string]bool{"ok": true})
	})
	srv.Router.Get("/widget.js", widget.Handler())

	// --- Public, unauthenticated routes ---
	loginHandler := auth.NewLoginHandler(authStore, issuer, logger)
	oauthHandler := auth.NewOAuthHandler(
		cfg.OAuthGoogleID, cfg.OAuthGoogleSecret, cfg.OAuthGoogleRedirect,
		cfg.OAuthGitHubID, cfg.OAuthGitHubSecret, cfg.OAuthGitHubRedirect,
		authStore, issuer, rdb, logger,
	)
	authHandler := auth.NewHandler(loginHandler, oauthHandler)
	// srv.APIRouter already carries auth.Middleware globally (passed to
	// NewServer above as the sole process-wide middleware); it resolves a
	// bearer if present but never itself rejects, so signup/login/oauth and
	// the public board routes mounted on it stay reachable unauthenticated.
	srv.APIRouter.Mount("/auth", authHandler.Routes())

	acceptHandler := team.NewAcceptHandler(logger, teamService, workspaceStore)
	srv.APIRouter.Route("/invitations", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Mount("/", acceptHandler.Routes())
	})

	// Public, per-board widget API (spec §6.1): no bearer auth, board
	// resolution IS the authorization boundary.
	publicFeedbackHandler := feedback.NewPublicHandler(logger, feedbackService)
	srv.APIRouter.Mount("/{workspace}/{board}", publicFeedbackHandler.Routes())

	// --- Authenticated, workspace-scoped admin API ---
	// spec §6.2 treats /api/v1/workspaces/{slug}/... and
	// /api/v1/admin/workspaces/{slug}/... as aliases; mount the same
	// subtree under both prefixes.
	mountAdminAPI := func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Use(auth.WorkspaceScope(authStore))

		workspaceHandler := workspace.NewHandler(logger, workspaceService)
		r.Mount("/", workspaceHandler.Routes())

		adminFeedbackHandler := feedback.NewAdminHandler(logger, feedbackService, feedbackStore)
		r.Mount("/", adminFeedbackHandler.Routes())

		themeHandler := theme.NewHandler(logger, themeStore)
		r.Mount("/", themeHandler.Routes())

		aiHandler := aipipeline.NewHandler(logger, aiStore, feedbackStore, queueBackend)
		r.Mount("/", aiHandler.Routes())

		// team.Handler.Routes applies its own per-route-group RequireMinRole
		// gating internally (self-removal and team listing need only the
		// authentication already required above; invite/change-role/
		// list-invites/cancel-invite are admin-gated within it).
		teamHandler := team.NewHandler(logger, teamService)
		r.Mount("/", teamHandler.Routes())
	}
	srv.APIRouter.Route("/workspaces/{workspace_slug}", mountAdminAPI)
	srv.APIRouter.Route("/admin/workspaces/{workspace_slug}", mountAdminAPI)

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client) error {
	logger.Info("worker started")

	feedbackStore := feedback.NewStore(db)
	aiStore := aipipeline.NewStore(db)
	queueBackend := queue.Backend(queue.NewRedisBackend(rdb))

	embedder, index, clf := newAIAdapters(cfg, logger)
	orchestrator := aipipeline.NewOrchestrator(feedbackStore, aiStore, embedder, index, clf, logger)
	worker := aipipeline.NewWorker(queueBackend, orchestrator, aiStore, logger)

	err := worker.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
