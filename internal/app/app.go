// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/genocem/Edumond-AI-portal/internal/buildinfo"
	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/config"
	"github.com/genocem/Edumond-AI-portal/internal/conversation"
	"github.com/genocem/Edumond-AI-portal/internal/genai"
	"github.com/genocem/Edumond-AI-portal/internal/logger"
	"github.com/genocem/Edumond-AI-portal/internal/matcher"
	"github.com/genocem/Edumond-AI-portal/internal/metrics"
	"github.com/genocem/Edumond-AI-portal/internal/ratelimit"
	"github.com/genocem/Edumond-AI-portal/internal/sentry"
	"github.com/genocem/Edumond-AI-portal/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg         *config.Config
	logger      *logger.Logger
	db          *storage.DB
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
	catalog     *catalog.Catalog
	processor   *conversation.Processor
	engine      *conversation.Engine
	producer    genai.Producer // nil when no LLM provider is configured
	llmLimiter  *ratelimit.KeyedLimiter
	httpLimiter *ratelimit.KeyedLimiter
	router      *gin.Engine
	server      *http.Server
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "edumond-ai-portal")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context calls pick up session and request IDs.
	slog.SetDefault(log.Logger)

	log.WithField("release", buildinfo.Release()).
		WithField("commit", buildinfo.Commit).
		WithField("build_date", buildinfo.BuildDate).
		Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	release := cfg.SentryRelease
	if release == "" {
		release = buildinfo.Release()
	}
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     release,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Error tracking enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).WithField("session_ttl", cfg.SessionTTL).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	cat, source, err := loadCatalog(ctx, cfg, m)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}
	log.WithField("source", source).
		WithField("courses", cat.Len()).
		WithField("countries", cat.Countries()).
		Info("Catalog loaded")

	var producer genai.Producer
	if cfg.HasLLMProvider() {
		llmCfg := cfg.LLMConfig()
		fp, err := genai.CreateProducer(ctx, llmCfg, m)
		if err != nil {
			log.WithError(err).Warn("Turn producer initialization failed, using local replies")
		} else if fp != nil {
			producer = fp
			providers := llmCfg.ConfiguredProviders()
			names := make([]string, len(providers))
			for i, p := range providers {
				names[i] = p.String()
			}
			log.WithField("providers", names).Info("LLM turn producer enabled")
		}
	} else {
		log.Info("No LLM provider configured, using local replies")
	}

	llmLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:       "llm",
		Burst:      cfg.LLMRateBurst,
		RefillRate: cfg.LLMRateRefill / 3600.0, // hourly to per-second
		DailyLimit: cfg.LLMRateDaily,
		Metrics:    m,
	})
	httpLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:       "http",
		Burst:      cfg.HTTPRateBurst,
		RefillRate: cfg.HTTPRateRefill,
		Metrics:    m,
	})

	app, err := newApplication(cfg, log, db, m, registry, cat, producer, llmLimiter, httpLimiter)
	if err != nil {
		llmLimiter.Stop()
		httpLimiter.Stop()
		_ = db.Close()
		return nil, err
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gzhttp.GzipHandler(app.router),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      cfg.HTTPWriteTimeout(),
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// newApplication wires the conversation engine and router around ready dependencies.
func newApplication(
	cfg *config.Config,
	log *logger.Logger,
	db *storage.DB,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	cat *catalog.Catalog,
	producer genai.Producer,
	llmLimiter, httpLimiter *ratelimit.KeyedLimiter,
) (*Application, error) {
	mt := matcher.New(matcher.Options{
		OnlineMarker: cfg.MatchOnlineMarker,
		TopK:         cfg.MatchTopK,
	})

	engineCfg := conversation.EngineConfig{
		Catalog:          cat,
		Matcher:          mt,
		Store:            db,
		Producer:         producer,
		Metrics:          m,
		TurnTimeout:      cfg.LLMTimeout,
		MaxMessageLength: cfg.MaxMessageLength,
		MaxHistory:       cfg.MaxHistory,
	}
	if llmLimiter != nil {
		engineCfg.Limiter = llmLimiter
	}
	engine, err := conversation.NewEngine(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("conversation engine: %w", err)
	}

	app := &Application{
		cfg:         cfg,
		logger:      log,
		db:          db,
		metrics:     m,
		registry:    registry,
		catalog:     cat,
		processor:   conversation.NewProcessor(cat, mt),
		engine:      engine,
		producer:    producer,
		llmLimiter:  llmLimiter,
		httpLimiter: httpLimiter,
	}
	app.router = app.newRouter()
	return app, nil
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	sessions, err := a.db.CountSessions(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count sessions for readiness")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"catalog": gin.H{
			"courses":   a.catalog.Len(),
			"countries": len(a.catalog.Countries()),
		},
		"sessions": sessions,
		"features": gin.H{
			"llm": a.producer != nil,
		},
	})
}

// Run starts the HTTP server and background jobs and blocks until a
// shutdown signal arrives or the server fails.
//
// Background jobs are stopped and awaited before resources are closed so
// that no job touches a closed database.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.sessionCleanup(gctx)
		return nil
	})
	g.Go(func() error {
		a.updateSessionMetrics(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		//nolint:contextcheck // shutdown must outlive the canceled run context
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Error("HTTP server shutdown error")
		}
		return nil
	})

	<-gctx.Done()
	if ctx.Err() != nil {
		a.logger.Info("Received shutdown signal")
	}

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	runErr := g.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	if err := a.shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// shutdown closes resources. Call it after the server and jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Closing resources...")

	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "turn_producer").Error("Component close error")
			errs = append(errs, err)
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
		errs = append(errs, err)
	}

	if a.llmLimiter != nil {
		a.llmLimiter.Stop()
	}
	if a.httpLimiter != nil {
		a.httpLimiter.Stop()
	}

	sentry.Flush(2 * time.Second)

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	return errors.Join(errs...)
}
