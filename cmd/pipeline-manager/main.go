// cmd/pipeline-manager/main.go
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"refcheck/internal/api"
	"refcheck/internal/common/config"
	"refcheck/internal/common/database"
	"refcheck/internal/common/logger"
	"refcheck/internal/common/observability"
	"refcheck/internal/fraud"
	"refcheck/internal/notify"
	"refcheck/internal/pipeline"
	"refcheck/internal/profile"
	"refcheck/internal/references"
	"refcheck/internal/report"
	"refcheck/internal/resume"
	"refcheck/internal/search"
	"refcheck/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting pipeline manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	recordStore := store.NewPostgresStore(pg.GetDB())

	// --- Init Redis with retry (profile cache only, soft dependency) ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Warn("redis unavailable, profile cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Profile analysis ---
	profileClient := profile.NewClient(cfg.Profile.BaseURL, cfg.Profile.Token, cfg.Profile.Timeout())
	var profiles profile.Summarizer = profile.NewAnalyzer(profileClient, &cfg.Profile, log)
	if redisClient != nil {
		profiles = profile.NewCachedAnalyzer(profiles, redisClient.GetClient(), cfg.Profile.CacheTTL(), log)
	}

	// --- Fraud engine and report synthesis ---
	engine := fraud.NewEngine(&cfg.Fraud, log)
	narrative := report.NewNarrativeClient(&cfg.Narrative, log)
	synthesizer := report.NewSynthesizer(narrative, log)

	opts := pipeline.Options{Obs: obs, Tracing: tracing}

	// --- Notifications (optional) ---
	if cfg.Notifications.Enabled {
		notifier, err := notify.New(ctx, &cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		opts.Notifier = notifier
		zapLog.Info("Notifications enabled", zap.String("region", cfg.Notifications.AWSRegion))
	}

	// --- Elasticsearch report index (optional) ---
	if cfg.Search.Enabled && cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		opts.Indexer = search.NewIndexer(esClient.Client, &cfg.Database.Elasticsearch, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Pipeline ---
	refsCfg := cfg.References
	newGenerator := func() *references.Generator {
		return references.NewGenerator(
			rand.New(rand.NewSource(time.Now().UnixNano())),
			references.WithPerEmployerRange(refsCfg.MinPerEmployer, refsCfg.MaxPerEmployer),
			references.WithResponseRate(refsCfg.ResponseRate),
		)
	}

	pipe := pipeline.New(recordStore, newGenerator, profiles, engine, synthesizer, cfg.Pipeline, log, opts)

	// --- Intake API ---
	validator, err := resume.NewValidator()
	if err != nil {
		zapLog.Fatal("resume validator init failed", zap.Error(err))
	}

	apiServer := api.NewServer(recordStore, validator, pipe, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiServer.Handler(),
	}

	go func() {
		zapLog.Info("Intake API listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Pipeline manager stopped gracefully")
}
