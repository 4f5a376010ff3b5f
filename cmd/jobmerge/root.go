package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobmerge/internal/ai"
	"github.com/amishk599/jobmerge/internal/cache"
	"github.com/amishk599/jobmerge/internal/classify"
	"github.com/amishk599/jobmerge/internal/config"
	"github.com/amishk599/jobmerge/internal/location"
	"github.com/amishk599/jobmerge/internal/model"
	"github.com/amishk599/jobmerge/internal/notifier"
	"github.com/amishk599/jobmerge/internal/pipeline"
	"github.com/amishk599/jobmerge/internal/ratelimit"
	"github.com/amishk599/jobmerge/internal/retry"
	"github.com/amishk599/jobmerge/internal/similarity"
	"github.com/amishk599/jobmerge/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobmerge",
	Short: "Merge, classify and publish job postings from two sources",
	Long: "jobmerge reads the latest cleaned batch of two job sources, removes cross-source\n" +
		"duplicates, assigns a job function and a country to every posting, and upserts\n" +
		"the merged batch into the published table.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; only a malformed file is an error.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBMERGE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBMERGE_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBMERGE_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// tableStore is what the CLI needs from a storage backend.
type tableStore interface {
	model.BatchSource
	model.RecordSink
	InsertCleaned(ctx context.Context, sourceID string, records []model.JobRecord) error
	Close() error
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (tableStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		logger.Info("using postgres store")
		return store.NewPostgresStore(ctx, cfg.Store.DSN, logger)
	default:
		logger.Debug("using sqlite store", "path", cfg.Store.DSN)
		return store.NewSQLiteStore(cfg.Store.DSN)
	}
}

// setupProviders returns the completion and embedding clients, decorated with rate
// limiting, retries and the embedding cache. The returned closer releases the
// Redis connection, if any.
func setupProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.Completer, model.Embedder, func()) {
	closer := func() {}
	if !cfg.AI.Enabled {
		logger.Warn("ai disabled: embeddings and oracle calls will fail, records degrade to keyword-only handling")
		return ai.NewNopProvider(), ai.NewNopEmbedder(), closer
	}

	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	limiter := ratelimit.NewProviderLimiter(cfg.AI.RequestsPerSecond, cfg.AI.Burst)
	policy := retry.Policy{MaxRetries: cfg.AI.MaxRetries, BaseDelay: time.Second}

	var completer model.Completer = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, httpClient).
		WithoutSystemPrompt(cfg.AI.ClassifierModel)
	completer = ratelimit.NewRateLimitedCompleter(completer, limiter)
	completer = retry.NewRetryCompleter(completer, policy, logger)

	var embedder model.Embedder = ai.NewOpenAIEmbedder(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.EmbeddingModel, httpClient)
	embedder = ratelimit.NewRateLimitedEmbedder(embedder, limiter)
	embedder = retry.NewRetryEmbedder(embedder, policy, logger)

	var rdb *redis.Client
	if cfg.Cache.RedisURL != "" {
		var err error
		rdb, err = cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory embedding cache only", "error", err)
			rdb = nil
		} else {
			closer = func() { _ = rdb.Close() }
		}
	}
	embedder = cache.NewCachedEmbedder(embedder, cfg.AI.EmbeddingModel, rdb, cfg.Cache.TTL, logger)

	logger.Info("ai enabled",
		"embedding_model", cfg.AI.EmbeddingModel,
		"classifier_model", cfg.AI.ClassifierModel,
		"location_model", cfg.AI.LocationModel,
		"concurrency", cfg.AI.Concurrency,
	)
	return completer, embedder, closer
}

// buildPipeline wires the pipeline on top of an open store. dryRun swaps the
// store's sink for a NopSink.
func buildPipeline(ctx context.Context, cfg *config.Config, st tableStore, dryRun bool, logger *slog.Logger) (*pipeline.Pipeline, func()) {
	completer, embedder, closer := setupProviders(ctx, cfg, logger)
	oracle := ai.NewOracle(completer, cfg.AI.ClassifierModel, cfg.AI.LocationModel)

	stages := pipeline.Stages{
		Dedup:      similarity.NewEngine(embedder, cfg.Similarity.Threshold, cfg.AI.Concurrency, logger),
		Classifier: classify.NewClassifier(oracle, cfg.AI.Concurrency, logger),
		Locator:    location.NewNormalizer(oracle, cfg.Location.BatchSize, logger),
	}

	source := retry.NewRetrySource(st, retry.Policy{MaxRetries: 2, BaseDelay: 5 * time.Second}, logger)

	var sink model.RecordSink = st
	if dryRun {
		sink = store.NewNopSink(logger)
	}

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)

	p := pipeline.New(pipeline.Config{
		Primary:   cfg.PrimarySource(),
		Secondary: cfg.SecondarySource(),
		DryRun:    dryRun,
	}, source, sink, n, stages, logger)
	return p, closer
}
