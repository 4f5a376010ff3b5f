package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobmerge/internal/model"
)

// Config is the root configuration for the jobmerge pipeline.
type Config struct {
	Schedule     ScheduleConfig
	Sources      []SourceConfig
	Store        StoreConfig
	Similarity   SimilarityConfig
	AI           AIConfig
	Location     LocationConfig
	Cache        CacheConfig
	Notification NotificationConfig
}

// ScheduleConfig controls the `start` daemon.
type ScheduleConfig struct {
	Interval time.Duration
}

// SourceConfig names one cleaned-record source. The first configured source is
// the primary collection during deduplication.
type SourceConfig struct {
	ID string `yaml:"id"`
}

// StoreConfig selects the table store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection URL for postgres
}

// SimilarityConfig tunes the cross-source matcher.
type SimilarityConfig struct {
	Threshold float64
}

// AIConfig controls the embedding provider and the completion oracle.
type AIConfig struct {
	Enabled           bool
	BaseURL           string        // defaults to https://api.openai.com/v1
	APIKey            string        // expanded from env var by Load
	EmbeddingModel    string        // e.g. "text-embedding-3-small"
	ClassifierModel   string        // fine-tuned job function classifier
	LocationModel     string        // e.g. "gpt-4o-mini"
	Timeout           time.Duration // per-request timeout
	Concurrency       int           // max in-flight provider calls per stage
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
}

// LocationConfig tunes the batched country inference.
type LocationConfig struct {
	BatchSize int // distinct raw locations per oracle request
}

// CacheConfig controls the embedding cache. An empty RedisURL keeps it in memory only.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultEmbeddingModel   = "text-embedding-3-small"
	defaultLocationModel    = "gpt-4o-mini"
	defaultThreshold        = 0.85
	defaultLocationBatch    = 200
	defaultStoreDriver      = "sqlite"
	defaultSQLitePath       = "jobs.db"
	defaultScheduleInterval = 24 * time.Hour
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Schedule     rawScheduleConfig  `yaml:"schedule"`
	Sources      []SourceConfig     `yaml:"sources"`
	Store        StoreConfig        `yaml:"store"`
	Similarity   rawSimilarity      `yaml:"similarity"`
	AI           rawAIConfig        `yaml:"ai"`
	Location     rawLocationConfig  `yaml:"location"`
	Cache        rawCacheConfig     `yaml:"cache"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawScheduleConfig struct {
	Interval string `yaml:"interval"`
}

type rawSimilarity struct {
	Threshold *float64 `yaml:"threshold"`
}

type rawAIConfig struct {
	Enabled           bool    `yaml:"enabled"`
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	ClassifierModel   string  `yaml:"classifier_model"`
	LocationModel     string  `yaml:"location_model"`
	Timeout           string  `yaml:"timeout"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	MaxRetries        *int    `yaml:"max_retries"`
}

type rawLocationConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type rawCacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := defaultScheduleInterval
	if raw.Schedule.Interval != "" {
		interval, err = time.ParseDuration(raw.Schedule.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse schedule.interval %q: %w", raw.Schedule.Interval, err)
		}
	}

	aiTimeout := 30 * time.Second // default
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	cacheTTL := 30 * 24 * time.Hour
	if raw.Cache.TTL != "" {
		cacheTTL, err = time.ParseDuration(raw.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache.ttl %q: %w", raw.Cache.TTL, err)
		}
	}

	threshold := defaultThreshold
	if raw.Similarity.Threshold != nil {
		threshold = *raw.Similarity.Threshold
	}

	maxRetries := 2
	if raw.AI.MaxRetries != nil {
		maxRetries = *raw.AI.MaxRetries
	}

	store := raw.Store
	if store.Driver == "" {
		store.Driver = defaultStoreDriver
	}
	if store.DSN == "" && store.Driver == defaultStoreDriver {
		store.DSN = defaultSQLitePath
	}

	cfg := &Config{
		Schedule: ScheduleConfig{Interval: interval},
		Sources:  raw.Sources,
		Store:    store,
		Similarity: SimilarityConfig{
			Threshold: threshold,
		},
		AI: AIConfig{
			Enabled:           raw.AI.Enabled,
			BaseURL:           orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			APIKey:            raw.AI.APIKey,
			EmbeddingModel:    orDefault(raw.AI.EmbeddingModel, defaultEmbeddingModel),
			ClassifierModel:   raw.AI.ClassifierModel,
			LocationModel:     orDefault(raw.AI.LocationModel, defaultLocationModel),
			Timeout:           aiTimeout,
			Concurrency:       positiveOr(raw.AI.Concurrency, 4),
			RequestsPerSecond: raw.AI.RequestsPerSecond,
			Burst:             positiveOr(raw.AI.Burst, 1),
			MaxRetries:        maxRetries,
		},
		Location: LocationConfig{
			BatchSize: positiveOr(raw.Location.BatchSize, defaultLocationBatch),
		},
		Cache: CacheConfig{
			RedisURL: raw.Cache.RedisURL,
			TTL:      cacheTTL,
		},
		Notification: raw.Notification,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PrimarySource returns the id of the collection favored in dedup tie-breaks.
func (c *Config) PrimarySource() string { return c.Sources[0].ID }

// SecondarySource returns the id of the other collection.
func (c *Config) SecondarySource() string { return c.Sources[1].ID }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}

	if len(cfg.Sources) != 2 {
		return fmt.Errorf("exactly two sources are required, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].ID == cfg.Sources[1].ID {
		return fmt.Errorf("sources must be distinct, got %q twice", cfg.Sources[0].ID)
	}
	for _, s := range cfg.Sources {
		if !model.IsKnownSource(s.ID) {
			return fmt.Errorf("unknown source %q (known: %s)", s.ID, strings.Join(model.KnownSources, ", "))
		}
	}

	switch cfg.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Store.Driver)
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %q", cfg.Store.Driver)
	}

	if cfg.Similarity.Threshold <= 0 || cfg.Similarity.Threshold > 1 {
		return fmt.Errorf("similarity.threshold must be in (0, 1], got %v", cfg.Similarity.Threshold)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.ClassifierModel == "" {
			return fmt.Errorf("ai.classifier_model is required when ai.enabled is true")
		}
	}
	if cfg.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative, got %d", cfg.AI.MaxRetries)
	}
	if cfg.AI.RequestsPerSecond < 0 {
		return fmt.Errorf("ai.requests_per_second must not be negative, got %v", cfg.AI.RequestsPerSecond)
	}

	return nil
}
