package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobmerge/internal/model"
)

// CachedEmbedder is a decorator that memoizes embeddings in two tiers:
// L1 in-memory for the life of the process and, when configured, L2 Redis so
// vectors survive restarts and identical signatures embed identically across runs.
type CachedEmbedder struct {
	inner     model.Embedder
	modelName string
	l1        sync.Map      // key → *entry
	rdb       *redis.Client // nil disables L2
	ttl       time.Duration
	logger    *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	vec       []float32
	expiresAt time.Time
}

// NewCachedEmbedder wraps inner. rdb may be nil.
func NewCachedEmbedder(inner model.Embedder, modelName string, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:     inner,
		modelName: modelName,
		rdb:       rdb,
		ttl:       ttl,
		logger:    logger,
	}
}

// Connect parses redisURL and pings the server. Callers treat an error as
// "run without L2".
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Key builds the deterministic cache key for a signature under a model.
func Key(modelName, text string) string {
	hash := sha256.Sum256([]byte(modelName + "|" + text))
	return fmt.Sprintf("emb:%x", hash[:16])
}

// Embed returns the cached vector for text or delegates and stores the result.
// Failures are never cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(c.modelName, text)

	if vec, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		return vec, nil
	}
	c.misses.Add(1)

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, vec)
	return vec, nil
}

// Stats returns hit and miss counters.
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedEmbedder) get(ctx context.Context, key string) ([]float32, bool) {
	if val, ok := c.l1.Load(key); ok {
		e := val.(*entry)
		if time.Now().Before(e.expiresAt) {
			return e.vec, true
		}
		c.l1.Delete(key)
	}

	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("embedding cache: L2 get failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	c.l1.Store(key, &entry{vec: vec, expiresAt: time.Now().Add(c.ttl)})
	return vec, true
}

func (c *CachedEmbedder) set(ctx context.Context, key string, vec []float32) {
	c.l1.Store(key, &entry{vec: vec, expiresAt: time.Now().Add(c.ttl)})

	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("embedding cache: L2 set failed", "error", err)
	}
}
