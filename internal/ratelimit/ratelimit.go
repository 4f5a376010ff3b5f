package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobmerge/internal/model"
)

// Endpoint kinds that get their own token bucket.
const (
	EndpointEmbeddings = "embeddings"
	EndpointChat       = "chat"
)

// ProviderLimiter keeps one token bucket per provider endpoint kind, so the
// embedding and completion stages are throttled independently.
type ProviderLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewProviderLimiter creates a limiter allowing reqPerSec requests per endpoint
// kind with the given burst. A non-positive reqPerSec disables limiting.
func NewProviderLimiter(reqPerSec float64, burst int) *ProviderLimiter {
	r := rate.Limit(reqPerSec)
	if reqPerSec <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &ProviderLimiter{
		m: make(map[string]*rate.Limiter),
		r: r,
		b: burst,
	}
}

func (l *ProviderLimiter) limiterFor(endpoint string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.m[endpoint]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.r, l.b)
	l.m[endpoint] = lim
	return lim
}

// Wait blocks until the endpoint's bucket allows a request.
// Returns an error if the context is cancelled while waiting.
func (l *ProviderLimiter) Wait(ctx context.Context, endpoint string) error {
	if err := l.limiterFor(endpoint).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", endpoint, err)
	}
	return nil
}

// RateLimitedEmbedder is a decorator that waits for the embeddings bucket
// before delegating to the wrapped Embedder.
type RateLimitedEmbedder struct {
	inner   model.Embedder
	limiter *ProviderLimiter
}

// NewRateLimitedEmbedder wraps an Embedder with endpoint-level rate limiting.
func NewRateLimitedEmbedder(inner model.Embedder, limiter *ProviderLimiter) *RateLimitedEmbedder {
	return &RateLimitedEmbedder{inner: inner, limiter: limiter}
}

// Embed waits for the limiter, then delegates.
func (e *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx, EndpointEmbeddings); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrEmbeddingUnavailable, err)
	}
	return e.inner.Embed(ctx, text)
}

// RateLimitedCompleter is a decorator that waits for the chat bucket before
// delegating to the wrapped Completer.
type RateLimitedCompleter struct {
	inner   model.Completer
	limiter *ProviderLimiter
}

// NewRateLimitedCompleter wraps a Completer with endpoint-level rate limiting.
func NewRateLimitedCompleter(inner model.Completer, limiter *ProviderLimiter) *RateLimitedCompleter {
	return &RateLimitedCompleter{inner: inner, limiter: limiter}
}

// Complete waits for the limiter, then delegates.
func (c *RateLimitedCompleter) Complete(ctx context.Context, modelName, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx, EndpointChat); err != nil {
		return "", err
	}
	return c.inner.Complete(ctx, modelName, prompt)
}
