package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amishk599/jobmerge/internal/model"
)

func TestWait_SameEndpoint_EnforcesRate(t *testing.T) {
	limiter := NewProviderLimiter(10, 1) // one token every 100ms
	ctx := context.Background()

	// First call consumes the burst token and returns immediately.
	if err := limiter.Wait(ctx, EndpointChat); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, EndpointChat); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited about 100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentEndpoints_NoCrossBlocking(t *testing.T) {
	limiter := NewProviderLimiter(5, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, EndpointChat); err != nil {
		t.Fatalf("chat wait: %v", err)
	}

	// Immediately call for embeddings: must not block.
	start := time.Now()
	if err := limiter.Wait(ctx, EndpointEmbeddings); err != nil {
		t.Fatalf("embeddings wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected embeddings wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_Unlimited(t *testing.T) {
	limiter := NewProviderLimiter(0, 0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(ctx, EndpointChat); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected no throttling, took %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewProviderLimiter(0.2, 1) // one token every 5s
	if err := limiter.Wait(context.Background(), EndpointChat); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, EndpointChat); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

type stubEmbedder struct{ calls int }

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return []float32{1, 0}, nil
}

type stubCompleter struct{ calls int }

func (s *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return "ok", nil
}

func TestRateLimitedEmbedder_Delegates(t *testing.T) {
	inner := &stubEmbedder{}
	e := NewRateLimitedEmbedder(inner, NewProviderLimiter(0, 1))

	vec, err := e.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || inner.calls != 1 {
		t.Errorf("vec = %v, calls = %d", vec, inner.calls)
	}
}

func TestRateLimitedEmbedder_CancelledIsEmbeddingUnavailable(t *testing.T) {
	inner := &stubEmbedder{}
	limiter := NewProviderLimiter(0.2, 1)
	_ = limiter.Wait(context.Background(), EndpointEmbeddings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRateLimitedEmbedder(inner, limiter).Embed(ctx, "x")
	if !errors.Is(err, model.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times, want 0", inner.calls)
	}
}

func TestRateLimitedCompleter_Delegates(t *testing.T) {
	inner := &stubCompleter{}
	c := NewRateLimitedCompleter(inner, NewProviderLimiter(0, 1))

	got, err := c.Complete(context.Background(), "m", "p")
	if err != nil || got != "ok" || inner.calls != 1 {
		t.Fatalf("got %q, err %v, calls %d", got, err, inner.calls)
	}
}
