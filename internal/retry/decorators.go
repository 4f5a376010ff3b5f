package retry

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobmerge/internal/model"
)

// RetrySource is a decorator that retries transient FetchLatestBatch failures.
type RetrySource struct {
	inner  model.BatchSource
	policy Policy
	logger *slog.Logger
}

// NewRetrySource wraps a BatchSource with retry logic.
func NewRetrySource(inner model.BatchSource, policy Policy, logger *slog.Logger) *RetrySource {
	return &RetrySource{inner: inner, policy: policy, logger: logger}
}

// FetchLatestBatch delegates with retries.
func (s *RetrySource) FetchLatestBatch(ctx context.Context, sourceID string) ([]model.JobRecord, error) {
	return Do(ctx, s.policy, s.logger, "fetch "+sourceID, func(ctx context.Context) ([]model.JobRecord, error) {
		return s.inner.FetchLatestBatch(ctx, sourceID)
	})
}

// RetryCompleter is a decorator that retries transient completion failures.
type RetryCompleter struct {
	inner  model.Completer
	policy Policy
	logger *slog.Logger
}

// NewRetryCompleter wraps a Completer with retry logic.
func NewRetryCompleter(inner model.Completer, policy Policy, logger *slog.Logger) *RetryCompleter {
	return &RetryCompleter{inner: inner, policy: policy, logger: logger}
}

// Complete delegates with retries.
func (c *RetryCompleter) Complete(ctx context.Context, modelName, prompt string) (string, error) {
	return Do(ctx, c.policy, c.logger, "complete "+modelName, func(ctx context.Context) (string, error) {
		return c.inner.Complete(ctx, modelName, prompt)
	})
}

// RetryEmbedder is a decorator that retries transient embedding failures.
type RetryEmbedder struct {
	inner  model.Embedder
	policy Policy
	logger *slog.Logger
}

// NewRetryEmbedder wraps an Embedder with retry logic.
func NewRetryEmbedder(inner model.Embedder, policy Policy, logger *slog.Logger) *RetryEmbedder {
	return &RetryEmbedder{inner: inner, policy: policy, logger: logger}
}

// Embed delegates with retries.
func (e *RetryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return Do(ctx, e.policy, e.logger, "embed", func(ctx context.Context) ([]float32, error) {
		return e.inner.Embed(ctx, text)
	})
}
