package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/amishk599/jobmerge/internal/model"
)

// ErrDisabled is returned by the no-op clients used when ai.enabled is false.
var ErrDisabled = errors.New("ai disabled")

// NopProvider is a completer that always fails, so every oracle fallback
// resolves to Unknown.
type NopProvider struct{}

// NewNopProvider returns a NopProvider.
func NewNopProvider() *NopProvider {
	return &NopProvider{}
}

// Complete always returns ErrDisabled.
func (n *NopProvider) Complete(_ context.Context, _, _ string) (string, error) {
	return "", ErrDisabled
}

// NopEmbedder is an embedder that always fails, so no record takes part in
// similarity matching.
type NopEmbedder struct{}

// NewNopEmbedder returns a NopEmbedder.
func NewNopEmbedder() *NopEmbedder {
	return &NopEmbedder{}
}

// Embed always returns an error wrapping model.ErrEmbeddingUnavailable.
func (n *NopEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("%w: %w", model.ErrEmbeddingUnavailable, ErrDisabled)
}
