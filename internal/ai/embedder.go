package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobmerge/internal/model"
)

var _ model.Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder calls the OpenAI /v1/embeddings endpoint.
type OpenAIEmbedder struct {
	provider *OpenAIProvider
	model    string
}

// NewOpenAIEmbedder creates an embedder for the given embedding model.
func NewOpenAIEmbedder(baseURL, apiKey, embeddingModel string, httpClient *http.Client) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		provider: NewOpenAIProvider(baseURL, apiKey, httpClient),
		model:    embeddingModel,
	}
}

type embeddingRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// Model returns the embedding model name, used to namespace cache keys.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed returns the embedding vector for text. Every failure wraps
// model.ErrEmbeddingUnavailable.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:          e.model,
		Input:          text,
		EncodingFormat: "float",
	}

	var resp embeddingResponse
	if err := e.provider.post(ctx, "/embeddings", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrEmbeddingUnavailable, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrEmbeddingUnavailable, resp.Error.Message)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", model.ErrEmbeddingUnavailable)
	}
	return resp.Data[0].Embedding, nil
}
