package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobmerge/internal/model"
)

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatReply("Data and Analytics"))

	provider := NewOpenAIProvider(srv.URL, "test-key", client)
	got, err := provider.Complete(context.Background(), "test-model", "classify this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Data and Analytics" {
		t.Errorf("got %q, want Data and Analytics", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(srv.URL, "test-key", client)
	_, err := provider.Complete(context.Background(), "test-model", "classify this")
	if err == nil {
		t.Fatal("expected error on 5xx response")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
}

func TestComplete_RateLimitedCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "test-key", srv.Client())
	_, err := provider.Complete(context.Background(), "test-model", "classify this")
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", httpErr.RetryAfter)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, map[string]any{"choices": []any{}})

	provider := NewOpenAIProvider(srv.URL, "test-key", client)
	_, err := provider.Complete(context.Background(), "test-model", "classify this")
	if err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_SendsModelAndAuth(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "my-secret-key", srv.Client())
	_, _ = provider.Complete(context.Background(), "ft:classifier", "hello")

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
	if gotReq.Model != "ft:classifier" {
		t.Errorf("model = %q, want ft:classifier", gotReq.Model)
	}
	if gotReq.Temperature != 0 {
		t.Errorf("temperature = %d, want 0", gotReq.Temperature)
	}
	if n := len(gotReq.Messages); n != 2 || gotReq.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestComplete_FineTunedModelGetsUserMessageOnly(t *testing.T) {
	var reqs []chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		reqs = append(reqs, req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "key", srv.Client()).WithoutSystemPrompt("ft:classifier")
	prompt, err := ClassificationPrompt("data engineer")
	if err != nil {
		t.Fatalf("ClassificationPrompt: %v", err)
	}
	if _, err := provider.Complete(context.Background(), "ft:classifier", prompt); err != nil {
		t.Fatalf("Complete classifier: %v", err)
	}
	if _, err := provider.Complete(context.Background(), "gpt-4o-mini", "locations"); err != nil {
		t.Fatalf("Complete location: %v", err)
	}

	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}
	classifier := reqs[0].Messages
	if len(classifier) != 1 || classifier[0].Role != "user" || classifier[0].Content != prompt {
		t.Errorf("classifier messages = %+v, want the bare user prompt", classifier)
	}
	location := reqs[1].Messages
	if len(location) != 2 || location[0].Role != "system" {
		t.Errorf("location messages = %+v, want system + user", location)
	}
}

func TestEmbed_Success(t *testing.T) {
	var gotReq embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q, want /embeddings", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "key", "text-embedding-3-small", srv.Client())
	vec, err := e.Embed(context.Background(), "Backend Engineer Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("len(vec) = %d, want 3", len(vec))
	}
	if gotReq.Input != "Backend Engineer Acme" || gotReq.EncodingFormat != "float" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestEmbed_FailureIsEmbeddingUnavailable(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusServiceUnavailable, map[string]string{"error": "down"})

	e := NewOpenAIEmbedder(srv.URL, "key", "text-embedding-3-small", client)
	_, err := e.Embed(context.Background(), "anything")
	if !errors.Is(err, model.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected wrapped HTTPError 503, got %v", err)
	}
}

func TestEmbed_EmptyData(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, map[string]any{"data": []any{}})

	e := NewOpenAIEmbedder(srv.URL, "key", "m", client)
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, model.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestLocationPrompt_ListsEachLocation(t *testing.T) {
	prompt, err := LocationPrompt([]string{"Berlin", "Lisbon, Portugal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"- Berlin\n", "- Lisbon, Portugal\n", "Format: location -> country"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestClassificationPrompt(t *testing.T) {
	prompt, err := ClassificationPrompt("solidity auditor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt != "Job Title: solidity auditor \n\nJob Function:" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestNopClientsFail(t *testing.T) {
	if _, err := NewNopProvider().Complete(context.Background(), "m", "p"); !errors.Is(err, ErrDisabled) {
		t.Errorf("NopProvider error = %v, want ErrDisabled", err)
	}
	_, err := NewNopEmbedder().Embed(context.Background(), "x")
	if !errors.Is(err, model.ErrEmbeddingUnavailable) {
		t.Errorf("NopEmbedder error = %v, want ErrEmbeddingUnavailable", err)
	}
}
