package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobmerge/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport() model.RunReport {
	return model.RunReport{
		StartedAt:           time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Duration:            3 * time.Second,
		Fetched:             map[string]int{model.SourceWeb3Career: 10, model.SourceCryptoJobsCom: 8},
		CandidatePairs:      4,
		DroppedPrimary:      1,
		DroppedSecondary:    3,
		KeywordClassified:   11,
		OracleClassified:    2,
		DroppedUnclassified: 1,
		UnknownLocations:    2,
		Output:              13,
	}
}

func TestSlackNotifier_SendsSummary(t *testing.T) {
	var body []byte
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 1 {
		t.Errorf("expected 1 HTTP call, got %d", c)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	header := payload.Blocks[0]
	if header.Text.Text != "🧩 jobmerge: 13 jobs published" {
		t.Errorf("header text = %q", header.Text.Text)
	}

	fetched := payload.Blocks[1].Fields[0].Text
	if fetched != "*Fetched:*\ncryptojobscom: 8\nweb3career: 10" {
		t.Errorf("fetched field = %q", fetched)
	}

	dupes := payload.Blocks[1].Fields[1].Text
	if dupes != "*Duplicates dropped:*\n4 of 4 pairs" {
		t.Errorf("duplicates field = %q", dupes)
	}
}

func TestSlackNotifier_DryRunHeader(t *testing.T) {
	r := sampleReport()
	r.DryRun = true
	payload := buildPayload(r)
	if !strings.Contains(payload.Blocks[0].Text.Text, "dry run") {
		t.Errorf("header = %q, want dry run marker", payload.Blocks[0].Text.Text)
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	payload := buildPayload(model.RunReport{})

	if len(payload.Blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" {
		t.Errorf("block[0] type = %q, want header", payload.Blocks[0].Type)
	}
	for i := 1; i <= 3; i++ {
		if payload.Blocks[i].Type != "section" || len(payload.Blocks[i].Fields) != 2 {
			t.Errorf("block[%d] not a 2-field section", i)
		}
	}
	if payload.Blocks[1].Fields[0].Text != "*Fetched:*\nnone" {
		t.Errorf("fetched field = %q for empty report", payload.Blocks[1].Fields[0].Text)
	}
	if payload.Blocks[4].Type != "context" || len(payload.Blocks[4].Elements) != 1 {
		t.Errorf("block[4] not a single-element context block")
	}
	if payload.Blocks[5].Type != "divider" {
		t.Errorf("block[5] type = %q, want divider", payload.Blocks[5].Type)
	}
}

func TestSlackNotifier_SlackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleReport()); err == nil {
		t.Error("expected error on 500, got nil")
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := calls.Add(1)
		if c == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleReport()); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSlackNotifier_RateLimitedContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(ctx, sampleReport()); err == nil {
		t.Fatal("expected error when context expires during backoff")
	}
}

func TestSendTestMessage(t *testing.T) {
	rec := &recordingNotifier{}
	if err := SendTestMessage(context.Background(), rec); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(rec.reports) != 1 || rec.reports[0].Output == 0 {
		t.Errorf("reports = %+v", rec.reports)
	}
}

type recordingNotifier struct {
	reports []model.RunReport
}

func (r *recordingNotifier) Notify(_ context.Context, rep model.RunReport) error {
	r.reports = append(r.reports, rep)
	return nil
}
