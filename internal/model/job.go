package model

import (
	"context"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for posted and ingestion dates.
const DateLayout = "2006-01-02"

// Known job sources. The order of the configured pair decides which collection
// is primary during deduplication.
const (
	SourceWeb3Career    = "web3career"
	SourceCryptoJobsCom = "cryptojobscom"
)

// KnownSources lists every source id the cleaning stage can emit.
var KnownSources = []string{SourceWeb3Career, SourceCryptoJobsCom}

// IsKnownSource reports whether id is one of KnownSources.
func IsKnownSource(id string) bool {
	for _, s := range KnownSources {
		if s == id {
			return true
		}
	}
	return false
}

// Job function categories.
const (
	FunctionData        = "Data and Analytics"
	FunctionEngineering = "Engineering, Product, and Research"
	FunctionBusiness    = "Business, Strategy, and Operations"
	FunctionDesign      = "Design, Art, and Creative"
	FunctionUnknown     = "Unknown"
)

// JobFunctions is the allow-list of canonical job function labels.
var JobFunctions = []string{FunctionData, FunctionEngineering, FunctionBusiness, FunctionDesign}

// IsJobFunction reports whether label is exactly one of the canonical categories.
func IsJobFunction(label string) bool {
	for _, f := range JobFunctions {
		if f == label {
			return true
		}
	}
	return false
}

// Terminal location values.
const (
	LocationRemote  = "Remote"
	LocationUnknown = "Unknown"
)

// JobRecord is a cleaned posting from one source, enriched in place by the pipeline.
type JobRecord struct {
	Source        string    // source id, one of KnownSources
	JobID         string    // unique per source only
	Title         string    // empty when missing, never nil
	Company       string    // empty when missing, never nil
	LocationRaw   *string   // nullable
	IsRemote      bool      // source's own remote signal
	SalaryAmount  *float64  // nullable, may be non-finite upstream
	Skills        []string  // ordered, may be empty
	JobURL        string    // canonical posting URL
	PostedDate    time.Time // day granularity
	IngestionDate time.Time // day granularity

	// Derived by the pipeline.
	Embedding       []float32
	JobFunction     string
	LocationCountry string
}

// Signature is the text compared semantically across sources.
func (r JobRecord) Signature() string {
	return r.Title + " " + r.Company
}

// HasLocation reports whether the record carries a non-blank raw location.
func (r JobRecord) HasLocation() bool {
	return r.LocationRaw != nil && strings.TrimSpace(*r.LocationRaw) != ""
}

// Location returns the raw location or "" when absent.
func (r JobRecord) Location() string {
	if r.LocationRaw == nil {
		return ""
	}
	return *r.LocationRaw
}

// Identity is the idempotent upsert key: ingestion date joined with the job id.
func (r JobRecord) Identity() string {
	return r.IngestionDate.Format(DateLayout) + "-" + r.JobID
}

// OutputRecord is the projected row handed to the upsert collaborator.
type OutputRecord struct {
	MyID          string
	Title         string
	JobFunction   string
	Company       string
	Location      string // normalized country, Remote or Unknown
	SalaryAmount  *int64
	Skills        []string
	Source        string
	JobURL        string
	JobID         string
	PostedDate    time.Time
	IsRemote      bool
	IngestionDate time.Time
}

// Embedder maps a text signature to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer sends a prompt to a completion model and returns the raw text response.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// BatchSource returns the most recently ingested slice of cleaned records for a source.
type BatchSource interface {
	FetchLatestBatch(ctx context.Context, sourceID string) ([]JobRecord, error)
}

// RecordSink persists projected records, keyed by MyID.
type RecordSink interface {
	Upsert(ctx context.Context, records []OutputRecord) error
}

// Notifier reports the outcome of a pipeline run.
type Notifier interface {
	Notify(ctx context.Context, report RunReport) error
}
