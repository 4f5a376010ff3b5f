package location

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/jobmerge/internal/model"
)

// DefaultBatchSize caps how many distinct locations go into one oracle request.
const DefaultBatchSize = 200

// Oracle maps raw location strings to countries. The response is raw text,
// one "location -> country" pair per line.
type Oracle interface {
	InferCountries(ctx context.Context, locations []string) (string, error)
}

// Result is the outcome of normalizing one batch.
type Result struct {
	Records    []model.JobRecord
	Remote     int
	Unknown    int
	Queried    int // distinct raw strings sent to the oracle
	Unresolved int // distinct raw strings the oracle did not map
}

// Normalizer fills JobRecord.LocationCountry.
type Normalizer struct {
	oracle    Oracle
	batchSize int
	logger    *slog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(oracle Oracle, batchSize int, logger *slog.Logger) *Normalizer {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Normalizer{oracle: oracle, batchSize: batchSize, logger: logger}
}

// Normalize resolves every record's country. The remote flag always wins;
// records without a location, or whose location the oracle could not map,
// end up Unknown. Every distinct raw string is queried once.
func (n *Normalizer) Normalize(ctx context.Context, records []model.JobRecord) (Result, error) {
	var distinct []string
	seen := make(map[string]bool)
	for _, r := range records {
		if r.IsRemote || !r.HasLocation() {
			continue
		}
		key := strings.TrimSpace(r.Location())
		if !seen[key] {
			seen[key] = true
			distinct = append(distinct, key)
		}
	}

	countries, err := n.resolve(ctx, distinct)
	if err != nil {
		return Result{}, err
	}

	res := Result{Queried: len(distinct)}
	for _, loc := range distinct {
		if _, ok := countries[loc]; !ok {
			res.Unresolved++
		}
	}

	res.Records = make([]model.JobRecord, len(records))
	for i, r := range records {
		switch {
		case r.IsRemote:
			r.LocationCountry = model.LocationRemote
			res.Remote++
		case !r.HasLocation():
			r.LocationCountry = model.LocationUnknown
		default:
			if c, ok := countries[strings.TrimSpace(r.Location())]; ok {
				r.LocationCountry = c
			} else {
				r.LocationCountry = model.LocationUnknown
			}
		}
		if r.LocationCountry == model.LocationUnknown {
			res.Unknown++
		}
		res.Records[i] = r
	}

	n.logger.Info("location normalization complete",
		"records", len(records),
		"remote", res.Remote,
		"unknown", res.Unknown,
		"queried", res.Queried,
		"unresolved", res.Unresolved,
	)
	return res, nil
}

// resolve queries the oracle in chunks of batchSize. A failed or unparseable
// chunk leaves its locations unresolved; only cancellation aborts.
func (n *Normalizer) resolve(ctx context.Context, locations []string) (map[string]string, error) {
	out := make(map[string]string, len(locations))
	for start := 0; start < len(locations); start += n.batchSize {
		end := min(start+n.batchSize, len(locations))
		chunk := locations[start:end]

		resp, err := n.oracle.InferCountries(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("infer countries: %w", ctx.Err())
			}
			n.logger.Warn("location batch failed, leaving unresolved",
				"batch_start", start,
				"batch_size", len(chunk),
				"error", err,
			)
			continue
		}

		parsed := ParseCountryMap(resp)
		if len(parsed) == 0 {
			n.logger.Warn("location batch unparseable, leaving unresolved",
				"batch_start", start,
				"batch_size", len(chunk),
				"error", model.ErrOracleUnparseable,
			)
			continue
		}
		for _, loc := range chunk {
			if c, ok := parsed[loc]; ok {
				out[loc] = c
			}
		}
	}
	return out, nil
}
