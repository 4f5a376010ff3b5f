package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/amishk599/jobmerge/internal/model"
)

// Compile-time checks.
var (
	_ model.BatchSource = (*SQLiteStore)(nil)
	_ model.RecordSink  = (*SQLiteStore)(nil)
	_ model.BatchSource = (*PostgresStore)(nil)
	_ model.RecordSink  = (*PostgresStore)(nil)
	_ model.RecordSink  = (*NopSink)(nil)
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

// parseDate reads a stored calendar date. Anything unparseable becomes the zero
// time so the record fails validation instead of aborting the batch.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(24 * time.Hour)
	}
	return time.Time{}
}

func encodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return "", fmt.Errorf("encode skills: %w", err)
	}
	return string(b), nil
}

// finiteOrNil drops NaN and ±Inf salaries, which neither backend stores reliably.
func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
