package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks the non-derived fields the pipeline cannot run without.
func (r JobRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.JobID) == "":
		return fmt.Errorf("%w: missing job_id", ErrMalformedRecord)
	case r.PostedDate.IsZero():
		return fmt.Errorf("%w: job %s: missing posted_date", ErrMalformedRecord, r.JobID)
	case r.IngestionDate.IsZero():
		return fmt.Errorf("%w: job %s: missing ingestion_date", ErrMalformedRecord, r.JobID)
	}
	return nil
}

// ParseSkills decodes a stored skills list. It accepts a JSON array and the
// single-quoted list literal written by older cleaning runs ("['Go', 'Rust']").
// Anything else that is non-empty is treated as a single skill.
func ParseSkills(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return []string{}
	}

	var skills []string
	if err := json.Unmarshal([]byte(raw), &skills); err == nil {
		return skills
	}

	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return []string{raw}
	}

	inner := raw[1 : len(raw)-1]
	skills = []string{}
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `'"`)
		if part != "" {
			skills = append(skills, part)
		}
	}
	return skills
}
