package main

import (
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobmerge/internal/model"
)

func TestDecodeCleaned(t *testing.T) {
	input := `[
	  {"job_id": "a1", "title": "Go Engineer", "company": "Acme", "location": "Berlin",
	   "salary_amount": 120000.5, "skills": ["Go", "SQL"], "job_url": "https://x/a1",
	   "posted_date": "2024-05-01", "ingestion_date": "2024-05-03"},
	  {"job_id": "a2", "title": "Designer", "company": "", "is_remote": true,
	   "skills": "['Figma', 'Sketch']", "posted_date": "2024-05-02", "ingestion_date": "2024-05-03"},
	  {"job_id": "a3", "title": "Analyst", "skills": null, "posted_datetime": "2024-04-30", "ingestion_date": "2024-05-03"}
	]`

	records, err := decodeCleaned(strings.NewReader(input), model.SourceWeb3Career)
	if err != nil {
		t.Fatalf("decodeCleaned: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.Source != model.SourceWeb3Career {
		t.Errorf("Source = %q", first.Source)
	}
	if first.LocationRaw == nil || *first.LocationRaw != "Berlin" {
		t.Errorf("LocationRaw = %v, want Berlin", first.LocationRaw)
	}
	if first.SalaryAmount == nil || *first.SalaryAmount != 120000.5 {
		t.Errorf("SalaryAmount = %v", first.SalaryAmount)
	}
	if want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC); !first.PostedDate.Equal(want) {
		t.Errorf("PostedDate = %v, want %v", first.PostedDate, want)
	}
	if len(first.Skills) != 2 || first.Skills[1] != "SQL" {
		t.Errorf("Skills = %v", first.Skills)
	}

	second := records[1]
	if !second.IsRemote || second.LocationRaw != nil {
		t.Errorf("remote record = %+v", second)
	}
	if len(second.Skills) != 2 || second.Skills[0] != "Figma" {
		t.Errorf("legacy skills = %v", second.Skills)
	}

	third := records[2]
	if want := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC); !third.PostedDate.Equal(want) {
		t.Errorf("PostedDate from posted_datetime = %v, want %v", third.PostedDate, want)
	}
	if third.Skills == nil || len(third.Skills) != 0 {
		t.Errorf("null skills = %#v, want empty slice", third.Skills)
	}
}

// Rows straight out of the cleaning scripts: posted_datetime, numeric job ids
// and a source column the loader ignores.
func TestDecodeCleaned_CleaningExportShape(t *testing.T) {
	input := `[
	  {"title": "Backend Engineer", "company": "Acme", "location": "Lisbon", "salary_amount": null,
	   "skills": "['Go', 'Postgres']", "source": "web3career", "job_url": "https://x/123",
	   "job_id": 123, "posted_datetime": "2024-05-01", "is_remote": false, "ingestion_date": "2024-05-02"},
	  {"title": "Data Analyst", "company": "Beta", "location": null, "salary_amount": 90000.0,
	   "skills": [], "source": "web3career", "job_url": "https://x/456",
	   "job_id": 456.0, "posted_datetime": "2024-05-02", "is_remote": true, "ingestion_date": "2024-05-02"}
	]`

	records, err := decodeCleaned(strings.NewReader(input), model.SourceWeb3Career)
	if err != nil {
		t.Fatalf("decodeCleaned: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			t.Errorf("record %s: Validate = %v", r.JobID, err)
		}
	}
	if records[0].JobID != "123" || records[1].JobID != "456" {
		t.Errorf("JobIDs = %q, %q, want 123, 456", records[0].JobID, records[1].JobID)
	}
	if want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC); !records[0].PostedDate.Equal(want) {
		t.Errorf("PostedDate = %v, want %v", records[0].PostedDate, want)
	}
	if got := records[0].Identity(); got != "2024-05-02-123" {
		t.Errorf("Identity = %q, want 2024-05-02-123", got)
	}
}

func TestDecodeCleaned_DefaultsIngestionDate(t *testing.T) {
	records, err := decodeCleaned(strings.NewReader(`[{"job_id": "b1", "posted_date": "2024-01-01"}]`), model.SourceCryptoJobsCom)
	if err != nil {
		t.Fatalf("decodeCleaned: %v", err)
	}
	today := time.Now().UTC().Format(model.DateLayout)
	if got := records[0].IngestionDate.Format(model.DateLayout); got != today {
		t.Errorf("IngestionDate = %s, want %s", got, today)
	}
}

func TestDecodeCleaned_Errors(t *testing.T) {
	tests := map[string]string{
		"not an array":    `{"job_id": "x"}`,
		"bad date":        `[{"job_id": "x", "posted_date": "05/01/2024"}]`,
		"bad skills":      `[{"job_id": "x", "posted_date": "2024-05-01", "skills": 42}]`,
		"no posting date": `[{"job_id": "x", "ingestion_date": "2024-05-01"}]`,
		"bool job id":     `[{"job_id": true, "posted_date": "2024-05-01"}]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := decodeCleaned(strings.NewReader(input), model.SourceWeb3Career); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
