package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmerge/internal/model"
)

var loadSource string

var loadCmd = &cobra.Command{
	Use:   "load --source <id> <file.json>",
	Short: "Import cleaned records into the store",
	Long:  "Reads a JSON array of cleaned job records and stores them as a batch of the given source.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&loadSource, "source", "s", "", "source id of the records (required)")
	_ = loadCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	if !model.IsKnownSource(loadSource) {
		return fmt.Errorf("unknown source %q", loadSource)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	records, err := decodeCleaned(f, loadSource)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.InsertCleaned(ctx, loadSource, records); err != nil {
		return fmt.Errorf("insert %s batch: %w", loadSource, err)
	}
	logger.Info("batch loaded", "source", loadSource, "records", len(records))
	return nil
}

// cleanedRow is the JSON shape emitted by the per-source cleaning stage.
// Cleaning exports name the posting date posted_datetime; posted_date is
// accepted as well.
type cleanedRow struct {
	JobID          jobID           `json:"job_id"`
	Title          string          `json:"title"`
	Company        string          `json:"company"`
	Location       *string         `json:"location"`
	IsRemote       bool            `json:"is_remote"`
	SalaryAmount   *float64        `json:"salary_amount"`
	Skills         json.RawMessage `json:"skills"`
	JobURL         string          `json:"job_url"`
	PostedDate     string          `json:"posted_date"`
	PostedDatetime string          `json:"posted_datetime"`
	IngestionDate  string          `json:"ingestion_date"`
}

// jobID accepts a job id written either as a JSON string or as a number.
type jobID string

func (id *jobID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = jobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job_id must be a string or a number, got %s", data)
	}
	// Ids exported as floats (123.0) keep their integer form.
	if i, err := n.Int64(); err == nil {
		*id = jobID(strconv.FormatInt(i, 10))
	} else if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*id = jobID(strconv.FormatInt(int64(f), 10))
	} else {
		*id = jobID(n.String())
	}
	return nil
}

// decodeCleaned parses a JSON array of cleaned rows. Skills may be an array or
// a string in either stored form. A missing ingestion date defaults to today;
// a row without any posting date is rejected.
func decodeCleaned(r io.Reader, sourceID string) ([]model.JobRecord, error) {
	var rows []cleanedRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	today := time.Now().UTC().Format(model.DateLayout)
	records := make([]model.JobRecord, 0, len(rows))
	for i, row := range rows {
		postedRaw := row.PostedDate
		if postedRaw == "" {
			postedRaw = row.PostedDatetime
		}
		if postedRaw == "" {
			return nil, fmt.Errorf("record %d (%s): missing posted_date or posted_datetime", i, row.JobID)
		}
		posted, err := parseDay(postedRaw)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): posted_date: %w", i, row.JobID, err)
		}
		ingested := row.IngestionDate
		if ingested == "" {
			ingested = today
		}
		ingestion, err := parseDay(ingested)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): ingestion_date: %w", i, row.JobID, err)
		}
		skills, err := decodeSkills(row.Skills)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): skills: %w", i, row.JobID, err)
		}
		records = append(records, model.JobRecord{
			Source:        sourceID,
			JobID:         string(row.JobID),
			Title:         row.Title,
			Company:       row.Company,
			LocationRaw:   row.Location,
			IsRemote:      row.IsRemote,
			SalaryAmount:  row.SalaryAmount,
			Skills:        skills,
			JobURL:        row.JobURL,
			PostedDate:    posted,
			IngestionDate: ingestion,
		})
	}
	return records, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(model.DateLayout, s)
}

func decodeSkills(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return model.ParseSkills(s), nil
}
