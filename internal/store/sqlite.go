package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobmerge/internal/model"
)

// SQLiteStore keeps both the cleaned per-source records and the published
// jobs_clean table in one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cleaned_jobs (
	source         TEXT NOT NULL,
	job_id         TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	company        TEXT NOT NULL DEFAULT '',
	location       TEXT,
	is_remote      INTEGER NOT NULL DEFAULT 0,
	salary_amount  REAL,
	skills         TEXT NOT NULL DEFAULT '[]',
	job_url        TEXT NOT NULL DEFAULT '',
	posted_date    TEXT NOT NULL DEFAULT '',
	ingestion_date TEXT NOT NULL,
	PRIMARY KEY (source, ingestion_date, job_id)
);
CREATE TABLE IF NOT EXISTS jobs_clean (
	my_id          TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	job_function   TEXT NOT NULL,
	company        TEXT NOT NULL,
	location       TEXT NOT NULL,
	salary_amount  INTEGER,
	skills         TEXT NOT NULL,
	source         TEXT NOT NULL,
	job_url        TEXT NOT NULL,
	job_id         TEXT NOT NULL,
	posted_date    TEXT NOT NULL,
	is_remote      INTEGER NOT NULL,
	ingestion_date TEXT NOT NULL
)`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// both tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// FetchLatestBatch returns the rows of sourceID carrying its most recent
// ingestion date, in insertion order.
func (s *SQLiteStore) FetchLatestBatch(ctx context.Context, sourceID string) ([]model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, title, company, location, is_remote, salary_amount,
		       skills, job_url, posted_date, ingestion_date
		FROM cleaned_jobs
		WHERE source = ?
		  AND ingestion_date = (SELECT MAX(ingestion_date) FROM cleaned_jobs WHERE source = ?)
		ORDER BY rowid`, sourceID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying latest batch for %s: %w", sourceID, err)
	}
	defer rows.Close()

	var records []model.JobRecord
	for rows.Next() {
		var (
			r                 model.JobRecord
			location          sql.NullString
			salary            sql.NullFloat64
			skills            string
			posted, ingestion string
		)
		if err := rows.Scan(&r.JobID, &r.Title, &r.Company, &location, &r.IsRemote, &salary,
			&skills, &r.JobURL, &posted, &ingestion); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", sourceID, err)
		}
		r.Source = sourceID
		if location.Valid {
			r.LocationRaw = &location.String
		}
		if salary.Valid {
			r.SalaryAmount = &salary.Float64
		}
		r.Skills = model.ParseSkills(skills)
		r.PostedDate = parseDate(posted)
		r.IngestionDate = parseDate(ingestion)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", sourceID, err)
	}
	return records, nil
}

// InsertCleaned stores records produced by the cleaning stage for sourceID.
// Re-importing the same (ingestion_date, job_id) replaces the earlier row.
func (s *SQLiteStore) InsertCleaned(ctx context.Context, sourceID string, records []model.JobRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO cleaned_jobs
			(source, job_id, title, company, location, is_remote, salary_amount,
			 skills, job_url, posted_date, ingestion_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		skills, err := encodeSkills(r.Skills)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, sourceID, r.JobID, r.Title, r.Company, nullString(r.LocationRaw),
			r.IsRemote, nullFloat(finiteOrNil(r.SalaryAmount)), skills, r.JobURL,
			formatDate(r.PostedDate), formatDate(r.IngestionDate)); err != nil {
			return fmt.Errorf("inserting %s/%s: %w", sourceID, r.JobID, err)
		}
	}
	return tx.Commit()
}

// Upsert writes records to jobs_clean keyed by my_id. Running it twice with the
// same batch leaves the table unchanged.
func (s *SQLiteStore) Upsert(ctx context.Context, records []model.OutputRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jobs_clean
			(my_id, title, job_function, company, location, salary_amount, skills,
			 source, job_url, job_id, posted_date, is_remote, ingestion_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(my_id) DO UPDATE SET
			title = excluded.title,
			job_function = excluded.job_function,
			company = excluded.company,
			location = excluded.location,
			salary_amount = excluded.salary_amount,
			skills = excluded.skills,
			source = excluded.source,
			job_url = excluded.job_url,
			job_id = excluded.job_id,
			posted_date = excluded.posted_date,
			is_remote = excluded.is_remote,
			ingestion_date = excluded.ingestion_date`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		skills, err := encodeSkills(r.Skills)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.MyID, r.Title, r.JobFunction, r.Company, r.Location,
			nullInt(r.SalaryAmount), skills, r.Source, r.JobURL, r.JobID,
			formatDate(r.PostedDate), r.IsRemote, formatDate(r.IngestionDate)); err != nil {
			return fmt.Errorf("upserting %s: %w", r.MyID, err)
		}
	}
	return tx.Commit()
}

// Published returns every jobs_clean row, newest posting first.
func (s *SQLiteStore) Published(ctx context.Context) ([]model.OutputRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT my_id, title, job_function, company, location, salary_amount, skills,
		       source, job_url, job_id, posted_date, is_remote, ingestion_date
		FROM jobs_clean
		ORDER BY posted_date DESC, my_id`)
	if err != nil {
		return nil, fmt.Errorf("querying jobs_clean: %w", err)
	}
	defer rows.Close()

	var out []model.OutputRecord
	for rows.Next() {
		var (
			r                 model.OutputRecord
			salary            sql.NullInt64
			skills            string
			posted, ingestion string
		)
		if err := rows.Scan(&r.MyID, &r.Title, &r.JobFunction, &r.Company, &r.Location, &salary,
			&skills, &r.Source, &r.JobURL, &r.JobID, &posted, &r.IsRemote, &ingestion); err != nil {
			return nil, fmt.Errorf("scanning jobs_clean row: %w", err)
		}
		if salary.Valid {
			r.SalaryAmount = &salary.Int64
		}
		r.Skills = model.ParseSkills(skills)
		r.PostedDate = parseDate(posted)
		r.IngestionDate = parseDate(ingestion)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
