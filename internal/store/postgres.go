package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobmerge/internal/model"
)

//go:embed schema/postgres.sql
var postgresSchema string

// PostgresStore is the Postgres (Supabase-compatible) backend.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates a pgx pool for databaseURL and applies the schema.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres dsn is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("postgres store connected", "host", config.ConnConfig.Host)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// FetchLatestBatch returns the rows of sourceID carrying its most recent
// ingestion date, in insertion order.
func (s *PostgresStore) FetchLatestBatch(ctx context.Context, sourceID string) ([]model.JobRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT job_id, title, company, location, is_remote, salary_amount,
		       skills, job_url, posted_date, ingestion_date
		FROM cleaned_jobs
		WHERE source = $1
		  AND ingestion_date = (SELECT MAX(ingestion_date) FROM cleaned_jobs WHERE source = $1)
		ORDER BY inserted_at, job_id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying latest batch for %s: %w", sourceID, err)
	}
	defer rows.Close()

	var records []model.JobRecord
	for rows.Next() {
		var (
			r                 model.JobRecord
			skills            string
			posted, ingestion string
		)
		if err := rows.Scan(&r.JobID, &r.Title, &r.Company, &r.LocationRaw, &r.IsRemote,
			&r.SalaryAmount, &skills, &r.JobURL, &posted, &ingestion); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", sourceID, err)
		}
		r.Source = sourceID
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
func (s *PostgresStore) InsertCleaned(ctx context.Context, sourceID string, records []model.JobRecord) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		skills, err := encodeSkills(r.Skills)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO cleaned_jobs
				(source, job_id, title, company, location, is_remote, salary_amount,
				 skills, job_url, posted_date, ingestion_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (source, ingestion_date, job_id) DO UPDATE SET
				title = EXCLUDED.title,
				company = EXCLUDED.company,
				location = EXCLUDED.location,
				is_remote = EXCLUDED.is_remote,
				salary_amount = EXCLUDED.salary_amount,
				skills = EXCLUDED.skills,
				job_url = EXCLUDED.job_url,
				posted_date = EXCLUDED.posted_date`,
			sourceID, r.JobID, r.Title, r.Company, r.LocationRaw, r.IsRemote,
			finiteOrNil(r.SalaryAmount), skills, r.JobURL,
			formatDate(r.PostedDate), formatDate(r.IngestionDate))
	}
	return s.sendBatch(ctx, batch, "insert cleaned")
}

// Upsert writes records to jobs_clean keyed by my_id in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, records []model.OutputRecord) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		skills, err := encodeSkills(r.Skills)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO jobs_clean
				(my_id, title, job_function, company, location, salary_amount, skills,
				 source, job_url, job_id, posted_date, is_remote, ingestion_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (my_id) DO UPDATE SET
				title = EXCLUDED.title,
				job_function = EXCLUDED.job_function,
				company = EXCLUDED.company,
				location = EXCLUDED.location,
				salary_amount = EXCLUDED.salary_amount,
				skills = EXCLUDED.skills,
				source = EXCLUDED.source,
				job_url = EXCLUDED.job_url,
				job_id = EXCLUDED.job_id,
				posted_date = EXCLUDED.posted_date,
				is_remote = EXCLUDED.is_remote,
				ingestion_date = EXCLUDED.ingestion_date`,
			r.MyID, r.Title, r.JobFunction, r.Company, r.Location, r.SalaryAmount, skills,
			r.Source, r.JobURL, r.JobID, r.PostedDate, r.IsRemote, r.IngestionDate)
	}
	return s.sendBatch(ctx, batch, "upsert")
}

func (s *PostgresStore) sendBatch(ctx context.Context, batch *pgx.Batch, op string) error {
	if batch.Len() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("%s row %d: %w", op, i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	s.logger.Debug("postgres batch committed", "op", op, "rows", batch.Len())
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
