package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps reports in a Postgres database, such as the one behind a hosted
// auth+database service.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
    CREATE TABLE IF NOT EXISTS symptom_reports (
        id UUID PRIMARY KEY,
        user_id TEXT NOT NULL,
        symptom_description TEXT NOT NULL,
        scan_findings_description TEXT,
        report_file_data_uri TEXT,
        analysis_result JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );

    CREATE INDEX IF NOT EXISTS idx_symptom_reports_user_created
        ON symptom_reports (user_id, created_at DESC);
    `)
	return err
}

func (s *PostgresStore) CreateReport(ctx context.Context, report *SymptomReport) error {
	report.ID = uuid.NewString()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	resultJSON, err := json.Marshal(report.AnalysisResult)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO symptom_reports (id, user_id, symptom_description, scan_findings_description, report_file_data_uri, analysis_result, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ID, report.UserID, report.SymptomDescription, report.ScanFindingsDescription, report.ReportFileDataURI, resultJSON, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReportsByUserID(ctx context.Context, userID string) ([]SymptomReport, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, user_id, symptom_description, scan_findings_description, report_file_data_uri, analysis_result, created_at
         FROM symptom_reports WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []SymptomReport{}
	for rows.Next() {
		var (
			r          SymptomReport
			resultJSON []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.SymptomDescription, &r.ScanFindingsDescription, &r.ReportFileDataURI, &resultJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		if err := json.Unmarshal(resultJSON, &r.AnalysisResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis result of report %s: %w", r.ID, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}
	return reports, nil
}
