package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	if dataSourceName == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS symptom_reports (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        symptom_description TEXT NOT NULL,
        scan_findings_description TEXT,
        report_file_data_uri TEXT,
        analysis_result TEXT NOT NULL, -- JSON
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_symptom_reports_user_created
        ON symptom_reports (user_id, created_at DESC);
    `
	_, err := s.db.Exec(schema)
	return err
}

// CreateReport assigns the report a new id (and a creation time when unset) and inserts it.
func (s *SQLiteStore) CreateReport(ctx context.Context, report *SymptomReport) error {
	report.ID = uuid.NewString()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	resultJSON, err := json.Marshal(report.AnalysisResult)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO symptom_reports (id, user_id, symptom_description, scan_findings_description, report_file_data_uri, analysis_result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare report insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, report.ID, report.UserID, report.SymptomDescription, report.ScanFindingsDescription, report.ReportFileDataURI, string(resultJSON), report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute report insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReportsByUserID(ctx context.Context, userID string) ([]SymptomReport, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, user_id, symptom_description, scan_findings_description, report_file_data_uri, analysis_result, created_at FROM symptom_reports WHERE user_id = ? ORDER BY created_at DESC, rowid DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []SymptomReport{}
	for rows.Next() {
		var (
			r            SymptomReport
			scanFindings sql.NullString
			fileDataURI  sql.NullString
			resultJSON   string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.SymptomDescription, &scanFindings, &fileDataURI, &resultJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		if scanFindings.Valid {
			r.ScanFindingsDescription = &scanFindings.String
		}
		if fileDataURI.Valid {
			r.ReportFileDataURI = &fileDataURI.String
		}
		if err := json.Unmarshal([]byte(resultJSON), &r.AnalysisResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis result of report %s: %w", r.ID, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}
	return reports, nil
}
