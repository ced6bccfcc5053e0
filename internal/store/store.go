package store

import (
	"context"
	"strings"
)

// ReportStore persists symptom reports. Implementations scope every query by user id.
type ReportStore interface {
	CreateReport(ctx context.Context, report *SymptomReport) error
	GetReportsByUserID(ctx context.Context, userID string) ([]SymptomReport, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open picks the backend from the database URL: postgres:// and postgresql:// URLs
// go to Postgres, anything else is treated as a SQLite data source name.
func Open(ctx context.Context, databaseURL string) (ReportStore, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		pg, err := NewPostgresStore(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := NewSQLiteStore(databaseURL)
	if err != nil {
		return nil, err
	}
	return lite, nil
}
