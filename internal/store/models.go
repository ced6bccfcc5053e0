package store

import (
	"time"

	"github.com/symptomwise/symptom-checker/internal/analysis"
)

// SymptomReport is a saved free-text analysis. Reports are append-only: there is no
// update or delete path.
type SymptomReport struct {
	ID                      string                         `json:"id"` // UUID
	UserID                  string                         `json:"user_id"`
	SymptomDescription      string                         `json:"symptom_description"`
	ScanFindingsDescription *string                        `json:"scan_findings_description,omitempty"`
	ReportFileDataURI       *string                        `json:"report_file_data_uri,omitempty"`
	AnalysisResult          analysis.AnalyzeSymptomsOutput `json:"analysis_result"`
	CreatedAt               time.Time                      `json:"created_at"`
}
