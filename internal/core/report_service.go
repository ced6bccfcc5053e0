package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/symptomwise/symptom-checker/internal/analysis"
	"github.com/symptomwise/symptom-checker/internal/attachment"
	"github.com/symptomwise/symptom-checker/internal/store"
)

// SaveReportRequest is what a user saves after a successful free-text analysis.
type SaveReportRequest struct {
	SymptomDescription      string                         `json:"symptomDescription"`
	ScanFindingsDescription string                         `json:"scanFindingsDescription,omitempty"`
	ReportFileDataURI       string                         `json:"reportFileDataUri,omitempty"`
	AnalysisResult          analysis.AnalyzeSymptomsOutput `json:"analysisResult"`
}

// defaultHistoryTTL bounds how long a cached history can miss writes made by other
// processes sharing the store.
const defaultHistoryTTL = 30 * time.Second

type historyEntry struct {
	reports   []store.SymptomReport // newest first
	fetchedAt time.Time
}

// ReportService saves and lists a user's reports. The caller passes the authenticated
// user id explicitly; an empty id means there is no session.
type ReportService struct {
	store          store.ReportStore
	maxUploadBytes int
	ttl            time.Duration
	now            func() time.Time

	mu      sync.Mutex
	history map[string]historyEntry
	// generation is bumped by every save; a list only caches its result if the
	// user's generation did not move while it read the store.
	generation map[string]uint64
}

func NewReportService(s store.ReportStore, maxUploadBytes int) *ReportService {
	return &ReportService{
		store:          s,
		maxUploadBytes: maxUploadBytes,
		ttl:            defaultHistoryTTL,
		now:            time.Now,
		history:        make(map[string]historyEntry),
		generation:     make(map[string]uint64),
	}
}

// SaveReport stores one report for userID and drops that user's cached history.
func (s *ReportService) SaveReport(ctx context.Context, userID string, req SaveReportRequest) (*store.SymptomReport, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	report := &store.SymptomReport{
		UserID:                  userID,
		SymptomDescription:      req.SymptomDescription,
		ScanFindingsDescription: optional(req.ScanFindingsDescription),
		ReportFileDataURI:       optional(req.ReportFileDataURI),
		AnalysisResult:          req.AnalysisResult,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		slog.Error("error saving report", "user_id", userID, "error", err)
		return nil, err
	}

	s.invalidate(userID)
	return report, nil
}

// ListReports returns userID's reports, newest first. A user without reports gets an
// empty slice.
func (s *ReportService) ListReports(ctx context.Context, userID string) ([]store.SymptomReport, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	cached, ok := s.history[userID]
	gen := s.generation[userID]
	s.mu.Unlock()
	if ok && s.now().Sub(cached.fetchedAt) < s.ttl {
		return cloneReports(cached.reports), nil
	}

	reports, err := s.store.GetReportsByUserID(ctx, userID)
	if err != nil {
		slog.Error("error fetching reports", "user_id", userID, "error", err)
		return nil, err
	}
	if reports == nil {
		reports = []store.SymptomReport{}
	}

	s.mu.Lock()
	if s.generation[userID] == gen {
		s.history[userID] = historyEntry{reports: cloneReports(reports), fetchedAt: s.now()}
	}
	s.mu.Unlock()
	return reports, nil
}

func (s *ReportService) validate(req SaveReportRequest) error {
	if strings.TrimSpace(req.SymptomDescription) == "" {
		return &analysis.ValidationError{Field: "symptomDescription", Message: "symptom description is required"}
	}
	if req.AnalysisResult.IsError() || len(req.AnalysisResult.PotentialDiagnoses) == 0 {
		return fmt.Errorf("%w: the analysis result has no diagnoses", ErrInvalidReport)
	}
	if req.ReportFileDataURI != "" {
		if _, err := attachment.Decode(req.ReportFileDataURI, s.maxUploadBytes); err != nil {
			return &analysis.ValidationError{Field: "reportFileDataUri", Message: err.Error()}
		}
	}
	return nil
}

func (s *ReportService) invalidate(userID string) {
	s.mu.Lock()
	delete(s.history, userID)
	s.generation[userID]++
	s.mu.Unlock()
}

// cloneReports deep-copies reports so callers cannot reach into the cache.
func cloneReports(in []store.SymptomReport) []store.SymptomReport {
	out := make([]store.SymptomReport, len(in))
	for i, r := range in {
		r.ScanFindingsDescription = cloneString(r.ScanFindingsDescription)
		r.ReportFileDataURI = cloneString(r.ReportFileDataURI)
		r.AnalysisResult.PotentialDiagnoses = slices.Clone(r.AnalysisResult.PotentialDiagnoses)
		r.AnalysisResult.ConfidenceLevels = slices.Clone(r.AnalysisResult.ConfidenceLevels)
		out[i] = r
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
