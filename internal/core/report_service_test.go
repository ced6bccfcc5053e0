package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/symptomwise/symptom-checker/internal/analysis"
	"github.com/symptomwise/symptom-checker/internal/store"
)

type mockReportStore struct {
	mu        sync.Mutex
	reports   map[string][]store.SymptomReport
	createErr error
	listErr   error

	// When set, GetReportsByUserID takes its snapshot, signals listStarted and
	// waits on releaseList before returning.
	listStarted chan struct{}
	releaseList chan struct{}

	creates int
	lists   int
}

func newMockReportStore() *mockReportStore {
	return &mockReportStore{reports: make(map[string][]store.SymptomReport)}
}

func (m *mockReportStore) CreateReport(_ context.Context, r *store.SymptomReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	r.ID = "report-" + string(rune('a'+m.creates-1))
	m.reports[r.UserID] = append([]store.SymptomReport{*r}, m.reports[r.UserID]...)
	return nil
}

func (m *mockReportStore) GetReportsByUserID(_ context.Context, userID string) ([]store.SymptomReport, error) {
	m.mu.Lock()
	m.lists++
	if m.listErr != nil {
		m.mu.Unlock()
		return nil, m.listErr
	}
	snapshot := append([]store.SymptomReport(nil), m.reports[userID]...)
	started, release := m.listStarted, m.releaseList
	m.listStarted, m.releaseList = nil, nil
	m.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	return snapshot, nil
}

func (m *mockReportStore) Ping(context.Context) error { return nil }
func (m *mockReportStore) Close() error               { return nil }

func validSaveRequest() SaveReportRequest {
	return SaveReportRequest{
		SymptomDescription: "Dry cough and mild fever for four days",
		AnalysisResult: analysis.AnalyzeSymptomsOutput{
			PotentialDiagnoses: []string{"Viral bronchitis"},
			ConfidenceLevels:   []float64{0.6},
		},
	}
}

func TestSaveReport_NotAuthenticated(t *testing.T) {
	st := newMockReportStore()
	s := NewReportService(st, 0)

	_, err := s.SaveReport(context.Background(), "", validSaveRequest())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	if st.creates != 0 {
		t.Errorf("store written %d times, want 0", st.creates)
	}
}

func TestListReports_NotAuthenticated(t *testing.T) {
	st := newMockReportStore()
	s := NewReportService(st, 0)

	if _, err := s.ListReports(context.Background(), ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	if st.lists != 0 {
		t.Errorf("store queried %d times, want 0", st.lists)
	}
}

func TestListReports_EmptyHistory(t *testing.T) {
	s := NewReportService(newMockReportStore(), 0)

	reports, err := s.ListReports(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if reports == nil || len(reports) != 0 {
		t.Errorf("reports = %v, want empty non-nil slice", reports)
	}
}

func TestSaveReport_RejectsFailedAnalysis(t *testing.T) {
	st := newMockReportStore()
	s := NewReportService(st, 0)

	req := validSaveRequest()
	req.AnalysisResult = analysis.ErrorOutput("model unavailable")
	if _, err := s.SaveReport(context.Background(), "user-1", req); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("error = %v, want ErrInvalidReport", err)
	}

	req = validSaveRequest()
	req.SymptomDescription = " "
	var verr *analysis.ValidationError
	if _, err := s.SaveReport(context.Background(), "user-1", req); !errors.As(err, &verr) {
		t.Errorf("error = %v, want *analysis.ValidationError", err)
	}

	req = validSaveRequest()
	req.ReportFileDataURI = "data:text/plain;base64,aGVsbG8gd29ybGQ="
	if _, err := s.SaveReport(context.Background(), "user-1", req); !errors.As(err, &verr) {
		t.Errorf("error = %v, want *analysis.ValidationError", err)
	}

	if st.creates != 0 {
		t.Errorf("store written %d times, want 0", st.creates)
	}
}

func TestSaveReport_InvalidatesHistory(t *testing.T) {
	st := newMockReportStore()
	s := NewReportService(st, 0)
	ctx := context.Background()

	if _, err := s.ListReports(ctx, "user-1"); err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if _, err := s.ListReports(ctx, "user-1"); err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if st.lists != 1 {
		t.Fatalf("store queried %d times, want 1 (second list served from cache)", st.lists)
	}

	saved, err := s.SaveReport(ctx, "user-1", validSaveRequest())
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if saved.UserID != "user-1" || saved.ScanFindingsDescription != nil {
		t.Errorf("saved report = %+v", saved)
	}

	reports, err := s.ListReports(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if st.lists != 2 {
		t.Errorf("store queried %d times, want 2 after invalidation", st.lists)
	}
	if len(reports) != 1 || reports[0].ID != saved.ID {
		t.Errorf("reports = %+v, want the saved report", reports)
	}
}

func TestListReports_SaveDuringReadIsNotHidden(t *testing.T) {
	st := newMockReportStore()
	st.listStarted = make(chan struct{})
	st.releaseList = make(chan struct{})
	started, release := st.listStarted, st.releaseList
	s := NewReportService(st, 0)
	ctx := context.Background()

	done := make(chan []store.SymptomReport)
	go func() {
		reports, err := s.ListReports(ctx, "user-1")
		if err != nil {
			t.Errorf("ListReports: %v", err)
		}
		done <- reports
	}()

	<-started
	saved, err := s.SaveReport(ctx, "user-1", validSaveRequest())
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	close(release)
	if stale := <-done; len(stale) != 0 {
		t.Fatalf("in-flight list = %+v, want the pre-save snapshot", stale)
	}

	reports, err := s.ListReports(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != saved.ID {
		t.Errorf("reports = %+v, want the saved report", reports)
	}
}

func TestListReports_CacheExpires(t *testing.T) {
	st := newMockReportStore()
	s := NewReportService(st, 0)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := s.ListReports(ctx, "user-1"); err != nil {
		t.Fatalf("ListReports: %v", err)
	}

	// Another process writes straight to the shared store.
	other := NewReportService(st, 0)
	if _, err := other.SaveReport(ctx, "user-1", validSaveRequest()); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	now = now.Add(defaultHistoryTTL)
	reports, err := s.ListReports(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("len(reports) = %d after TTL, want 1", len(reports))
	}
}

func TestListReports_CallerCannotMutateCache(t *testing.T) {
	st := newMockReportStore()
	s := NewReportService(st, 0)
	ctx := context.Background()

	req := validSaveRequest()
	req.ScanFindingsDescription = "Chest X-ray clear"
	if _, err := s.SaveReport(ctx, "user-1", req); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	first, err := s.ListReports(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	*first[0].ScanFindingsDescription = "tampered"
	first[0].AnalysisResult.PotentialDiagnoses[0] = "tampered"
	first[0].SymptomDescription = "tampered"

	second, err := s.ListReports(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if st.lists != 1 {
		t.Fatalf("store queried %d times, want 1", st.lists)
	}
	got := second[0]
	if *got.ScanFindingsDescription != "Chest X-ray clear" ||
		got.AnalysisResult.PotentialDiagnoses[0] != "Viral bronchitis" ||
		got.SymptomDescription != validSaveRequest().SymptomDescription {
		t.Errorf("cached report was mutated through a returned value: %+v", got)
	}
}

func TestReportService_SurfacesStoreErrors(t *testing.T) {
	st := newMockReportStore()
	st.createErr = errors.New("failed to insert report: disk full")
	st.listErr = errors.New("failed to query reports: database is locked")
	s := NewReportService(st, 0)

	if _, err := s.SaveReport(context.Background(), "user-1", validSaveRequest()); err == nil || err.Error() != "failed to insert report: disk full" {
		t.Errorf("SaveReport error = %v", err)
	}
	if _, err := s.ListReports(context.Background(), "user-1"); err == nil || err.Error() != "failed to query reports: database is locked" {
		t.Errorf("ListReports error = %v", err)
	}
}

func TestReportService_WithSQLiteStore(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	s := NewReportService(st, 0)
	ctx := context.Background()

	req := validSaveRequest()
	req.ScanFindingsDescription = "Chest X-ray clear"
	if _, err := s.SaveReport(ctx, "user-1", req); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	reports, err := s.ListReports(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("len(reports) = %d, want 1", len(reports))
	}
	if reports[0].ScanFindingsDescription == nil || *reports[0].ScanFindingsDescription != "Chest X-ray clear" {
		t.Errorf("ScanFindingsDescription = %v", reports[0].ScanFindingsDescription)
	}

	others, err := s.ListReports(ctx, "user-2")
	if err != nil || len(others) != 0 {
		t.Errorf("ListReports(user-2) = %v, %v; want empty", others, err)
	}
}
