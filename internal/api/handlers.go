package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/symptomwise/symptom-checker/internal/analysis"
	"github.com/symptomwise/symptom-checker/internal/core"
	"github.com/symptomwise/symptom-checker/internal/store"
)

// isoMillis is ISO-8601 in UTC with millisecond precision, e.g. 2025-06-01T12:00:00.000Z.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

const (
	msgNoSymptoms        = "Please provide at least one symptom"
	msgAPIKeyMissing     = "API key not configured"
	msgUnparsable        = "Failed to parse AI response"
	msgAnalysisFailed    = "Failed to analyze symptoms. Please try again."
	msgNotAuthenticated  = "User not authenticated"
	msgInvalidBody       = "Invalid request body"
	msgImproveFailed     = "Failed to improve the description. Please try again."
	defaultMaxBodyBytes  = 8 << 20
	readinessPingTimeout = 2 * time.Second
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	analysis     *core.AnalysisService
	reports      *core.ReportService
	ready        Pinger
	maxBodyBytes int64
}

// NewAPIHandler wires the handlers. maxBodyBytes bounds every request body; report
// files arrive base64-encoded inside JSON, so it must be larger than the upload limit.
func NewAPIHandler(as *core.AnalysisService, rs *core.ReportService, ready Pinger, maxBodyBytes int64) *APIHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &APIHandler{analysis: as, reports: rs, ready: ready, maxBodyBytes: maxBodyBytes}
}

type AnalyzeRequest struct {
	Symptoms []string `json:"symptoms"`
}

type AnalyzeResponse struct {
	Success          bool                    `json:"success"`
	Analysis         analysis.AnalysisResult `json:"analysis"`
	AnalyzedSymptoms []string                `json:"analyzedSymptoms"`
	Timestamp        string                  `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *APIHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := h.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgNoSymptoms})
		return
	}

	check, err := h.analysis.CheckSymptoms(r.Context(), req.Symptoms)
	if err != nil {
		status, msg := analysisFailure(err)
		if status == http.StatusInternalServerError {
			slog.Error("symptom analysis failed", "error", err, "request_id", requestID(r))
		}
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Success:          true,
		Analysis:         check.Analysis,
		AnalyzedSymptoms: check.AnalyzedSymptoms,
		Timestamp:        check.Timestamp.UTC().Format(isoMillis),
	})
}

// DiagnoseHandler is the free-text analysis. Failures after validation still answer
// with an AnalyzeSymptomsOutput whose notes carry the error.
func (h *APIHandler) DiagnoseHandler(w http.ResponseWriter, r *http.Request) {
	var in analysis.AnalyzeSymptomsInput
	if err := h.decode(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}

	out, err := h.analysis.AnalyzeSymptoms(r.Context(), in)
	if err != nil {
		status, msg := analysisFailure(err)
		if status == http.StatusBadRequest {
			writeJSON(w, status, errorResponse{Error: msg})
			return
		}
		slog.Error("free-text analysis failed", "error", err, "request_id", requestID(r))
		writeJSON(w, status, analysis.ErrorOutput(msg))
		return
	}

	writeJSON(w, http.StatusOK, out)
}

type ImproveRequest struct {
	SymptomDescription string `json:"symptomDescription"`
}

type ImproveResponse struct {
	ImprovedDescription string `json:"improvedDescription"`
}

func (h *APIHandler) ImproveHandler(w http.ResponseWriter, r *http.Request) {
	var req ImproveRequest
	if err := h.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}

	improved, err := h.analysis.ImproveDescription(r.Context(), req.SymptomDescription)
	if err != nil {
		status, msg := analysisFailure(err)
		if status != http.StatusBadRequest {
			slog.Error("improve description failed", "error", err, "request_id", requestID(r))
			if msg == msgAnalysisFailed {
				msg = msgImproveFailed
			}
		}
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, ImproveResponse{ImprovedDescription: improved})
}

type SaveReportResponse struct {
	Data  *store.SymptomReport `json:"data"`
	Error *string              `json:"error"`
}

type ListReportsResponse struct {
	Reports []store.SymptomReport `json:"reports"`
	Error   *string               `json:"error"`
}

func (h *APIHandler) SaveReportHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req core.SaveReportRequest
	if err := h.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, SaveReportResponse{Error: ptr(msgInvalidBody)})
		return
	}

	report, err := h.reports.SaveReport(r.Context(), userID, req)
	if err != nil {
		status, msg := reportFailure(err)
		writeJSON(w, status, SaveReportResponse{Error: &msg})
		return
	}

	writeJSON(w, http.StatusCreated, SaveReportResponse{Data: report})
}

func (h *APIHandler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	reports, err := h.reports.ListReports(r.Context(), userID)
	if err != nil {
		status, msg := reportFailure(err)
		writeJSON(w, status, ListReportsResponse{Reports: []store.SymptomReport{}, Error: &msg})
		return
	}

	writeJSON(w, http.StatusOK, ListReportsResponse{Reports: reports})
}

func (h *APIHandler) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
	defer cancel()

	if err := h.ready.Ping(ctx); err != nil {
		slog.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// analysisFailure maps an analysis error to a status and the message shown to the user.
func analysisFailure(err error) (int, string) {
	var (
		validationErr *analysis.ValidationError
		configErr     *core.ConfigError
		parseErr      *analysis.ResponseParseError
		schemaErr     *analysis.ResponseSchemaError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.As(err, &configErr):
		return http.StatusInternalServerError, msgAPIKeyMissing
	case errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return http.StatusInternalServerError, msgUnparsable
	default:
		return http.StatusInternalServerError, msgAnalysisFailed
	}
}

// reportFailure maps a report error to a status. Store errors are surfaced as is.
func reportFailure(err error) (int, string) {
	var validationErr *analysis.ValidationError
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		return http.StatusUnauthorized, msgNotAuthenticated
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.Is(err, core.ErrInvalidReport):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

func ptr(s string) *string { return &s }
