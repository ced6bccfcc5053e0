package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/symptomwise/symptom-checker/internal/analysis"
	"github.com/symptomwise/symptom-checker/internal/attachment"
)

// SymptomCheck is a successful tag-based analysis together with the symptoms that were
// actually sent to the model.
type SymptomCheck struct {
	Analysis         analysis.AnalysisResult
	AnalyzedSymptoms []string
	Timestamp        time.Time
}

// AnalysisService runs single, stateless model round-trips. Nothing is cached and
// nothing is retried: every failure is returned to the caller as is.
type AnalysisService struct {
	llm            Generator
	maxUploadBytes int
	now            func() time.Time
}

func NewAnalysisService(llm Generator, maxUploadBytes int) *AnalysisService {
	return &AnalysisService{
		llm:            llm,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// CheckSymptoms analyses a list of symptom tags.
func (s *AnalysisService) CheckSymptoms(ctx context.Context, symptoms []string) (*SymptomCheck, error) {
	collected := analysis.CollectSymptoms(symptoms)
	if len(collected) == 0 {
		return nil, &analysis.ValidationError{Field: "symptoms", Message: "Please provide at least one symptom"}
	}

	raw, err := s.llm.Generate(ctx, analysis.BuildSymptomPrompt(collected))
	if err != nil {
		return nil, err
	}

	result, err := analysis.NormalizeAnalysis(raw)
	if err != nil {
		logUnusableResponse(err, raw)
		return nil, err
	}

	return &SymptomCheck{
		Analysis:         result,
		AnalyzedSymptoms: collected,
		Timestamp:        s.now().UTC(),
	}, nil
}

// AnalyzeSymptoms analyses a free-text description, optional scan findings and an
// optional report file.
func (s *AnalysisService) AnalyzeSymptoms(ctx context.Context, in analysis.AnalyzeSymptomsInput) (analysis.AnalyzeSymptomsOutput, error) {
	if err := analysis.ValidateDiagnosisInput(in); err != nil {
		return analysis.AnalyzeSymptomsOutput{}, err
	}

	var (
		files          []*attachment.File
		attachmentText string
	)
	if in.ReportFileDataURI != "" {
		f, err := attachment.Decode(in.ReportFileDataURI, s.maxUploadBytes)
		if err != nil {
			return analysis.AnalyzeSymptomsOutput{}, &analysis.ValidationError{Field: "reportFileDataUri", Message: err.Error()}
		}
		text, err := f.Text()
		if err != nil {
			// The file still goes to the model; only the extracted text is lost.
			slog.Warn("could not extract text from report file", "mime_type", f.MIMEType, "error", err)
		}
		attachmentText = text
		files = append(files, f)
	}

	raw, err := s.llm.Generate(ctx, analysis.BuildDiagnosisPrompt(in, attachmentText), files...)
	if err != nil {
		return analysis.AnalyzeSymptomsOutput{}, err
	}

	out, err := analysis.NormalizeDiagnosis(raw)
	if err != nil {
		logUnusableResponse(err, raw)
		return analysis.AnalyzeSymptomsOutput{}, err
	}
	return out, nil
}

// ImproveDescription asks the model to rewrite a symptom description. The reply is
// plain text; surrounding code fences are removed.
func (s *AnalysisService) ImproveDescription(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", &analysis.ValidationError{Field: "symptomDescription", Message: "Please enter your symptoms first."}
	}

	raw, err := s.llm.Generate(ctx, analysis.BuildImprovePrompt(description))
	if err != nil {
		return "", err
	}

	improved := strings.Trim(analysis.StripCodeFences(raw), "\"'\n\r\t ")
	if improved == "" {
		return "", &UpstreamError{Err: fmt.Errorf("model returned an empty description")}
	}
	return improved, nil
}

func logUnusableResponse(err error, raw string) {
	var schemaErr *analysis.ResponseSchemaError
	if errors.As(err, &schemaErr) {
		slog.Error("model response failed schema validation", "field", schemaErr.Field, "problem", schemaErr.Problem, "raw", raw)
		return
	}
	slog.Error("failed to parse model response", "error", err, "raw", raw)
}
