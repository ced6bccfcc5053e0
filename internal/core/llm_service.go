package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/symptomwise/symptom-checker/internal/attachment"
)

const defaultModelName = "gemini-2.0-flash"

// Generator sends one prompt, with optional report files, to a text model and returns
// the raw reply.
type Generator interface {
	Generate(ctx context.Context, prompt string, files ...*attachment.File) (string, error)
}

type LLMService struct {
	client    *genai.Client
	modelName string
}

// NewLLMService builds the Gemini-backed generator. An empty apiKey is not an error
// here: the service starts and every Generate call fails with ErrMissingAPIKey.
func NewLLMService(ctx context.Context, apiKey, modelName string) (*LLMService, error) {
	if modelName == "" {
		modelName = defaultModelName
	}
	s := &LLMService{modelName: modelName}
	if apiKey == "" {
		slog.Warn("GEMINI_API_KEY is not set; analysis requests will fail until it is configured")
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			slog.Error("error closing GenAI client", "error", err)
		} else {
			slog.Debug("GenAI client closed")
		}
	}
}

// Generate makes a single GenerateContent call with default decoding parameters.
// Images are sent as inline image parts and PDFs as inline blobs.
func (s *LLMService) Generate(ctx context.Context, prompt string, files ...*attachment.File) (string, error) {
	if s.client == nil {
		return "", ErrMissingAPIKey
	}

	parts := []genai.Part{genai.Text(prompt)}
	for _, f := range files {
		switch {
		case f == nil:
		case f.IsImage():
			parts = append(parts, genai.ImageData(f.ImageFormat(), f.Data))
		default:
			parts = append(parts, genai.Blob{MIMEType: f.MIMEType, Data: f.Data})
		}
	}

	model := s.client.GenerativeModel(s.modelName)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", &UpstreamError{Err: fmt.Errorf("gemini GenerateContent failed: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &UpstreamError{Err: fmt.Errorf("gemini returned no candidates")}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			slog.Debug("ignoring non-text gemini response part", "type", fmt.Sprintf("%T", part))
		}
	}
	return text.String(), nil
}
