// Package mcpserver exposes the symptom analysis operations as MCP tools so that
// assistant clients can call them over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/symptomwise/symptom-checker/internal/analysis"
	"github.com/symptomwise/symptom-checker/internal/core"
)

// Analyzer is the part of core.AnalysisService the tools need.
type Analyzer interface {
	CheckSymptoms(ctx context.Context, symptoms []string) (*core.SymptomCheck, error)
	AnalyzeSymptoms(ctx context.Context, in analysis.AnalyzeSymptomsInput) (analysis.AnalyzeSymptomsOutput, error)
}

// New creates an MCP server with the analysis tools registered.
func New(analyzer Analyzer, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"symptom-checker",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("Symptom checker: returns possible conditions for reported symptoms. Results are informational and not a medical diagnosis."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("check_symptoms",
			mcp.WithDescription("Analyze a list of symptoms and return possible conditions, an urgency score and recommendations as JSON."),
			mcp.WithArray("symptoms",
				mcp.Description("Symptoms such as \"Headache\" or \"Fever\""),
				mcp.Required(),
				mcp.WithStringItems(),
			),
		),
		checkSymptoms(analyzer),
	)

	s.AddTool(
		mcp.NewTool("analyze_symptoms",
			mcp.WithDescription("Analyze a free-text symptom description, optionally with medical scan findings, and return potential diagnoses as JSON."),
			mcp.WithString("symptom_description", mcp.Description("Description of the symptoms (10-5000 characters)"), mcp.Required()),
			mcp.WithString("scan_findings_description", mcp.Description("Optional findings from medical scans")),
		),
		analyzeSymptoms(analyzer),
	)

	return s
}

func checkSymptoms(analyzer Analyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symptoms := req.GetStringSlice("symptoms", nil)

		check, err := analyzer.CheckSymptoms(ctx, symptoms)
		if err != nil {
			return mcpError(failureMessage(err)), nil
		}

		b, err := json.Marshal(check.Analysis)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal analysis: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func analyzeSymptoms(analyzer Analyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description, err := req.RequireString("symptom_description")
		if err != nil {
			return mcpError("symptom_description is required"), nil
		}

		out, err := analyzer.AnalyzeSymptoms(ctx, analysis.AnalyzeSymptomsInput{
			SymptomDescription:      description,
			ScanFindingsDescription: req.GetString("scan_findings_description", ""),
		})
		if err != nil {
			return mcpError(failureMessage(err)), nil
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal diagnosis: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func failureMessage(err error) string {
	var (
		validationErr *analysis.ValidationError
		configErr     *core.ConfigError
		parseErr      *analysis.ResponseParseError
		schemaErr     *analysis.ResponseSchemaError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &configErr):
		return "API key not configured"
	case errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return "Failed to parse AI response"
	default:
		slog.Error("MCP analysis failed", "error", err)
		return "Failed to analyze symptoms. Please try again."
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
