// Package analysis holds the request/response contract between symptom input and the
// model's JSON reply: the two response shapes, the prompt builders and the normalizer
// that turns raw model text into validated values.
package analysis

import "strings"

// Severity is the model's estimate of how serious a single condition is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// UrgencyLevel summarises how quickly care should be sought.
type UrgencyLevel string

const (
	UrgencyLow       UrgencyLevel = "low"
	UrgencyModerate  UrgencyLevel = "moderate"
	UrgencyHigh      UrgencyLevel = "high"
	UrgencyEmergency UrgencyLevel = "emergency"
)

// Condition is one possible explanation for the submitted symptoms.
type Condition struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Confidence         int      `json:"confidence"`
	Severity           Severity `json:"severity"`
	MatchedSymptoms    []string `json:"matchedSymptoms"`
	AdditionalSymptoms []string `json:"additionalSymptoms"`
	RecommendedActions []string `json:"recommendedActions"`
}

// AnalysisResult is the reply to a tag-based symptom check.
type AnalysisResult struct {
	Conditions             []Condition  `json:"conditions"`
	UrgencyScore           int          `json:"urgencyScore"`
	UrgencyLevel           UrgencyLevel `json:"urgencyLevel"`
	GeneralRecommendations []string     `json:"generalRecommendations"`
	Disclaimer             string       `json:"disclaimer"`
	WhenToSeekHelp         []string     `json:"whenToSeekHelp"`
}

// LevelForScore maps an urgency score onto the level the model is asked to report.
// The service never rewrites the model's own level with it.
func LevelForScore(score int) UrgencyLevel {
	switch {
	case score <= 3:
		return UrgencyLow
	case score <= 5:
		return UrgencyModerate
	case score <= 7:
		return UrgencyHigh
	default:
		return UrgencyEmergency
	}
}

// AnalyzeSymptomsInput is the free-text diagnosis request.
type AnalyzeSymptomsInput struct {
	SymptomDescription      string `json:"symptomDescription"`
	ScanFindingsDescription string `json:"scanFindingsDescription,omitempty"`
	ReportFileDataURI       string `json:"reportFileDataUri,omitempty"`
}

// AnalyzeSymptomsOutput is the reply to a free-text diagnosis request.
type AnalyzeSymptomsOutput struct {
	PotentialDiagnoses []string  `json:"potentialDiagnoses"`
	ConfidenceLevels   []float64 `json:"confidenceLevels,omitempty"`
	AdditionalNotes    string    `json:"additionalNotes,omitempty"`
}

const errorNotesPrefix = "Error:"

// ErrorOutput builds the failure form of an output: no diagnoses and the message in
// AdditionalNotes behind the "Error:" prefix.
func ErrorOutput(msg string) AnalyzeSymptomsOutput {
	return AnalyzeSymptomsOutput{
		PotentialDiagnoses: []string{},
		AdditionalNotes:    errorNotesPrefix + " " + msg,
	}
}

// IsError reports whether the output signals a failure rather than a real result.
func (o AnalyzeSymptomsOutput) IsError() bool {
	return strings.HasPrefix(strings.TrimSpace(o.AdditionalNotes), errorNotesPrefix)
}
