package analysis

import (
	"fmt"
	"strings"
)

const symptomPromptTemplate = `You are a medical AI assistant. Analyze the following symptoms and provide possible health conditions.

SYMPTOMS: %s

Respond ONLY with valid JSON in this exact format (no markdown, no code blocks, just raw JSON):
{
  "conditions": [
    {
      "name": "Condition Name",
      "description": "Brief description of the condition",
      "confidence": 85,
      "severity": "moderate",
      "matchedSymptoms": ["matched complaint", "another matched complaint"],
      "additionalSymptoms": ["other complaints to watch for"],
      "recommendedActions": ["action1", "action2"]
    }
  ],
  "urgencyScore": 6,
  "urgencyLevel": "moderate",
  "generalRecommendations": ["general advice 1", "general advice 2"],
  "disclaimer": "This is not a substitute for professional medical advice.",
  "whenToSeekHelp": ["warning sign 1", "warning sign 2"]
}

Rules:
- Provide 3-5 possible conditions
- Confidence should be a number 0-100
- Severity can be: "low", "moderate", "high", "critical"
- Urgency score is 1-10 (1=not urgent, 10=emergency)
- Urgency level can be: "low", "moderate", "high", "emergency"
- Be thorough but concise
- Always include safety disclaimers`

// BuildSymptomPrompt renders the tag-based checker prompt. Symptoms are joined with
// ", " and otherwise embedded verbatim.
func BuildSymptomPrompt(symptoms []string) string {
	return fmt.Sprintf(symptomPromptTemplate, strings.Join(symptoms, ", "))
}

const diagnosisOutputRules = `Based on all this information, provide a list of potential diagnoses, along with confidence levels (0-1) for each diagnosis. Also include any additional notes or recommendations.
Ensure that the diagnoses are relevant to the symptoms and scan findings provided.

Respond ONLY with a raw JSON object (no markdown, no code fences) in this format:
{
  "potentialDiagnoses": ["Diagnosis A", "Diagnosis B"],
  "confidenceLevels": [0.7, 0.2],
  "additionalNotes": "Additional notes or recommendations."
}
confidenceLevels must have exactly one entry per diagnosis, in the same order.`

// BuildDiagnosisPrompt renders the free-text assistant prompt. attachmentText is the
// text extracted from the report file, if any; when a file is attached but yields no
// text the prompt tells the model the file travels alongside the prompt.
func BuildDiagnosisPrompt(in AnalyzeSymptomsInput, attachmentText string) string {
	var b strings.Builder
	b.WriteString("You are a medical AI assistant that analyzes symptoms and medical scan findings described by users and suggests potential diagnoses.\n\n")
	b.WriteString("Consider the following information provided by the user:\n\n")
	fmt.Fprintf(&b, "Symptom Description: %s\n\n", in.SymptomDescription)

	if in.ScanFindingsDescription != "" {
		fmt.Fprintf(&b, "Medical Scan Findings: %s\n\n", in.ScanFindingsDescription)
	}

	switch {
	case attachmentText != "":
		b.WriteString("Medical Report File contents:\n")
		b.WriteString(attachmentText)
		b.WriteString("\n(Analyze the contents of this report as part of the medical information.)\n\n")
	case in.ReportFileDataURI != "":
		b.WriteString("Medical Report File (Image or PDF): attached to this message.\n")
		b.WriteString("(Analyze the contents of this file, including any text or visual data, as part of the medical report.)\n\n")
	default:
		b.WriteString("No medical report file provided.\n\n")
	}

	b.WriteString(diagnosisOutputRules)
	return b.String()
}

// BuildImprovePrompt asks the model to rewrite a symptom description so it is clearer
// and more useful for analysis. The reply is plain text.
func BuildImprovePrompt(description string) string {
	return fmt.Sprintf(`You help patients describe their symptoms clearly before a medical analysis.
Rewrite the following description so it is clear, complete and well organised. Mention onset, duration, severity, location and anything that makes the symptoms better or worse when the user provided it. Do not invent symptoms or details the user did not mention. Do not give a diagnosis.

Return only the improved description as plain text, with no preamble and no markdown.

Description: %s`, description)
}
