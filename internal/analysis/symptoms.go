package analysis

import (
	"strings"
	"unicode/utf8"
)

const (
	MinDescriptionLength  = 10
	MaxDescriptionLength  = 5000
	MaxScanFindingsLength = 3000
)

// CollectSymptoms trims each entry, drops blanks and keeps the first spelling of
// entries that only differ by case. Order of first appearance is preserved.
func CollectSymptoms(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// ValidateDiagnosisInput applies the length limits of the free-text form. The report
// attachment is checked separately by the attachment package.
func ValidateDiagnosisInput(in AnalyzeSymptomsInput) error {
	n := utf8.RuneCountInString(strings.TrimSpace(in.SymptomDescription))
	if n < MinDescriptionLength {
		return &ValidationError{
			Field:   "symptomDescription",
			Message: "Please describe your symptoms in at least 10 characters.",
		}
	}
	if n > MaxDescriptionLength {
		return &ValidationError{
			Field:   "symptomDescription",
			Message: "Symptom description must be at most 5000 characters.",
		}
	}
	if utf8.RuneCountInString(in.ScanFindingsDescription) > MaxScanFindingsLength {
		return &ValidationError{
			Field:   "scanFindingsDescription",
			Message: "Scan findings description must be at most 3000 characters.",
		}
	}
	return nil
}
