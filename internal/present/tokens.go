// Package present renders analysis results for a terminal: severity and urgency styling,
// expandable condition cards and the client-side state of an analysis request.
package present

import (
	"strings"

	"github.com/fatih/color"

	"github.com/symptomwise/symptom-checker/internal/analysis"
)

// SeverityStyle is how one condition severity is shown.
type SeverityStyle struct {
	Label string
	Icon  string
	Color *color.Color
}

// StyleForSeverity maps a severity to its style. Values the model invents fall back
// to an "Unknown" style instead of failing.
func StyleForSeverity(s analysis.Severity) SeverityStyle {
	switch analysis.Severity(strings.ToLower(string(s))) {
	case analysis.SeverityLow:
		return SeverityStyle{Label: "Low", Icon: "🟢", Color: color.New(color.FgGreen)}
	case analysis.SeverityModerate:
		return SeverityStyle{Label: "Moderate", Icon: "🟡", Color: color.New(color.FgYellow)}
	case analysis.SeverityHigh:
		return SeverityStyle{Label: "High", Icon: "🟠", Color: color.New(color.FgRed)}
	case analysis.SeverityCritical:
		return SeverityStyle{Label: "Critical", Icon: "🔴", Color: color.New(color.FgRed, color.Bold)}
	default:
		return SeverityStyle{Label: "Unknown", Icon: "⚪", Color: color.New(color.FgWhite)}
	}
}

// UrgencyLabel names an urgency score the way the result banner shows it.
func UrgencyLabel(score int) string {
	switch analysis.LevelForScore(score) {
	case analysis.UrgencyLow:
		return "Low Urgency"
	case analysis.UrgencyModerate:
		return "Moderate Urgency"
	case analysis.UrgencyHigh:
		return "High Urgency"
	default:
		return "Emergency"
	}
}

func urgencyColor(score int) *color.Color {
	switch analysis.LevelForScore(score) {
	case analysis.UrgencyLow:
		return color.New(color.FgGreen, color.Bold)
	case analysis.UrgencyModerate:
		return color.New(color.FgYellow, color.Bold)
	case analysis.UrgencyHigh:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite, color.BgRed, color.Bold)
	}
}
