package present

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/symptomwise/symptom-checker/internal/analysis"
	"github.com/symptomwise/symptom-checker/internal/store"
)

const (
	markerOpen   = "▾"
	markerClosed = "▸"
	ruleWidth    = 80
)

// RenderAnalysis writes a tag-based result: the urgency banner, one card per condition
// (only the card open in acc shows its details) and the general advice. A nil acc opens
// the first card.
func RenderAnalysis(w io.Writer, result analysis.AnalysisResult, symptoms []string, acc *Accordion) {
	if acc == nil {
		acc = NewAccordion(len(result.Conditions))
	}
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(w)
	if len(symptoms) > 0 {
		fmt.Fprintf(w, "📝 Symptoms: %s\n", strings.Join(symptoms, ", "))
	}
	urgencyColor(result.UrgencyScore).Fprintf(w, "🚦 %s (%d/10)\n\n", UrgencyLabel(result.UrgencyScore), result.UrgencyScore)

	cyan.Fprintln(w, "🩺 POSSIBLE CONDITIONS:")
	for i, c := range result.Conditions {
		renderCondition(w, i, c, acc.IsOpen(i))
	}

	if len(result.GeneralRecommendations) > 0 {
		cyan.Fprintln(w, "💡 RECOMMENDATIONS:")
		writeList(w, result.GeneralRecommendations)
	}
	if len(result.WhenToSeekHelp) > 0 {
		yellow.Fprintln(w, "⚠️  SEEK MEDICAL HELP IF:")
		writeList(w, result.WhenToSeekHelp)
	}

	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
	if result.Disclaimer != "" {
		fmt.Fprintln(w, color.HiBlackString(result.Disclaimer))
	}
}

func renderCondition(w io.Writer, i int, c analysis.Condition, open bool) {
	style := StyleForSeverity(c.Severity)
	marker := markerClosed
	if open {
		marker = markerOpen
	}
	fmt.Fprintf(w, "   %s %d. %s %s  ", marker, i+1, style.Icon, c.Name)
	style.Color.Fprintf(w, "%s", style.Label)
	fmt.Fprintf(w, "  %d%% match\n", c.Confidence)
	if !open {
		return
	}

	if c.Description != "" {
		fmt.Fprintln(w, wrapText(c.Description, ruleWidth, "      "))
	}
	if len(c.MatchedSymptoms) > 0 {
		fmt.Fprintf(w, "      Matched: %s\n", color.GreenString(strings.Join(c.MatchedSymptoms, ", ")))
	}
	if len(c.AdditionalSymptoms) > 0 {
		fmt.Fprintf(w, "      Watch for: %s\n", color.YellowString(strings.Join(c.AdditionalSymptoms, ", ")))
	}
	for _, action := range c.RecommendedActions {
		fmt.Fprintf(w, "      → %s\n", action)
	}
	fmt.Fprintln(w)
}

// RenderDiagnosis writes a free-text result. An error output is shown as the error.
func RenderDiagnosis(w io.Writer, out analysis.AnalyzeSymptomsOutput) {
	if out.IsError() {
		color.New(color.FgRed).Fprintf(w, "✗ %s\n", strings.TrimSpace(strings.TrimPrefix(out.AdditionalNotes, "Error:")))
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(w)
	cyan.Fprintln(w, "🩺 POTENTIAL DIAGNOSES:")
	for i, d := range out.PotentialDiagnoses {
		if i < len(out.ConfidenceLevels) {
			fmt.Fprintf(w, "   %d. %s  %s\n", i+1, d, color.HiBlackString("%.0f%%", out.ConfidenceLevels[i]*100))
		} else {
			fmt.Fprintf(w, "   %d. %s\n", i+1, d)
		}
	}
	if out.AdditionalNotes != "" {
		fmt.Fprintln(w)
		cyan.Fprintln(w, "📄 NOTES:")
		fmt.Fprintln(w, wrapText(out.AdditionalNotes, ruleWidth, "   "))
	}
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
}

// RenderReports lists saved reports, newest first as given.
func RenderReports(w io.Writer, reports []store.SymptomReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No saved reports yet.")
		return
	}
	for _, r := range reports {
		color.New(color.FgCyan).Fprintf(w, "%s", r.CreatedAt.Local().Format(time.DateTime))
		fmt.Fprintf(w, "  %s\n", color.HiBlackString(r.ID))
		fmt.Fprintf(w, "   %s\n", truncate(r.SymptomDescription, 70))
		if len(r.AnalysisResult.PotentialDiagnoses) > 0 {
			fmt.Fprintf(w, "   Diagnoses: %s\n", strings.Join(r.AnalysisResult.PotentialDiagnoses, ", "))
		}
		if r.ReportFileDataURI != nil {
			fmt.Fprintln(w, "   📎 report file attached")
		}
		fmt.Fprintln(w)
	}
}

func writeList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			switch {
			case len(currentLine)+len(word)+1 > width && currentLine != indent:
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			case currentLine == indent:
				currentLine += word
			default:
				currentLine += " " + word
			}
		}
		result.WriteString(currentLine + "\n")
	}
	return strings.TrimSuffix(result.String(), "\n")
}
