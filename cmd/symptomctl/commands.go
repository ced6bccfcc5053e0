package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/symptomwise/symptom-checker/internal/analysis"
	"github.com/symptomwise/symptom-checker/internal/api"
	"github.com/symptomwise/symptom-checker/internal/attachment"
	"github.com/symptomwise/symptom-checker/internal/core"
	"github.com/symptomwise/symptom-checker/internal/present"
)

// --- analyze ---

func newAnalyzeCmd(opts *options) *cobra.Command {
	var expand int

	cmd := &cobra.Command{
		Use:   "analyze SYMPTOM...",
		Short: "Analyze a list of symptoms",
		Long: `Analyze a list of symptoms and show possible conditions.

Examples:
  symptomctl analyze Headache Fever
  symptomctl analyze "Sore throat" Cough --expand 2
  symptomctl analyze Fatigue -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)

			var resp api.AnalyzeResponse
			err := withSpinner(cmd, opts, "Analyzing symptoms...", func() error {
				r, err := client.post(cmd.Context(), "/api/analyze", api.AnalyzeRequest{Symptoms: args})
				if err != nil {
					return err
				}
				return decodeJSON(r, &resp)
			})
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), opts.output, resp, func(w io.Writer) {
				acc := present.NewAccordion(len(resp.Analysis.Conditions))
				if expand > 1 {
					acc.Toggle(expand - 1)
				}
				present.RenderAnalysis(w, resp.Analysis, resp.AnalyzedSymptoms, acc)
			})
		},
	}

	cmd.Flags().IntVar(&expand, "expand", 1, "Condition card to show in detail (1-based)")
	return cmd
}

// --- diagnose ---

func newDiagnoseCmd(opts *options) *cobra.Command {
	var (
		description string
		scan        string
		file        string
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Analyze a free-text symptom description",
		Long: `Analyze a free-text description of symptoms, optionally with scan findings and
an image or PDF of a medical report.

Examples:
  symptomctl diagnose --description "Sharp pain in the lower right abdomen since yesterday"
  symptomctl diagnose --description "..." --scan "Ultrasound: enlarged appendix" --file report.pdf
  symptomctl diagnose --description "..." --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(description) == "" {
				return errors.New("--description is required")
			}
			if save && opts.token == "" {
				return errors.New("--save requires --token or SYMPTOM_API_TOKEN")
			}

			in := analysis.AnalyzeSymptomsInput{
				SymptomDescription:      description,
				ScanFindingsDescription: scan,
			}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading report file: %w", err)
				}
				in.ReportFileDataURI = attachment.EncodeDataURI(data)
			}

			client := newAPIClient(opts)

			var out analysis.AnalyzeSymptomsOutput
			err := withSpinner(cmd, opts, "Analyzing description...", func() error {
				r, err := client.post(cmd.Context(), "/api/diagnose", in)
				if err != nil {
					return err
				}
				return decodeJSON(r, &out)
			})
			if err != nil {
				return err
			}

			if err := writeOutput(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) {
				present.RenderDiagnosis(w, out)
			}); err != nil {
				return err
			}
			if !save {
				return nil
			}

			opts.flow.Reset()
			var saved api.SaveReportResponse
			err = withSpinner(cmd, opts, "Saving report...", func() error {
				r, err := client.post(cmd.Context(), "/api/reports", core.SaveReportRequest{
					SymptomDescription:      in.SymptomDescription,
					ScanFindingsDescription: in.ScanFindingsDescription,
					ReportFileDataURI:       in.ReportFileDataURI,
					AnalysisResult:          out,
				})
				if err != nil {
					return err
				}
				return decodeJSON(r, &saved)
			})
			if err != nil {
				return fmt.Errorf("saving report: %w", err)
			}
			if saved.Data != nil {
				printSuccess(cmd.ErrOrStderr(), "Saved report %s", saved.Data.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Description of the symptoms (10-5000 characters)")
	cmd.Flags().StringVar(&scan, "scan", "", "Findings from medical scans")
	cmd.Flags().StringVar(&file, "file", "", "Image or PDF of a medical report")
	cmd.Flags().BoolVar(&save, "save", false, "Save the result to your report history")
	return cmd
}

// --- improve ---

func newImproveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "improve DESCRIPTION",
		Short: "Rewrite a symptom description to be clearer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)

			var resp api.ImproveResponse
			err := withSpinner(cmd, opts, "Improving description...", func() error {
				r, err := client.post(cmd.Context(), "/api/symptoms/improve", api.ImproveRequest{
					SymptomDescription: strings.Join(args, " "),
				})
				if err != nil {
					return err
				}
				return decodeJSON(r, &resp)
			})
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), opts.output, resp, func(w io.Writer) {
				fmt.Fprintln(w, resp.ImprovedDescription)
			})
		},
	}
}

// --- reports ---

func newReportsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List your saved reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)

			var resp api.ListReportsResponse
			err := withSpinner(cmd, opts, "Loading reports...", func() error {
				r, err := client.get(cmd.Context(), "/api/reports")
				if err != nil {
					return err
				}
				return decodeJSON(r, &resp)
			})
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), opts.output, resp.Reports, func(w io.Writer) {
				present.RenderReports(w, resp.Reports)
			})
		},
	}
}

// --- helpers ---

// withSpinner runs one request, showing a spinner on stderr while it is in flight.
func withSpinner(cmd *cobra.Command, opts *options, suffix string, fn func() error) error {
	if err := opts.flow.Begin(); err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " " + suffix
	s.Start()
	err := fn()
	s.Stop()

	if err != nil {
		opts.flow.Fail(err)
		return err
	}
	opts.flow.Succeed()
	return nil
}

// writeOutput prints v as JSON or YAML, or calls human for the terminal view. YAML
// keys follow the JSON field names.
func writeOutput(w io.Writer, format string, v any, human func(io.Writer)) error {
	switch format {
	case "json":
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(output))
	case "yaml":
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		output, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(output))
	default:
		human(w)
	}
	return nil
}

func printSuccess(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}
