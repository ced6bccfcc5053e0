package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/symptomwise/symptom-checker/internal/present"
)

var version = "dev" // Overwritten at build time

const defaultServer = "http://localhost:8080"

type options struct {
	server string
	token  string
	output string

	// flow guards against overlapping requests within one invocation.
	flow present.Flow
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "symptomctl",
		Short: "Check symptoms against the symptom checker service",
		Long: `symptomctl sends symptoms to a running symptom checker server and shows the
possible conditions, urgency and recommendations it returns.

Results are informational and are not a medical diagnosis.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "human", "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want human, json or yaml)", opts.output)
			}
		},
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("SYMPTOM_API_URL", defaultServer), "Symptom checker server URL")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SYMPTOM_API_TOKEN"), "Access token for saving and listing reports")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "human", "Output format (human, json, yaml)")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newDiagnoseCmd(opts),
		newImproveCmd(opts),
		newReportsCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "symptomctl version %s\n", version)
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
