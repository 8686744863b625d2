// Package app contains the Cobra command tree for feedbackwatch.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "feedbackwatch",
	Short: "Weekly sentiment analytics for trainee feedback",
	Long: `feedbackwatch ingests trainee feedback exports, classifies each entry's
sentiment and topics, and turns every week into trends, a heat index,
prioritized action items and a narrative summary.

Run 'feedbackwatch' with no arguments to list the subcommands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "feedbackwatch", appVersion)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Use a subcommand:")
		fmt.Fprintln(out, "  ingest     Load a CSV export into the feedback store")
		fmt.Fprintln(out, "  feedback   List stored feedback records")
		fmt.Fprintln(out, "  analyze    Classify a single piece of text")
		fmt.Fprintln(out, "  report     Generate and store the weekly report")
		fmt.Fprintln(out, "  trends     Week-over-week and per-category trends")
		fmt.Fprintln(out, "  insights   Action items, risk flags and highlights")
		fmt.Fprintln(out, "  heatmap    Sentiment by category")
		fmt.Fprintln(out, "  lifecycle  Sentiment by trainee stage")
		fmt.Fprintln(out, "  watch      Alert on changes in the current week")
		fmt.Fprintln(out, "  mcp        Serve the analytics over MCP stdio")
		fmt.Fprintln(out, "  doctor     Check configuration and store health")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/feedbackwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}
