package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/category"
	"github.com/blackwell-systems/feedbackwatch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server over the feedback store",
	Long: `Start a Model Context Protocol stdio server so an assistant can query
the feedback analytics directly. The server exposes these tools:

  get_report        Stored weekly report
  generate_report   Recompute and store a weekly report
  list_reports      Recent stored reports
  get_insights      Action items, risk flags and highlights
  get_trends        Week-over-week and per-category series
  get_heatmap       Sentiment by category
  get_lifecycle     Sentiment by trainee stage
  analyze_text      Classify ad-hoc text

Example MCP client configuration:
  {"mcpServers":{"feedbackwatch":{"command":"feedbackwatch","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service()
	if err != nil {
		return err
	}
	scorer, err := e.scorer()
	if err != nil {
		return err
	}

	srv := mcp.NewServer(svc,
		mcp.WithScorer(scorer, category.NewMapper()),
		mcp.WithLogger(e.log),
		mcp.WithVersion(appVersion),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.Run(ctx, os.Stdin, os.Stdout)
}
