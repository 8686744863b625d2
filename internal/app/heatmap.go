package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/output"
)

var heatmapWeek string

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Sentiment by category",
	Long: `Show the sentiment distribution and heat score of every category
that received feedback in a week, hottest first.

Examples:
  feedbackwatch heatmap
  feedbackwatch heatmap --week 2025-03-03`,
	RunE: runHeatmap,
}

func init() {
	heatmapCmd.Flags().StringVar(&heatmapWeek, "week", "", "Week start date, YYYY-MM-DD (default: current week)")
	rootCmd.AddCommand(heatmapCmd)
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service()
	if err != nil {
		return err
	}
	w, err := parseWeek(heatmapWeek)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cells, err := svc.Heatmap(ctx, w)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(out, cells)
	}

	fmt.Fprintln(out, output.Section("Category Heatmap: "+w.Label()))
	fmt.Fprintln(out)
	if len(cells) == 0 {
		fmt.Fprintln(out, " "+output.StyleMuted.Render("No feedback for this week."))
		return nil
	}
	tbl := output.NewTable("Category", "Sentiment", "Neg", "Total", "Heat")
	for _, c := range cells {
		tbl.AddRow(c.DisplayName, output.DistributionBar(c.Distribution, 20),
			fmt.Sprintf("%.0f%%", c.Negative), fmt.Sprint(c.Total), fmt.Sprintf("%.1f", c.HeatScore))
	}
	tbl.Fprint(out)
	return nil
}
