package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
)

var (
	trendsWeek  string
	trendsWeeks int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Week-over-week and per-category trends",
	Long: `Compare a week with the one before it and show the weekly and
per-category sentiment series leading up to it.

Examples:
  feedbackwatch trends
  feedbackwatch trends --weeks 12 --week 2025-03-03`,
	RunE: runTrends,
}

func init() {
	trendsCmd.Flags().StringVar(&trendsWeek, "week", "", "Start date of the last week in the series (default: current week)")
	trendsCmd.Flags().IntVar(&trendsWeeks, "weeks", 0, "Weeks in the series (default: insights.trend_weeks)")
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service()
	if err != nil {
		return err
	}
	w, err := parseWeek(trendsWeek)
	if err != nil {
		return err
	}

	n := trendsWeeks
	if n <= 0 {
		n = e.cfg.Insights.TrendWeeks
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tr, err := svc.Trends(ctx, w, n)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(out, tr)
	}
	renderTrends(out, tr)
	return nil
}

func renderTrends(out io.Writer, tr report.Trends) {
	c := tr.Comparison

	fmt.Fprintln(out, output.Section("Week over Week: "+tr.Week))
	fmt.Fprintln(out)
	tbl := output.NewTable("", "Previous", "Current", "Change")
	tbl.AddRow("Positive", fmt.Sprintf("%.1f%%", c.Previous.Positive), fmt.Sprintf("%.1f%%", c.Current.Positive),
		output.TrendArrowPercent(c.Changes.Positive, true))
	tbl.AddRow("Neutral", fmt.Sprintf("%.1f%%", c.Previous.Neutral), fmt.Sprintf("%.1f%%", c.Current.Neutral),
		output.TrendArrowPercent(c.Changes.Neutral, true))
	tbl.AddRow("Negative", fmt.Sprintf("%.1f%%", c.Previous.Negative), fmt.Sprintf("%.1f%%", c.Current.Negative),
		output.TrendArrowPercent(c.Changes.Negative, false))
	tbl.AddRow("Volume", fmt.Sprint(c.PreviousVolume), fmt.Sprint(c.CurrentVolume), fmt.Sprintf("%+d", c.VolumeChange))
	tbl.Fprint(out)
	fmt.Fprintln(out, output.KV("Overall", output.TrendArrow(c.OverallChange, true)+" points positive"))

	fmt.Fprintln(out, output.Section("Weekly Series"))
	fmt.Fprintln(out)
	for _, p := range tr.Series {
		fmt.Fprintf(out, " %s  %s  %s\n", p.Week, output.DistributionBar(p.Distribution, 30),
			output.StyleMuted.Render(fmt.Sprintf("%d entries", p.Volume)))
	}

	if len(tr.Categories) == 0 {
		return
	}
	fmt.Fprintln(out, output.Section("By Category"))
	for _, ct := range tr.Categories {
		fmt.Fprintln(out)
		fmt.Fprintln(out, " "+output.StyleBold.Render(ct.DisplayName))
		for _, p := range ct.Points {
			fmt.Fprintf(out, "   %s  %s  %s\n", p.Week, output.DistributionBar(p.Distribution, 24),
				output.StyleMuted.Render(fmt.Sprintf("%.0f%% negative of %d", p.Negative, p.Volume)))
		}
	}
}
