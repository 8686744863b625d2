package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

var (
	reportWeek  string
	reportList  bool
	reportLimit int
	reportShow  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and store the weekly report",
	Long: `Compute the report for a week from stored feedback and save it,
replacing any earlier report for the same week. The report carries the
sentiment distribution, the change against the previous week, the heat
index, prioritized action items and an executive summary.

Examples:
  feedbackwatch report                       # current week
  feedbackwatch report --week 2025-03-03
  feedbackwatch report --show --week 2025-03-03   # print the stored report
  feedbackwatch report --list --limit 5      # recent stored reports`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportWeek, "week", "", "Week start date, YYYY-MM-DD (default: current week)")
	reportCmd.Flags().BoolVar(&reportList, "list", false, "List stored reports instead of generating")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 10, "Number of reports to list")
	reportCmd.Flags().BoolVar(&reportShow, "show", false, "Print the stored report without regenerating it")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if reportList {
		reports, err := svc.List(ctx, reportLimit, 0)
		if err != nil {
			return err
		}
		if flagJSON {
			return output.WriteJSON(out, reports)
		}
		renderReportList(out, reports)
		return nil
	}

	w, err := parseWeek(reportWeek)
	if err != nil {
		return err
	}

	var r *store.PeriodReport
	if reportShow {
		r, err = svc.Get(ctx, w)
		if err == nil && r == nil {
			err = fmt.Errorf("no stored report for %s; run 'feedbackwatch report --week %s' first", w.Label(), w.Key())
		}
	} else {
		r, err = svc.Generate(ctx, w)
	}
	if errors.Is(err, report.ErrNoFeedback) {
		if flagJSON {
			return output.WriteJSON(out, map[string]string{"week": w.Key(), "error": report.ErrNoFeedback.Error()})
		}
		fmt.Fprintf(out, "No feedback found for %s. Ingest a CSV export first.\n", w.Label())
		return nil
	}
	if err != nil {
		return err
	}

	if flagJSON {
		return output.WriteJSON(out, r)
	}
	renderReport(out, r)
	return nil
}

func renderReport(w io.Writer, r *store.PeriodReport) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Weekly Report: %s to %s",
		r.WeekStart.Format("2006-01-02"), r.WeekEnd.Format("2006-01-02"))))
	fmt.Fprintln(w)

	change := output.StyleMuted.Render("first week")
	if r.SentimentChange != nil {
		change = output.TrendArrow(*r.SentimentChange, true)
	}
	fmt.Fprintln(w, output.KV("Feedback", fmt.Sprint(r.Total)))
	fmt.Fprintln(w, output.KV("Positive share", fmt.Sprintf("%.1f%%  %s", r.OverallSentiment, change)))
	fmt.Fprintln(w, output.KV("Counts", fmt.Sprintf("%s  %s  %s",
		output.StyleSuccess.Render(fmt.Sprintf("+%d", r.Positive)),
		output.StyleMuted.Render(fmt.Sprintf("=%d", r.Neutral)),
		output.StyleError.Render(fmt.Sprintf("-%d", r.Negative)))))
	fmt.Fprintln(w, output.KV("Heat index", output.ScoreBar(r.HeatIndex, 20)))

	if len(r.ActionItems) > 0 {
		fmt.Fprintln(w, output.Section("Action Items"))
		fmt.Fprintln(w)
		tbl := output.NewTable("Priority", "Title", "Owner", "Confidence")
		for _, it := range r.ActionItems {
			p := insight.Priority(it.Priority)
			tbl.AddRow(output.PriorityStyle(p).Render(it.Priority), it.Title, it.AssignedTo,
				fmt.Sprintf("%.0f%%", it.Confidence*100))
		}
		tbl.Fprint(w)
	}

	fmt.Fprintln(w, output.Section("Executive Summary"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.ExecutiveSummary)
}

func renderReportList(w io.Writer, reports []store.PeriodReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports stored yet.")
		return
	}
	fmt.Fprintln(w, output.Section("Stored Reports"))
	fmt.Fprintln(w)
	tbl := output.NewTable("Week", "Feedback", "Positive", "Change", "Heat", "Updated")
	for _, r := range reports {
		change := "-"
		if r.SentimentChange != nil {
			change = output.TrendArrow(*r.SentimentChange, true)
		}
		tbl.AddRow(r.WeekStart.Format("2006-01-02"), fmt.Sprint(r.Total),
			fmt.Sprintf("%.1f%%", r.OverallSentiment), change,
			fmt.Sprintf("%.0f", r.HeatIndex), r.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	tbl.Fprint(w)
}
