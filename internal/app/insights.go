package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
)

var insightsWeek string

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Action items, risk flags and highlights",
	Long: `Compute the insight bundle for a week without storing a report:
prioritized action items, risk flags, assessment stress, unresolved
negative loops, praise momentum, appreciation and the top strengths
and concerns.

Examples:
  feedbackwatch insights
  feedbackwatch insights --week 2025-03-03 --json`,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().StringVar(&insightsWeek, "week", "", "Week start date, YYYY-MM-DD (default: current week)")
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service()
	if err != nil {
		return err
	}
	w, err := parseWeek(insightsWeek)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := svc.Insights(ctx, w)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(out, b)
	}
	renderInsights(out, b)
	return nil
}

func renderInsights(out io.Writer, b insight.Bundle) {
	fmt.Fprintln(out, output.Section("Action Items: "+b.Week))
	if len(b.ActionItems) == 0 {
		fmt.Fprintln(out, " "+output.StyleMuted.Render("Nothing needs attention this week."))
	}
	for i, it := range b.ActionItems {
		fmt.Fprintf(out, "\n %d. %s %s\n", i+1,
			output.PriorityStyle(it.Priority).Render("["+strings.ToUpper(string(it.Priority))+"]"),
			output.StyleBold.Render(it.Title))
		fmt.Fprintf(out, "    %s\n", it.Description)
		fmt.Fprintf(out, "    %s\n", output.StyleMuted.Render(
			fmt.Sprintf("owner: %s  confidence: %.0f%%", it.AssignedTo, it.Confidence*100)))
		for _, ex := range it.Examples {
			fmt.Fprintf(out, "    %s\n", output.StyleMuted.Render("\""+ex+"\""))
		}
	}

	if len(b.RiskFlags) > 0 || b.AssessmentStress != nil || len(b.UnresolvedLoops) > 0 {
		fmt.Fprintln(out, output.Section("Risks"))
		for _, f := range b.RiskFlags {
			style := output.StyleWarning
			if f.Severity == insight.SeverityHigh {
				style = output.StyleError
			}
			fmt.Fprintf(out, " %s %s\n", style.Render("!"), f.Message)
			fmt.Fprintf(out, "   %s\n", output.StyleMuted.Render(f.Recommendation))
		}
		if s := b.AssessmentStress; s != nil {
			fmt.Fprintf(out, " %s %s\n", output.StyleWarning.Render("!"), s.Message)
			fmt.Fprintf(out, "   %s\n", output.StyleMuted.Render(s.Recommendation))
		}
		for _, l := range b.UnresolvedLoops {
			fmt.Fprintf(out, " %s %s\n", output.StyleError.Render("!"), l.Message)
			fmt.Fprintf(out, "   %s\n", output.StyleMuted.Render(l.Recommendation))
		}
	}

	m := b.PraiseMomentum
	fmt.Fprintln(out, output.Section("Praise Momentum"))
	fmt.Fprintln(out, output.KV("Trend", fmt.Sprintf("%s (%+.1f points)", m.Trend, m.Change)))
	fmt.Fprintln(out, output.KV("Positive now", fmt.Sprintf("%.1f%%", m.CurrentPositivePct)))
	fmt.Fprintln(out, output.KV("Trainer recognition", string(m.TrainerTrend)))
	fmt.Fprintln(out, output.KV("Mentor recognition", string(m.MentorTrend)))

	a := b.Appreciation
	if a.TotalPositive > 0 {
		fmt.Fprintln(out, output.Section("Appreciation"))
		fmt.Fprintln(out, output.KV("Trainers", fmt.Sprint(len(a.TrainerRecognition))))
		fmt.Fprintln(out, output.KV("Mentors", fmt.Sprint(len(a.MentorRecognition))))
		fmt.Fprintln(out, output.KV("General", fmt.Sprint(len(a.GeneralAppreciation))))
	}

	fmt.Fprintln(out, output.Section("Executive Summary"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, b.ExecutiveSummary)
}
