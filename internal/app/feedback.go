package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/category"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

var (
	feedbackWeek     string
	feedbackBatch    string
	feedbackLocation string
	feedbackLimit    int
	feedbackOffset   int
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "List stored feedback records",
	Long: `List annotated feedback records, newest first. Filters combine; without
--week every stored week is included.

Examples:
  feedbackwatch feedback --week 2025-03-03
  feedbackwatch feedback --batch B7 --location Pune
  feedbackwatch feedback --limit 20 --offset 40 --json`,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackWeek, "week", "", "Week start date, YYYY-MM-DD (default: all weeks)")
	feedbackCmd.Flags().StringVar(&feedbackBatch, "batch", "", "Only this training batch")
	feedbackCmd.Flags().StringVar(&feedbackLocation, "location", "", "Only this location")
	feedbackCmd.Flags().IntVar(&feedbackLimit, "limit", store.DefaultListLimit, "Records to show")
	feedbackCmd.Flags().IntVar(&feedbackOffset, "offset", 0, "Records to skip")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	f := store.FeedbackFilter{Batch: feedbackBatch, Location: feedbackLocation}
	if feedbackWeek != "" {
		w, err := parseWeek(feedbackWeek)
		if err != nil {
			return err
		}
		f.Week = &w
	}

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

	page, err := svc.Feedback(ctx, f, feedbackLimit, feedbackOffset)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(out, page)
	}
	renderFeedback(out, page)
	return nil
}

func renderFeedback(w io.Writer, page report.FeedbackPage) {
	if len(page.Records) == 0 {
		fmt.Fprintln(w, "No feedback matches.")
		return
	}
	fmt.Fprintln(w, output.Section("Feedback"))
	fmt.Fprintln(w)

	tbl := output.NewTable("Week", "Trainee", "Batch", "Location", "Rating", "Sentiment", "Category", "Text")
	for _, a := range page.Records {
		rating := "-"
		if a.HasRating() {
			rating = fmt.Sprint(a.Rating)
		}
		s := a.Sentiment.Sentiment
		tbl.AddRow(a.WeekStart.Format("2006-01-02"), a.TraineeID, a.Batch, a.Location, rating,
			output.SentimentStyle(s).Render(s.String()),
			category.PrimaryOf(a.Categories).DisplayName(),
			feedback.Excerpt(a.Text, 60))
	}
	tbl.Fprint(w)

	fmt.Fprintln(w)
	fmt.Fprintln(w, output.StyleMuted.Render(fmt.Sprintf("Showing %d-%d of %d",
		page.Offset+1, page.Offset+len(page.Records), page.Total)))
}
