package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/ingest"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

var (
	ingestWorkers int
	ingestHistory int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.csv...]",
	Short: "Load a CSV export into the feedback store",
	Long: `Read one or more CSV feedback exports, validate every row, classify
its sentiment and categories, and store the annotated records.

Required columns: trainee_id, location, training_batch, rating_score,
open_text. Optional: category_tags, week_start_date, week_end_date,
trainee_stage. Header names are matched case-insensitively and spaces
are treated as underscores.

Examples:
  feedbackwatch ingest week12.csv
  feedbackwatch ingest --workers 8 exports/*.csv
  feedbackwatch ingest --history 10     # show recent ingestion runs`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Rows annotated concurrently (default: ingest.workers or one per CPU)")
	ingestCmd.Flags().IntVar(&ingestHistory, "history", 0, "Show the N most recent ingestion runs instead of ingesting")
	rootCmd.AddCommand(ingestCmd)
}

// ingestStatus is the --history view: stored volume plus recent runs.
type ingestStatus struct {
	TotalFeedback int               `json:"total_feedback"`
	LastSync      *time.Time        `json:"last_sync,omitempty"`
	Runs          []store.IngestRun `json:"runs"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestHistory <= 0 && len(args) == 0 {
		return fmt.Errorf("no input files; pass one or more CSV paths or --history N")
	}

	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if ingestHistory > 0 {
		runs, err := e.db.RecentIngestRuns(ctx, ingestHistory)
		if err != nil {
			return err
		}
		total, err := e.db.CountFeedback(ctx, store.FeedbackFilter{})
		if err != nil {
			return err
		}
		status := ingestStatus{TotalFeedback: total, Runs: runs}
		if len(runs) > 0 {
			status.LastSync = &runs[0].RunAt
		}
		if flagJSON {
			return output.WriteJSON(out, status)
		}
		fmt.Fprintln(out, output.Section("Ingestion History"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, output.KV("Stored feedback", fmt.Sprint(total)))
		if status.LastSync != nil {
			fmt.Fprintln(out, output.KV("Last sync", status.LastSync.Local().Format("2006-01-02 15:04")))
		}
		tbl := output.NewTable("When", "Source", "Backend", "Processed", "Failed")
		for _, r := range runs {
			tbl.AddRow(r.RunAt.Local().Format("2006-01-02 15:04"), r.Source, r.Backend,
				fmt.Sprint(r.Processed), failedCell(r.Failed))
		}
		fmt.Fprintln(out)
		tbl.Fprint(out)
		return nil
	}

	p, err := e.pipeline(ingestWorkers)
	if err != nil {
		return err
	}

	var summaries []ingest.Summary
	for _, path := range args {
		sum, err := p.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		summaries = append(summaries, sum)
	}

	if flagJSON {
		return output.WriteJSON(out, summaries)
	}

	for _, sum := range summaries {
		fmt.Fprintln(out, output.Section("Ingested "+sum.Source))
		fmt.Fprintln(out, output.KV("Processed", output.StyleSuccess.Render(fmt.Sprint(sum.Processed))))
		fmt.Fprintln(out, output.KV("Failed", failedCell(sum.Failed)))
		fmt.Fprintln(out, output.KV("Sentiment backend", sum.Backend))
		for _, re := range sum.Errors {
			fmt.Fprintln(out, "   "+output.StyleMuted.Render(re.Error()))
		}
	}
	return nil
}

func failedCell(n int) string {
	if n == 0 {
		return output.StyleMuted.Render("0")
	}
	return output.StyleError.Render(fmt.Sprint(n))
}
