package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/sentiment"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the feedbackwatch setup is healthy",
	Long: `Run a series of health checks against the feedbackwatch configuration,
sentiment backend and feedback store. Prints a pass/fail line for each
check and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []doctorCheck{
		checkSentimentBackend(e.cfg.Sentiment.Backend),
		checkOwners(e.cfg.Insights.Owners),
	}

	db, dbCheck := checkDatabase(e.cfg.DBPath)
	checks = append(checks, dbCheck)
	if db != nil {
		defer db.Close()
		checks = append(checks,
			checkLastIngest(ctx, db),
			checkCurrentWeek(ctx, db, time.Now()),
		)
	}
	checks = append(checks, checkWatchDaemon())

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return output.WriteJSON(out, doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	fmt.Fprintln(out, output.Section("Doctor"))
	fmt.Fprintln(out)
	for _, c := range checks {
		renderDoctorCheck(out, c)
	}

	fmt.Fprintln(out)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(out, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Fprintf(out, " %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

func renderDoctorCheck(w io.Writer, c doctorCheck) {
	indicator := output.StyleSuccess.Render("✓")
	if !c.Passed {
		indicator = output.StyleWarning.Render("✗")
	}
	fmt.Fprintf(w, "  %s  %-30s %s\n", indicator, output.StyleBold.Render(c.Name), output.StyleMuted.Render(c.Message))
}

// checkSentimentBackend builds the configured backend and scores a probe
// sentence with it.
func checkSentimentBackend(name string) doctorCheck {
	const check = "Sentiment backend"
	backend, err := sentiment.NewBackend(name)
	if err != nil {
		return doctorCheck{Name: check, Message: err.Error()}
	}
	p, err := backend.Polarity("the trainer was great and very helpful")
	if err != nil {
		return doctorCheck{Name: check, Message: fmt.Sprintf("%s failed a probe: %v", name, err)}
	}
	if p.Compound <= 0 {
		return doctorCheck{Name: check, Message: fmt.Sprintf("%s scored a positive probe as %.2f", name, p.Compound)}
	}
	return doctorCheck{Name: check, Passed: true, Message: backend.Name()}
}

func checkOwners(raw map[string]string) doctorCheck {
	const check = "Action item owners"
	if len(raw) == 0 {
		return doctorCheck{Name: check, Passed: true, Message: "defaults"}
	}
	owners, err := insight.ParseOwners(raw)
	if err != nil {
		return doctorCheck{Name: check, Message: err.Error()}
	}
	return doctorCheck{Name: check, Passed: true, Message: fmt.Sprintf("%d configured", len(owners))}
}

// checkDatabase opens the store, which also applies migrations. The caller
// owns the returned DB.
func checkDatabase(path string) (*store.DB, doctorCheck) {
	const check = "SQLite database"
	if _, err := os.Stat(path); err != nil {
		return nil, doctorCheck{Name: check, Message: fmt.Sprintf("not found: %s (run 'feedbackwatch ingest' to create it)", path)}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, doctorCheck{Name: check, Message: fmt.Sprintf("cannot open: %v", err)}
	}
	return db, doctorCheck{Name: check, Passed: true, Message: path}
}

func checkLastIngest(ctx context.Context, db *store.DB) doctorCheck {
	const check = "Last ingestion"
	runs, err := db.RecentIngestRuns(ctx, 1)
	if err != nil {
		return doctorCheck{Name: check, Message: err.Error()}
	}
	if len(runs) == 0 {
		return doctorCheck{Name: check, Message: "no ingestion runs recorded"}
	}
	total, err := db.CountFeedback(ctx, store.FeedbackFilter{})
	if err != nil {
		return doctorCheck{Name: check, Message: err.Error()}
	}
	r := runs[0]
	return doctorCheck{
		Name:   check,
		Passed: r.Processed > 0,
		Message: fmt.Sprintf("%s on %s: %d processed, %d failed; %d records stored",
			r.Source, r.RunAt.Local().Format("2006-01-02"), r.Processed, r.Failed, total),
	}
}

func checkCurrentWeek(ctx context.Context, db *store.DB, now time.Time) doctorCheck {
	const check = "Current week feedback"
	w := feedback.WeekOf(now)
	n, err := db.CountInWindow(ctx, w)
	if err != nil {
		return doctorCheck{Name: check, Message: err.Error()}
	}
	if n == 0 {
		return doctorCheck{Name: check, Message: "none yet for " + w.Label()}
	}
	return doctorCheck{Name: check, Passed: true, Message: fmt.Sprintf("%d entries for %s", n, w.Label())}
}

// checkWatchDaemon reports whether the watch daemon is running. Not running
// is a pass; only a stale PID file fails.
func checkWatchDaemon() doctorCheck {
	const check = "Watch daemon"
	pid, err := readPID()
	if err != nil {
		return doctorCheck{Name: check, Passed: true, Message: "not running"}
	}
	if !processExists(pid) {
		return doctorCheck{Name: check, Message: fmt.Sprintf("PID %d is not running (stale PID file %s)", pid, pidFilePath())}
	}
	return doctorCheck{Name: check, Passed: true, Message: fmt.Sprintf("running (PID %d)", pid)}
}
