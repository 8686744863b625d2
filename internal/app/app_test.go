package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/feedbackwatch/internal/ingest"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

const weekCSV = `trainee_id,location,training_batch,rating_score,open_text,category_tags,week_start_date,trainee_stage
T1,Pune,B1,5,"Great trainer, very helpful",trainer,2025-01-06,new_joiner
T2,Pune,B1,2,The laptop is slow and login is a problem,infrastructure,2025-01-06,intermediate
T3,Pune,B1,4,The mentor session was good,mentor,2025-01-06,new_joiner
T4,Pune,B1,9,bad rating,,2025-01-06,
`

func TestCommands_Registered(t *testing.T) {
	want := []string{"ingest", "feedback", "analyze", "report", "trends", "insights", "heatmap", "lifecycle", "watch", "mcp", "doctor"}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("%s subcommand not registered on rootCmd", name)
		}
	}
}

// resetFlags restores every flag to its default so commands can run more
// than once in the same process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setup writes a config pointing at a fresh database under t.TempDir and
// returns its path.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	body := "db_path: " + filepath.Join(dir, "feedback.db") + "\n" +
		"sentiment:\n  backend: lexicon\n" +
		"log:\n  level: error\n" +
		"output:\n  color: false\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	t.Cleanup(func() {
		resetFlags(rootCmd)
		output.SetNoColor(false)
	})
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoot_ListsSubcommands(t *testing.T) {
	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "ingest")
	assert.Contains(t, out, "watch")
}

func TestIngestThenReport(t *testing.T) {
	cfg := setup(t)
	csvPath := filepath.Join(filepath.Dir(cfg), "week.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(weekCSV), 0o644))

	out, err := run(t, "--config", cfg, "--json", "ingest", csvPath)
	require.NoError(t, err)

	var sums []ingest.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sums))
	require.Len(t, sums, 1)
	assert.Equal(t, "week.csv", sums[0].Source)
	assert.Equal(t, 3, sums[0].Processed)
	assert.Equal(t, 1, sums[0].Failed)

	out, err = run(t, "--config", cfg, "--json", "report", "--week", "2025-01-06")
	require.NoError(t, err)

	var r store.PeriodReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "2025-01-06", r.WeekStart.Format("2006-01-02"))
	assert.Equal(t, 3, r.Total)
	assert.Nil(t, r.SentimentChange)
	assert.NotEmpty(t, r.ExecutiveSummary)

	out, err = run(t, "--config", cfg, "--json", "report", "--list")
	require.NoError(t, err)
	var list []store.PeriodReport
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 1)

	out, err = run(t, "--config", cfg, "ingest", "--history", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "week.csv")
	assert.Contains(t, out, "lexicon")
}

func TestFeedback_ListsAndFilters(t *testing.T) {
	cfg := setup(t)
	csvPath := filepath.Join(filepath.Dir(cfg), "week.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(weekCSV), 0o644))
	_, err := run(t, "--config", cfg, "ingest", csvPath)
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "--json", "feedback", "--batch", "B1", "--location", "Pune", "--limit", "2")
	require.NoError(t, err)
	var page report.FeedbackPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Records, 2)

	out, err = run(t, "--config", cfg, "feedback", "--week", "2025-01-06", "--offset", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2-3 of 3")
	assert.Contains(t, out, "Pune")

	out, err = run(t, "--config", cfg, "feedback", "--batch", "B9")
	require.NoError(t, err)
	assert.Contains(t, out, "No feedback matches.")

	_, err = run(t, "--config", cfg, "feedback", "--week", "someday")
	assert.Error(t, err)

	out, err = run(t, "--config", cfg, "--json", "ingest", "--history", "5")
	require.NoError(t, err)
	var status ingestStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 3, status.TotalFeedback)
	require.NotNil(t, status.LastSync)
	require.Len(t, status.Runs, 1)
}

func TestReport_EmptyWeek(t *testing.T) {
	cfg := setup(t)
	out, err := run(t, "--config", cfg, "report", "--week", "2025-01-06")
	require.NoError(t, err)
	assert.Contains(t, out, "No feedback found for")
}

func TestReport_ShowMissing(t *testing.T) {
	cfg := setup(t)
	_, err := run(t, "--config", cfg, "report", "--show", "--week", "2025-01-06")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored report")
}

func TestIngest_NoArgs(t *testing.T) {
	cfg := setup(t)
	_, err := run(t, "--config", cfg, "ingest")
	require.Error(t, err)
}

func TestAnalyze_JSON(t *testing.T) {
	cfg := setup(t)
	out, err := run(t, "--config", cfg, "--json", "analyze", "--tags", "infrastructure", "the", "wifi", "is", "slow")
	require.NoError(t, err)

	var res analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "the wifi is slow", res.Text)
	assert.Equal(t, "infrastructure", res.Primary.String())
}

func TestViews_RenderStoredWeek(t *testing.T) {
	cfg := setup(t)
	csvPath := filepath.Join(filepath.Dir(cfg), "week.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(weekCSV), 0o644))
	_, err := run(t, "--config", cfg, "ingest", csvPath)
	require.NoError(t, err)

	for _, args := range [][]string{
		{"trends", "--week", "2025-01-06", "--weeks", "3"},
		{"insights", "--week", "2025-01-06"},
		{"heatmap", "--week", "2025-01-06"},
		{"lifecycle", "--week", "2025-01-06"},
	} {
		t.Run(args[0], func(t *testing.T) {
			out, err := run(t, append([]string{"--config", cfg}, args...)...)
			require.NoError(t, err)
			assert.NotEmpty(t, strings.TrimSpace(out))
		})
	}
}

func TestWatch_RejectsShortInterval(t *testing.T) {
	cfg := setup(t)
	_, err := run(t, "--config", cfg, "watch", "--interval", "5s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 30s")
}

func TestAlertIcon(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)
	assert.Equal(t, "●", alertIcon("critical"))
	assert.Equal(t, checkMark, alertIcon("info"))
	assert.Equal(t, " ", alertIcon("other"))
}

func TestDoctor_JSON(t *testing.T) {
	cfg := setup(t)
	csvPath := filepath.Join(filepath.Dir(cfg), "week.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(weekCSV), 0o644))
	_, err := run(t, "--config", cfg, "ingest", csvPath)
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "--json", "doctor")
	require.NoError(t, err)

	var res doctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	checks := make(map[string]doctorCheck)
	for _, c := range res.Checks {
		checks[c.Name] = c
	}
	assert.True(t, checks["Sentiment backend"].Passed)
	assert.Equal(t, "lexicon", checks["Sentiment backend"].Message)
	assert.True(t, checks["SQLite database"].Passed)
	assert.True(t, checks["Last ingestion"].Passed)
	assert.Contains(t, checks["Last ingestion"].Message, "3 processed, 1 failed; 3 records stored")
}

func TestDoctor_MissingDatabase(t *testing.T) {
	cfg := setup(t)
	out, err := run(t, "--config", cfg, "--json", "doctor")
	require.NoError(t, err)

	var res doctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	for _, c := range res.Checks {
		if c.Name == "SQLite database" {
			assert.False(t, c.Passed)
			assert.Contains(t, c.Message, "not found")
			return
		}
	}
	t.Fatal("database check missing")
}
