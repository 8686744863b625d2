package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

var week = feedback.WeekOf(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func annotated(id string, w feedback.Window, s feedback.Sentiment) feedback.Annotated {
	return feedback.Annotated{
		Record: feedback.Record{
			ID:        id,
			TraineeID: "T-" + id,
			Location:  "Chennai",
			Batch:     "B12",
			WeekStart: w.Start,
			WeekEnd:   w.End(),
			Rating:    4,
			Text:      "The mentor answered every doubt",
			Tags:      "mentor",
			Stage:     feedback.StageIntermediate,
			CreatedAt: time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC),
		},
		Sentiment: feedback.SentimentAnnotation{
			Sentiment:  s,
			Confidence: 0.9,
			Scores:     feedback.Scores{Positive: 0.7, Neutral: 0.2, Negative: 0.1},
			Tone:       feedback.ToneAppreciation,
		},
		Categories: []feedback.CategoryAssignment{
			{Category: feedback.Mentor, Relevance: 0.6, Evidence: []string{"mentor", "doubt"}},
			{Category: feedback.Trainer, Relevance: 0.2, Evidence: []string{}},
		},
	}
}

func TestOpen_CreatesFileAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feedback.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.Conn().QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	// Migrating again is a no-op.
	require.NoError(t, db.Migrate())
}

func TestInsertAnnotated_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	want := annotated("a1", week, feedback.Positive)
	require.NoError(t, db.InsertAnnotated(ctx, want))

	got, err := db.FeedbackInWindow(ctx, week, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestInsertAnnotated_OptionalFields(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := annotated("a1", week, feedback.Neutral)
	a.Rating = 0
	a.Tags = ""
	a.Stage = feedback.StageUnknown
	a.Sentiment.Tone = feedback.ToneNone
	require.NoError(t, db.InsertAnnotated(ctx, a))

	got, err := db.FeedbackInWindow(ctx, week, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].HasRating())
	assert.Equal(t, feedback.StageUnknown, got[0].Stage)
	assert.Equal(t, feedback.ToneNone, got[0].Sentiment.Tone)
}

func TestInsertAnnotated_DuplicateRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertAnnotated(ctx, annotated("dup", week, feedback.Positive)))
	assert.Error(t, db.InsertAnnotated(ctx, annotated("dup", week, feedback.Negative)))

	var cats int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM category_assignments").Scan(&cats))
	assert.Equal(t, 2, cats, "failed insert must not leave partial annotations")
}

func TestFeedbackInWindow_BoundsAndPaging(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := range 7 {
		a := annotated(fmt.Sprintf("in%d", i), week, feedback.Positive)
		// Any of the seven days belongs to the week, including the last.
		a.WeekStart = week.Start.AddDate(0, 0, i)
		a.CreatedAt = a.CreatedAt.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.InsertAnnotated(ctx, a))
	}
	require.NoError(t, db.InsertAnnotated(ctx, annotated("next", week.Shift(1), feedback.Negative)))
	require.NoError(t, db.InsertAnnotated(ctx, annotated("prev", week.Previous(), feedback.Negative)))

	got, err := db.FeedbackInWindow(ctx, week, 3)
	require.NoError(t, err)
	require.Len(t, got, 7)
	for i, a := range got {
		assert.Equal(t, fmt.Sprintf("in%d", i), a.ID)
		assert.Len(t, a.Categories, 2)
	}

	n, err := db.CountInWindow(ctx, week)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	page, err := db.FeedbackPage(ctx, week, 2, 6)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "in6", page[0].ID)

	empty, err := db.FeedbackInWindow(ctx, week.Shift(-5), 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListFeedback_Filters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	add := func(id string, w feedback.Window, batch, location string, minute int) {
		a := annotated(id, w, feedback.Neutral)
		a.Batch = batch
		a.Location = location
		a.CreatedAt = a.CreatedAt.Add(time.Duration(minute) * time.Minute)
		require.NoError(t, db.InsertAnnotated(ctx, a))
	}
	add("a", week, "B12", "Chennai", 1)
	add("b", week, "B12", "Pune", 2)
	add("c", week, "B13", "Chennai", 3)
	add("d", week.Previous(), "B12", "Chennai", 4)

	ids := func(list []feedback.Annotated) []string {
		var out []string
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter FeedbackFilter
		want   []string
	}{
		{"all newest first", FeedbackFilter{}, []string{"d", "c", "b", "a"}},
		{"week", FeedbackFilter{Week: &week}, []string{"c", "b", "a"}},
		{"batch", FeedbackFilter{Batch: "B12"}, []string{"d", "b", "a"}},
		{"location", FeedbackFilter{Location: "Chennai"}, []string{"d", "c", "a"}},
		{"combined", FeedbackFilter{Week: &week, Batch: "B12", Location: "Chennai"}, []string{"a"}},
		{"no match", FeedbackFilter{Batch: "B99"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListFeedback(ctx, tt.filter, 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))

			n, err := db.CountFeedback(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}

	page, err := db.ListFeedback(ctx, FeedbackFilter{Batch: "B12"}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(page))
	assert.Len(t, page[0].Categories, 2)
	assert.Equal(t, feedback.ToneAppreciation, page[0].Sentiment.Tone)
}

func testReport() *PeriodReport {
	change := 10.0
	return &PeriodReport{
		WeekStart:        week.Start,
		WeekEnd:          week.End(),
		OverallSentiment: 60,
		SentimentChange:  &change,
		HeatIndex:        62,
		Total:            20,
		Positive:         12,
		Neutral:          5,
		Negative:         3,
		ExecutiveSummary: "Week: Jan 06 - Jan 12, 2025",
		ReportData:       []byte(`{"week":"2025-01-06"}`),
	}
}

func TestUpsertReport_InsertAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	items := []ActionItemRow{
		{Priority: "urgent", Category: "overall", Title: "Drop", Description: "d", AssignedTo: "Leadership Team", Confidence: 0.9},
		{Priority: "high", Category: "mentor", Title: "Mentor", Description: "m", AssignedTo: "Mentor Program Manager", Confidence: 0.3, Examples: []string{"slow replies"}},
	}
	id, err := db.UpsertReport(ctx, testReport(), items)
	require.NoError(t, err)
	assert.NotZero(t, id)

	r, err := db.GetReport(ctx, week.Start)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, 60.0, r.OverallSentiment)
	require.NotNil(t, r.SentimentChange)
	assert.Equal(t, 10.0, *r.SentimentChange)
	assert.Equal(t, week.Start, r.WeekStart)
	assert.JSONEq(t, `{"week":"2025-01-06"}`, string(r.ReportData))

	require.Len(t, r.ActionItems, 2)
	assert.Equal(t, "Drop", r.ActionItems[0].Title)
	assert.Equal(t, StatusPending, r.ActionItems[0].Status)
	assert.Empty(t, r.ActionItems[0].Examples)
	assert.Equal(t, []string{"slow replies"}, r.ActionItems[1].Examples)
}

func TestUpsertReport_OverwritesSameWeek(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := db.UpsertReport(ctx, testReport(), []ActionItemRow{
		{Priority: "high", Title: "a", Description: "a"},
		{Priority: "high", Title: "b", Description: "b"},
	})
	require.NoError(t, err)

	r := testReport()
	r.HeatIndex = 40
	r.SentimentChange = nil
	second, err := db.UpsertReport(ctx, r, []ActionItemRow{{Priority: "urgent", Title: "c", Description: "c"}})
	require.NoError(t, err)
	assert.Equal(t, first, second, "same week keeps its report id")

	got, err := db.GetReport(ctx, week.Start)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.HeatIndex)
	assert.Nil(t, got.SentimentChange)
	require.Len(t, got.ActionItems, 1)
	assert.Equal(t, "c", got.ActionItems[0].Title)

	var n int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM period_reports").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestUpsertReport_CancelledContextWritesNothing(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.UpsertReport(ctx, testReport(), nil)
	assert.Error(t, err)

	r, err := db.GetReport(context.Background(), week.Start)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestGetReport_Missing(t *testing.T) {
	db := openTestDB(t)
	r, err := db.GetReport(context.Background(), week.Start)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestListReports_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := range 3 {
		r := testReport()
		r.WeekStart = week.Shift(-i).Start
		r.WeekEnd = week.Shift(-i).End()
		_, err := db.UpsertReport(ctx, r, []ActionItemRow{{Priority: "high", Title: "t", Description: "d"}})
		require.NoError(t, err)
	}

	reports, err := db.ListReports(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, week.Start, reports[0].WeekStart)
	assert.Equal(t, week.Shift(-1).Start, reports[1].WeekStart)
	assert.Empty(t, reports[0].ActionItems)

	rest, err := db.ListReports(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, week.Shift(-2).Start, rest[0].WeekStart)
}

func TestIngestRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.InsertIngestRun(ctx, "week1.csv", "vader", 10, 2)
	require.NoError(t, err)
	_, err = db.InsertIngestRun(ctx, "week2.csv", "lexicon", 5, 0)
	require.NoError(t, err)

	runs, err := db.RecentIngestRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "week2.csv", runs[0].Source)
	assert.Equal(t, "lexicon", runs[0].Backend)
	assert.Equal(t, 2, runs[1].Failed)
}
