package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/feedbackwatch/internal/analyzer"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
	"github.com/blackwell-systems/feedbackwatch/internal/sentiment"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

var clock = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	reports    map[string]*store.PeriodReport
	lastWeek   feedback.Window
	lastN      int
	lastLimit  int
	lastOffset int
	lastFilter store.FeedbackFilter
}

func (f *fakeBackend) Generate(_ context.Context, w feedback.Window) (*store.PeriodReport, error) {
	f.lastWeek = w
	r, ok := f.reports[w.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", report.ErrNoFeedback, w.Label())
	}
	return r, nil
}

func (f *fakeBackend) Get(_ context.Context, w feedback.Window) (*store.PeriodReport, error) {
	f.lastWeek = w
	return f.reports[w.Key()], nil
}

func (f *fakeBackend) List(_ context.Context, limit, _ int) ([]store.PeriodReport, error) {
	f.lastLimit = limit
	var out []store.PeriodReport
	for _, r := range f.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeBackend) Insights(_ context.Context, w feedback.Window) (insight.Bundle, error) {
	f.lastWeek = w
	return insight.Bundle{Week: w.Key(), ExecutiveSummary: "summary"}, nil
}

func (f *fakeBackend) Trends(_ context.Context, w feedback.Window, n int) (report.Trends, error) {
	f.lastWeek, f.lastN = w, n
	return report.Trends{Week: w.Key()}, nil
}

func (f *fakeBackend) Heatmap(_ context.Context, w feedback.Window) ([]analyzer.HeatmapCell, error) {
	f.lastWeek = w
	return []analyzer.HeatmapCell{{Category: feedback.Mentor, DisplayName: "Mentor", Total: 4}}, nil
}

func (f *fakeBackend) Lifecycle(_ context.Context, w feedback.Window) ([]analyzer.StageTrend, error) {
	f.lastWeek = w
	return []analyzer.StageTrend{{Stage: feedback.StageNewJoiner, Volume: 4}}, nil
}

func (f *fakeBackend) Feedback(_ context.Context, filter store.FeedbackFilter, limit, offset int) (report.FeedbackPage, error) {
	f.lastFilter, f.lastLimit, f.lastOffset = filter, limit, offset
	return report.FeedbackPage{
		Total:   1,
		Limit:   limit,
		Offset:  offset,
		Records: []feedback.Annotated{{Record: feedback.Record{ID: "r1", TraineeID: "T1", Batch: filter.Batch}}},
	}, nil
}

// call invokes a tool directly and returns the decoded text payload.
func call(t *testing.T, s *Server, name, args string) (string, bool) {
	t.Helper()
	res := s.callTool(context.Background(), toolsCallParams{Name: name, Arguments: json.RawMessage(args)})
	require.Len(t, res.Content, 1)
	return res.Content[0].Text, res.IsError
}

func newToolServer(b *fakeBackend, opts ...Option) *Server {
	return NewServer(b, append([]Option{WithClock(func() time.Time { return clock })}, opts...)...)
}

func TestGetReport_DefaultsToCurrentWeek(t *testing.T) {
	b := &fakeBackend{reports: map[string]*store.PeriodReport{
		"2025-03-03": {Total: 12, ExecutiveSummary: "ok"},
	}}
	s := newToolServer(b)

	text, isErr := call(t, s, "get_report", `{}`)
	require.False(t, isErr, text)
	assert.Equal(t, "2025-03-03", b.lastWeek.Key())

	var r store.PeriodReport
	require.NoError(t, json.Unmarshal([]byte(text), &r))
	assert.Equal(t, 12, r.Total)
}

func TestGetReport_Missing(t *testing.T) {
	s := newToolServer(&fakeBackend{})
	text, isErr := call(t, s, "get_report", `{"week":"2025-02-24"}`)
	assert.True(t, isErr)
	assert.Contains(t, text, "generate_report")
}

func TestGenerateReport_NoFeedback(t *testing.T) {
	s := newToolServer(&fakeBackend{})
	text, isErr := call(t, s, "generate_report", `{"week":"2025-02-24"}`)
	assert.True(t, isErr)
	assert.Contains(t, text, "no feedback found")
}

func TestBadWeekIsToolError(t *testing.T) {
	s := newToolServer(&fakeBackend{})
	text, isErr := call(t, s, "get_insights", `{"week":"last tuesday"}`)
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid week")
}

func TestListReports_ClampsLimitAndDropsData(t *testing.T) {
	b := &fakeBackend{reports: map[string]*store.PeriodReport{
		"2025-03-03": {Total: 3, ReportData: json.RawMessage(`{"big":true}`)},
	}}
	s := newToolServer(b)

	text, isErr := call(t, s, "list_reports", `{"limit":500}`)
	require.False(t, isErr, text)
	assert.Equal(t, maxListLimit, b.lastLimit)
	assert.NotContains(t, text, "report_data")

	_, _ = call(t, s, "list_reports", `null`)
	assert.Equal(t, 10, b.lastLimit)
}

func TestListFeedback_FiltersAndClamps(t *testing.T) {
	b := &fakeBackend{}
	s := newToolServer(b)

	text, isErr := call(t, s, "list_feedback", `{"week":"2025-02-03","batch":"B7","location":"Pune","limit":500,"offset":20}`)
	require.False(t, isErr, text)
	assert.Equal(t, maxListLimit, b.lastLimit)
	assert.Equal(t, 20, b.lastOffset)
	require.NotNil(t, b.lastFilter.Week)
	assert.Equal(t, "2025-02-03", b.lastFilter.Week.Key())
	assert.Equal(t, "B7", b.lastFilter.Batch)
	assert.Equal(t, "Pune", b.lastFilter.Location)
	assert.Contains(t, text, `"trainee_id":"T1"`)

	// No week means every week, not the current one.
	_, isErr = call(t, s, "list_feedback", `{"offset":-4}`)
	require.False(t, isErr)
	assert.Nil(t, b.lastFilter.Week)
	assert.Equal(t, 10, b.lastLimit)
	assert.Zero(t, b.lastOffset)

	_, isErr = call(t, s, "list_feedback", `{"week":"soon"}`)
	assert.True(t, isErr)
}

func TestGetTrends_PassesWeeks(t *testing.T) {
	b := &fakeBackend{}
	s := newToolServer(b)
	_, isErr := call(t, s, "get_trends", `{"week":"2025-02-03","weeks":12}`)
	require.False(t, isErr)
	assert.Equal(t, "2025-02-03", b.lastWeek.Key())
	assert.Equal(t, 12, b.lastN)
}

func TestHeatmapAndLifecycle(t *testing.T) {
	s := newToolServer(&fakeBackend{})

	text, isErr := call(t, s, "get_heatmap", `{}`)
	require.False(t, isErr)
	assert.Contains(t, text, `"week":"2025-03-03"`)
	assert.Contains(t, text, `"category":"mentor"`)

	text, isErr = call(t, s, "get_lifecycle", `{}`)
	require.False(t, isErr)
	assert.Contains(t, text, `"stage":"new_joiner"`)
}

func TestAnalyzeText(t *testing.T) {
	scorer := sentiment.NewScorer(sentiment.NewLexicon())
	s := newToolServer(&fakeBackend{}, WithScorer(scorer, nil))

	text, isErr := call(t, s, "analyze_text", `{"text":"the wifi keeps dropping","tags":"infrastructure"}`)
	require.False(t, isErr, text)

	var res TextAnalysis
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, feedback.Infrastructure, res.Primary)
	assert.NotEmpty(t, res.Categories)

	_, isErr = call(t, s, "analyze_text", `{"text":""}`)
	assert.True(t, isErr)
}
