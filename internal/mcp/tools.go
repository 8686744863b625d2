package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blackwell-systems/feedbackwatch/internal/analyzer"
	"github.com/blackwell-systems/feedbackwatch/internal/category"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
	"github.com/blackwell-systems/feedbackwatch/internal/sentiment"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

// Backend is the analytics the tools expose. *report.Service satisfies it.
type Backend interface {
	Generate(ctx context.Context, w feedback.Window) (*store.PeriodReport, error)
	Get(ctx context.Context, w feedback.Window) (*store.PeriodReport, error)
	List(ctx context.Context, limit, offset int) ([]store.PeriodReport, error)
	Insights(ctx context.Context, w feedback.Window) (insight.Bundle, error)
	Trends(ctx context.Context, w feedback.Window, n int) (report.Trends, error)
	Heatmap(ctx context.Context, w feedback.Window) ([]analyzer.HeatmapCell, error)
	Lifecycle(ctx context.Context, w feedback.Window) ([]analyzer.StageTrend, error)
	Feedback(ctx context.Context, f store.FeedbackFilter, limit, offset int) (report.FeedbackPage, error)
}

// TextAnalysis is the result of the analyze_text tool.
type TextAnalysis struct {
	Sentiment  feedback.SentimentAnnotation  `json:"sentiment_analysis"`
	Categories []feedback.CategoryAssignment `json:"category_mappings"`
	Primary    feedback.Category             `json:"primary_category"`
}

// WithScorer enables the analyze_text tool.
func WithScorer(scorer *sentiment.Scorer, mapper *category.Mapper) Option {
	return func(s *Server) {
		if mapper == nil {
			mapper = category.NewMapper()
		}
		s.scorer = scorer
		s.mapper = mapper
	}
}

const maxListLimit = 50

var (
	weekSchema     = json.RawMessage(`{"type":"object","properties":{"week":{"type":"string","description":"Week start date, YYYY-MM-DD (default: current week)"}},"additionalProperties":false}`)
	trendsSchema   = json.RawMessage(`{"type":"object","properties":{"week":{"type":"string","description":"Start date of the last week in the series, YYYY-MM-DD (default: current week)"},"weeks":{"type":"integer","description":"Weeks in the series (default 8, max 52)"}},"additionalProperties":false}`)
	listSchema     = json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","description":"Number of reports to return (default 10, max 50)"}},"additionalProperties":false}`)
	feedbackSchema = json.RawMessage(`{"type":"object","properties":{"week":{"type":"string","description":"Week start date, YYYY-MM-DD (default: all weeks)"},"batch":{"type":"string","description":"Training batch"},"location":{"type":"string"},"limit":{"type":"integer","description":"Records to return (default 10, max 50)"},"offset":{"type":"integer","description":"Records to skip"}},"additionalProperties":false}`)
	textSchema     = json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"},"tags":{"type":"string","description":"Comma-separated category tags"}},"required":["text"],"additionalProperties":false}`)
)

func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_report",
		Description: "Stored weekly report: sentiment counts, change vs previous week, heat index, action items and executive summary.",
		InputSchema: weekSchema,
		Handler:     s.handleGetReport,
	})
	s.registerTool(toolDef{
		Name:        "generate_report",
		Description: "Recompute and store the weekly report from current feedback, replacing any earlier report for that week.",
		InputSchema: weekSchema,
		Handler:     s.handleGenerateReport,
	})
	s.registerTool(toolDef{
		Name:        "list_reports",
		Description: "Most recent stored weekly reports, newest first.",
		InputSchema: listSchema,
		Handler:     s.handleListReports,
	})
	s.registerTool(toolDef{
		Name:        "list_feedback",
		Description: "Stored feedback records with their sentiment and categories, newest first, filtered by week, batch and location.",
		InputSchema: feedbackSchema,
		Handler:     s.handleListFeedback,
	})
	s.registerTool(toolDef{
		Name:        "get_insights",
		Description: "Action items, risk flags, assessment stress, unresolved loops and praise momentum for a week.",
		InputSchema: weekSchema,
		Handler:     s.handleGetInsights,
	})
	s.registerTool(toolDef{
		Name:        "get_trends",
		Description: "Week-over-week comparison plus weekly and per-category sentiment series.",
		InputSchema: trendsSchema,
		Handler:     s.handleGetTrends,
	})
	s.registerTool(toolDef{
		Name:        "get_heatmap",
		Description: "Sentiment distribution and heat score per category for a week.",
		InputSchema: weekSchema,
		Handler:     s.handleGetHeatmap,
	})
	s.registerTool(toolDef{
		Name:        "get_lifecycle",
		Description: "Sentiment distribution per trainee lifecycle stage for a week.",
		InputSchema: weekSchema,
		Handler:     s.handleGetLifecycle,
	})
	if s.scorer != nil {
		s.registerTool(toolDef{
			Name:        "analyze_text",
			Description: "Sentiment, tone and categories for a piece of text. Nothing is stored.",
			InputSchema: textSchema,
			Handler:     s.handleAnalyzeText,
		})
	}
}

type weekArgs struct {
	Week     string `json:"week"`
	Weeks    int    `json:"weeks"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	Batch    string `json:"batch"`
	Location string `json:"location"`
	Text     string `json:"text"`
	Tags     string `json:"tags"`
}

func decodeArgs(raw json.RawMessage) (weekArgs, error) {
	var a weekArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("invalid arguments: %w", err)
	}
	return a, nil
}

func (s *Server) parseArgs(raw json.RawMessage) (weekArgs, feedback.Window, error) {
	a, err := decodeArgs(raw)
	if err != nil {
		return a, feedback.Window{}, err
	}
	w, err := feedback.ParseWeek(a.Week, s.now())
	return a, w, err
}

// clampLimit applies the default of 10 and the cap of maxListLimit.
func clampLimit(n int) int {
	if n <= 0 {
		return 10
	}
	return min(n, maxListLimit)
}

func (s *Server) handleGetReport(ctx context.Context, args json.RawMessage) (any, error) {
	_, w, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	r, err := s.backend.Get(ctx, w)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("no stored report for %s; call generate_report first", w.Label())
	}
	return r, nil
}

func (s *Server) handleGenerateReport(ctx context.Context, args json.RawMessage) (any, error) {
	_, w, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	r, err := s.backend.Generate(ctx, w)
	if errors.Is(err, report.ErrNoFeedback) {
		return nil, fmt.Errorf("no feedback found for %s", w.Label())
	}
	return r, err
}

func (s *Server) handleListReports(ctx context.Context, args json.RawMessage) (any, error) {
	a, _, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	reports, err := s.backend.List(ctx, clampLimit(a.Limit), 0)
	if err != nil {
		return nil, err
	}
	// Report data is large and already summarized by the other fields.
	for i := range reports {
		reports[i].ReportData = nil
	}
	return map[string]any{"reports": reports}, nil
}

func (s *Server) handleListFeedback(ctx context.Context, args json.RawMessage) (any, error) {
	a, err := decodeArgs(args)
	if err != nil {
		return nil, err
	}
	f := store.FeedbackFilter{Batch: a.Batch, Location: a.Location}
	// Without a week the listing spans all stored weeks.
	if a.Week != "" {
		w, err := feedback.ParseWeek(a.Week, s.now())
		if err != nil {
			return nil, err
		}
		f.Week = &w
	}
	return s.backend.Feedback(ctx, f, clampLimit(a.Limit), max(a.Offset, 0))
}

func (s *Server) handleGetInsights(ctx context.Context, args json.RawMessage) (any, error) {
	_, w, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	return s.backend.Insights(ctx, w)
}

func (s *Server) handleGetTrends(ctx context.Context, args json.RawMessage) (any, error) {
	a, w, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	return s.backend.Trends(ctx, w, a.Weeks)
}

func (s *Server) handleGetHeatmap(ctx context.Context, args json.RawMessage) (any, error) {
	_, w, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	cells, err := s.backend.Heatmap(ctx, w)
	if err != nil {
		return nil, err
	}
	return map[string]any{"week": w.Key(), "categories": cells}, nil
}

func (s *Server) handleGetLifecycle(ctx context.Context, args json.RawMessage) (any, error) {
	_, w, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	stages, err := s.backend.Lifecycle(ctx, w)
	if err != nil {
		return nil, err
	}
	return map[string]any{"week": w.Key(), "stages": stages}, nil
}

func (s *Server) handleAnalyzeText(_ context.Context, args json.RawMessage) (any, error) {
	a, _, err := s.parseArgs(args)
	if err != nil {
		return nil, err
	}
	if a.Text == "" {
		return nil, errors.New("text is required")
	}
	cats := s.mapper.Map(a.Text, a.Tags)
	return TextAnalysis{
		Sentiment:  s.scorer.Annotate(a.Text),
		Categories: cats,
		Primary:    category.PrimaryOf(cats),
	}, nil
}
