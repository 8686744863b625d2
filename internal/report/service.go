// Package report loads feedback windows from the store, runs the analytics
// over them and persists weekly reports.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/feedbackwatch/internal/analyzer"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/store"
)

// ErrNoFeedback is returned when a report is requested for a week without
// any feedback.
var ErrNoFeedback = errors.New("no feedback found for the specified week")

const (
	// DefaultTrendWeeks is the depth of the weekly series.
	DefaultTrendWeeks = 8
	// MaxTrendWeeks caps the depth a caller may ask for.
	MaxTrendWeeks = 52

	// loadConcurrency bounds the window scans LoadWeeks runs at once.
	loadConcurrency = 8
)

// Store is the persistence the service needs. *store.DB satisfies it.
type Store interface {
	FeedbackInWindow(ctx context.Context, w feedback.Window, pageSize int) ([]feedback.Annotated, error)
	UpsertReport(ctx context.Context, r *store.PeriodReport, items []store.ActionItemRow) (int64, error)
	GetReport(ctx context.Context, weekStart time.Time) (*store.PeriodReport, error)
	ListReports(ctx context.Context, limit, offset int) ([]store.PeriodReport, error)
	ListFeedback(ctx context.Context, f store.FeedbackFilter, limit, offset int) ([]feedback.Annotated, error)
	CountFeedback(ctx context.Context, f store.FeedbackFilter) (int, error)
}

// Service computes analytics for weeks of stored feedback.
type Service struct {
	store    Store
	gen      *insight.Generator
	log      *zap.Logger
	pageSize int
	locks    keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPageSize sets the page size used when scanning a window.
func WithPageSize(n int) Option {
	return func(s *Service) {
		s.pageSize = n
	}
}

// NewService creates a Service over st. A nil generator uses the defaults.
func NewService(st Store, gen *insight.Generator, opts ...Option) *Service {
	if gen == nil {
		gen = insight.NewGenerator()
	}
	s := &Service{
		store:    st,
		gen:      gen,
		log:      zap.NewNop(),
		pageSize: store.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadWeeks loads w and the n-1 weeks before it concurrently. The result is
// newest first and always has n entries; weeks without feedback have no
// records.
func (s *Service) LoadWeeks(ctx context.Context, w feedback.Window, n int) ([]feedback.WeekBatch, error) {
	n = max(n, 1)
	weeks := make([]feedback.WeekBatch, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i := range weeks {
		win := w.Shift(-i)
		weeks[i].Window = win
		g.Go(func() error {
			records, err := s.store.FeedbackInWindow(ctx, win, s.pageSize)
			if err != nil {
				return fmt.Errorf("loading week %s: %w", win.Key(), err)
			}
			weeks[i].Records = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return weeks, nil
}

// Insights builds the insight bundle for w.
func (s *Service) Insights(ctx context.Context, w feedback.Window) (insight.Bundle, error) {
	weeks, err := s.LoadWeeks(ctx, w, s.gen.Lookback())
	if err != nil {
		return insight.Bundle{}, err
	}
	return s.gen.Generate(weeks[0], weeks[1:]), nil
}

// Trends is the trend view of a week.
type Trends struct {
	Week       string                   `json:"week"`
	Comparison analyzer.Comparison      `json:"week_over_week"`
	Series     []analyzer.TrendPoint    `json:"weekly_series"`
	Categories []analyzer.CategoryTrend `json:"category_trends"`
}

// Trends compares w with the week before it and builds the weekly and
// per-category series over the n weeks ending at w. n is capped at
// MaxTrendWeeks.
func (s *Service) Trends(ctx context.Context, w feedback.Window, n int) (Trends, error) {
	if n <= 0 {
		n = DefaultTrendWeeks
	}
	n = min(n, MaxTrendWeeks)
	weeks, err := s.LoadWeeks(ctx, w, max(n, 2))
	if err != nil {
		return Trends{}, err
	}
	return Trends{
		Week:       w.Key(),
		Comparison: analyzer.Compare(weeks[0].Records, weeks[1].Records),
		Series:     analyzer.WeeklySeries(weeks[:n]),
		Categories: analyzer.CategoryTrends(weeks[:n]),
	}, nil
}

// Heatmap returns the category heatmap for w.
func (s *Service) Heatmap(ctx context.Context, w feedback.Window) ([]analyzer.HeatmapCell, error) {
	records, err := s.store.FeedbackInWindow(ctx, w, s.pageSize)
	if err != nil {
		return nil, err
	}
	return analyzer.Heatmap(records), nil
}

// Lifecycle returns the per-stage sentiment breakdown for w.
func (s *Service) Lifecycle(ctx context.Context, w feedback.Window) ([]analyzer.StageTrend, error) {
	records, err := s.store.FeedbackInWindow(ctx, w, s.pageSize)
	if err != nil {
		return nil, err
	}
	return analyzer.LifecycleTrends(records), nil
}

// Overview is the live state of one week, computed without persisting.
type Overview struct {
	Week         string                 `json:"week"`
	Total        int                    `json:"total"`
	Distribution analyzer.Distribution  `json:"sentiment_distribution"`
	Heat         analyzer.HeatBreakdown `json:"heat"`
	Insights     insight.Bundle         `json:"insights"`
}

// Overview computes distribution, heat and insights for w.
func (s *Service) Overview(ctx context.Context, w feedback.Window) (Overview, error) {
	weeks, err := s.LoadWeeks(ctx, w, s.gen.Lookback())
	if err != nil {
		return Overview{}, err
	}
	current := weeks[0]
	return Overview{
		Week:         w.Key(),
		Total:        len(current.Records),
		Distribution: analyzer.Distribute(current.Records),
		Heat:         analyzer.AnalyzeHeat(current.Records),
		Insights:     s.gen.Generate(current, weeks[1:]),
	}, nil
}

// reportData is the JSON document stored alongside each report.
type reportData struct {
	Insights   insight.Bundle         `json:"insights"`
	Comparison analyzer.Comparison    `json:"week_over_week"`
	Heat       analyzer.HeatBreakdown `json:"heat"`
	Heatmap    []analyzer.HeatmapCell `json:"heatmap"`
}

// Generate recomputes the report for w and upserts it with its action items.
// Generation for the same week is serialized; regenerating from unchanged
// feedback yields the same report.
func (s *Service) Generate(ctx context.Context, w feedback.Window) (*store.PeriodReport, error) {
	unlock := s.locks.Lock(w.Key())
	defer unlock()

	weeks, err := s.LoadWeeks(ctx, w, max(s.gen.Lookback(), 2))
	if err != nil {
		return nil, err
	}
	current, previous := weeks[0], weeks[1]
	if len(current.Records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFeedback, w.Label())
	}

	bundle := s.gen.Generate(current, weeks[1:])
	cmp := analyzer.Compare(current.Records, previous.Records)
	heat := analyzer.AnalyzeHeat(current.Records)

	data, err := json.Marshal(reportData{
		Insights:   bundle,
		Comparison: cmp,
		Heat:       heat,
		Heatmap:    analyzer.Heatmap(current.Records),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding report data: %w", err)
	}

	r := &store.PeriodReport{
		WeekStart:        w.Start,
		WeekEnd:          w.End(),
		OverallSentiment: cmp.Current.Positive,
		HeatIndex:        heat.Index,
		Total:            len(current.Records),
		ExecutiveSummary: bundle.ExecutiveSummary,
		ReportData:       data,
	}
	if len(previous.Records) > 0 {
		change := cmp.OverallChange
		r.SentimentChange = &change
	}
	for _, rec := range current.Records {
		switch rec.Sentiment.Sentiment {
		case feedback.Positive:
			r.Positive++
		case feedback.Neutral:
			r.Neutral++
		case feedback.Negative:
			r.Negative++
		}
	}

	items := make([]store.ActionItemRow, 0, len(bundle.ActionItems))
	for _, it := range bundle.ActionItems {
		items = append(items, store.ActionItemRow{
			Priority:    string(it.Priority),
			Category:    it.Category,
			Title:       it.Title,
			Description: it.Description,
			AssignedTo:  it.AssignedTo,
			Status:      store.StatusPending,
			Confidence:  it.Confidence,
			Examples:    it.Examples,
		})
	}

	if _, err := s.store.UpsertReport(ctx, r, items); err != nil {
		return nil, fmt.Errorf("saving report: %w", err)
	}

	s.log.Info("report generated",
		zap.String("week", w.Key()),
		zap.Int("feedback", r.Total),
		zap.Float64("overall_sentiment", r.OverallSentiment),
		zap.Float64("heat_index", r.HeatIndex),
		zap.Int("action_items", len(items)),
	)

	return s.store.GetReport(ctx, w.Start)
}

// Get returns the stored report for w, or nil if it was never generated.
func (s *Service) Get(ctx context.Context, w feedback.Window) (*store.PeriodReport, error) {
	return s.store.GetReport(ctx, w.Start)
}

// List returns stored reports newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]store.PeriodReport, error) {
	return s.store.ListReports(ctx, limit, offset)
}

// FeedbackPage is one page of stored feedback with the total number of
// records matching the filter.
type FeedbackPage struct {
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
	Records []feedback.Annotated `json:"records"`
}

// Feedback lists stored records matching f, newest first.
func (s *Service) Feedback(ctx context.Context, f store.FeedbackFilter, limit, offset int) (FeedbackPage, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	offset = max(offset, 0)

	total, err := s.store.CountFeedback(ctx, f)
	if err != nil {
		return FeedbackPage{}, fmt.Errorf("counting feedback: %w", err)
	}
	records, err := s.store.ListFeedback(ctx, f, limit, offset)
	if err != nil {
		return FeedbackPage{}, fmt.Errorf("listing feedback: %w", err)
	}
	if records == nil {
		records = []feedback.Annotated{}
	}
	return FeedbackPage{Total: total, Limit: limit, Offset: offset, Records: records}, nil
}
