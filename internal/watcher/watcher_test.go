package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blackwell-systems/feedbackwatch/internal/analyzer"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
)

// scriptedSource returns one overview per call, repeating the last.
type scriptedSource struct {
	overviews []report.Overview
	err       error
	calls     int
	weeks     []feedback.Window
}

func (s *scriptedSource) Overview(_ context.Context, w feedback.Window) (report.Overview, error) {
	s.weeks = append(s.weeks, w)
	if s.err != nil {
		return report.Overview{}, s.err
	}
	i := min(s.calls, len(s.overviews)-1)
	s.calls++
	ov := s.overviews[i]
	ov.Week = w.Key()
	return ov, nil
}

func overview(total int, neg float64, flags ...insight.RiskFlag) report.Overview {
	return report.Overview{
		Total:        total,
		Distribution: analyzer.Distribution{Positive: 100 - neg, Negative: neg},
		Heat:         analyzer.HeatBreakdown{Index: 60},
		Insights:     insight.Bundle{RiskFlags: flags},
	}
}

var fixedNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

func newTestWatcher(src Source) *Watcher {
	w := New(src, time.Minute, nil)
	w.now = func() time.Time { return fixedNow }
	return w
}

func TestSnapshot_UsesCurrentWeek(t *testing.T) {
	src := &scriptedSource{overviews: []report.Overview{
		overview(10, 45,
			keywordFlag("laptop", insight.SeverityHigh, 30),
			insight.RiskFlag{Type: insight.RiskHighNegative, Severity: insight.SeverityHigh},
		),
	}}
	w := newTestWatcher(src)

	state, err := w.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := src.weeks[0].Key(); got != "2025-03-03" {
		t.Errorf("watched week = %s, want 2025-03-03", got)
	}
	if state.Total != 10 || state.Negative != 45 {
		t.Errorf("state = %+v", state)
	}
	if len(state.RiskFlags) != 1 {
		t.Errorf("expected only the keyword flag to be tracked, got %d", len(state.RiskFlags))
	}
	if _, ok := state.RiskFlags["repeated_keyword:laptop"]; !ok {
		t.Error("missing laptop flag")
	}
}

func TestCheck_DeduplicatesAlerts(t *testing.T) {
	src := &scriptedSource{overviews: []report.Overview{
		overview(10, 30),
		overview(12, 50),
	}}
	w := newTestWatcher(src)

	prev, err := w.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	w.previous = prev

	first := w.Check(context.Background())
	if findAlert(first, "Negative sentiment above threshold") == nil {
		t.Fatalf("expected threshold alert, got %+v", first)
	}

	// Same data again: nothing new to report.
	second := w.Check(context.Background())
	if len(second) != 0 {
		t.Errorf("expected no alerts on unchanged data, got %+v", second)
	}
}

func TestCheck_SnapshotFailure(t *testing.T) {
	src := &scriptedSource{err: errors.New("database is locked")}
	w := newTestWatcher(src)

	alerts := w.Check(context.Background())
	if len(alerts) != 1 || alerts[0].Title != "Snapshot failed" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := &scriptedSource{overviews: []report.Overview{overview(1, 0)}}
	w := New(src, 10*time.Millisecond, func(Alert) {})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, want deadline exceeded", err)
	}
}

func TestRun_InitialSnapshotError(t *testing.T) {
	w := New(&scriptedSource{err: errors.New("no such table")}, time.Minute, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error from failed initial snapshot")
	}
}
