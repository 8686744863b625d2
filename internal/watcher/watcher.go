// Package watcher polls the current reporting week and emits alerts when
// its sentiment picture changes in a way someone should act on.
package watcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
	"github.com/blackwell-systems/feedbackwatch/internal/insight"
	"github.com/blackwell-systems/feedbackwatch/internal/report"
)

// Default thresholds.
const (
	DefaultNegativeThreshold = 40.0
	DefaultHeatDrop          = 10.0
)

// Source computes the live state of a week. *report.Service satisfies it.
type Source interface {
	Overview(ctx context.Context, w feedback.Window) (report.Overview, error)
}

// WatchState captures a point-in-time snapshot of one week.
type WatchState struct {
	Timestamp   time.Time
	Week        string
	Total       int
	Negative    float64 // percent
	Positive    float64 // percent
	HeatIndex   float64
	RiskFlags   map[string]insight.RiskFlag // repeated-keyword flags by riskKey
	Stress      bool
	LoopWeeks   int
	UrgentItems map[string]bool // urgent action item titles
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Watcher checks the current week at a regular interval and emits alerts
// when notable changes are detected.
type Watcher struct {
	source        Source
	interval      time.Duration
	previous      *WatchState
	alertFn       func(Alert)
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts
	log           *zap.Logger
	now           func() time.Time

	// NegativeThreshold is the negative share, in percent, above which the
	// week is flagged.
	NegativeThreshold float64
	// HeatDrop is the heat index fall between checks that raises a warning.
	HeatDrop float64
}

// New creates a Watcher over source.
func New(source Source, interval time.Duration, alertFn func(Alert)) *Watcher {
	return &Watcher{
		source:            source,
		interval:          interval,
		alertFn:           alertFn,
		lastAlertKeys:     make(map[string]bool),
		log:               zap.NewNop(),
		now:               time.Now,
		NegativeThreshold: DefaultNegativeThreshold,
		HeatDrop:          DefaultHeatDrop,
	}
}

// SetLogger sets the logger used for failed checks.
func (w *Watcher) SetLogger(l *zap.Logger) {
	if l != nil {
		w.log = l
	}
}

// Run takes an initial snapshot, then checks at every interval. Blocks
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.previous = initial

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, a := range w.Check(ctx) {
				if w.alertFn != nil {
					w.alertFn(a)
				}
			}
		}
	}
}

// Check takes a new snapshot, compares it against the previous one and
// returns any alerts. Identical alerts are suppressed until the underlying
// data changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr, err := w.Snapshot(ctx)
	if err != nil {
		w.log.Warn("watch snapshot failed", zap.Error(err))
		return []Alert{{
			Level:   "warning",
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not read feedback data: %v", err),
			Time:    w.now(),
		}}
	}

	var raw []Alert
	if w.previous != nil {
		raw = w.compare(w.previous, curr)
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// Snapshot captures the state of the week containing now.
func (w *Watcher) Snapshot(ctx context.Context) (*WatchState, error) {
	week := feedback.WeekOf(w.now())
	ov, err := w.source.Overview(ctx, week)
	if err != nil {
		return nil, err
	}

	state := &WatchState{
		Timestamp:   w.now(),
		Week:        ov.Week,
		Total:       ov.Total,
		Negative:    ov.Distribution.Negative,
		Positive:    ov.Distribution.Positive,
		HeatIndex:   ov.Heat.Index,
		RiskFlags:   make(map[string]insight.RiskFlag, len(ov.Insights.RiskFlags)),
		Stress:      ov.Insights.AssessmentStress != nil,
		UrgentItems: make(map[string]bool),
	}
	for _, f := range ov.Insights.RiskFlags {
		// The negative share is tracked against NegativeThreshold instead.
		if f.Type == insight.RiskHighNegative {
			continue
		}
		state.RiskFlags[riskKey(f)] = f
	}
	for _, l := range ov.Insights.UnresolvedLoops {
		state.LoopWeeks = max(state.LoopWeeks, l.WeeksAffected)
	}
	for _, it := range ov.Insights.ActionItems {
		if it.Priority == insight.PriorityUrgent {
			state.UrgentItems[it.Title] = true
		}
	}
	return state, nil
}

func riskKey(f insight.RiskFlag) string {
	return f.Type + ":" + f.Keyword
}
