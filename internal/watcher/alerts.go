package watcher

import (
	"fmt"
	"slices"
	"time"

	"github.com/blackwell-systems/feedbackwatch/internal/insight"
)

// Compare detects notable changes between two states using the default
// thresholds.
func Compare(prev, curr *WatchState) []Alert {
	w := &Watcher{
		now:               time.Now,
		NegativeThreshold: DefaultNegativeThreshold,
		HeatDrop:          DefaultHeatDrop,
	}
	return w.compare(prev, curr)
}

func (w *Watcher) compare(prev, curr *WatchState) []Alert {
	now := w.now()

	// A new week starts from scratch; only announce it.
	if prev.Week != curr.Week {
		return []Alert{{
			Level:   "info",
			Title:   "New reporting week",
			Message: fmt.Sprintf("Now watching week of %s", curr.Week),
			Time:    now,
		}}
	}

	var alerts []Alert
	alerts = append(alerts, w.compareCritical(prev, curr, now)...)
	alerts = append(alerts, w.compareWarning(prev, curr, now)...)
	alerts = append(alerts, w.compareInfo(prev, curr, now)...)
	return alerts
}

func (w *Watcher) compareCritical(prev, curr *WatchState, now time.Time) []Alert {
	var alerts []Alert

	for _, key := range newRiskKeys(prev, curr) {
		f := curr.RiskFlags[key]
		if f.Severity != insight.SeverityHigh {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   riskTitle(f),
			Message: f.Message,
			Time:    now,
		})
	}

	for _, key := range escalatedRiskKeys(prev, curr) {
		f := curr.RiskFlags[key]
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   riskTitle(f),
			Message: fmt.Sprintf("Escalated to high severity (%d mentions). %s", f.Count, f.Message),
			Time:    now,
		})
	}

	if curr.Negative > w.NegativeThreshold && prev.Negative <= w.NegativeThreshold && curr.Total > 0 {
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   "Negative sentiment above threshold",
			Message: fmt.Sprintf("%.1f%% of this week's feedback is negative (was %.1f%%)", curr.Negative, prev.Negative),
			Time:    now,
		})
	}

	if curr.LoopWeeks > 0 && prev.LoopWeeks == 0 {
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   "Unresolved feedback loop",
			Message: fmt.Sprintf("%d consecutive weeks with high negative sentiment", curr.LoopWeeks),
			Time:    now,
		})
	}

	return alerts
}

func (w *Watcher) compareWarning(prev, curr *WatchState, now time.Time) []Alert {
	var alerts []Alert

	for _, key := range newRiskKeys(prev, curr) {
		f := curr.RiskFlags[key]
		if f.Severity == insight.SeverityHigh {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   riskTitle(f),
			Message: f.Message,
			Time:    now,
		})
	}

	if curr.Stress && !prev.Stress {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Assessment stress detected",
			Message: "Trainees are reporting stress around assessments this week",
			Time:    now,
		})
	}

	if drop := prev.HeatIndex - curr.HeatIndex; w.HeatDrop > 0 && drop >= w.HeatDrop {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Heat index dropped",
			Message: fmt.Sprintf("Heat index fell from %.1f to %.1f", prev.HeatIndex, curr.HeatIndex),
			Time:    now,
		})
	}

	var urgent []string
	for title := range curr.UrgentItems {
		if !prev.UrgentItems[title] {
			urgent = append(urgent, title)
		}
	}
	slices.Sort(urgent)
	for _, title := range urgent {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Urgent action item",
			Message: title,
			Time:    now,
		})
	}

	return alerts
}

func (w *Watcher) compareInfo(prev, curr *WatchState, now time.Time) []Alert {
	var alerts []Alert

	if curr.Total > prev.Total {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "New feedback",
			Message: fmt.Sprintf("%d new record(s); %.0f%% positive, %.0f%% negative this week", curr.Total-prev.Total, curr.Positive, curr.Negative),
			Time:    now,
		})
	}

	if curr.Negative <= w.NegativeThreshold && prev.Negative > w.NegativeThreshold {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Negative sentiment recovered",
			Message: fmt.Sprintf("Negative share is back to %.1f%% (was %.1f%%)", curr.Negative, prev.Negative),
			Time:    now,
		})
	}

	var cleared []string
	for key := range prev.RiskFlags {
		if _, ok := curr.RiskFlags[key]; !ok {
			cleared = append(cleared, key)
		}
	}
	slices.Sort(cleared)
	for _, key := range cleared {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Risk cleared",
			Message: riskTitle(prev.RiskFlags[key]),
			Time:    now,
		})
	}

	return alerts
}

// newRiskKeys returns the keys of flags present in curr but not prev, in
// sorted order.
func newRiskKeys(prev, curr *WatchState) []string {
	var keys []string
	for key := range curr.RiskFlags {
		if _, existed := prev.RiskFlags[key]; !existed {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// escalatedRiskKeys returns the keys of flags that were below high severity
// in prev and are high in curr, in sorted order.
func escalatedRiskKeys(prev, curr *WatchState) []string {
	var keys []string
	for key, f := range curr.RiskFlags {
		old, existed := prev.RiskFlags[key]
		if existed && old.Severity != insight.SeverityHigh && f.Severity == insight.SeverityHigh {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

func riskTitle(f insight.RiskFlag) string {
	if f.Keyword != "" {
		return fmt.Sprintf("Repeated complaint: %s", f.Keyword)
	}
	return "High negative sentiment"
}
