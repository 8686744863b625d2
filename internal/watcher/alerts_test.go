package watcher

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/feedbackwatch/internal/insight"
)

func makeState() *WatchState {
	return &WatchState{
		Week:        "2025-03-03",
		RiskFlags:   make(map[string]insight.RiskFlag),
		UrgentItems: make(map[string]bool),
	}
}

func keywordFlag(kw string, sev insight.Severity, count int) insight.RiskFlag {
	return insight.RiskFlag{
		Type:     insight.RiskRepeatedKeyword,
		Severity: sev,
		Keyword:  kw,
		Count:    count,
		Message:  "Keyword '" + kw + "' mentioned often in negative feedback",
	}
}

func findAlert(alerts []Alert, title string) *Alert {
	for i := range alerts {
		if alerts[i].Title == title {
			return &alerts[i]
		}
	}
	return nil
}

func TestCompare_IdenticalStates(t *testing.T) {
	prev := makeState()
	prev.Total = 10
	prev.Negative = 20
	prev.HeatIndex = 55
	curr := makeState()
	curr.Total = 10
	curr.Negative = 20
	curr.HeatIndex = 55

	if alerts := Compare(prev, curr); len(alerts) != 0 {
		t.Errorf("expected 0 alerts for identical states, got %d", len(alerts))
		for _, a := range alerts {
			t.Logf("  [%s] %s: %s", a.Level, a.Title, a.Message)
		}
	}
}

func TestCompare_NewWeekOnlyAnnounces(t *testing.T) {
	prev := makeState()
	prev.Negative = 10
	curr := makeState()
	curr.Week = "2025-03-10"
	curr.Negative = 80
	curr.Total = 5

	alerts := Compare(prev, curr)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Level != "info" || !strings.Contains(alerts[0].Message, "2025-03-10") {
		t.Errorf("unexpected alert %+v", alerts[0])
	}
}

func TestCompare_NegativeThresholdCrossing(t *testing.T) {
	prev := makeState()
	prev.Total = 10
	prev.Negative = 40
	curr := makeState()
	curr.Total = 12
	curr.Negative = 50

	alerts := Compare(prev, curr)
	a := findAlert(alerts, "Negative sentiment above threshold")
	if a == nil {
		t.Fatal("expected threshold alert")
	}
	if a.Level != "critical" {
		t.Errorf("level = %q, want critical", a.Level)
	}
	if !strings.Contains(a.Message, "50.0%") {
		t.Errorf("message = %q", a.Message)
	}
	if findAlert(alerts, "New feedback") == nil {
		t.Error("expected new feedback info alert")
	}

	// Falling back under the threshold is reported as recovery.
	back := Compare(curr, prev)
	if findAlert(back, "Negative sentiment recovered") == nil {
		t.Error("expected recovery alert")
	}
}

func TestCompare_NewRiskFlags(t *testing.T) {
	prev := makeState()
	prev.RiskFlags["repeated_keyword:session"] = keywordFlag("session", insight.SeverityMedium, 21)

	curr := makeState()
	curr.RiskFlags["repeated_keyword:session"] = keywordFlag("session", insight.SeverityMedium, 22)
	curr.RiskFlags["repeated_keyword:laptop"] = keywordFlag("laptop", insight.SeverityHigh, 31)
	curr.RiskFlags["repeated_keyword:exam"] = keywordFlag("exam", insight.SeverityMedium, 20)

	alerts := Compare(prev, curr)
	laptop := findAlert(alerts, "Repeated complaint: laptop")
	if laptop == nil || laptop.Level != "critical" {
		t.Errorf("expected critical laptop alert, got %+v", laptop)
	}
	exam := findAlert(alerts, "Repeated complaint: exam")
	if exam == nil || exam.Level != "warning" {
		t.Errorf("expected warning exam alert, got %+v", exam)
	}
	if findAlert(alerts, "Repeated complaint: session") != nil {
		t.Error("existing flag should not alert again")
	}
}

func TestCompare_RiskEscalation(t *testing.T) {
	prev := makeState()
	prev.RiskFlags["repeated_keyword:laptop"] = keywordFlag("laptop", insight.SeverityMedium, 24)
	prev.RiskFlags["repeated_keyword:wifi"] = keywordFlag("wifi", insight.SeverityHigh, 33)
	curr := makeState()
	curr.RiskFlags["repeated_keyword:laptop"] = keywordFlag("laptop", insight.SeverityHigh, 31)
	curr.RiskFlags["repeated_keyword:wifi"] = keywordFlag("wifi", insight.SeverityHigh, 35)

	alerts := Compare(prev, curr)
	laptop := findAlert(alerts, "Repeated complaint: laptop")
	if laptop == nil || laptop.Level != "critical" {
		t.Fatalf("expected critical escalation alert, got %+v", laptop)
	}
	if !strings.Contains(laptop.Message, "31 mentions") {
		t.Errorf("message = %q", laptop.Message)
	}
	if findAlert(alerts, "Repeated complaint: wifi") != nil {
		t.Error("flag that was already high should not alert again")
	}
	if findAlert(alerts, "Risk cleared") != nil {
		t.Error("escalation must not be reported as a cleared flag")
	}

	// Dropping back to medium is not an escalation.
	if findAlert(Compare(curr, prev), "Repeated complaint: laptop") != nil {
		t.Error("de-escalation should not raise a complaint alert")
	}
}

func TestCompare_RiskCleared(t *testing.T) {
	prev := makeState()
	prev.RiskFlags["repeated_keyword:wifi"] = keywordFlag("wifi", insight.SeverityMedium, 25)
	curr := makeState()

	alerts := Compare(prev, curr)
	a := findAlert(alerts, "Risk cleared")
	if a == nil {
		t.Fatal("expected risk cleared alert")
	}
	if a.Message != "Repeated complaint: wifi" {
		t.Errorf("message = %q", a.Message)
	}
}

func TestCompare_HeatDropStressAndLoops(t *testing.T) {
	prev := makeState()
	prev.HeatIndex = 62
	curr := makeState()
	curr.HeatIndex = 51
	curr.Stress = true
	curr.LoopWeeks = 3
	curr.UrgentItems["Urgent: Significant Sentiment Drop Detected"] = true

	alerts := Compare(prev, curr)
	for _, title := range []string{
		"Heat index dropped",
		"Assessment stress detected",
		"Unresolved feedback loop",
		"Urgent action item",
	} {
		if findAlert(alerts, title) == nil {
			t.Errorf("expected %q alert", title)
		}
	}

	// A small dip stays quiet.
	curr2 := makeState()
	curr2.HeatIndex = 55
	if findAlert(Compare(prev, curr2), "Heat index dropped") != nil {
		t.Error("heat drop below threshold should not alert")
	}
}
