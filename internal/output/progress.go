package output

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/feedbackwatch/internal/analyzer"
)

// ScoreBar renders a bar for a 0-100 score such as the heat index.
// Example: "████████░░ 80/100"
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := min(max(int(score/100*float64(width)), 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := StyleError
	switch {
	case score >= 70:
		style = StyleSuccess
	case score >= 40:
		style = StyleWarning
	}
	return fmt.Sprintf("%s %s", style.Render(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// DistributionBar renders a sentiment distribution as one bar split into
// positive, neutral and negative segments.
func DistributionBar(d analyzer.Distribution, width int) string {
	if width <= 0 {
		width = 30
	}
	pos := int(d.Positive / 100 * float64(width))
	neg := int(d.Negative / 100 * float64(width))
	neu := max(width-pos-neg, 0)
	if d.Positive+d.Neutral+d.Negative == 0 {
		pos, neu, neg = 0, 0, 0
	}
	return StyleSuccess.Render(strings.Repeat("█", pos)) +
		StyleMuted.Render(strings.Repeat("▒", neu)) +
		StyleError.Render(strings.Repeat("█", neg)) +
		strings.Repeat("░", width-pos-neu-neg)
}

// TrendArrow returns a styled trend indicator for a delta in percentage
// points. higherIsBetter selects which direction is colored as improvement.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := isPositive == higherIsBetter

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.1f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.1f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// TrendArrowPercent is TrendArrow for relative changes, rendered as whole
// percents.
func TrendArrowPercent(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := isPositive == higherIsBetter

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.0f%%", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.0f%%", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// KV renders a label/value line.
func KV(label, value string) string {
	return fmt.Sprintf(" %s %s", StyleLabel.Render(label), value)
}
