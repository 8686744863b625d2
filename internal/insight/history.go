package insight

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

const (
	loopNegativeShare = 40.0
	loopMinWeeks      = 3
)

// UnresolvedLoops looks back over the first loopWeeks entries of weeks
// (newest first, weeks[0] being the reference week). Empty weeks are
// skipped. A week qualifies when more than 40% of its records are negative.
// Three or more qualifying weeks produce a single bundled detection;
// otherwise the result is empty.
func (g *Generator) UnresolvedLoops(weeks []feedback.WeekBatch) []UnresolvedLoop {
	var details []LoopWeek
	for _, wk := range weeks[:min(len(weeks), g.loopWeeks)] {
		total := len(wk.Records)
		if total == 0 {
			continue
		}
		neg := countSentiment(wk.Records, feedback.Negative)
		pct := float64(neg) * 100 / float64(total)
		if pct <= loopNegativeShare {
			continue
		}
		cat, n, ok := dominantNegative(wk.Records)
		if !ok {
			continue
		}
		details = append(details, LoopWeek{
			Week:               wk.Window.Key(),
			NegativePercentage: pct,
			TopCategory:        cat,
			CategoryCount:      n,
			TotalFeedback:      total,
		})
	}

	if len(details) < loopMinWeeks {
		return []UnresolvedLoop{}
	}
	return []UnresolvedLoop{{
		Detected:      true,
		WeeksAffected: len(details),
		Message: fmt.Sprintf(
			"Unresolved feedback loop detected: %d consecutive weeks with high negative sentiment (>40%%)",
			len(details),
		),
		Details:        details,
		Recommendation: "Immediate intervention required. Review recurring issues and implement corrective actions.",
	}}
}

// dominantNegative returns the category most often assigned to negative
// records. Ties go to the category encountered first.
func dominantNegative(records []feedback.Annotated) (feedback.Category, int, bool) {
	counts := make(map[feedback.Category]int)
	var order []feedback.Category
	for _, r := range records {
		if !r.Is(feedback.Negative) {
			continue
		}
		for _, ca := range r.Categories {
			if _, ok := counts[ca.Category]; !ok {
				order = append(order, ca.Category)
			}
			counts[ca.Category]++
		}
	}
	if len(order) == 0 {
		return 0, 0, false
	}

	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best, counts[best], true
}

// PraiseMomentum looks back over the first momentumWeeks entries of weeks
// (newest first), skipping empty weeks, and compares the two most recent
// weeks with data. Fewer than two such weeks is a stable trend.
func (g *Generator) PraiseMomentum(weeks []feedback.WeekBatch) PraiseMomentum {
	data := []MomentumWeek{}
	for _, wk := range weeks[:min(len(weeks), g.momentumWeeks)] {
		total := len(wk.Records)
		if total == 0 {
			continue
		}
		mw := MomentumWeek{Week: wk.Window.Key(), TotalFeedback: total}
		for _, r := range wk.Records {
			if !r.Is(feedback.Positive) {
				continue
			}
			mw.PositiveCount++
			lower := strings.ToLower(r.Text)
			if strings.Contains(lower, "trainer") || strings.Contains(lower, "instructor") {
				mw.TrainerMentions++
			}
			if strings.Contains(lower, "mentor") || strings.Contains(lower, "guide") {
				mw.MentorMentions++
			}
		}
		mw.PositivePercentage = float64(mw.PositiveCount) * 100 / float64(total)
		data = append(data, mw)
	}

	pm := PraiseMomentum{
		Trend:        TrendStable,
		TrainerTrend: TrendStable,
		MentorTrend:  TrendStable,
		Weeks:        data,
	}
	if len(data) > 0 {
		pm.CurrentPositivePct = data[0].PositivePercentage
	}
	if len(data) < 2 {
		return pm
	}

	recent, prior := data[0], data[1]
	pm.Trend = direction(recent.PositivePercentage, prior.PositivePercentage)
	pm.Change = recent.PositivePercentage - prior.PositivePercentage
	pm.TrainerTrend = direction(float64(recent.TrainerMentions), float64(prior.TrainerMentions))
	pm.MentorTrend = direction(float64(recent.MentorMentions), float64(prior.MentorMentions))
	return pm
}

func direction(recent, prior float64) Trend {
	if recent > prior {
		return TrendIncreasing
	}
	return TrendDecreasing
}
