package analyzer

import (
	"slices"
	"strings"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

type counts struct {
	positive, neutral, negative int
}

func (c *counts) add(s feedback.Sentiment) {
	switch s {
	case feedback.Positive:
		c.positive++
	case feedback.Neutral:
		c.neutral++
	case feedback.Negative:
		c.negative++
	}
}

func (c counts) total() int {
	return c.positive + c.neutral + c.negative
}

func (c counts) distribution() Distribution {
	total := c.total()
	if total == 0 {
		return Distribution{}
	}
	n := float64(total)
	return Distribution{
		Positive: float64(c.positive) * 100 / n,
		Neutral:  float64(c.neutral) * 100 / n,
		Negative: float64(c.negative) * 100 / n,
	}
}

// Distribute returns the sentiment distribution of records, all zeros for an
// empty set.
func Distribute(records []feedback.Annotated) Distribution {
	var c counts
	for _, r := range records {
		c.add(r.Sentiment.Sentiment)
	}
	return c.distribution()
}

// Compare computes the week-over-week comparison between two windows.
func Compare(current, previous []feedback.Annotated) Comparison {
	cur := Distribute(current)
	prev := Distribute(previous)

	return Comparison{
		Current:  cur,
		Previous: prev,
		Changes: Distribution{
			Positive: relativeChange(cur.Positive, prev.Positive),
			Neutral:  relativeChange(cur.Neutral, prev.Neutral),
			Negative: relativeChange(cur.Negative, prev.Negative),
		},
		OverallChange:  cur.Positive - prev.Positive,
		CurrentVolume:  len(current),
		PreviousVolume: len(previous),
		VolumeChange:   len(current) - len(previous),
	}
}

// relativeChange returns the percent change from prev to cur. With no
// previous value the change is 0 if cur is also 0, else 100.
func relativeChange(cur, prev float64) float64 {
	if prev > 0 {
		return (cur - prev) / prev * 100
	}
	if cur == 0 {
		return 0
	}
	return 100
}

// CategoryTrends slices each week by category. Points follow the order of
// weeks, and a category only gets a point for weeks in which it had records.
// Categories with no points at all are omitted.
func CategoryTrends(weeks []feedback.WeekBatch) []CategoryTrend {
	points := make(map[feedback.Category][]TrendPoint)

	for _, wk := range weeks {
		byCat := make(map[feedback.Category]*counts)
		for _, r := range wk.Records {
			for _, ca := range r.Categories {
				c, ok := byCat[ca.Category]
				if !ok {
					c = &counts{}
					byCat[ca.Category] = c
				}
				c.add(r.Sentiment.Sentiment)
			}
		}
		for _, cat := range feedback.Categories {
			c, ok := byCat[cat]
			if !ok || c.total() == 0 {
				continue
			}
			points[cat] = append(points[cat], TrendPoint{
				Week:         wk.Window.Key(),
				Distribution: c.distribution(),
				Volume:       c.total(),
			})
		}
	}

	var out []CategoryTrend
	for _, cat := range feedback.Categories {
		if len(points[cat]) == 0 {
			continue
		}
		out = append(out, CategoryTrend{
			Category:    cat,
			DisplayName: cat.DisplayName(),
			Points:      points[cat],
		})
	}
	return out
}

// LifecycleTrends groups records by trainee stage. Stages without records
// are omitted.
func LifecycleTrends(records []feedback.Annotated) []StageTrend {
	byStage := make(map[feedback.Stage]*counts)
	for _, r := range records {
		c, ok := byStage[r.Stage]
		if !ok {
			c = &counts{}
			byStage[r.Stage] = c
		}
		c.add(r.Sentiment.Sentiment)
	}

	var out []StageTrend
	for _, st := range feedback.Stages {
		c, ok := byStage[st]
		if !ok || c.total() == 0 {
			continue
		}
		out = append(out, StageTrend{
			Stage:        st,
			Distribution: c.distribution(),
			Volume:       c.total(),
		})
	}
	return out
}

// WeeklySeries returns the overall distribution for each non-empty week,
// oldest first regardless of the order of weeks.
func WeeklySeries(weeks []feedback.WeekBatch) []TrendPoint {
	var out []TrendPoint
	for _, wk := range weeks {
		if len(wk.Records) == 0 {
			continue
		}
		out = append(out, TrendPoint{
			Week:         wk.Window.Key(),
			Distribution: Distribute(wk.Records),
			Volume:       len(wk.Records),
		})
	}
	// Keys are ISO dates, so lexical order is chronological.
	slices.SortStableFunc(out, func(a, b TrendPoint) int {
		return strings.Compare(a.Week, b.Week)
	})
	return out
}
