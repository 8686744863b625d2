package analyzer

import (
	"strings"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

// Heat index weights and saturation points.
const (
	sentimentWeight  = 40.0
	ratingWeight     = 30.0
	volumeWeight     = 20.0
	engagementWeight = 10.0

	// volumeSaturation is the record count at which the volume component
	// reaches its full weight.
	volumeSaturation = 50.0
	maxRating        = 5.0
)

var engagementKeywords = []string{
	"engaged", "participate", "interactive", "involved", "active",
	"contribute", "collaborate", "teamwork", "discussion", "feedback",
}

// HeatIndex returns the 0-100 engagement heat index for a set of records.
// An empty set yields 0.
func HeatIndex(records []feedback.Annotated) float64 {
	return AnalyzeHeat(records).Index
}

// AnalyzeHeat computes the heat index together with its components:
// positive share (40), mean rating (30, or 15 when no record has a rating),
// volume saturating at 50 records (20) and the share of records mentioning
// an engagement keyword (10).
func AnalyzeHeat(records []feedback.Annotated) HeatBreakdown {
	var b HeatBreakdown
	if len(records) == 0 {
		return b
	}

	total := float64(len(records))

	var positive, rated, ratingSum, engaged int
	for _, r := range records {
		if r.Is(feedback.Positive) {
			positive++
		}
		if r.HasRating() {
			rated++
			ratingSum += r.Rating
		}
		if mentionsEngagement(r.Text) {
			engaged++
		}
	}

	b.Sentiment = float64(positive) / total * sentimentWeight

	if rated > 0 {
		avg := float64(ratingSum) / float64(rated)
		b.Rating = avg / maxRating * ratingWeight
	} else {
		b.Rating = ratingWeight / 2
	}

	b.Volume = min(total/volumeSaturation, 1) * volumeWeight
	b.Engagement = float64(engaged) / total * engagementWeight

	b.Index = clamp(b.Sentiment+b.Rating+b.Volume+b.Engagement, 0, 100)
	return b
}

func mentionsEngagement(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range engagementKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
