package analyzer

import "github.com/blackwell-systems/feedbackwatch/internal/feedback"

// Distribution is the percentage of records in each sentiment class. The
// three values sum to 100 for a non-empty set and are all 0 otherwise.
type Distribution struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Of returns the percentage for one sentiment class.
func (d Distribution) Of(s feedback.Sentiment) float64 {
	switch s {
	case feedback.Positive:
		return d.Positive
	case feedback.Neutral:
		return d.Neutral
	default:
		return d.Negative
	}
}

// Comparison is the week-over-week sentiment comparison between two windows.
type Comparison struct {
	Current  Distribution `json:"current_week"`
	Previous Distribution `json:"previous_week"`

	// Changes holds the relative change per class, in percent.
	Changes Distribution `json:"changes"`

	// OverallChange is the point difference in positive percentage.
	OverallChange float64 `json:"overall_change"`

	CurrentVolume  int `json:"current_volume"`
	PreviousVolume int `json:"previous_volume"`
	VolumeChange   int `json:"volume_change"`
}

// TrendPoint is one week's distribution within a series.
type TrendPoint struct {
	Week string `json:"week"`
	Distribution
	Volume int `json:"volume"`
}

// CategoryTrend is the weekly series for one category.
type CategoryTrend struct {
	Category    feedback.Category `json:"category"`
	DisplayName string            `json:"display_name"`
	Points      []TrendPoint      `json:"points"`
}

// StageTrend is the sentiment distribution for one lifecycle stage.
type StageTrend struct {
	Stage feedback.Stage `json:"stage"`
	Distribution
	Volume int `json:"volume"`
}

// HeatBreakdown holds the four weighted components of the heat index.
type HeatBreakdown struct {
	Sentiment  float64 `json:"sentiment"`
	Rating     float64 `json:"rating"`
	Volume     float64 `json:"volume"`
	Engagement float64 `json:"engagement"`

	// Index is the clamped sum of the components.
	Index float64 `json:"heat_index"`
}

// HeatmapCell is one category's row in the category heatmap.
type HeatmapCell struct {
	Category    feedback.Category `json:"category"`
	DisplayName string            `json:"display_name"`
	Distribution
	Total     int     `json:"total"`
	HeatScore float64 `json:"heat_score"`
}
