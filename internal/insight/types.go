// Package insight derives action items, risk flags and narrative highlights
// from a week of annotated feedback.
package insight

import "github.com/blackwell-systems/feedbackwatch/internal/feedback"

// Priority of an action item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities; urgent ranks highest.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Severity of a risk flag.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Trend direction for momentum tracking.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// CategoryOverall is the action item category for cross-cutting items that
// are not tied to a single feedback category.
const CategoryOverall = "overall"

// UnassignedOwner is used for categories with no configured owner.
const UnassignedOwner = "TBD"

// ActionItem is a prioritized recommendation for one week.
type ActionItem struct {
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence_score"`
	AssignedTo  string   `json:"assigned_to"`

	// Examples holds up to three excerpts of the feedback behind the item.
	Examples []string `json:"examples,omitempty"`
}

// Risk flag types.
const (
	RiskRepeatedKeyword = "repeated_keyword"
	RiskHighNegative    = "high_negative_sentiment"
)

// RiskFlag signals a concerning pattern in a week.
type RiskFlag struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Category       string   `json:"category"`
	Recommendation string   `json:"recommendation"`

	Keyword string `json:"keyword,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// StressDetection reports an assessment-stress pattern. Its absence (nil)
// means no pattern was detected.
type StressDetection struct {
	Detected       bool    `json:"detected"`
	Confidence     float64 `json:"confidence"`
	Mentions       int     `json:"mentions"`
	Percentage     float64 `json:"percentage"`
	Message        string  `json:"message"`
	Recommendation string  `json:"recommendation"`
}

// Highlight is a top strength or concern with supporting quotes.
type Highlight struct {
	Category    string   `json:"category"`
	Count       int      `json:"count"`
	Description string   `json:"description"`
	Quotes      []string `json:"quotes"`
}

// Mention is an attributed appreciation excerpt.
type Mention struct {
	Text     string `json:"text"`
	Location string `json:"location"`
	Batch    string `json:"batch"`
}

// Appreciation groups positive appreciation excerpts by who they credit.
type Appreciation struct {
	TrainerRecognition  []Mention `json:"trainer_recognition"`
	MentorRecognition   []Mention `json:"mentor_recognition"`
	GeneralAppreciation []Mention `json:"general_appreciation"`
	TotalPositive       int       `json:"total_positive_feedback"`
}

// LoopWeek is one qualifying week inside an unresolved loop.
type LoopWeek struct {
	Week               string            `json:"week"`
	NegativePercentage float64           `json:"negative_percentage"`
	TopCategory        feedback.Category `json:"top_category"`
	CategoryCount      int               `json:"category_count"`
	TotalFeedback      int               `json:"total_feedback"`
}

// UnresolvedLoop reports sustained high negative sentiment.
type UnresolvedLoop struct {
	Detected       bool       `json:"detected"`
	WeeksAffected  int        `json:"weeks_affected"`
	Message        string     `json:"message"`
	Details        []LoopWeek `json:"details"`
	Recommendation string     `json:"recommendation"`
}

// MomentumWeek is one week of praise data, newest first in PraiseMomentum.
type MomentumWeek struct {
	Week               string  `json:"week"`
	PositivePercentage float64 `json:"positive_percentage"`
	PositiveCount      int     `json:"positive_count"`
	TotalFeedback      int     `json:"total_feedback"`
	TrainerMentions    int     `json:"trainer_mentions"`
	MentorMentions     int     `json:"mentor_mentions"`
}

// PraiseMomentum tracks the direction of positive feedback across weeks.
type PraiseMomentum struct {
	Trend              Trend          `json:"trend"`
	Change             float64        `json:"change"`
	CurrentPositivePct float64        `json:"current_positive_pct"`
	Weeks              []MomentumWeek `json:"weeks_data"`
	TrainerTrend       Trend          `json:"trainer_recognition_trend"`
	MentorTrend        Trend          `json:"mentor_recognition_trend"`
}

// Bundle is the full set of insights for one week.
type Bundle struct {
	Week             string           `json:"week"`
	ActionItems      []ActionItem     `json:"action_items"`
	RiskFlags        []RiskFlag       `json:"risk_flags"`
	AssessmentStress *StressDetection `json:"assessment_stress"`
	ExecutiveSummary string           `json:"executive_summary"`
	Appreciation     Appreciation     `json:"appreciation_tracker"`
	UnresolvedLoops  []UnresolvedLoop `json:"unresolved_loops"`
	PraiseMomentum   PraiseMomentum   `json:"praise_momentum"`
	Strengths        []Highlight      `json:"strengths"`
	Concerns         []Highlight      `json:"concerns"`
}

// Context is the data action item rules examine. Previous is nil when no
// prior window was supplied.
type Context struct {
	Current  feedback.WeekBatch
	Previous *feedback.WeekBatch

	owners map[feedback.Category]string
}

// Owner returns the responsible owner label for a category.
func (c *Context) Owner(cat feedback.Category) string {
	if o, ok := c.owners[cat]; ok && o != "" {
		return o
	}
	return UnassignedOwner
}

// Rule is a function that examines the context and produces zero or more
// action items.
type Rule func(ctx *Context) []ActionItem
