// Package store provides SQLite database access for feedback records, their
// annotations and generated period reports.
package store

import (
	"encoding/json"
	"time"
)

// PeriodReport is a persisted weekly report. There is at most one per
// week start; regenerating a week overwrites it.
type PeriodReport struct {
	ID        int64     `json:"id"`
	WeekStart time.Time `json:"week_start_date"`
	WeekEnd   time.Time `json:"week_end_date"`

	// OverallSentiment is the positive share of the week, in percent.
	OverallSentiment float64 `json:"overall_sentiment_score"`

	// SentimentChange is the point change against the previous week, or nil
	// when the previous week had no feedback.
	SentimentChange *float64 `json:"sentiment_change"`

	HeatIndex        float64         `json:"heat_index"`
	Total            int             `json:"total_feedback_count"`
	Positive         int             `json:"positive_count"`
	Neutral          int             `json:"neutral_count"`
	Negative         int             `json:"negative_count"`
	ExecutiveSummary string          `json:"executive_summary"`
	ReportData       json.RawMessage `json:"report_data,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	ActionItems []ActionItemRow `json:"action_items,omitempty"`
}

// ActionItemRow is a persisted action item belonging to a report.
type ActionItemRow struct {
	ID          int64     `json:"id"`
	ReportID    int64     `json:"report_id"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  string    `json:"assigned_to"`
	Status      string    `json:"status"`
	Confidence  float64   `json:"confidence_score"`
	Examples    []string  `json:"examples,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusPending is the initial status of every action item.
const StatusPending = "pending"

// IngestRun records one ingestion batch.
type IngestRun struct {
	ID        int64     `json:"id"`
	RunAt     time.Time `json:"run_at"`
	Source    string    `json:"source"`
	Backend   string    `json:"backend"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
}
