package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpsertReport writes a report and replaces its action items in a single
// transaction. The report is keyed by its week start: an existing row is
// overwritten in place, keeping its ID and creation time. It returns the
// report ID.
func (db *DB) UpsertReport(ctx context.Context, r *PeriodReport, items []ActionItemRow) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	var change sql.NullFloat64
	if r.SentimentChange != nil {
		change = sql.NullFloat64{Float64: *r.SentimentChange, Valid: true}
	}
	var data sql.NullString
	if len(r.ReportData) > 0 {
		data = sql.NullString{String: string(r.ReportData), Valid: true}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO period_reports
		(week_start, week_end, overall_sentiment_score, sentiment_change, heat_index,
		 total_feedback_count, positive_count, neutral_count, negative_count,
		 executive_summary, report_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(week_start) DO UPDATE SET
			week_end = excluded.week_end,
			overall_sentiment_score = excluded.overall_sentiment_score,
			sentiment_change = excluded.sentiment_change,
			heat_index = excluded.heat_index,
			total_feedback_count = excluded.total_feedback_count,
			positive_count = excluded.positive_count,
			neutral_count = excluded.neutral_count,
			negative_count = excluded.negative_count,
			executive_summary = excluded.executive_summary,
			report_data = excluded.report_data,
			updated_at = excluded.updated_at`,
		r.WeekStart.Unix(), r.WeekEnd.Unix(), r.OverallSentiment, change, r.HeatIndex,
		r.Total, r.Positive, r.Neutral, r.Negative,
		r.ExecutiveSummary, data, now, now,
	); err != nil {
		return 0, fmt.Errorf("upserting report %s: %w", r.WeekStart.Format(time.DateOnly), err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM period_reports WHERE week_start = ?", r.WeekStart.Unix(),
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading report id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM action_items WHERE report_id = ?", id); err != nil {
		return 0, fmt.Errorf("clearing action items: %w", err)
	}

	for i, it := range items {
		examples := it.Examples
		if examples == nil {
			examples = []string{}
		}
		ex, err := json.Marshal(examples)
		if err != nil {
			return 0, err
		}
		status := it.Status
		if status == "" {
			status = StatusPending
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO action_items
			(report_id, position, priority, category, title, description,
			 assigned_to, status, confidence_score, examples, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, it.Priority, it.Category, it.Title, it.Description,
			it.AssignedTo, status, it.Confidence, string(ex), now,
		); err != nil {
			return 0, fmt.Errorf("inserting action item %q: %w", it.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const reportColumns = `id, week_start, week_end, overall_sentiment_score, sentiment_change,
	heat_index, total_feedback_count, positive_count, neutral_count, negative_count,
	executive_summary, report_data, created_at, updated_at`

// GetReport returns the report for the week starting at weekStart together
// with its action items, or nil if none exists.
func (db *DB) GetReport(ctx context.Context, weekStart time.Time) (*PeriodReport, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM period_reports WHERE week_start = ?",
		weekStart.Unix(),
	)
	r, err := scanReport(row)
	if err != nil || r == nil {
		return r, err
	}

	items, err := db.ActionItems(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.ActionItems = items
	return r, nil
}

// ListReports returns reports newest first, without action items.
func (db *DB) ListReports(ctx context.Context, limit, offset int) ([]PeriodReport, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM period_reports ORDER BY week_start DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []PeriodReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// ActionItems returns the action items of a report in stored order.
func (db *DB) ActionItems(ctx context.Context, reportID int64) ([]ActionItemRow, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, report_id, priority, category, title, description,
		        assigned_to, status, confidence_score, examples, created_at
		FROM action_items WHERE report_id = ? ORDER BY position`,
		reportID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ActionItemRow
	for rows.Next() {
		var (
			it                 ActionItemRow
			category, assigned sql.NullString
			confidence         sql.NullFloat64
			examples           string
			createdAt          int64
		)
		if err := rows.Scan(
			&it.ID, &it.ReportID, &it.Priority, &category, &it.Title, &it.Description,
			&assigned, &it.Status, &confidence, &examples, &createdAt,
		); err != nil {
			return nil, err
		}
		it.Category = category.String
		it.AssignedTo = assigned.String
		it.Confidence = confidence.Float64
		it.CreatedAt = time.Unix(createdAt, 0).UTC()
		if err := json.Unmarshal([]byte(examples), &it.Examples); err != nil {
			return nil, fmt.Errorf("decoding examples for item %d: %w", it.ID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*PeriodReport, error) {
	var (
		r                    PeriodReport
		weekStart, weekEnd   int64
		createdAt, updatedAt int64
		change               sql.NullFloat64
		summary, data        sql.NullString
	)
	err := row.Scan(
		&r.ID, &weekStart, &weekEnd, &r.OverallSentiment, &change,
		&r.HeatIndex, &r.Total, &r.Positive, &r.Neutral, &r.Negative,
		&summary, &data, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.WeekStart = time.Unix(weekStart, 0).UTC()
	r.WeekEnd = time.Unix(weekEnd, 0).UTC()
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if change.Valid {
		c := change.Float64
		r.SentimentChange = &c
	}
	r.ExecutiveSummary = summary.String
	if data.Valid {
		r.ReportData = json.RawMessage(data.String)
	}
	return &r, nil
}
