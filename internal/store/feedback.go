package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

const (
	// DefaultPageSize is the page size used by FeedbackInWindow when the
	// caller passes a non-positive size.
	DefaultPageSize = 500
	// DefaultListLimit is the page size of ListFeedback.
	DefaultListLimit = 100
)

// InsertAnnotated stores a record with its sentiment and category
// annotations in a single transaction.
func (db *DB) InsertAnnotated(ctx context.Context, a feedback.Annotated) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rating sql.NullInt64
	if a.HasRating() {
		rating = sql.NullInt64{Int64: int64(a.Rating), Valid: true}
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO feedback
		(id, trainee_id, location, training_batch, week_start, week_end,
		 rating_score, open_text, category_tags, trainee_stage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TraineeID, a.Location, a.Batch, a.WeekStart.Unix(), a.WeekEnd.Unix(),
		rating, a.Text, a.Tags, a.Stage.String(), createdAt.Unix(),
	); err != nil {
		return fmt.Errorf("inserting feedback %s: %w", a.ID, err)
	}

	s := a.Sentiment
	var tone sql.NullString
	if s.Tone != feedback.ToneNone {
		tone = sql.NullString{String: s.Tone.String(), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sentiment_annotations
		(feedback_id, sentiment, confidence, positive_score, neutral_score, negative_score, emotional_tone)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, s.Sentiment.String(), s.Confidence,
		s.Scores.Positive, s.Scores.Neutral, s.Scores.Negative, tone,
	); err != nil {
		return fmt.Errorf("inserting sentiment for %s: %w", a.ID, err)
	}

	for i, ca := range a.Categories {
		evidence := ca.Evidence
		if evidence == nil {
			evidence = []string{}
		}
		kw, err := json.Marshal(evidence)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO category_assignments
			(feedback_id, position, category, relevance_score, keywords_matched)
			VALUES (?, ?, ?, ?, ?)`,
			a.ID, i, ca.Category.String(), ca.Relevance, string(kw),
		); err != nil {
			return fmt.Errorf("inserting category for %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// CountInWindow returns the number of records whose period start falls in w.
func (db *DB) CountInWindow(ctx context.Context, w feedback.Window) (int, error) {
	return db.CountFeedback(ctx, FeedbackFilter{Week: &w})
}

// FeedbackInWindow loads every annotated record in w, paging through the
// table pageSize rows at a time. Records are ordered by creation time.
func (db *DB) FeedbackInWindow(ctx context.Context, w feedback.Window, pageSize int) ([]feedback.Annotated, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []feedback.Annotated
	for offset := 0; ; offset += pageSize {
		page, err := db.FeedbackPage(ctx, w, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// FeedbackPage loads one page of annotated records in w.
func (db *DB) FeedbackPage(ctx context.Context, w feedback.Window, limit, offset int) ([]feedback.Annotated, error) {
	return db.queryAnnotated(ctx, FeedbackFilter{Week: &w}, "f.created_at, f.id", limit, offset)
}

// FeedbackFilter narrows ListFeedback and CountFeedback. Zero fields match
// everything.
type FeedbackFilter struct {
	Week     *feedback.Window
	Batch    string
	Location string
}

func (f FeedbackFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Week != nil {
		clauses = append(clauses, "f.week_start >= ? AND f.week_start < ?")
		args = append(args, f.Week.Start.Unix(), f.Week.Until().Unix())
	}
	if f.Batch != "" {
		clauses = append(clauses, "f.training_batch = ?")
		args = append(args, f.Batch)
	}
	if f.Location != "" {
		clauses = append(clauses, "f.location = ?")
		args = append(args, f.Location)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListFeedback returns one page of annotated records matching f, newest
// first.
func (db *DB) ListFeedback(ctx context.Context, f FeedbackFilter, limit, offset int) ([]feedback.Annotated, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return db.queryAnnotated(ctx, f, "f.created_at DESC, f.id", limit, max(offset, 0))
}

// CountFeedback returns the number of records matching f.
func (db *DB) CountFeedback(ctx context.Context, f FeedbackFilter) (int, error) {
	where, args := f.where()
	var n int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback f "+where, args...).Scan(&n)
	return n, err
}

func (db *DB) queryAnnotated(ctx context.Context, f FeedbackFilter, order string, limit, offset int) ([]feedback.Annotated, error) {
	where, args := f.where()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT f.id, f.trainee_id, f.location, f.training_batch, f.week_start, f.week_end,
		        f.rating_score, f.open_text, f.category_tags, f.trainee_stage, f.created_at,
		        s.sentiment, s.confidence, s.positive_score, s.neutral_score, s.negative_score,
		        s.emotional_tone
		FROM feedback f
		JOIN sentiment_annotations s ON s.feedback_id = f.id
		`+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}

	var page []feedback.Annotated
	for rows.Next() {
		a, err := scanAnnotated(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		page = append(page, a)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Close before the next query; in-memory databases have one connection.
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if len(page) == 0 {
		return nil, nil
	}
	if err := db.attachCategories(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func scanAnnotated(rows *sql.Rows) (feedback.Annotated, error) {
	var (
		a                       feedback.Annotated
		weekStart, weekEnd, cAt int64
		rating                  sql.NullInt64
		tags, tone              sql.NullString
		stage, sentiment        string
	)
	err := rows.Scan(
		&a.ID, &a.TraineeID, &a.Location, &a.Batch, &weekStart, &weekEnd,
		&rating, &a.Text, &tags, &stage, &cAt,
		&sentiment, &a.Sentiment.Confidence,
		&a.Sentiment.Scores.Positive, &a.Sentiment.Scores.Neutral, &a.Sentiment.Scores.Negative,
		&tone,
	)
	if err != nil {
		return a, fmt.Errorf("scanning feedback: %w", err)
	}

	a.WeekStart = time.Unix(weekStart, 0).UTC()
	a.WeekEnd = time.Unix(weekEnd, 0).UTC()
	a.CreatedAt = time.Unix(cAt, 0).UTC()
	if rating.Valid {
		a.Rating = int(rating.Int64)
	}
	a.Tags = tags.String

	if a.Stage, err = feedback.ParseStage(stage); err != nil {
		return a, err
	}
	if a.Sentiment.Sentiment, err = feedback.ParseSentiment(sentiment); err != nil {
		return a, err
	}
	if tone.Valid && tone.String != "" {
		if a.Sentiment.Tone, err = feedback.ParseTone(tone.String); err != nil {
			return a, err
		}
	}
	return a, nil
}

// attachCategories loads category assignments for every record in page.
func (db *DB) attachCategories(ctx context.Context, page []feedback.Annotated) error {
	index := make(map[string]int, len(page))
	args := make([]any, len(page))
	for i, a := range page {
		index[a.ID] = i
		args[i] = a.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(page)), ",")

	rows, err := db.conn.QueryContext(ctx,
		`SELECT feedback_id, category, relevance_score, keywords_matched
		FROM category_assignments
		WHERE feedback_id IN (`+placeholders+`)
		ORDER BY feedback_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, cat, kw string
		var ca feedback.CategoryAssignment
		if err := rows.Scan(&id, &cat, &ca.Relevance, &kw); err != nil {
			return fmt.Errorf("scanning category: %w", err)
		}
		if ca.Category, err = feedback.ParseCategory(cat); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(kw), &ca.Evidence); err != nil {
			return fmt.Errorf("decoding keywords for %s: %w", id, err)
		}
		i := index[id]
		page[i].Categories = append(page[i].Categories, ca)
	}
	return rows.Err()
}
