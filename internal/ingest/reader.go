// Package ingest reads feedback rows from CSV exports, validates them and
// feeds them through sentiment scoring and category mapping into the store.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

// RequiredColumns must all be present in the CSV header.
var RequiredColumns = []string{
	"trainee_id",
	"location",
	"training_batch",
	"rating_score",
	"open_text",
}

// OptionalColumns are read when present.
var OptionalColumns = []string{
	"category_tags",
	"week_start_date",
	"week_end_date",
	"trainee_stage",
}

// ErrMissingColumns is returned when the header lacks required columns.
var ErrMissingColumns = errors.New("missing required columns")

// RowError describes a row that failed validation. Row counts the header,
// so the first data row is row 2.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

// Row is a validated CSV row. ID and CreatedAt of Record are left for the
// pipeline to fill.
type Row struct {
	Row    int
	Record feedback.Record
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// NormalizeHeader trims, lower-cases and replaces spaces with underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// ReadCSV parses a feedback export. Rows that fail validation are reported
// as RowErrors and skipped; only an unreadable header or missing required
// columns fail the whole file. Rows without a week start are placed in the
// week containing now.
func ReadCSV(r io.Reader, now time.Time) ([]Row, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(RequiredColumns, ", "))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	defaultWeek := feedback.WeekOf(now)

	var (
		rows []Row
		errs []RowError
	)
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				errs = append(errs, RowError{Row: line, Reason: pe.Err.Error()})
				continue
			}
			return rows, errs, fmt.Errorf("reading row %d: %w", line, err)
		}
		if blank(fields) {
			continue
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		rec, reason := parseRow(get, defaultWeek)
		if reason != "" {
			errs = append(errs, RowError{Row: line, Reason: reason})
			continue
		}
		rows = append(rows, Row{Row: line, Record: rec})
	}
	return rows, errs, nil
}

func parseRow(get func(string) string, defaultWeek feedback.Window) (feedback.Record, string) {
	rec := feedback.Record{
		TraineeID: get("trainee_id"),
		Location:  get("location"),
		Batch:     get("training_batch"),
		Text:      get("open_text"),
		Tags:      get("category_tags"),
	}
	if rec.TraineeID == "" || rec.Text == "" {
		return rec, "Missing required data"
	}

	rating, err := ParseRating(get("rating_score"))
	if err != nil {
		return rec, err.Error()
	}
	rec.Rating = rating

	stage, err := feedback.ParseStage(get("trainee_stage"))
	if err != nil {
		return rec, err.Error()
	}
	rec.Stage = stage

	week := defaultWeek
	if s := get("week_start_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return rec, fmt.Sprintf("invalid week_start_date %q", s)
		}
		week = feedback.NewWindow(t)
	}
	rec.WeekStart = week.Start
	rec.WeekEnd = week.End()
	if s := get("week_end_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return rec, fmt.Sprintf("invalid week_end_date %q", s)
		}
		rec.WeekEnd = t.UTC()
	}
	if rec.WeekEnd.Before(rec.WeekStart) {
		return rec, "week_end_date is before week_start_date"
	}
	return rec, ""
}

// ParseRating parses a 1-5 rating. Empty input means no rating and yields
// 0. Fractional values are truncated.
func ParseRating(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("rating_score %q is not a number", s)
	}
	rating := int(f)
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("rating_score %q is outside 1-5", s)
	}
	return rating, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
