package feedback

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryDisplayName(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{Trainer, "Trainer"},
		{Mentor, "Mentor"},
		{BatchOwner, "Batch Owner"},
		{Infrastructure, "Infrastructure"},
		{TrainingProgram, "Training Program"},
		{Engagement, "Engagement"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.cat.DisplayName())

		back, err := ParseDisplayName(tc.want)
		require.NoError(t, err)
		assert.Equal(t, tc.cat, back, "display name %q should map back", tc.want)
	}
}

func TestParseCategory_Unknown(t *testing.T) {
	_, err := ParseCategory("catering")
	assert.Error(t, err)
}

func TestCategoriesEnumerationOrder(t *testing.T) {
	var names []string
	for _, c := range Categories {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{"trainer", "mentor", "batch_owner", "infrastructure", "training_program", "engagement"}, names)
}

func TestSentimentJSON(t *testing.T) {
	a := SentimentAnnotation{Sentiment: Negative, Confidence: 0.8, Tone: ToneFrustration}
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sentiment":"negative"`)
	assert.Contains(t, string(b), `"emotional_tone":"frustration"`)

	var back SentimentAnnotation
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, a, back)
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		want Stage
	}{
		{"", StageUnknown},
		{"new_joiner", StageNewJoiner},
		{"New Joiner", StageNewJoiner},
		{"about-to-graduate", StageAboutToGraduate},
		{"intermediate", StageIntermediate},
	}
	for _, tc := range tests {
		got, err := ParseStage(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseStage("veteran")
	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 200))
	assert.Equal(t, "abc...", Excerpt("abcdef", 3))
	// "é" is two bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "a...", Excerpt("aé", 2))
}

func TestWeekOf(t *testing.T) {
	// Thursday 2025-01-09 belongs to the week starting Monday 2025-01-06.
	w := WeekOf(time.Date(2025, 1, 9, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-06", w.Key())
	assert.Equal(t, "2025-01-12", w.End().Format(time.DateOnly))

	// Sunday stays in the week that started six days earlier.
	w = WeekOf(time.Date(2025, 1, 12, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-06", w.Key())
}

func TestWindowContains(t *testing.T) {
	w := NewWindow(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(time.Date(2025, 1, 12, 18, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC)))

	assert.Equal(t, "2024-12-30", w.Previous().Key())
	assert.Equal(t, "2024-12-16", w.Shift(-3).Key())
}

func TestWindowLabel(t *testing.T) {
	w := NewWindow(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Jan 06 - Jan 12, 2025", w.Label())
}

func TestParseWeek(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	w, err := ParseWeek("", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", w.Key())

	w, err = ParseWeek("2025-01-06", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", w.Key())

	w, err = ParseWeek("2025-01-06T09:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", w.Key())

	_, err = ParseWeek("last tuesday", now)
	assert.ErrorIs(t, err, ErrInvalidWeek)
}
