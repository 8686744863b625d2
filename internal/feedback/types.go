// Package feedback defines the trainee feedback domain model: closed enums for
// sentiment, category, tone and lifecycle stage, the immutable feedback record
// with its annotations, and the weekly reporting window.
package feedback

import (
	"fmt"
	"strings"
	"time"
)

// Sentiment is the three-class sentiment label assigned to a record.
type Sentiment uint8

const (
	Positive Sentiment = iota
	Neutral
	Negative
)

// Sentiments lists every sentiment class in enumeration order.
var Sentiments = []Sentiment{Positive, Neutral, Negative}

var sentimentNames = [...]string{"positive", "neutral", "negative"}

func (s Sentiment) String() string {
	if int(s) < len(sentimentNames) {
		return sentimentNames[s]
	}
	return fmt.Sprintf("sentiment(%d)", s)
}

// ParseSentiment parses the canonical lower-case sentiment name.
func ParseSentiment(s string) (Sentiment, error) {
	for i, name := range sentimentNames {
		if strings.EqualFold(s, name) {
			return Sentiment(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sentiment %q", s)
}

func (s Sentiment) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Sentiment) UnmarshalText(b []byte) error {
	v, err := ParseSentiment(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Category is one of the six fixed topical buckets.
type Category uint8

const (
	Trainer Category = iota
	Mentor
	BatchOwner
	Infrastructure
	TrainingProgram
	Engagement
)

// Categories lists every category in enumeration order. Heatmaps and other
// per-category outputs follow this order.
var Categories = []Category{Trainer, Mentor, BatchOwner, Infrastructure, TrainingProgram, Engagement}

var categoryNames = [...]string{
	"trainer",
	"mentor",
	"batch_owner",
	"infrastructure",
	"training_program",
	"engagement",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// DisplayName returns the title-cased presentation name, e.g. "Batch Owner".
func (c Category) DisplayName() string {
	return titleCase(c.String())
}

// ParseCategory parses the canonical snake_case category value.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// ParseDisplayName maps a presentation name back to its category.
func ParseDisplayName(s string) (Category, error) {
	return ParseCategory(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Tone is the optional emotional tone tag. ToneNone means no tone applies.
type Tone uint8

const (
	ToneNone Tone = iota
	ToneConfusion
	ToneStress
	ToneMotivation
	ToneSatisfaction
	ToneFrustration
	ToneAppreciation
)

// Tones lists the tone families in enumeration order, excluding ToneNone.
var Tones = []Tone{ToneConfusion, ToneStress, ToneMotivation, ToneSatisfaction, ToneFrustration, ToneAppreciation}

var toneNames = [...]string{"", "confusion", "stress", "motivation", "satisfaction", "frustration", "appreciation"}

func (t Tone) String() string {
	if int(t) < len(toneNames) {
		return toneNames[t]
	}
	return fmt.Sprintf("tone(%d)", t)
}

// ParseTone parses a tone name. The empty string yields ToneNone.
func ParseTone(s string) (Tone, error) {
	for i, name := range toneNames {
		if strings.EqualFold(s, name) {
			return Tone(i), nil
		}
	}
	return ToneNone, fmt.Errorf("unknown tone %q", s)
}

func (t Tone) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tone) UnmarshalText(b []byte) error {
	v, err := ParseTone(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Stage is the trainee lifecycle stage. StageUnknown is used when the
// caller did not supply one.
type Stage uint8

const (
	StageUnknown Stage = iota
	StageNewJoiner
	StageIntermediate
	StageAboutToGraduate
)

// Stages lists the lifecycle stages in reporting order; unknown comes last.
var Stages = []Stage{StageNewJoiner, StageIntermediate, StageAboutToGraduate, StageUnknown}

var stageNames = [...]string{"unknown", "new_joiner", "intermediate", "about_to_graduate"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", s)
}

// ParseStage parses a lifecycle stage. Empty input yields StageUnknown.
// Hyphens and spaces are accepted in place of underscores.
func ParseStage(s string) (Stage, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if norm == "" {
		return StageUnknown, nil
	}
	for i, name := range stageNames {
		if norm == name {
			return Stage(i), nil
		}
	}
	return StageUnknown, fmt.Errorf("unknown trainee stage %q", s)
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Scores is the per-class score triple. The three values sum to roughly 1.0.
type Scores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Record is a single feedback entry. It is immutable once annotated.
type Record struct {
	ID        string    `json:"id"`
	TraineeID string    `json:"trainee_id"`
	Location  string    `json:"location"`
	Batch     string    `json:"training_batch"`
	WeekStart time.Time `json:"week_start_date"`
	WeekEnd   time.Time `json:"week_end_date"`

	// Rating is the 1-5 rating, or 0 when the trainee gave none.
	Rating int `json:"rating_score,omitempty"`

	Text      string    `json:"open_text"`
	Tags      string    `json:"category_tags,omitempty"`
	Stage     Stage     `json:"trainee_stage"`
	CreatedAt time.Time `json:"created_at"`
}

// HasRating reports whether the record carries a rating.
func (r Record) HasRating() bool {
	return r.Rating >= 1 && r.Rating <= 5
}

// SentimentAnnotation is the single sentiment result owned by a record.
type SentimentAnnotation struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Scores     Scores    `json:"scores"`
	Tone       Tone      `json:"emotional_tone,omitempty"`
}

// CategoryAssignment links a record to one category with its relevance and
// the tags or keywords that produced the match.
type CategoryAssignment struct {
	Category  Category `json:"category"`
	Relevance float64  `json:"relevance_score"`
	Evidence  []string `json:"keywords_matched"`
}

// Annotated is a record together with its sentiment and category annotations.
type Annotated struct {
	Record
	Sentiment  SentimentAnnotation  `json:"sentiment_analysis"`
	Categories []CategoryAssignment `json:"category_mappings"`
}

// Is reports whether the record was classified with the given sentiment.
func (a Annotated) Is(s Sentiment) bool {
	return a.Sentiment.Sentiment == s
}

// titleCase converts snake_case to "Title Case".
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// Excerpt returns s truncated to n bytes with a trailing ellipsis when it
// was longer than n. Truncation backs off to a rune boundary.
func Excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
