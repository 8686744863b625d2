package insight

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

const (
	topHighlights   = 3
	quotesPerTopic  = 2
	quoteLength     = 200
	summaryQuoteLen = 100
	maxMentions     = 5
)

var (
	appreciationKeywords = []string{
		"thank", "appreciate", "great", "excellent", "helpful", "supportive",
		"amazing", "wonderful", "fantastic", "outstanding", "brilliant",
	}
	trainerKeywords = []string{"trainer", "instructor", "teacher", "faculty"}
	mentorKeywords  = []string{"mentor", "guide", "coach"}
)

// StrengthsAndConcerns returns the top three categories among positive
// records (strengths) and negative records (concerns), each with up to two
// quotes. Either list falls back to a single "General" entry.
func StrengthsAndConcerns(records []feedback.Annotated) (strengths, concerns []Highlight) {
	strengths = rankHighlights(records, feedback.Positive, "positive")
	if len(strengths) == 0 {
		strengths = []Highlight{{
			Category:    "General",
			Description: "No positive feedback patterns detected",
			Quotes:      []string{},
		}}
	}

	concerns = rankHighlights(records, feedback.Negative, "negative")
	if len(concerns) == 0 {
		concerns = []Highlight{{
			Category:    "General",
			Description: "No major concerns identified",
			Quotes:      []string{},
		}}
	}
	return strengths, concerns
}

func rankHighlights(records []feedback.Annotated, s feedback.Sentiment, label string) []Highlight {
	var order []feedback.Category
	byCat := make(map[feedback.Category]*Highlight)

	for _, r := range records {
		if !r.Is(s) {
			continue
		}
		for _, ca := range r.Categories {
			h, ok := byCat[ca.Category]
			if !ok {
				h = &Highlight{Category: ca.Category.DisplayName(), Quotes: []string{}}
				byCat[ca.Category] = h
				order = append(order, ca.Category)
			}
			h.Count++
			if len(h.Quotes) < quotesPerTopic {
				h.Quotes = append(h.Quotes, feedback.Excerpt(r.Text, quoteLength))
			}
		}
	}

	out := make([]Highlight, 0, len(order))
	for _, cat := range order {
		h := *byCat[cat]
		h.Description = fmt.Sprintf("%s received %d %s mentions", h.Category, h.Count, label)
		out = append(out, h)
	}
	// Stable, so equal counts keep first-encounter order.
	slices.SortStableFunc(out, func(a, b Highlight) int {
		return b.Count - a.Count
	})
	return out[:min(len(out), topHighlights)]
}

// ExecutiveSummary renders the plain-text weekly summary. change is the
// week-over-week point change in positive share, or nil when the previous
// week had no feedback.
func ExecutiveSummary(w feedback.Window, overall float64, change *float64, strengths, concerns []Highlight) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Week: %s\n\n", w.Label())
	fmt.Fprintf(&b, "Overall Sentiment Score: %.0f", overall)
	if change != nil && *change != 0 {
		sign := ""
		if *change > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, " (%s%.1f%% from last week)", sign, *change)
	}
	b.WriteString("\n\n")

	writeHighlights(&b, "Top Strengths:", strengths)
	b.WriteString("\n")
	writeHighlights(&b, "Top Concerns:", concerns)

	return b.String()
}

func writeHighlights(b *strings.Builder, heading string, hs []Highlight) {
	b.WriteString(heading + "\n")
	for i, h := range hs[:min(len(hs), topHighlights)] {
		fmt.Fprintf(b, "%d. %s: %s\n", i+1, h.Category, h.Description)
		if len(h.Quotes) > 0 {
			fmt.Fprintf(b, "   Quote: \"%s...\"\n", prefix(h.Quotes[0], summaryQuoteLen))
		}
	}
}

// prefix returns at most n bytes of s without splitting a rune.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// TrackAppreciation collects appreciation excerpts from positive records.
// A record that thanks someone lands in the general bucket and, when it
// names a trainer or mentor, in those buckets too. Each bucket holds at
// most five entries.
func TrackAppreciation(records []feedback.Annotated) Appreciation {
	a := Appreciation{
		TrainerRecognition:  []Mention{},
		MentorRecognition:   []Mention{},
		GeneralAppreciation: []Mention{},
	}

	for _, r := range records {
		if !r.Is(feedback.Positive) {
			continue
		}
		a.TotalPositive++

		lower := strings.ToLower(r.Text)
		if !containsAny(lower, appreciationKeywords) {
			continue
		}

		m := Mention{
			Text:     feedback.Excerpt(r.Text, quoteLength),
			Location: r.Location,
			Batch:    r.Batch,
		}
		if containsAny(lower, trainerKeywords) && len(a.TrainerRecognition) < maxMentions {
			a.TrainerRecognition = append(a.TrainerRecognition, m)
		}
		if containsAny(lower, mentorKeywords) && len(a.MentorRecognition) < maxMentions {
			a.MentorRecognition = append(a.MentorRecognition, m)
		}
		if len(a.GeneralAppreciation) < maxMentions {
			a.GeneralAppreciation = append(a.GeneralAppreciation, m)
		}
	}
	return a
}
