// Package category assigns topical categories to feedback text using keyword
// matching over the text and any caller-supplied tags.
package category

import (
	"regexp"
	"slices"
	"strings"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

const (
	tagIncrement   = 0.3
	textCap        = 0.7
	inclusionFloor = 0.2
	fallbackScore  = 0.1
)

// DefaultKeywords is the built-in keyword list for each category.
var DefaultKeywords = map[feedback.Category][]string{
	feedback.Trainer: {
		"trainer", "instructor", "teacher", "teaching", "explanation",
		"clarity", "delivery", "presentation", "session", "lecture",
		"explain", "understand", "clear", "confusing", "helpful trainer",
	},
	feedback.Mentor: {
		"mentor", "mentoring", "guidance", "support", "availability",
		"responsive", "help", "assistance", "clarify", "doubt",
		"question", "answer", "mentor support",
	},
	feedback.BatchOwner: {
		"batch owner", "batch", "owner", "process", "procedure",
		"coordination", "schedule", "timing", "organization",
		"management", "batch management",
	},
	feedback.Infrastructure: {
		"software", "hardware", "laptop", "computer", "system",
		"internet", "network", "access", "login", "password",
		"application", "tool", "platform", "server", "connection",
		"wi-fi", "wifi", "device", "equipment", "infrastructure",
	},
	feedback.TrainingProgram: {
		"curriculum", "syllabus", "course", "content", "material",
		"pacing", "speed", "fast", "slow", "assessment", "exam",
		"test", "evaluation", "assignment", "project", "module",
		"topic", "subject", "program", "training program",
	},
	feedback.Engagement: {
		"engagement", "environment", "atmosphere", "culture",
		"communication", "interaction", "participation", "activity",
		"onboarding", "welcome", "team", "colleague", "peer",
		"collaboration", "workshop", "session", "event",
	},
}

type keyword struct {
	word    string
	pattern *regexp.Regexp
}

// Mapper assigns categories to text. It holds only compiled, read-only
// patterns and is safe for concurrent use.
type Mapper struct {
	keywords map[feedback.Category][]keyword
}

// NewMapper creates a Mapper with the default keyword lists.
func NewMapper() *Mapper {
	return NewMapperWithKeywords(DefaultKeywords)
}

// NewMapperWithKeywords creates a Mapper with custom keyword lists.
// Categories absent from kw have no keywords and only ever receive the
// fallback score.
func NewMapperWithKeywords(kw map[feedback.Category][]string) *Mapper {
	m := &Mapper{keywords: make(map[feedback.Category][]keyword, len(kw))}
	for cat, words := range kw {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			m.keywords[cat] = append(m.keywords[cat], keyword{
				word:    w,
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`),
			})
		}
	}
	return m
}

type tally struct {
	score    float64
	evidence []string
	seen     map[string]bool
}

func (t *tally) add(ev string) {
	if t.seen[ev] {
		return
	}
	t.seen[ev] = true
	t.evidence = append(t.evidence, ev)
}

// Map returns the categories relevant to text, sorted by relevance
// (highest first, ties in enumeration order). tags is an optional
// comma-separated list supplied by the caller.
//
// The result is never empty: if no category reaches the inclusion floor,
// every category is returned at the fallback score with no evidence.
func (m *Mapper) Map(text, tags string) []feedback.CategoryAssignment {
	tallies := make(map[feedback.Category]*tally, len(feedback.Categories))
	get := func(c feedback.Category) *tally {
		t, ok := tallies[c]
		if !ok {
			t = &tally{seen: make(map[string]bool)}
			tallies[c] = t
		}
		return t
	}

	if tags != "" {
		for _, raw := range strings.Split(tags, ",") {
			tag := strings.ToLower(strings.TrimSpace(raw))
			if tag == "" {
				continue
			}
			for _, cat := range feedback.Categories {
				if m.tagMatches(cat, tag) {
					t := get(cat)
					t.score += tagIncrement
					t.add(tag)
				}
			}
		}
	}

	lower := strings.ToLower(text)
	for _, cat := range feedback.Categories {
		var matchedLen int
		var matches []string
		for _, kw := range m.keywords[cat] {
			found := kw.pattern.FindAllString(lower, -1)
			if len(found) == 0 {
				continue
			}
			matches = append(matches, found...)
			matchedLen += len(kw.word)
		}
		if len(matches) == 0 {
			continue
		}
		t := get(cat)
		t.score += min(float64(matchedLen)/100, textCap)
		for _, ev := range matches {
			t.add(ev)
		}
	}

	var out []feedback.CategoryAssignment
	for _, cat := range feedback.Categories {
		t, ok := tallies[cat]
		if !ok {
			continue
		}
		relevance := min(t.score, 1.0)
		if relevance < inclusionFloor {
			continue
		}
		out = append(out, feedback.CategoryAssignment{
			Category:  cat,
			Relevance: relevance,
			Evidence:  t.evidence,
		})
	}

	if len(out) == 0 {
		return fallback()
	}

	slices.SortStableFunc(out, func(a, b feedback.CategoryAssignment) int {
		switch {
		case a.Relevance > b.Relevance:
			return -1
		case a.Relevance < b.Relevance:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Primary returns the most relevant category for text, or Engagement when
// there is nothing to rank.
func (m *Mapper) Primary(text, tags string) feedback.Category {
	return PrimaryOf(m.Map(text, tags))
}

// PrimaryOf returns the first assignment's category, or Engagement for an
// empty list.
func PrimaryOf(assignments []feedback.CategoryAssignment) feedback.Category {
	if len(assignments) == 0 {
		return feedback.Engagement
	}
	return assignments[0].Category
}

func (m *Mapper) tagMatches(cat feedback.Category, tag string) bool {
	for _, kw := range m.keywords[cat] {
		if strings.Contains(tag, kw.word) {
			return true
		}
	}
	return false
}

func fallback() []feedback.CategoryAssignment {
	out := make([]feedback.CategoryAssignment, 0, len(feedback.Categories))
	for _, cat := range feedback.Categories {
		out = append(out, feedback.CategoryAssignment{
			Category:  cat,
			Relevance: fallbackScore,
			Evidence:  []string{},
		})
	}
	return out
}
