package insight

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

const (
	concernThreshold = 5
	urgentThreshold  = 15
	confidenceScale  = 20.0
	maxExamples      = 3
	maxThemes        = 5
	exampleLength    = 200

	// dropThreshold is the week-over-week increase in negative records, in
	// percent, above which a cross-cutting item is raised.
	dropThreshold = 15.0
)

type concern struct {
	count    int
	keywords []string
	seen     map[string]bool
	examples []string
}

// CategoryConcerns raises one item per category with at least five negative
// records this week. Fifteen or more makes the item urgent.
func CategoryConcerns(ctx *Context) []ActionItem {
	byCat := make(map[feedback.Category]*concern)
	for _, r := range ctx.Current.Records {
		if !r.Is(feedback.Negative) {
			continue
		}
		for _, ca := range r.Categories {
			c, ok := byCat[ca.Category]
			if !ok {
				c = &concern{seen: make(map[string]bool)}
				byCat[ca.Category] = c
			}
			c.count++
			for _, kw := range ca.Evidence {
				if !c.seen[kw] {
					c.seen[kw] = true
					c.keywords = append(c.keywords, kw)
				}
			}
			if len(c.examples) < maxExamples {
				c.examples = append(c.examples, feedback.Excerpt(r.Text, exampleLength))
			}
		}
	}

	var items []ActionItem
	for _, cat := range feedback.Categories {
		c, ok := byCat[cat]
		if !ok || c.count < concernThreshold {
			continue
		}

		priority := PriorityHigh
		if c.count >= urgentThreshold {
			priority = PriorityUrgent
		}

		name := cat.DisplayName()
		desc := fmt.Sprintf("Address %d negative feedback items in %s.", c.count, name)
		if len(c.keywords) > 0 {
			themes := c.keywords[:min(len(c.keywords), maxThemes)]
			desc += fmt.Sprintf(" Common themes: %s.", strings.Join(themes, ", "))
		}

		items = append(items, ActionItem{
			Priority:    priority,
			Category:    cat.String(),
			Title:       fmt.Sprintf("Address %s Concerns", name),
			Description: desc,
			Confidence:  min(float64(c.count)/confidenceScale, 1.0),
			AssignedTo:  ctx.Owner(cat),
			Examples:    c.examples,
		})
	}
	return items
}

// SentimentDrop raises an urgent cross-cutting item when the number of
// negative records grew by more than 15% over a previous week that had
// at least one.
func SentimentDrop(ctx *Context) []ActionItem {
	if ctx.Previous == nil {
		return nil
	}

	cur := countSentiment(ctx.Current.Records, feedback.Negative)
	prev := countSentiment(ctx.Previous.Records, feedback.Negative)
	if prev == 0 {
		return nil
	}

	change := float64(cur-prev) / float64(prev) * 100
	if change <= dropThreshold {
		return nil
	}

	return []ActionItem{{
		Priority: PriorityUrgent,
		Category: CategoryOverall,
		Title:    "Urgent: Significant Sentiment Drop Detected",
		Description: fmt.Sprintf(
			"Negative sentiment increased by %.1f%% compared to last week. "+
				"Immediate investigation required.",
			change,
		),
		Confidence: 0.9,
		AssignedTo: "Leadership Team",
	}}
}

func countSentiment(records []feedback.Annotated, s feedback.Sentiment) int {
	n := 0
	for _, r := range records {
		if r.Is(s) {
			n++
		}
	}
	return n
}
