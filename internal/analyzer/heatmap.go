package analyzer

import "github.com/blackwell-systems/feedbackwatch/internal/feedback"

// Heatmap returns one cell per category that has records, in category
// enumeration order. A record counts once for every category it is
// assigned to.
//
// heat_score = positive% - 0.5*negative% + 0.5*neutral%, clamped to [0, 100].
func Heatmap(records []feedback.Annotated) []HeatmapCell {
	byCat := make(map[feedback.Category]*counts)
	for _, r := range records {
		for _, ca := range r.Categories {
			c, ok := byCat[ca.Category]
			if !ok {
				c = &counts{}
				byCat[ca.Category] = c
			}
			c.add(r.Sentiment.Sentiment)
		}
	}

	var cells []HeatmapCell
	for _, cat := range feedback.Categories {
		c, ok := byCat[cat]
		if !ok || c.total() == 0 {
			continue
		}
		d := c.distribution()
		cells = append(cells, HeatmapCell{
			Category:     cat,
			DisplayName:  cat.DisplayName(),
			Distribution: d,
			Total:        c.total(),
			HeatScore:    clamp(d.Positive-0.5*d.Negative+0.5*d.Neutral, 0, 100),
		})
	}
	return cells
}
