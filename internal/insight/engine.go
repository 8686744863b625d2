package insight

import (
	"fmt"
	"maps"

	"github.com/blackwell-systems/feedbackwatch/internal/analyzer"
	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

// Default lookback depths.
const (
	DefaultLoopWeeks     = 3
	DefaultMomentumWeeks = 4
)

// DefaultOwners maps each category to the team responsible for acting on it.
var DefaultOwners = map[feedback.Category]string{
	feedback.Trainer:         "Training Team Lead",
	feedback.Mentor:          "Mentor Program Manager",
	feedback.BatchOwner:      "Batch Owner",
	feedback.Infrastructure:  "IT Support Team",
	feedback.TrainingProgram: "Curriculum Team",
	feedback.Engagement:      "Engagement Team",
}

// Generator runs the insight reductions. It holds only configuration and is
// safe for concurrent use.
type Generator struct {
	rules         []Rule
	owners        map[feedback.Category]string
	loopWeeks     int
	momentumWeeks int
}

// Option configures a Generator.
type Option func(*Generator)

// WithOwners replaces the owner table. Categories missing from owners
// resolve to UnassignedOwner.
func WithOwners(owners map[feedback.Category]string) Option {
	return func(g *Generator) {
		g.owners = maps.Clone(owners)
	}
}

// WithLoopWeeks sets how many weeks UnresolvedLoops looks back.
func WithLoopWeeks(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.loopWeeks = n
		}
	}
}

// WithMomentumWeeks sets how many weeks PraiseMomentum looks back.
func WithMomentumWeeks(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.momentumWeeks = n
		}
	}
}

// NewGenerator creates a Generator with all built-in action item rules
// registered.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rules: []Rule{
			CategoryConcerns,
			SentimentDrop,
		},
		owners:        maps.Clone(DefaultOwners),
		loopWeeks:     DefaultLoopWeeks,
		momentumWeeks: DefaultMomentumWeeks,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Lookback returns how many weeks, including the reference week, the
// multi-week reductions examine.
func (g *Generator) Lookback() int {
	return max(g.loopWeeks, g.momentumWeeks)
}

// ParseOwners converts a category-name keyed owner table, as found in
// configuration, into a typed one.
func ParseOwners(raw map[string]string) (map[feedback.Category]string, error) {
	out := make(map[feedback.Category]string, len(raw))
	for name, owner := range raw {
		cat, err := feedback.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("owner table: %w", err)
		}
		out[cat] = owner
	}
	return out, nil
}

// ActionItems runs every registered rule against the current week and the
// optional previous week, and returns the items ranked by priority.
func (g *Generator) ActionItems(current feedback.WeekBatch, previous *feedback.WeekBatch) []ActionItem {
	ctx := &Context{
		Current:  current,
		Previous: previous,
		owners:   g.owners,
	}
	var all []ActionItem
	for _, rule := range g.rules {
		all = append(all, rule(ctx)...)
	}
	return RankActionItems(all)
}

// Generate builds the full insight bundle for current. history holds the
// weeks before current, newest first; history[0], when present, is the
// previous week.
func (g *Generator) Generate(current feedback.WeekBatch, history []feedback.WeekBatch) Bundle {
	var previous *feedback.WeekBatch
	if len(history) > 0 {
		previous = &history[0]
	}
	weeks := append([]feedback.WeekBatch{current}, history...)

	strengths, concerns := StrengthsAndConcerns(current.Records)

	overall := analyzer.Distribute(current.Records).Positive
	var change *float64
	if previous != nil && len(previous.Records) > 0 {
		c := overall - analyzer.Distribute(previous.Records).Positive
		change = &c
	}

	return Bundle{
		Week:             current.Window.Key(),
		ActionItems:      nonNil(g.ActionItems(current, previous)),
		RiskFlags:        nonNil(RiskFlags(current.Records)),
		AssessmentStress: AssessmentStress(current.Records),
		ExecutiveSummary: ExecutiveSummary(current.Window, overall, change, strengths, concerns),
		Appreciation:     TrackAppreciation(current.Records),
		UnresolvedLoops:  g.UnresolvedLoops(weeks),
		PraiseMomentum:   g.PraiseMomentum(weeks),
		Strengths:        strengths,
		Concerns:         concerns,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
