// Package sentiment classifies feedback text into positive, neutral or
// negative with a confidence and per-class scores, and tags an emotional tone.
//
// The scoring backend is a swappable capability. A Scorer is constructed once
// and shared; it never returns an error or panics to its caller, falling back
// to a fixed neutral result instead.
package sentiment

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

// DefaultNeutralBand is the dead-band half-width around zero polarity within
// which text is classified neutral.
const DefaultNeutralBand = 0.05

// Result is the output of Analyze.
type Result struct {
	Sentiment  feedback.Sentiment `json:"sentiment"`
	Confidence float64            `json:"confidence"`
	Scores     feedback.Scores    `json:"scores"`
}

// Polarity is the raw signal produced by a Backend: a continuous compound
// score in [-1, 1] plus the class score triple.
type Polarity struct {
	Compound float64
	Scores   feedback.Scores
}

// Backend produces a polarity signal for non-empty text.
type Backend interface {
	Name() string
	Polarity(text string) (Polarity, error)
}

// NeutralResult returns the fixed result used for empty text and failures.
func NeutralResult() Result {
	return Result{
		Sentiment:  feedback.Neutral,
		Confidence: 0.5,
		Scores:     neutralScores(),
	}
}

func neutralScores() feedback.Scores {
	return feedback.Scores{Positive: 0.33, Neutral: 0.34, Negative: 0.33}
}

// Scorer wraps a Backend with discretization and failure handling.
type Scorer struct {
	backend Backend
	band    float64
	log     *zap.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithNeutralBand overrides the neutral dead-band half-width.
func WithNeutralBand(band float64) Option {
	return func(s *Scorer) {
		if band >= 0 && band < 1 {
			s.band = band
		}
	}
}

// WithLogger sets the logger used to report recovered backend failures.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scorer) {
		if log != nil {
			s.log = log
		}
	}
}

// NewScorer creates a Scorer around the given backend.
func NewScorer(backend Backend, opts ...Option) *Scorer {
	s := &Scorer{
		backend: backend,
		band:    DefaultNeutralBand,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewBackend returns the backend registered under name. Backends are picked
// explicitly per deployment; an unknown name is an error rather than a
// silent fallback.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vader", "":
		return NewVader(), nil
	case "lexicon":
		return NewLexicon(), nil
	default:
		return nil, fmt.Errorf("unknown sentiment backend %q (want vader or lexicon)", name)
	}
}

// Backend returns the scorer's backend name.
func (s *Scorer) Backend() string {
	if s.backend == nil {
		return "none"
	}
	return s.backend.Name()
}

// Analyze classifies text. Empty or whitespace-only text returns the fixed
// neutral result without consulting the backend.
func (s *Scorer) Analyze(text string) (res Result) {
	if strings.TrimSpace(text) == "" {
		return NeutralResult()
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("sentiment backend panicked, using neutral result",
				zap.String("backend", s.Backend()), zap.Any("panic", r))
			res = NeutralResult()
		}
	}()

	if s.backend == nil {
		return NeutralResult()
	}

	p, err := s.backend.Polarity(text)
	if err != nil {
		s.log.Warn("sentiment backend failed, using neutral result",
			zap.String("backend", s.Backend()), zap.Error(err))
		return NeutralResult()
	}
	if math.IsNaN(p.Compound) {
		return NeutralResult()
	}
	return s.discretize(p)
}

// AnalyzeBatch applies Analyze to each text independently.
func (s *Scorer) AnalyzeBatch(texts []string) []Result {
	out := make([]Result, len(texts))
	for i, t := range texts {
		out[i] = s.Analyze(t)
	}
	return out
}

// Annotate runs Analyze followed by DetectTone and returns the annotation
// stored with a feedback record.
func (s *Scorer) Annotate(text string) feedback.SentimentAnnotation {
	res := s.Analyze(text)
	return feedback.SentimentAnnotation{
		Sentiment:  res.Sentiment,
		Confidence: res.Confidence,
		Scores:     res.Scores,
		Tone:       s.DetectTone(text, res.Sentiment),
	}
}

func (s *Scorer) discretize(p Polarity) Result {
	compound := max(-1, min(1, p.Compound))

	var class feedback.Sentiment
	switch {
	case compound >= s.band && compound != 0:
		class = feedback.Positive
	case compound <= -s.band && compound != 0:
		class = feedback.Negative
	default:
		class = feedback.Neutral
	}

	return Result{
		Sentiment:  class,
		Confidence: round3(feedback.Clamp01(math.Abs(compound) + 0.5)),
		Scores: feedback.Scores{
			Positive: round3(feedback.Clamp01(p.Scores.Positive)),
			Neutral:  round3(feedback.Clamp01(p.Scores.Neutral)),
			Negative: round3(feedback.Clamp01(p.Scores.Negative)),
		},
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
