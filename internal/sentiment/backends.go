package sentiment

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

// Vader scores text with the VADER lexicon. The underlying analyzer is not
// documented as goroutine-safe, so calls are serialized.
type Vader struct {
	mu  sync.Mutex
	sia *govader.SentimentIntensityAnalyzer
}

// NewVader creates a VADER backend. The lexicon is loaded eagerly so that
// construction cost is paid once at process start.
func NewVader() *Vader {
	return &Vader{sia: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Name() string { return "vader" }

// Polarity returns VADER's compound score and neg/neu/pos proportions.
func (v *Vader) Polarity(text string) (Polarity, error) {
	v.mu.Lock()
	scores := v.sia.PolarityScores(text)
	v.mu.Unlock()

	return Polarity{
		Compound: scores.Compound,
		Scores: feedback.Scores{
			Positive: scores.Positive,
			Neutral:  scores.Neutral,
			Negative: scores.Negative,
		},
	}, nil
}

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"helpful", "best", "love", "happy", "satisfied", "awesome", "perfect",
	"thank", "appreciate", "enjoyed", "informative", "clear", "useful",
	"well", "nice", "interesting", "engaging", "supportive", "effective",
}

var negativeWords = []string{
	"bad", "poor", "terrible", "awful", "horrible", "worst", "hate",
	"disappointed", "frustrated", "confused", "boring", "difficult",
	"unclear", "unhelpful", "waste", "slow", "hard", "problem", "issue",
	"not good", "not clear", "not helpful", "too fast", "too slow",
}

// Lexicon is a dependency-free backend that counts polarity words present in
// the text. Each word counts once regardless of repetitions.
type Lexicon struct {
	positive []string
	negative []string
}

// NewLexicon creates a Lexicon backend with the built-in word lists.
func NewLexicon() *Lexicon {
	return &Lexicon{positive: positiveWords, negative: negativeWords}
}

func (l *Lexicon) Name() string { return "lexicon" }

// Polarity computes compound = (pos-neg)/(pos+neg). Text with no polarity
// words yields zero compound and the fixed neutral scores.
func (l *Lexicon) Polarity(text string) (Polarity, error) {
	lower := strings.ToLower(text)
	pos := countPresent(lower, l.positive)
	neg := countPresent(lower, l.negative)

	total := pos + neg
	if total == 0 {
		return Polarity{Scores: neutralScores()}, nil
	}

	posRatio := float64(pos) / float64(total)
	negRatio := float64(neg) / float64(total)
	neuRatio := 1 - abs(posRatio-negRatio)

	return Polarity{
		Compound: posRatio - negRatio,
		Scores: feedback.Scores{
			Positive: posRatio*0.4 + 0.2,
			Neutral:  neuRatio*0.4 + 0.2,
			Negative: negRatio*0.4 + 0.2,
		},
	}, nil
}

func countPresent(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
