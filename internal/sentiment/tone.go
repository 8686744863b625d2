package sentiment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

// toneKeywords maps each tone family to its keywords. Families are scanned in
// feedback.Tones order, which is also the tie-break order.
var toneKeywords = map[feedback.Tone][]string{
	feedback.ToneConfusion:    {"confused", "unclear", "don't understand", "not sure"},
	feedback.ToneStress:       {"stress", "pressure", "overwhelmed", "difficult", "hard", "challenging"},
	feedback.ToneMotivation:   {"motivated", "excited", "enthusiastic", "eager", "looking forward"},
	feedback.ToneSatisfaction: {"satisfied", "happy", "pleased", "good", "great", "excellent"},
	feedback.ToneFrustration:  {"frustrated", "annoyed", "disappointed", "upset", "angry"},
	feedback.ToneAppreciation: {"thank", "appreciate", "grateful", "helpful", "supportive"},
}

// DetectTone returns the tone family with the most distinct keyword hits in
// text. Ties go to the family listed first in feedback.Tones. When nothing
// matches, positive text defaults to satisfaction, negative to frustration,
// and neutral to ToneNone.
func DetectTone(text string, s feedback.Sentiment) feedback.Tone {
	lower := strings.ToLower(text)

	best, bestHits := feedback.ToneNone, 0
	for _, tone := range feedback.Tones {
		hits := countPresent(lower, toneKeywords[tone])
		if hits > bestHits {
			best, bestHits = tone, hits
		}
	}
	if bestHits > 0 {
		return best
	}

	switch s {
	case feedback.Positive:
		return feedback.ToneSatisfaction
	case feedback.Negative:
		return feedback.ToneFrustration
	default:
		return feedback.ToneNone
	}
}

// DetectTone is the failure-safe form of the package-level DetectTone.
func (s *Scorer) DetectTone(text string, sent feedback.Sentiment) (tone feedback.Tone) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("tone detection panicked", zap.Any("panic", r))
			tone = feedback.ToneNone
		}
	}()
	return DetectTone(text, sent)
}
