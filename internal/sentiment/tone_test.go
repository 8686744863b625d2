package sentiment

import (
	"testing"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

func TestDetectTone(t *testing.T) {
	tests := []struct {
		name string
		text string
		sent feedback.Sentiment
		want feedback.Tone
	}{
		{"confusion", "I am confused and the topic is unclear", feedback.Negative, feedback.ToneConfusion},
		{"stress", "Too much pressure, I feel overwhelmed", feedback.Negative, feedback.ToneStress},
		{"motivation", "Really excited and motivated for next week", feedback.Positive, feedback.ToneMotivation},
		{"appreciation beats satisfaction", "Thank you, grateful for the helpful session", feedback.Positive, feedback.ToneAppreciation},
		{"distinct keywords counted once", "unclear, really unclear, difficult and hard", feedback.Negative, feedback.ToneStress},
		{"tie goes to earlier family", "confused and frustrated", feedback.Negative, feedback.ToneConfusion},
		{"positive default", "The lab opens at nine", feedback.Positive, feedback.ToneSatisfaction},
		{"negative default", "The lab opens at nine", feedback.Negative, feedback.ToneFrustration},
		{"neutral default", "The lab opens at nine", feedback.Neutral, feedback.ToneNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectTone(tc.text, tc.sent); got != tc.want {
				t.Errorf("DetectTone(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
