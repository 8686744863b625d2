package insight

import (
	"fmt"
	"slices"
	"strings"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

const (
	keywordFlagThreshold = 20
	keywordHighThreshold = 30
	negativeShareLimit   = 40.0

	stressMinMentions = 10
	stressShareLimit  = 20.0
	stressFullShare   = 50.0
)

var stressKeywords = []string{
	"pressure", "difficult", "revision", "exam", "assessment", "stress", "anxious",
}

// RiskFlags flags any category keyword that appears twenty or more times in
// this week's negative feedback, and a negative share above 40%. Keyword
// flags come first, most frequent first.
func RiskFlags(records []feedback.Annotated) []RiskFlag {
	freq := make(map[string]int)
	for _, r := range records {
		if !r.Is(feedback.Negative) {
			continue
		}
		for _, ca := range r.Categories {
			for _, kw := range ca.Evidence {
				freq[kw]++
			}
		}
	}

	keywords := make([]string, 0, len(freq))
	for kw, n := range freq {
		if n >= keywordFlagThreshold {
			keywords = append(keywords, kw)
		}
	}
	slices.SortFunc(keywords, func(a, b string) int {
		if freq[a] != freq[b] {
			return freq[b] - freq[a]
		}
		return strings.Compare(a, b)
	})

	var flags []RiskFlag
	for _, kw := range keywords {
		n := freq[kw]
		severity := SeverityMedium
		if n >= keywordHighThreshold {
			severity = SeverityHigh
		}
		flags = append(flags, RiskFlag{
			Type:           RiskRepeatedKeyword,
			Severity:       severity,
			Message:        fmt.Sprintf("Keyword '%s' mentioned %d times in negative feedback", kw, n),
			Category:       "pattern_detection",
			Recommendation: fmt.Sprintf("Investigate and address issues related to '%s'", kw),
			Keyword:        kw,
			Count:          n,
		})
	}

	if len(records) > 0 {
		neg := countSentiment(records, feedback.Negative)
		pct := float64(neg) * 100 / float64(len(records))
		if pct > negativeShareLimit {
			flags = append(flags, RiskFlag{
				Type:           RiskHighNegative,
				Severity:       SeverityHigh,
				Message:        fmt.Sprintf("High negative sentiment: %.1f%% of feedback is negative", pct),
				Category:       "sentiment_analysis",
				Recommendation: "Immediate intervention required. Review top concerns and take action.",
				Count:          neg,
			})
		}
	}
	return flags
}

// AssessmentStress detects a stress pattern: at least ten records mentioning
// a stress keyword, making up more than 20% of the week. It returns nil when
// there is no pattern.
func AssessmentStress(records []feedback.Annotated) *StressDetection {
	if len(records) == 0 {
		return nil
	}

	mentions := 0
	for _, r := range records {
		if containsAny(strings.ToLower(r.Text), stressKeywords) {
			mentions++
		}
	}
	if mentions < stressMinMentions {
		return nil
	}

	pct := float64(mentions) * 100 / float64(len(records))
	if pct <= stressShareLimit {
		return nil
	}

	return &StressDetection{
		Detected:   true,
		Confidence: min(pct/stressFullShare, 1.0),
		Mentions:   mentions,
		Percentage: pct,
		Message: fmt.Sprintf(
			"Assessment stress pattern detected. %d mentions of stress-related keywords.", mentions,
		),
		Recommendation: "Consider pre-assessment support workshop or stress management session.",
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
