package classifier

import (
	"regexp"
	"strings"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

// Sentiment thresholds on the per-token average score
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

var wordPattern = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

// SentimentScore returns the average lexicon score over all word tokens
// of text. Empty text scores 0.
func SentimentScore(text string) float64 {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return 0
	}
	total := 0
	for _, tok := range tokens {
		total += lexicon[tok]
	}
	return float64(total) / float64(len(tokens))
}

// Sentiment classifies text as positive, negative or neutral.
// It is deterministic for identical input.
func Sentiment(text string) models.Sentiment {
	score := SentimentScore(text)
	switch {
	case score > PositiveThreshold:
		return models.SentimentPositive
	case score < NegativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
