package classifier

import (
	"regexp"
	"strings"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

// MaxRequirements caps the requirement phrases kept per message
const MaxRequirements = 5

// minPhoneDigits filters out dates, ticket numbers and similar short matches
const minPhoneDigits = 7

var (
	phonePattern       = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)
	emailPattern       = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	requirementPattern = regexp.MustCompile(`(?i)\b(?:I need|I want|Please|Could you|Can you)\b[^.!?\n]*[.!?]`)
)

var (
	positiveIndicators = []string{"thank", "appreciate", "great", "excellent", "happy", "satisfied"}
	negativeIndicators = []string{"frustrated", "angry", "disappointed", "terrible", "horrible", "upset"}
)

// ExtractOptions tunes ExtractInfo
type ExtractOptions struct {
	// ExcludeEmails are addresses that should not be reported as alternates,
	// usually the sender itself
	ExcludeEmails []string
}

// ExtractInfo pulls contact details, requirement phrases and sentiment
// indicator words out of text. It never fails and makes no external calls.
func ExtractInfo(text string, opts ExtractOptions) models.ExtractedInfo {
	return models.ExtractedInfo{
		PhoneNumbers:        extractPhones(text),
		AlternateEmails:     extractEmails(text, opts.ExcludeEmails),
		Requirements:        extractRequirements(text),
		SentimentIndicators: extractIndicators(text),
	}
}

func extractPhones(text string) []string {
	phones := []string{}
	seen := map[string]bool{}
	for _, match := range phonePattern.FindAllString(text, -1) {
		match = strings.TrimSpace(match)
		if countDigits(match) < minPhoneDigits || seen[match] {
			continue
		}
		seen[match] = true
		phones = append(phones, match)
	}
	return phones
}

func extractEmails(text string, exclude []string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[strings.ToLower(strings.TrimSpace(e))] = true
	}
	emails := []string{}
	for _, match := range emailPattern.FindAllString(text, -1) {
		key := strings.ToLower(match)
		if skip[key] {
			continue
		}
		skip[key] = true
		emails = append(emails, match)
	}
	return emails
}

func extractRequirements(text string) []string {
	requirements := []string{}
	for _, match := range requirementPattern.FindAllString(text, -1) {
		requirements = append(requirements, strings.TrimSpace(match))
		if len(requirements) == MaxRequirements {
			break
		}
	}
	return requirements
}

func extractIndicators(text string) []string {
	lower := strings.ToLower(text)
	indicators := []string{}
	for _, w := range positiveIndicators {
		if strings.Contains(lower, w) {
			indicators = append(indicators, "+"+w)
		}
	}
	for _, w := range negativeIndicators {
		if strings.Contains(lower, w) {
			indicators = append(indicators, "-"+w)
		}
	}
	return indicators
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Categorize derives the message category from subject keywords
func Categorize(subject string) models.Category {
	lower := strings.ToLower(subject)
	switch {
	case strings.Contains(lower, "support"):
		return models.CategorySupport
	case strings.Contains(lower, "query"):
		return models.CategoryQuery
	case strings.Contains(lower, "request"):
		return models.CategoryRequest
	case strings.Contains(lower, "help"):
		return models.CategoryHelp
	default:
		return models.CategoryOther
	}
}
