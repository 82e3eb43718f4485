package classifier

import (
	"strings"
)

// UrgentKeywords is the canonical fast path list. A case-insensitive
// substring hit on any entry makes a message urgent without a model call.
var UrgentKeywords = []string{
	"immediately",
	"urgent",
	"critical",
	"cannot access",
	"blocked",
	"down",
	"emergency",
	"asap",
	"help immediately",
	"system down",
	"server down",
	"outage",
	"not working",
	"broken",
}

// PriorityDecision is the result of the keyword rule: either FastPathMatch
// or FallbackNeeded.
type PriorityDecision interface {
	isPriorityDecision()
}

// FastPathMatch means a keyword decided the message is urgent
type FastPathMatch struct {
	Keyword string
}

// FallbackNeeded means no keyword matched and the model has to decide
type FallbackNeeded struct{}

func (FastPathMatch) isPriorityDecision()  {}
func (FallbackNeeded) isPriorityDecision() {}

// DecidePriority applies the keyword rule to text
func DecidePriority(text string) PriorityDecision {
	lower := strings.ToLower(text)
	for _, kw := range UrgentKeywords {
		if strings.Contains(lower, kw) {
			return FastPathMatch{Keyword: kw}
		}
	}
	return FallbackNeeded{}
}
