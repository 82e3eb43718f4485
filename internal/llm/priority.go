package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

const prioritySystemPrompt = `You are a support triage assistant. Classify the customer email as "urgent" or "normal".
Urgent means the customer is blocked, losing money, or reports an outage that needs action today.
Answer with JSON only: {"priority": "urgent"} or {"priority": "normal"}.`

// maxPriorityInput bounds how much of the message is sent for triage
const maxPriorityInput = 4000

type priorityAnswer struct {
	Priority string `json:"priority"`
}

// ClassifyPriority asks the model whether text is urgent. It returns an error
// when the answer cannot be interpreted.
func (c *Client) ClassifyPriority(ctx context.Context, text string) (models.Priority, error) {
	if len([]rune(text)) > maxPriorityInput {
		text = string([]rune(text)[:maxPriorityInput])
	}

	answer, err := c.Generate(ctx, Prompt{
		System: prioritySystemPrompt,
		User:   "Email:\n" + text,
	}, Options{MaxTokens: 20, Temperature: 0})
	if err != nil {
		return "", err
	}

	return ParsePriority(answer)
}

// ParsePriority interprets a model answer. JSON answers are repaired before
// decoding; plain word answers such as "Urgent" or "Not urgent" are accepted.
func ParsePriority(answer string) (models.Priority, error) {
	answer = strings.TrimSpace(answer)

	if start := strings.Index(answer, "{"); start >= 0 {
		candidate := answer[start:]
		if end := strings.LastIndex(candidate, "}"); end >= 0 {
			candidate = candidate[:end+1]
		}
		if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
			var parsed priorityAnswer
			if err := json.Unmarshal([]byte(repaired), &parsed); err == nil && parsed.Priority != "" {
				return priorityFromWord(parsed.Priority, answer)
			}
		}
	}

	return priorityFromWord(answer, answer)
}

func priorityFromWord(word, raw string) (models.Priority, error) {
	lower := strings.ToLower(word)
	switch {
	case strings.Contains(lower, "not urgent"), strings.Contains(lower, "non-urgent"):
		return models.PriorityNormal, nil
	case strings.Contains(lower, "urgent"):
		return models.PriorityUrgent, nil
	case strings.Contains(lower, "normal"):
		return models.PriorityNormal, nil
	}
	return "", fmt.Errorf("unrecognized priority answer %q", raw)
}
