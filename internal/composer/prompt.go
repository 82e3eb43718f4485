package composer

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/welldanyogia/webrana-support-assistant/internal/llm"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

var systemTemplate = template.Must(template.New("system").Parse(
	`You are a professional customer support assistant.
Your responses should be:
- Professional and friendly
- Context-aware and empathetic
- Specific to the customer's needs
- Include relevant details from our knowledge base when applicable
{{if .Knowledge}}
Knowledge Base Context:
{{range $i, $k := .Knowledge}}{{if $i}}
{{end}}Q: {{$k.Question}}
A: {{$k.Answer}}
{{end}}{{end}}
Customer Sentiment: {{.Sentiment}}
Priority: {{.Priority}}`))

var userTemplate = template.Must(template.New("user").Parse(
	`Please generate a professional response to this {{.Category}} email:

Subject: {{.Subject}}
From: {{.Sender}}
Message: {{.Body}}
{{if .Negative}}
Note: The customer seems frustrated. Please acknowledge their frustration empathetically.
{{end}}`))

type promptData struct {
	Request
	Knowledge []models.KnowledgeEntry
	Negative  bool
}

// BuildPrompt renders the system and user prompt for req with the given
// knowledge entries as context
func BuildPrompt(req Request, knowledge []models.KnowledgeEntry) (llm.Prompt, error) {
	data := promptData{
		Request:   req,
		Knowledge: knowledge,
		Negative:  req.Sentiment == models.SentimentNegative,
	}

	var system, user bytes.Buffer
	if err := systemTemplate.Execute(&system, data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := userTemplate.Execute(&user, data); err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render user prompt: %w", err)
	}
	return llm.Prompt{System: system.String(), User: user.String()}, nil
}
