// Package fixtures provides builders and in-process servers shared by the
// integration and end-to-end tests.
package fixtures

import (
	"time"

	"gorm.io/datatypes"

	"github.com/welldanyogia/webrana-support-assistant/internal/mailbox"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

// MessageBuilder creates test SupportMessage instances with fluent API
type MessageBuilder struct {
	message models.SupportMessage
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults.
// The ID is left zero so the store assigns one.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.SupportMessage{
			Identity:       "msg-1@mail.example.com",
			Sender:         "customer@example.com",
			SenderName:     "Test Customer",
			Subject:        "Support: cannot log in",
			Body:           "I cannot log in to my account.",
			SentAt:         time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			Category:       models.CategorySupport,
			Sentiment:      models.SentimentNeutral,
			Priority:       models.PriorityNormal,
			PrioritySource: models.PrioritySourceKeyword,
			DraftResponse:  "Thanks for reaching out, we are on it.",
			DraftSource:    models.DraftSourceTemplate,
			Status:         models.StatusPending,
		},
	}
}

// WithIdentity sets the dedup identity
func (b *MessageBuilder) WithIdentity(identity string) *MessageBuilder {
	b.message.Identity = identity
	return b
}

// WithSender sets the sender address and name
func (b *MessageBuilder) WithSender(email, name string) *MessageBuilder {
	b.message.Sender = email
	b.message.SenderName = name
	return b
}

// WithSubject sets the message subject
func (b *MessageBuilder) WithSubject(subject string) *MessageBuilder {
	b.message.Subject = subject
	return b
}

// WithBody sets the plain text body
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.message.Body = body
	return b
}

// WithSentAt sets the sent timestamp
func (b *MessageBuilder) WithSentAt(t time.Time) *MessageBuilder {
	b.message.SentAt = t
	return b
}

// WithPriority sets the priority
func (b *MessageBuilder) WithPriority(p models.Priority) *MessageBuilder {
	b.message.Priority = p
	return b
}

// WithStatus sets the status
func (b *MessageBuilder) WithStatus(s models.Status) *MessageBuilder {
	b.message.Status = s
	return b
}

// WithDraft sets the draft text
func (b *MessageBuilder) WithDraft(draft string) *MessageBuilder {
	b.message.DraftResponse = draft
	return b
}

// Build returns the constructed SupportMessage
func (b *MessageBuilder) Build() *models.SupportMessage {
	m := b.message
	return &m
}

// KnowledgeBuilder creates test KnowledgeEntry instances with fluent API
type KnowledgeBuilder struct {
	entry models.KnowledgeEntry
}

// NewKnowledgeBuilder creates a new KnowledgeBuilder with sensible defaults
func NewKnowledgeBuilder() *KnowledgeBuilder {
	return &KnowledgeBuilder{
		entry: models.KnowledgeEntry{
			Question: "How do I reset my password?",
			Answer:   "Use the forgot password link on the login page.",
			Category: models.CategorySupport,
			Keywords: datatypes.NewJSONType([]string{"password", "reset", "login"}),
		},
	}
}

// WithQuestion sets the question
func (b *KnowledgeBuilder) WithQuestion(q string) *KnowledgeBuilder {
	b.entry.Question = q
	return b
}

// WithAnswer sets the answer
func (b *KnowledgeBuilder) WithAnswer(a string) *KnowledgeBuilder {
	b.entry.Answer = a
	return b
}

// WithKeywords sets the keyword list
func (b *KnowledgeBuilder) WithKeywords(keywords ...string) *KnowledgeBuilder {
	b.entry.Keywords = datatypes.NewJSONType(keywords)
	return b
}

// Build returns the constructed KnowledgeEntry
func (b *KnowledgeBuilder) Build() *models.KnowledgeEntry {
	e := b.entry
	return &e
}

// RawMessage returns a parsed mailbox candidate
func RawMessage(identity, subject, body string, sentAt time.Time) mailbox.RawMessage {
	return mailbox.RawMessage{
		Identity:   identity,
		MessageID:  identity,
		Sender:     "customer@example.com",
		SenderName: "Test Customer",
		Subject:    subject,
		Body:       body,
		SentAt:     sentAt,
	}
}
