package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category is derived from subject keywords at ingestion time
type Category string

const (
	CategorySupport Category = "support"
	CategoryQuery   Category = "query"
	CategoryRequest Category = "request"
	CategoryHelp    Category = "help"
	CategoryOther   Category = "other"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategorySupport, CategoryQuery, CategoryRequest, CategoryHelp, CategoryOther:
		return true
	}
	return false
}

// Sentiment of the inbound message text
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Valid reports whether s is a known sentiment
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Priority decides whether a message is auto-dispatched
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	return p == PriorityUrgent || p == PriorityNormal
}

// PrioritySource records which branch produced the priority
type PrioritySource string

const (
	PrioritySourceKeyword PrioritySource = "keyword"
	PrioritySourceModel   PrioritySource = "model"
	PrioritySourceDefault PrioritySource = "default"
)

// DraftSource records whether the draft came from the model or a template
type DraftSource string

const (
	DraftSourceModel    DraftSource = "model"
	DraftSourceTemplate DraftSource = "template"
)

// ExtractedInfo is the structured bag produced by the classifier
type ExtractedInfo struct {
	PhoneNumbers        []string `json:"phone_numbers"`
	AlternateEmails     []string `json:"alternate_emails"`
	Requirements        []string `json:"requirements"`
	SentimentIndicators []string `json:"sentiment_indicators"`
}

// SupportMessage is an inbound support message together with its enrichment
// and dispatch state
type SupportMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Identity   string    `gorm:"uniqueIndex;not null;size:512" json:"identity"`
	SourceUID  uint32    `json:"source_uid,omitempty"`
	Sender     string    `gorm:"not null;size:255;index" json:"sender"`
	SenderName string    `gorm:"size:255" json:"sender_name,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	SentAt     time.Time `gorm:"index" json:"sent_at"`

	Category       Category                          `gorm:"size:16;index" json:"category"`
	Sentiment      Sentiment                         `gorm:"size:16;index" json:"sentiment"`
	Priority       Priority                          `gorm:"size:16;index" json:"priority"`
	PrioritySource PrioritySource                    `gorm:"size:16" json:"priority_source"`
	ExtractedInfo  datatypes.JSONType[ExtractedInfo] `json:"extracted_info"`

	DraftResponse  string      `json:"draft_response"`
	DraftSource    DraftSource `gorm:"size:16" json:"draft_source"`
	ManuallyEdited bool        `gorm:"default:false" json:"manually_edited"`

	Status        Status     `gorm:"size:16;not null;default:pending;index" json:"status"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	FinalResponse *string    `json:"final_response,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for SupportMessage
func (SupportMessage) TableName() string {
	return "support_messages"
}

// Info returns the decoded extracted info
func (m *SupportMessage) Info() ExtractedInfo {
	return m.ExtractedInfo.Data()
}
