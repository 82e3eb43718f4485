package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KnowledgeEntry is a question/answer pair used as context for drafting replies
type KnowledgeEntry struct {
	ID       uint                         `gorm:"primaryKey" json:"id"`
	Question string                       `gorm:"not null" json:"question"`
	Answer   string                       `gorm:"not null" json:"answer"`
	Category Category                     `gorm:"size:16;index" json:"category,omitempty"`
	Keywords datatypes.JSONType[[]string] `json:"keywords"`
	// KeywordIndex is the space-delimited lowercase keyword list used for LIKE lookups
	KeywordIndex string     `gorm:"size:2048" json:"-"`
	UsageCount   int64      `gorm:"default:0" json:"usage_count"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for KnowledgeEntry
func (KnowledgeEntry) TableName() string {
	return "knowledge_entries"
}

// KeywordList returns the decoded keyword list
func (k *KnowledgeEntry) KeywordList() []string {
	return k.Keywords.Data()
}

// BeforeSave keeps KeywordIndex in sync with Keywords
func (k *KnowledgeEntry) BeforeSave(tx *gorm.DB) error {
	k.KeywordIndex = BuildKeywordIndex(k.Keywords.Data())
	return nil
}

// BuildKeywordIndex normalizes keywords into " kw1 kw2 " form
func BuildKeywordIndex(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			parts = append(parts, kw)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ") + " "
}
