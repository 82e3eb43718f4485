package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a private in-memory SQLite database with the schema applied.
// A single connection keeps every query on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.SupportMessage{}, &models.KnowledgeEntry{})
	require.NoError(t, err)
	return db
}

func newMessage(identity string, priority models.Priority, sentAt time.Time) *models.SupportMessage {
	return &models.SupportMessage{
		Identity:      identity,
		Sender:        "customer@example.com",
		Subject:       "Help needed " + identity,
		Body:          "Body of " + identity,
		SentAt:        sentAt,
		Category:      models.CategoryHelp,
		Sentiment:     models.SentimentNeutral,
		Priority:      priority,
		DraftResponse: "Draft for " + identity,
		DraftSource:   models.DraftSourceTemplate,
	}
}

func newInfo(phones []string) datatypes.JSONType[models.ExtractedInfo] {
	return datatypes.NewJSONType(models.ExtractedInfo{PhoneNumbers: phones})
}
