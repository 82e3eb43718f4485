//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/welldanyogia/webrana-support-assistant/internal/database"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
	"github.com/welldanyogia/webrana-support-assistant/tests/fixtures"
)

// DatabaseIntegrationTestSuite tests the repositories against real PostgreSQL
type DatabaseIntegrationTestSuite struct {
	suite.Suite
	pg            *fixtures.Postgres
	db            *gorm.DB
	messageRepo   repository.MessageRepository
	knowledgeRepo repository.KnowledgeRepository
}

// SetupSuite starts PostgreSQL container and migrates the schema
func (s *DatabaseIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pg, err := fixtures.StartPostgres(ctx, "support_test")
	require.NoError(s.T(), err)
	s.pg = pg

	db, err := database.Connect(pg.DSN, database.Options{LogLevel: logger.Silent})
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(db, nil))
	s.db = db

	s.messageRepo = repository.NewMessageRepository(db)
	s.knowledgeRepo = repository.NewKnowledgeRepository(db)
}

// TearDownSuite stops the PostgreSQL container
func (s *DatabaseIntegrationTestSuite) TearDownSuite() {
	if s.db != nil {
		_ = database.Close(s.db)
	}
	_ = s.pg.Terminate(context.Background())
}

// SetupTest cleans up data before each test
func (s *DatabaseIntegrationTestSuite) SetupTest() {
	s.db.Exec("TRUNCATE TABLE support_messages, knowledge_entries RESTART IDENTITY CASCADE")
}

// TestDatabaseIntegrationTestSuite runs the test suite
func TestDatabaseIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(DatabaseIntegrationTestSuite))
}

// ==================== Messages ====================

func (s *DatabaseIntegrationTestSuite) TestInsertIfAbsent_ConcurrentSameIdentity() {
	ctx := context.Background()
	const writers = 16

	var created atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := fixtures.NewMessageBuilder().WithIdentity("race@mail.example.com").Build()
			ok, err := s.messageRepo.InsertIfAbsent(ctx, msg)
			if err != nil {
				errs <- err
				return
			}
			if ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	s.Equal(int32(1), created.Load())

	var count int64
	s.Require().NoError(s.db.Model(&models.SupportMessage{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *DatabaseIntegrationTestSuite) TestExistingIdentities() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		msg := fixtures.NewMessageBuilder().WithIdentity(fmt.Sprintf("m%d@x", i)).Build()
		_, err := s.messageRepo.InsertIfAbsent(ctx, msg)
		s.Require().NoError(err)
	}

	found, err := s.messageRepo.ExistingIdentities(ctx, []string{"m0@x", "m2@x", "unknown@x"})

	s.Require().NoError(err)
	s.Equal(map[string]bool{"m0@x": true, "m2@x": true}, found)
}

func (s *DatabaseIntegrationTestSuite) TestList_UrgentFirstThenNewest() {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	inputs := []*models.SupportMessage{
		fixtures.NewMessageBuilder().WithIdentity("old").WithSentAt(base).Build(),
		fixtures.NewMessageBuilder().WithIdentity("urgent").WithSentAt(base.Add(time.Hour)).WithPriority(models.PriorityUrgent).Build(),
		fixtures.NewMessageBuilder().WithIdentity("new").WithSentAt(base.Add(2 * time.Hour)).Build(),
	}
	for _, m := range inputs {
		_, err := s.messageRepo.InsertIfAbsent(ctx, m)
		s.Require().NoError(err)
	}

	list, total, err := s.messageRepo.List(ctx, repository.MessageFilter{Status: models.StatusPending})

	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(list, 3)
	s.Equal("urgent", list[0].Identity)
	s.Equal("new", list[1].Identity)
	s.Equal("old", list[2].Identity)
}

func (s *DatabaseIntegrationTestSuite) TestMarkResponded_OnlyOnce() {
	ctx := context.Background()
	msg := fixtures.NewMessageBuilder().Build()
	_, err := s.messageRepo.InsertIfAbsent(ctx, msg)
	s.Require().NoError(err)

	record := repository.ResponseRecord{Text: "Sent reply", RespondedAt: time.Now().UTC()}
	s.Require().NoError(s.messageRepo.MarkResponded(ctx, msg.ID, record))
	err = s.messageRepo.MarkResponded(ctx, msg.ID, record)

	assert.ErrorIs(s.T(), err, repository.ErrStateConflict)
	stored, err := s.messageRepo.GetByID(ctx, msg.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusResponded, stored.Status)
	s.Require().NotNil(stored.FinalResponse)
	s.Equal("Sent reply", *stored.FinalResponse)
	s.NotNil(stored.RespondedAt)
}

func (s *DatabaseIntegrationTestSuite) TestMarkResponded_ConcurrentSendersOneWins() {
	ctx := context.Background()
	msg := fixtures.NewMessageBuilder().Build()
	_, err := s.messageRepo.InsertIfAbsent(ctx, msg)
	s.Require().NoError(err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.messageRepo.MarkResponded(ctx, msg.ID, repository.ResponseRecord{
				Text:        fmt.Sprintf("reply %d", i),
				RespondedAt: time.Now().UTC(),
			})
			if err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *DatabaseIntegrationTestSuite) TestMarkResolved_Idempotent() {
	ctx := context.Background()
	msg := fixtures.NewMessageBuilder().Build()
	_, err := s.messageRepo.InsertIfAbsent(ctx, msg)
	s.Require().NoError(err)

	first, err := s.messageRepo.MarkResolved(ctx, msg.ID, time.Now().UTC())
	s.Require().NoError(err)
	second, err := s.messageRepo.MarkResolved(ctx, msg.ID, time.Now().UTC())
	s.Require().NoError(err)

	s.True(first)
	s.False(second)
	_, err = s.messageRepo.MarkResolved(ctx, 9999, time.Now().UTC())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *DatabaseIntegrationTestSuite) TestExtractedInfo_RoundTripsThroughJSONColumn() {
	ctx := context.Background()
	msg := fixtures.NewMessageBuilder().Build()
	info := models.ExtractedInfo{
		PhoneNumbers:    []string{"+62 812 3456 7890"},
		AlternateEmails: []string{"alt@example.com"},
		Requirements:    []string{"I need a refund"},
	}
	msg.ExtractedInfo = datatypes.NewJSONType(info)
	_, err := s.messageRepo.InsertIfAbsent(ctx, msg)
	s.Require().NoError(err)

	stored, err := s.messageRepo.GetByIdentity(ctx, msg.Identity)

	s.Require().NoError(err)
	s.Equal(info, stored.Info())
}

// ==================== Knowledge ====================

func (s *DatabaseIntegrationTestSuite) TestKnowledge_SearchAndTouch() {
	ctx := context.Background()
	password := fixtures.NewKnowledgeBuilder().Build()
	billing := fixtures.NewKnowledgeBuilder().
		WithQuestion("Where is my invoice?").
		WithAnswer("Invoices are under Billing.").
		WithKeywords("invoice", "billing").
		Build()
	s.Require().NoError(s.knowledgeRepo.Create(ctx, password))
	s.Require().NoError(s.knowledgeRepo.Create(ctx, billing))

	hits, err := s.knowledgeRepo.SearchByKeywords(ctx, []string{"reset", "password"}, 5)
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal(password.ID, hits[0].ID)

	at := time.Now().UTC().Truncate(time.Second)
	s.Require().NoError(s.knowledgeRepo.TouchUsage(ctx, []uint{password.ID}, at))

	stored, err := s.knowledgeRepo.GetByID(ctx, password.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.UsageCount)
	s.Require().NotNil(stored.LastUsedAt)
	s.True(at.Equal(stored.LastUsedAt.UTC()))
}

func (s *DatabaseIntegrationTestSuite) TestKnowledge_DeleteMissing() {
	err := s.knowledgeRepo.Delete(context.Background(), 4242)

	s.ErrorIs(err, repository.ErrNotFound)
}
