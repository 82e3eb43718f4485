// Package mocks holds testify mocks for the repository and service
// interfaces shared by handler and pipeline tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
)

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

var _ repository.MessageRepository = (*MockMessageRepository)(nil)

// InsertIfAbsent stores message unless its identity exists
func (m *MockMessageRepository) InsertIfAbsent(ctx context.Context, message *models.SupportMessage) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

// ExistingIdentities reports which identities are stored
func (m *MockMessageRepository) ExistingIdentities(ctx context.Context, identities []string) (map[string]bool, error) {
	args := m.Called(ctx, identities)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// GetByID retrieves a message by its ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.SupportMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportMessage), args.Error(1)
}

// GetByIdentity retrieves a message by its identity
func (m *MockMessageRepository) GetByIdentity(ctx context.Context, identity string) (*models.SupportMessage, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportMessage), args.Error(1)
}

// List retrieves messages matching filter
func (m *MockMessageRepository) List(ctx context.Context, filter repository.MessageFilter) ([]models.SupportMessage, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.SupportMessage), args.Get(1).(int64), args.Error(2)
}

// UpdateDraft replaces the draft of a pending message
func (m *MockMessageRepository) UpdateDraft(ctx context.Context, id uint, draft string) error {
	args := m.Called(ctx, id, draft)
	return args.Error(0)
}

// MarkResponded moves a pending message to responded
func (m *MockMessageRepository) MarkResponded(ctx context.Context, id uint, record repository.ResponseRecord) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

// MarkResolved closes a message
func (m *MockMessageRepository) MarkResolved(ctx context.Context, id uint, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockKnowledgeRepository implements repository.KnowledgeRepository
type MockKnowledgeRepository struct {
	mock.Mock
}

var _ repository.KnowledgeRepository = (*MockKnowledgeRepository)(nil)

// Create stores a new entry
func (m *MockKnowledgeRepository) Create(ctx context.Context, entry *models.KnowledgeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// GetByID retrieves an entry by its ID
func (m *MockKnowledgeRepository) GetByID(ctx context.Context, id uint) (*models.KnowledgeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeEntry), args.Error(1)
}

// List retrieves a page of entries
func (m *MockKnowledgeRepository) List(ctx context.Context, limit, offset int) ([]models.KnowledgeEntry, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.KnowledgeEntry), args.Get(1).(int64), args.Error(2)
}

// Update saves an existing entry
func (m *MockKnowledgeRepository) Update(ctx context.Context, entry *models.KnowledgeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Delete removes an entry
func (m *MockKnowledgeRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SearchByKeywords returns entries sharing a keyword with words
func (m *MockKnowledgeRepository) SearchByKeywords(ctx context.Context, words []string, limit int) ([]models.KnowledgeEntry, error) {
	args := m.Called(ctx, words, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KnowledgeEntry), args.Error(1)
}

// TouchUsage bumps usage counters
func (m *MockKnowledgeRepository) TouchUsage(ctx context.Context, ids []uint, at time.Time) error {
	args := m.Called(ctx, ids, at)
	return args.Error(0)
}
