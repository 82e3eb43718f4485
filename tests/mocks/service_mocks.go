package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/welldanyogia/webrana-support-assistant/internal/dispatch"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/pipeline"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
)

// MockSupportService implements handlers.SupportService
type MockSupportService struct {
	mock.Mock
}

// RunIngestionCycle runs one cycle
func (m *MockSupportService) RunIngestionCycle(ctx context.Context) (pipeline.CycleResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(pipeline.CycleResult), args.Error(1)
}

// LastCycle returns the last cycle outcome
func (m *MockSupportService) LastCycle() (pipeline.CycleStatus, bool) {
	args := m.Called()
	return args.Get(0).(pipeline.CycleStatus), args.Bool(1)
}

// CurrentStage returns the live pipeline stage
func (m *MockSupportService) CurrentStage() pipeline.Stage {
	args := m.Called()
	return args.Get(0).(pipeline.Stage)
}

// Dispatch sends a reply
func (m *MockSupportService) Dispatch(ctx context.Context, id uint, override *string) (dispatch.Result, error) {
	args := m.Called(ctx, id, override)
	return args.Get(0).(dispatch.Result), args.Error(1)
}

// ListPending returns the pending queue
func (m *MockSupportService) ListPending(ctx context.Context, filter repository.MessageFilter) ([]models.SupportMessage, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.SupportMessage), args.Get(1).(int64), args.Error(2)
}

// List returns messages matching filter
func (m *MockSupportService) List(ctx context.Context, filter repository.MessageFilter) ([]models.SupportMessage, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.SupportMessage), args.Get(1).(int64), args.Error(2)
}

// Get returns one message
func (m *MockSupportService) Get(ctx context.Context, id uint) (*models.SupportMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportMessage), args.Error(1)
}

// UpdateDraft replaces a draft
func (m *MockSupportService) UpdateDraft(ctx context.Context, id uint, text string) (*models.SupportMessage, error) {
	args := m.Called(ctx, id, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportMessage), args.Error(1)
}

// MarkResolved closes a message
func (m *MockSupportService) MarkResolved(ctx context.Context, id uint) (*models.SupportMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportMessage), args.Error(1)
}

// BulkUpdateStatus changes many messages
func (m *MockSupportService) BulkUpdateStatus(ctx context.Context, ids []uint, status models.Status) (int, error) {
	args := m.Called(ctx, ids, status)
	return args.Int(0), args.Error(1)
}

// MockKnowledgeService implements handlers.KnowledgeService
type MockKnowledgeService struct {
	mock.Mock
}

// CreateKnowledge stores an entry
func (m *MockKnowledgeService) CreateKnowledge(ctx context.Context, in pipeline.KnowledgeInput) (*models.KnowledgeEntry, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeEntry), args.Error(1)
}

// GetKnowledge returns an entry
func (m *MockKnowledgeService) GetKnowledge(ctx context.Context, id uint) (*models.KnowledgeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeEntry), args.Error(1)
}

// ListKnowledge returns a page of entries
func (m *MockKnowledgeService) ListKnowledge(ctx context.Context, limit, offset int) ([]models.KnowledgeEntry, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.KnowledgeEntry), args.Get(1).(int64), args.Error(2)
}

// UpdateKnowledge replaces an entry
func (m *MockKnowledgeService) UpdateKnowledge(ctx context.Context, id uint, in pipeline.KnowledgeInput) (*models.KnowledgeEntry, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeEntry), args.Error(1)
}

// DeleteKnowledge removes an entry
func (m *MockKnowledgeService) DeleteKnowledge(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockScheduler implements handlers.SchedulerControl
type MockScheduler struct {
	mock.Mock
}

// IsRunning reports whether polling is active
func (m *MockScheduler) IsRunning() bool {
	return m.Called().Bool(0)
}

// Trigger queues a cycle
func (m *MockScheduler) Trigger() bool {
	return m.Called().Bool(0)
}
