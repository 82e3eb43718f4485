package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/welldanyogia/webrana-support-assistant/internal/dispatch"
	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
	"github.com/welldanyogia/webrana-support-assistant/internal/validator"
)

// MaxBulkIDs caps a bulk status change
const MaxBulkIDs = 100

// KnowledgeInput is the editable part of a knowledge entry
type KnowledgeInput struct {
	Question string
	Answer   string
	Category models.Category
	Keywords []string
}

// Service is the operation surface used by the HTTP API
type Service struct {
	pipeline   *Pipeline
	messages   repository.MessageRepository
	knowledge  repository.KnowledgeRepository
	dispatcher Dispatcher
	events     EventSink
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service. events may be nil.
func NewService(
	p *Pipeline,
	messages repository.MessageRepository,
	knowledge repository.KnowledgeRepository,
	dispatcher Dispatcher,
	events EventSink,
	logger *slog.Logger,
) *Service {
	if events == nil {
		events = nopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pipeline:   p,
		messages:   messages,
		knowledge:  knowledge,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// RunIngestionCycle runs one cycle now. It fails with ErrCycleInProgress
// when a cycle is already running.
func (s *Service) RunIngestionCycle(ctx context.Context) (CycleResult, error) {
	return s.pipeline.RunCycle(ctx)
}

// CurrentStage reports what the ingestion pipeline is doing right now
func (s *Service) CurrentStage() Stage {
	return s.pipeline.CurrentStage()
}

// LastCycle returns the outcome of the most recent cycle
func (s *Service) LastCycle() (CycleStatus, bool) {
	return s.pipeline.LastCycle()
}

// Dispatch sends the reply for message id, using override when non-nil
func (s *Service) Dispatch(ctx context.Context, id uint, override *string) (dispatch.Result, error) {
	res, err := s.dispatcher.Send(ctx, id, override)
	if err != nil {
		return res, err
	}
	if !res.AlreadySent {
		s.events.Publish(ctx, Event{Type: EventMessageResponded, MessageID: id, Data: res, At: s.now().UTC()})
	}
	return res, nil
}

// ListPending returns pending messages, urgent first then newest first
func (s *Service) ListPending(ctx context.Context, filter repository.MessageFilter) ([]models.SupportMessage, int64, error) {
	filter.Status = models.StatusPending
	return s.List(ctx, filter)
}

// List returns messages matching filter in queue order
func (s *Service) List(ctx context.Context, filter repository.MessageFilter) ([]models.SupportMessage, int64, error) {
	filter.Limit, filter.Offset = validator.ValidatePagination(filter.Limit, filter.Offset)
	messages, total, err := s.messages.List(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}
	return messages, total, nil
}

// Get returns one message
func (s *Service) Get(ctx context.Context, id uint) (*models.SupportMessage, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return msg, nil
}

// UpdateDraft replaces the draft of a pending message
func (s *Service) UpdateDraft(ctx context.Context, id uint, text string) (*models.SupportMessage, error) {
	if err := validator.ValidateReplyText(text); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidInput, "response: "+err.Error(), apperrors.CodeInvalidInput)
	}
	if err := s.messages.UpdateDraft(ctx, id, text); err != nil {
		return nil, translate(err)
	}
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	s.events.Publish(ctx, Event{Type: EventMessageUpdated, MessageID: id, Data: msg, At: s.now().UTC()})
	return msg, nil
}

// MarkResolved closes message id. Resolving twice is a no-op.
func (s *Service) MarkResolved(ctx context.Context, id uint) (*models.SupportMessage, error) {
	changed, err := s.messages.MarkResolved(ctx, id, s.now().UTC())
	if err != nil {
		return nil, translate(err)
	}
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if changed {
		s.events.Publish(ctx, Event{Type: EventMessageResolved, MessageID: id, Data: msg, At: s.now().UTC()})
	}
	return msg, nil
}

// BulkUpdateStatus applies status to every id. Only resolved is supported
// since the other transitions carry a reply. It returns how many messages
// changed.
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []uint, status models.Status) (int, error) {
	if status != models.StatusResolved {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidTransition, "bulk updates only support status resolved", apperrors.CodeInvalidTransition)
	}
	if len(ids) == 0 {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidInput, "ids cannot be empty", apperrors.CodeInvalidInput)
	}
	if len(ids) > MaxBulkIDs {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidInput, fmt.Sprintf("at most %d ids per request", MaxBulkIDs), apperrors.CodeInvalidInput)
	}

	at := s.now().UTC()
	changed := 0
	for _, id := range ids {
		ok, err := s.messages.MarkResolved(ctx, id, at)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return changed, translate(err)
		}
		if ok {
			changed++
			s.events.Publish(ctx, Event{Type: EventMessageResolved, MessageID: id, At: at})
		}
	}
	return changed, nil
}

// ==================== Knowledge ====================

// CreateKnowledge stores a new knowledge entry
func (s *Service) CreateKnowledge(ctx context.Context, in KnowledgeInput) (*models.KnowledgeEntry, error) {
	entry, err := knowledgeFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.knowledge.Create(ctx, entry); err != nil {
		return nil, translate(err)
	}
	return entry, nil
}

// GetKnowledge returns one knowledge entry
func (s *Service) GetKnowledge(ctx context.Context, id uint) (*models.KnowledgeEntry, error) {
	entry, err := s.knowledge.GetByID(ctx, id)
	if err != nil {
		return nil, translateKnowledge(err)
	}
	return entry, nil
}

// ListKnowledge returns knowledge entries, most used first
func (s *Service) ListKnowledge(ctx context.Context, limit, offset int) ([]models.KnowledgeEntry, int64, error) {
	limit, offset = validator.ValidatePagination(limit, offset)
	entries, total, err := s.knowledge.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, translate(err)
	}
	return entries, total, nil
}

// UpdateKnowledge replaces the content of entry id
func (s *Service) UpdateKnowledge(ctx context.Context, id uint, in KnowledgeInput) (*models.KnowledgeEntry, error) {
	entry, err := s.knowledge.GetByID(ctx, id)
	if err != nil {
		return nil, translateKnowledge(err)
	}
	updated, err := knowledgeFromInput(in)
	if err != nil {
		return nil, err
	}
	entry.Question = updated.Question
	entry.Answer = updated.Answer
	entry.Category = updated.Category
	entry.Keywords = updated.Keywords
	if err := s.knowledge.Update(ctx, entry); err != nil {
		return nil, translateKnowledge(err)
	}
	return entry, nil
}

// DeleteKnowledge removes entry id
func (s *Service) DeleteKnowledge(ctx context.Context, id uint) error {
	if err := s.knowledge.Delete(ctx, id); err != nil {
		return translateKnowledge(err)
	}
	return nil
}

func knowledgeFromInput(in KnowledgeInput) (*models.KnowledgeEntry, error) {
	question := validator.SanitizeString(in.Question, validator.MaxQuestionLength)
	if question == "" {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidInput, "question is required", apperrors.CodeInvalidInput)
	}
	if err := validator.ValidateReplyText(in.Answer); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidInput, "answer: "+err.Error(), apperrors.CodeInvalidInput)
	}
	keywords, err := validator.NormalizeKeywords(in.Keywords)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidInput, "keywords: "+err.Error(), apperrors.CodeInvalidInput)
	}
	category := in.Category
	if category == "" {
		category = models.CategoryOther
	}
	return &models.KnowledgeEntry{
		Question: question,
		Answer:   in.Answer,
		Category: category,
		Keywords: datatypes.NewJSONType(keywords),
	}, nil
}

// translate maps repository errors onto application errors
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.ErrMessageNotFound
	case errors.Is(err, repository.ErrStateConflict):
		return apperrors.NewAppError(apperrors.ErrInvalidTransition, "message is no longer pending", apperrors.CodeInvalidTransition)
	case errors.Is(err, repository.ErrInvalidInput):
		return apperrors.NewAppError(apperrors.ErrInvalidInput, err.Error(), apperrors.CodeInvalidInput)
	case errors.Is(err, repository.ErrDuplicateEntry):
		return apperrors.ErrDuplicateEntry
	default:
		return apperrors.NewPersistenceError("", err)
	}
}

func translateKnowledge(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrKnowledgeNotFound
	}
	return translate(err)
}
