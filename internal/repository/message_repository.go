package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// urgentFirst orders urgent messages before everything else
const urgentFirst = "CASE WHEN priority = 'urgent' THEN 0 ELSE 1 END"

// MessageFilter narrows List queries. Zero values mean "any".
type MessageFilter struct {
	Status    models.Status
	Priority  models.Priority
	Sentiment models.Sentiment
	Category  models.Category
	Search    string
	Limit     int
	Offset    int
}

// ResponseRecord is written atomically with the pending -> responded transition
type ResponseRecord struct {
	Text           string
	ManuallyEdited bool
	RespondedAt    time.Time
}

// MessageRepository defines the interface for support message data access
type MessageRepository interface {
	InsertIfAbsent(ctx context.Context, message *models.SupportMessage) (bool, error)
	ExistingIdentities(ctx context.Context, identities []string) (map[string]bool, error)
	GetByID(ctx context.Context, id uint) (*models.SupportMessage, error)
	GetByIdentity(ctx context.Context, identity string) (*models.SupportMessage, error)
	List(ctx context.Context, filter MessageFilter) ([]models.SupportMessage, int64, error)
	UpdateDraft(ctx context.Context, id uint, draft string) error
	MarkResponded(ctx context.Context, id uint, record ResponseRecord) error
	MarkResolved(ctx context.Context, id uint, at time.Time) (bool, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// InsertIfAbsent stores message unless a record with the same identity exists.
// The check and the insert are a single statement, so concurrent sightings of
// one identity create at most one row. It reports whether a row was created.
func (r *messageRepository) InsertIfAbsent(ctx context.Context, message *models.SupportMessage) (bool, error) {
	if message.Identity == "" {
		return false, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	if message.Status == "" {
		message.Status = models.StatusPending
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity"}},
			DoNothing: true,
		}).
		Create(message)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert message: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ExistingIdentities returns the subset of identities already stored
func (r *messageRepository) ExistingIdentities(ctx context.Context, identities []string) (map[string]bool, error) {
	found := make(map[string]bool, len(identities))
	if len(identities) == 0 {
		return found, nil
	}

	var rows []string
	err := r.db.WithContext(ctx).
		Model(&models.SupportMessage{}).
		Where("identity IN ?", identities).
		Pluck("identity", &rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up identities: %w", err)
	}
	for _, id := range rows {
		found[id] = true
	}
	return found, nil
}

// GetByID retrieves a message by its ID
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.SupportMessage, error) {
	var message models.SupportMessage
	result := r.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// GetByIdentity retrieves a message by its source identity
func (r *messageRepository) GetByIdentity(ctx context.Context, identity string) (*models.SupportMessage, error) {
	var message models.SupportMessage
	result := r.db.WithContext(ctx).Where("identity = ?", identity).First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by identity: %w", result.Error)
	}
	return &message, nil
}

// List returns messages matching filter, urgent first and then most recent
func (r *messageRepository) List(ctx context.Context, filter MessageFilter) ([]models.SupportMessage, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SupportMessage{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Sentiment != "" {
		query = query.Where("sentiment = ?", filter.Sentiment)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(subject) LIKE ? OR LOWER(sender) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var messages []models.SupportMessage
	err := query.
		Order(urgentFirst).
		Order("sent_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}

// UpdateDraft replaces the draft of a pending message and marks it as edited
func (r *messageRepository) UpdateDraft(ctx context.Context, id uint, draft string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SupportMessage{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"draft_response":  draft,
			"manually_edited": true,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// MarkResponded moves a pending message to responded, writing the final
// response and timestamp in the same statement
func (r *messageRepository) MarkResponded(ctx context.Context, id uint, record ResponseRecord) error {
	text := record.Text
	at := record.RespondedAt
	result := r.db.WithContext(ctx).
		Model(&models.SupportMessage{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":          models.StatusResponded,
			"responded_at":    &at,
			"final_response":  &text,
			"manually_edited": record.ManuallyEdited,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark message responded: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// MarkResolved closes a message. It reports false when the message was
// already resolved.
func (r *messageRepository) MarkResolved(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SupportMessage{}).
		Where("id = ? AND status <> ?", id, models.StatusResolved).
		Updates(map[string]interface{}{
			"status":      models.StatusResolved,
			"resolved_at": &at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark message resolved: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *messageRepository) missingOrConflict(ctx context.Context, id uint) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrStateConflict
}
