// Package dispatch sends drafted replies and records the outcome.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
	"github.com/welldanyogia/webrana-support-assistant/internal/logger"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
	"github.com/welldanyogia/webrana-support-assistant/internal/validator"
)

// MessageStore is the persistence the dispatcher needs
type MessageStore interface {
	GetByID(ctx context.Context, id uint) (*models.SupportMessage, error)
	MarkResponded(ctx context.Context, id uint, record repository.ResponseRecord) error
}

// Result describes the outcome of a Send call
type Result struct {
	MessageID   uint          `json:"message_id"`
	Status      models.Status `json:"status"`
	AlreadySent bool          `json:"already_sent"`
	SentAt      *time.Time    `json:"sent_at,omitempty"`
}

// Dispatcher sends replies for stored messages
type Dispatcher struct {
	store     MessageStore
	transport Transport
	security  *logger.SecurityLogger
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Dispatcher
func New(store MessageStore, transport Transport, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		transport: transport,
		security:  logger.NewSecurityLogger(log),
		logger:    log,
		now:       time.Now,
	}
}

// Send replies to message id with override when given, otherwise with the
// stored draft. Messages that are already responded or resolved are left
// alone and reported with AlreadySent. A transport failure leaves the
// stored message untouched.
func (d *Dispatcher) Send(ctx context.Context, id uint, override *string) (Result, error) {
	msg, err := d.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, apperrors.ErrMessageNotFound
		}
		return Result{}, apperrors.NewPersistenceError("", err)
	}

	if msg.Status != models.StatusPending {
		d.logger.Info("dispatch skipped, message already handled",
			slog.Uint64("message_id", uint64(msg.ID)),
			slog.String("status", string(msg.Status)))
		return Result{MessageID: msg.ID, Status: msg.Status, AlreadySent: true, SentAt: msg.RespondedAt}, nil
	}

	text, edited := msg.DraftResponse, override != nil
	if override != nil {
		text = *override
	}
	if err := validator.ValidateReplyText(text); err != nil {
		return Result{}, apperrors.NewAppError(apperrors.ErrInvalidInput, "reply text: "+err.Error(), apperrors.CodeInvalidInput)
	}

	out, err := d.outbound(msg, text)
	if err != nil {
		return Result{}, err
	}

	if err := d.transport.Send(ctx, out); err != nil {
		d.logger.Error("reply dispatch failed",
			slog.Uint64("message_id", uint64(msg.ID)),
			slog.String("identity", msg.Identity),
			slog.Any("error", err))
		return Result{}, apperrors.NewDispatchError(msg.Identity, err)
	}

	sentAt := d.now().UTC()
	err = d.store.MarkResponded(ctx, msg.ID, repository.ResponseRecord{
		Text:           text,
		ManuallyEdited: edited,
		RespondedAt:    sentAt,
	})
	switch {
	case errors.Is(err, repository.ErrStateConflict):
		// a concurrent send won the transition
		d.logger.Warn("message changed state during dispatch",
			slog.Uint64("message_id", uint64(msg.ID)))
		current, getErr := d.store.GetByID(ctx, msg.ID)
		if getErr != nil {
			return Result{}, apperrors.NewPersistenceError(msg.Identity, getErr)
		}
		return Result{MessageID: msg.ID, Status: current.Status, AlreadySent: true, SentAt: current.RespondedAt}, nil
	case err != nil:
		return Result{}, apperrors.NewPersistenceError(msg.Identity, err)
	}

	d.logger.Info("message responded",
		slog.Uint64("message_id", uint64(msg.ID)),
		slog.String("identity", msg.Identity),
		slog.Bool("manually_edited", edited),
		slog.Int("reply_length", len(text)))

	return Result{MessageID: msg.ID, Status: models.StatusResponded, SentAt: &sentAt}, nil
}

// outbound builds the reply envelope, refusing header values that could
// inject extra headers
func (d *Dispatcher) outbound(msg *models.SupportMessage, text string) (OutboundMail, error) {
	if err := validator.ValidateEmail(msg.Sender); err != nil {
		if errors.Is(err, validator.ErrInvalidCharacter) {
			d.security.HeaderInjection("to", msg.ID)
		}
		return OutboundMail{}, apperrors.NewAppError(apperrors.ErrInvalidInput, "recipient: "+err.Error(), apperrors.CodeInvalidInput)
	}

	subject := ReplySubject(msg.Subject)
	if err := validator.ValidateHeaderValue(subject); err != nil {
		if errors.Is(err, validator.ErrInvalidCharacter) {
			d.security.HeaderInjection("subject", msg.ID)
		}
		return OutboundMail{}, apperrors.NewAppError(apperrors.ErrInvalidInput, "subject: "+err.Error(), apperrors.CodeInvalidInput)
	}

	out := OutboundMail{
		To:      msg.Sender,
		ToName:  msg.SenderName,
		Subject: subject,
		Body:    text,
	}
	// derived identities are not real Message-IDs
	if !strings.HasPrefix(msg.Identity, "derived:") {
		out.InReplyTo = msg.Identity
	}
	return out, nil
}
