package pipeline

import (
	"context"
	"time"

	"github.com/welldanyogia/webrana-support-assistant/internal/classifier"
	"github.com/welldanyogia/webrana-support-assistant/internal/composer"
	"github.com/welldanyogia/webrana-support-assistant/internal/dispatch"
	"github.com/welldanyogia/webrana-support-assistant/internal/mailbox"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

// Stage is the step a cycle is in, or ended in
type Stage string

const (
	StageIdle          Stage = "idle"
	StageFetching      Stage = "fetching"
	StageDeduplicating Stage = "deduplicating"
	StageEnriching     Stage = "enriching"
	StagePersisting    Stage = "persisting"
	StageDispatching   Stage = "dispatching"
	StageDone          Stage = "done"
	StageAborted       Stage = "aborted"
)

// CycleResult summarizes one ingestion cycle
type CycleResult struct {
	Processed  int           `json:"processed"`
	New        int           `json:"new"`
	Skipped    int           `json:"skipped"`
	Dispatched int           `json:"dispatched"`
	Errors     []error       `json:"-"`
	Partial    bool          `json:"partial"`
	Stage      Stage         `json:"stage"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// ErrorMessages returns the text of every recorded error
func (r CycleResult) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

// EventType names a notification published to an EventSink
type EventType string

const (
	EventMessageCreated   EventType = "message.created"
	EventMessageResponded EventType = "message.responded"
	EventMessageResolved  EventType = "message.resolved"
	EventMessageUpdated   EventType = "message.updated"
	EventCycleCompleted   EventType = "cycle.completed"
)

// Event is a change notification
type Event struct {
	Type      EventType   `json:"type"`
	MessageID uint        `json:"message_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	At        time.Time   `json:"at"`
}

// EventSink receives change notifications. Publish must not block.
type EventSink interface {
	Publish(ctx context.Context, event Event)
}

// Fetcher returns candidate messages from the mailbox
type Fetcher interface {
	FetchCandidates(ctx context.Context, criteria mailbox.Criteria) ([]mailbox.RawMessage, []error, error)
}

// Classifier enriches a message with category, sentiment and priority
type Classifier interface {
	Classify(ctx context.Context, in classifier.Input) classifier.Result
}

// Composer drafts a reply
type Composer interface {
	Compose(ctx context.Context, req composer.Request) composer.Draft
}

// Store is the persistence used by the ingestion cycle
type Store interface {
	ExistingIdentities(ctx context.Context, identities []string) (map[string]bool, error)
	InsertIfAbsent(ctx context.Context, message *models.SupportMessage) (bool, error)
}

// Dispatcher sends a reply for a stored message
type Dispatcher interface {
	Send(ctx context.Context, id uint, override *string) (dispatch.Result, error)
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) {}
