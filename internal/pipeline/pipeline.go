// Package pipeline runs the ingestion cycle: fetch, deduplicate, enrich,
// persist and auto-dispatch. It also exposes the operations used by the API.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/welldanyogia/webrana-support-assistant/internal/classifier"
	"github.com/welldanyogia/webrana-support-assistant/internal/composer"
	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
	"github.com/welldanyogia/webrana-support-assistant/internal/mailbox"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

// Defaults for Options
const (
	DefaultWorkers       = 4
	DefaultCycleDeadline = 4 * time.Minute
)

// Options configures a Pipeline
type Options struct {
	Criteria      mailbox.Criteria
	Workers       int
	CycleDeadline time.Duration
	AutoDispatch  bool
}

// Deps are the collaborators of a Pipeline. Events may be nil.
type Deps struct {
	Fetcher    Fetcher
	Classifier Classifier
	Composer   Composer
	Store      Store
	Dispatcher Dispatcher
	Events     EventSink
}

// Pipeline runs ingestion cycles. At most one cycle runs at a time.
type Pipeline struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	running sync.Mutex

	stageMu sync.RWMutex
	stage   Stage

	lastMu sync.RWMutex
	last   *CycleStatus
}

// CycleStatus is the outcome of a finished cycle
type CycleStatus struct {
	Result CycleResult
	Err    error
}

// New creates a Pipeline
func New(deps Deps, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.CycleDeadline <= 0 {
		opts.CycleDeadline = DefaultCycleDeadline
	}
	if deps.Events == nil {
		deps.Events = nopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{deps: deps, opts: opts, logger: logger, now: time.Now, stage: StageIdle}
}

// enriched is a classified and drafted message not yet stored
type enriched struct {
	msg   *models.SupportMessage
	notes []error
}

// persisted is an inserted message waiting for auto-dispatch
type persisted struct {
	id       uint
	identity string
	priority models.Priority
}

// RunCycle runs one ingestion cycle. It returns ErrCycleInProgress right
// away when another cycle is running. When the cycle deadline fires,
// unfinished enrichment is abandoned and the result is marked Partial with
// a nil error. Only persistence failures are returned as errors.
func (p *Pipeline) RunCycle(ctx context.Context) (CycleResult, error) {
	if !p.running.TryLock() {
		return CycleResult{Stage: StageAborted}, apperrors.ErrCycleInProgress
	}
	defer p.running.Unlock()

	result := CycleResult{StartedAt: p.now().UTC()}
	result, err := p.runCycle(ctx, result)
	result.Duration = p.now().Sub(result.StartedAt)
	p.setStage(nil, StageIdle)

	p.recordLast(result, err)
	p.logCycle(result, err)
	p.deps.Events.Publish(ctx, Event{Type: EventCycleCompleted, Data: result, At: p.now().UTC()})
	return result, err
}

func (p *Pipeline) runCycle(ctx context.Context, result CycleResult) (CycleResult, error) {
	cycleCtx, cancel := context.WithTimeout(ctx, p.opts.CycleDeadline)
	defer cancel()

	p.setStage(&result, StageFetching)
	candidates, skipped, err := p.deps.Fetcher.FetchCandidates(cycleCtx, p.opts.Criteria)
	if err != nil {
		if deadlineHit(ctx, cycleCtx) {
			result.Partial = true
			result.Stage = StageDone
			return result, nil
		}
		result.Stage = StageAborted
		result.Errors = append(result.Errors, err)
		return result, err
	}
	result.Errors = append(result.Errors, skipped...)
	result.Processed = len(candidates)

	p.setStage(&result, StageDeduplicating)
	fresh, dupes, err := p.dedupe(cycleCtx, candidates)
	if err != nil {
		if deadlineHit(ctx, cycleCtx) {
			result.Partial = true
			result.Stage = StageDone
			return result, nil
		}
		result.Stage = StageAborted
		result.Errors = append(result.Errors, err)
		return result, err
	}
	result.Skipped = dupes

	p.setStage(&result, StageEnriching)
	batch := p.enrich(cycleCtx, fresh)

	p.setStage(&result, StagePersisting)
	inserted, stored, err := p.persist(ctx, cycleCtx, batch)
	result.New = stored.New
	result.Skipped += stored.Skipped
	result.Errors = append(result.Errors, stored.Errors...)
	if err != nil {
		result.Stage = StageAborted
		return result, err
	}
	if deadlineHit(ctx, cycleCtx) && len(inserted)+stored.Skipped < len(fresh) {
		result.Partial = true
	}

	if p.opts.AutoDispatch && p.deps.Dispatcher != nil {
		p.setStage(&result, StageDispatching)
		for _, m := range inserted {
			if m.priority != models.PriorityUrgent {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			res, err := p.deps.Dispatcher.Send(ctx, m.id, nil)
			if err != nil {
				result.Errors = append(result.Errors, wrapDispatch(m.identity, err))
				continue
			}
			if !res.AlreadySent {
				result.Dispatched++
				p.deps.Events.Publish(ctx, Event{Type: EventMessageResponded, MessageID: m.id, Data: res, At: p.now().UTC()})
			}
		}
	}

	result.Stage = StageDone
	return result, nil
}

// dedupe drops candidates whose identity is already stored or repeats
// within the batch. It returns the fresh candidates and the number dropped.
func (p *Pipeline) dedupe(ctx context.Context, candidates []mailbox.RawMessage) ([]mailbox.RawMessage, int, error) {
	if len(candidates) == 0 {
		return nil, 0, nil
	}

	identities := make([]string, 0, len(candidates))
	for _, c := range candidates {
		identities = append(identities, c.Identity)
	}
	existing, err := p.deps.Store.ExistingIdentities(ctx, identities)
	if err != nil {
		return nil, 0, apperrors.NewPersistenceError("", err)
	}

	seen := make(map[string]bool, len(candidates))
	fresh := make([]mailbox.RawMessage, 0, len(candidates))
	dupes := 0
	for _, c := range candidates {
		if existing[c.Identity] || seen[c.Identity] {
			dupes++
			continue
		}
		seen[c.Identity] = true
		fresh = append(fresh, c)
	}
	return fresh, dupes, nil
}

// enrich classifies and composes fresh messages on a bounded worker pool.
// The result keeps the input order; entries still in flight when the
// deadline fires are left nil.
func (p *Pipeline) enrich(cycleCtx context.Context, fresh []mailbox.RawMessage) []*enriched {
	batch := make([]*enriched, len(fresh))

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, raw := range fresh {
		if cycleCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if cycleCtx.Err() != nil {
				return nil
			}
			msg, notes := p.enrichOne(cycleCtx, raw)
			if cycleCtx.Err() != nil {
				// abandoned
				return nil
			}
			batch[i] = &enriched{msg: msg, notes: notes}
			return nil
		})
	}
	_ = g.Wait()
	return batch
}

// persist inserts the enriched messages in order. Insert failures are
// fatal unless the cycle deadline caused them.
func (p *Pipeline) persist(parent, cycleCtx context.Context, batch []*enriched) ([]persisted, CycleResult, error) {
	var (
		inserted []persisted
		partial  CycleResult
	)
	for _, e := range batch {
		if e == nil {
			continue
		}
		if cycleCtx.Err() != nil {
			break
		}

		created, err := p.deps.Store.InsertIfAbsent(cycleCtx, e.msg)
		if err != nil {
			if deadlineHit(parent, cycleCtx) {
				break
			}
			err = apperrors.NewPersistenceError(e.msg.Identity, err)
			partial.Errors = append(partial.Errors, err)
			return inserted, partial, err
		}

		partial.Errors = append(partial.Errors, e.notes...)
		if !created {
			partial.Skipped++
			continue
		}
		partial.New++
		inserted = append(inserted, persisted{id: e.msg.ID, identity: e.msg.Identity, priority: e.msg.Priority})
		p.deps.Events.Publish(parent, Event{Type: EventMessageCreated, MessageID: e.msg.ID, Data: e.msg, At: p.now().UTC()})
	}
	return inserted, partial, nil
}

// enrichOne builds the record for raw. notes are the non-fatal failures
// that were absorbed by fallbacks.
func (p *Pipeline) enrichOne(ctx context.Context, raw mailbox.RawMessage) (*models.SupportMessage, []error) {
	var notes []error

	cls := p.deps.Classifier.Classify(ctx, classifier.Input{
		Identity: raw.Identity,
		Sender:   raw.Sender,
		Subject:  raw.Subject,
		Body:     raw.Body,
	})
	if cls.Fallback != nil {
		notes = append(notes, cls.Fallback)
	}

	draft := p.deps.Composer.Compose(ctx, composer.Request{
		Identity:  raw.Identity,
		Sender:    raw.Sender,
		Subject:   raw.Subject,
		Body:      raw.Body,
		Category:  cls.Category,
		Sentiment: cls.Sentiment,
		Priority:  cls.Priority,
	})
	if draft.Err != nil {
		notes = append(notes, draft.Err)
	}

	return &models.SupportMessage{
		Identity:       raw.Identity,
		SourceUID:      raw.UID,
		Sender:         raw.Sender,
		SenderName:     raw.SenderName,
		Subject:        raw.Subject,
		Body:           raw.Body,
		SentAt:         raw.SentAt,
		Category:       cls.Category,
		Sentiment:      cls.Sentiment,
		Priority:       cls.Priority,
		PrioritySource: cls.PrioritySource,
		ExtractedInfo:  datatypes.NewJSONType(cls.Info),
		DraftResponse:  draft.Text,
		DraftSource:    draft.Source,
		Status:         models.StatusPending,
	}, notes
}

// CurrentStage reports the stage of the running cycle, or StageIdle
func (p *Pipeline) CurrentStage() Stage {
	p.stageMu.RLock()
	defer p.stageMu.RUnlock()
	return p.stage
}

// setStage moves the live stage and, when given, the result's stage
func (p *Pipeline) setStage(result *CycleResult, stage Stage) {
	if result != nil {
		result.Stage = stage
	}
	p.stageMu.Lock()
	p.stage = stage
	p.stageMu.Unlock()
}

// LastCycle returns the outcome of the most recent cycle, if any
func (p *Pipeline) LastCycle() (CycleStatus, bool) {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	if p.last == nil {
		return CycleStatus{}, false
	}
	return *p.last, true
}

func (p *Pipeline) recordLast(result CycleResult, err error) {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	p.last = &CycleStatus{Result: result, Err: err}
}

func (p *Pipeline) logCycle(result CycleResult, err error) {
	attrs := []any{
		slog.Int("processed", result.Processed),
		slog.Int("new", result.New),
		slog.Int("skipped", result.Skipped),
		slog.Int("dispatched", result.Dispatched),
		slog.Int("errors", len(result.Errors)),
		slog.Bool("partial", result.Partial),
		slog.String("stage", string(result.Stage)),
		slog.Duration("duration", result.Duration),
	}
	if err != nil {
		p.logger.Error("ingestion cycle failed", append(attrs, slog.Any("error", err))...)
		return
	}
	p.logger.Info("ingestion cycle completed", attrs...)
}

// deadlineHit reports whether cycleCtx ended because of the cycle deadline
// rather than cancellation of the parent
func deadlineHit(parent, cycleCtx context.Context) bool {
	return parent.Err() == nil && errors.Is(cycleCtx.Err(), context.DeadlineExceeded)
}

func wrapDispatch(identity string, err error) error {
	if apperrors.GetStageError(err) != nil {
		return err
	}
	return apperrors.NewDispatchError(identity, err)
}
