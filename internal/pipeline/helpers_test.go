package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/welldanyogia/webrana-support-assistant/internal/classifier"
	"github.com/welldanyogia/webrana-support-assistant/internal/composer"
	"github.com/welldanyogia/webrana-support-assistant/internal/database"
	"github.com/welldanyogia/webrana-support-assistant/internal/dispatch"
	"github.com/welldanyogia/webrana-support-assistant/internal/llm"
	"github.com/welldanyogia/webrana-support-assistant/internal/mailbox"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	url := fmt.Sprintf("sqlite://file:%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := database.Connect(url, database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, nil))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// fakeFetcher returns the same candidates on every call
type fakeFetcher struct {
	mu       sync.Mutex
	messages []mailbox.RawMessage
	skipped  []error
	err      error
	calls    int
	// block, when set, is waited on before returning
	block   chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) FetchCandidates(ctx context.Context, criteria mailbox.Criteria) ([]mailbox.RawMessage, []error, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	return f.messages, f.skipped, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Send(ctx context.Context, id uint, override *string) (dispatch.Result, error) {
	args := m.Called(ctx, id, override)
	return args.Get(0).(dispatch.Result), args.Error(1)
}

// recordingSink keeps every published event
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(ctx context.Context, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) count(t EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// stubModel answers every priority question the same way
type stubModel struct {
	priority models.Priority
	err      error
}

func (m stubModel) ClassifyPriority(ctx context.Context, text string) (models.Priority, error) {
	return m.priority, m.err
}

// slowClassifier waits for cancellation before answering
type slowClassifier struct{}

func (slowClassifier) Classify(ctx context.Context, in classifier.Input) classifier.Result {
	<-ctx.Done()
	return classifier.Result{Priority: models.PriorityNormal}
}

// failingGenerator never produces a draft. With wait set it blocks until
// the generation timeout instead of failing right away.
type failingGenerator struct {
	err  error
	wait bool
}

func (g failingGenerator) Generate(ctx context.Context, prompt llm.Prompt, opts llm.Options) (string, error) {
	if g.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "", g.err
}

func raw(identity, subject, body string, sentAt time.Time) mailbox.RawMessage {
	return mailbox.RawMessage{
		Identity: identity,
		Sender:   "customer@example.com",
		Subject:  subject,
		Body:     body,
		SentAt:   sentAt,
	}
}

type harness struct {
	db         *gorm.DB
	messages   repository.MessageRepository
	knowledge  repository.KnowledgeRepository
	fetcher    *fakeFetcher
	dispatcher *mockDispatcher
	sink       *recordingSink
	pipeline   *Pipeline
	service    *Service
}

func newHarness(t *testing.T, fetcher *fakeFetcher, opts Options) *harness {
	t.Helper()
	return newHarnessWithGenerator(t, fetcher, opts, nil)
}

func newHarnessWithGenerator(t *testing.T, fetcher *fakeFetcher, opts Options, gen llm.Generator) *harness {
	t.Helper()
	db := openTestDB(t)
	h := &harness{
		db:         db,
		messages:   repository.NewMessageRepository(db),
		knowledge:  repository.NewKnowledgeRepository(db),
		fetcher:    fetcher,
		dispatcher: new(mockDispatcher),
		sink:       &recordingSink{},
	}
	h.pipeline = New(Deps{
		Fetcher:    fetcher,
		Classifier: classifier.New(nil, 0, nil),
		Composer:   composer.New(gen, h.knowledge, composer.Options{GenerateTimeout: 50 * time.Millisecond}, nil),
		Store:      h.messages,
		Dispatcher: h.dispatcher,
		Events:     h.sink,
	}, opts, nil)
	h.service = NewService(h.pipeline, h.messages, h.knowledge, h.dispatcher, h.sink, nil)
	return h
}

func (h *harness) count(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&models.SupportMessage{}).Count(&n).Error)
	return n
}

func (h *harness) byIdentity(t *testing.T, identity string) *models.SupportMessage {
	t.Helper()
	msg, err := h.messages.GetByIdentity(context.Background(), identity)
	require.NoError(t, err)
	return msg
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ExistingIdentities(ctx context.Context, identities []string) (map[string]bool, error) {
	args := m.Called(ctx, identities)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockStore) InsertIfAbsent(ctx context.Context, message *models.SupportMessage) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}
