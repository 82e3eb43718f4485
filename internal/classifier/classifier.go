package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

// DefaultModelTimeout bounds a single fallback priority call
const DefaultModelTimeout = 5 * time.Second

// PriorityModel decides urgency when no keyword matched
type PriorityModel interface {
	ClassifyPriority(ctx context.Context, text string) (models.Priority, error)
}

// Input is the message content the classifier looks at
type Input struct {
	Identity string
	Sender   string
	Subject  string
	Body     string
}

// Result bundles every classification output for one message
type Result struct {
	Category       models.Category
	Sentiment      models.Sentiment
	Priority       models.Priority
	PrioritySource models.PrioritySource
	Info           models.ExtractedInfo
	// Fallback is set when the model branch failed and priority defaulted
	// to normal. It is informational only.
	Fallback error
}

// Classifier derives category, sentiment, priority and extracted info
type Classifier struct {
	model   PriorityModel
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Classifier. model may be nil, in which case messages that
// miss the keyword list default to normal priority.
func New(model PriorityModel, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{model: model, timeout: timeout, logger: logger}
}

// Priority returns the priority of text and how it was decided. A non-nil
// error means the model branch failed and normal was assumed; callers log it
// and carry on.
func (c *Classifier) Priority(ctx context.Context, identity, text string) (models.Priority, models.PrioritySource, error) {
	switch d := DecidePriority(text).(type) {
	case FastPathMatch:
		c.logger.Debug("priority decided by keyword",
			slog.String("identity", identity),
			slog.String("keyword", d.Keyword))
		return models.PriorityUrgent, models.PrioritySourceKeyword, nil
	case FallbackNeeded:
		return c.fallback(ctx, identity, text)
	default:
		return models.PriorityNormal, models.PrioritySourceDefault, nil
	}
}

func (c *Classifier) fallback(ctx context.Context, identity, text string) (models.Priority, models.PrioritySource, error) {
	if c.model == nil {
		return models.PriorityNormal, models.PrioritySourceDefault, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	p, err := c.model.ClassifyPriority(callCtx, text)
	if err != nil {
		return models.PriorityNormal, models.PrioritySourceDefault,
			apperrors.NewClassificationFallbackError(identity, err)
	}
	if !p.Valid() {
		return models.PriorityNormal, models.PrioritySourceDefault,
			apperrors.NewClassificationFallbackError(identity, fmt.Errorf("model returned unknown priority %q", p))
	}
	return p, models.PrioritySourceModel, nil
}

// Classify runs every classifier over in. It never fails; a model failure
// is reported through Result.Fallback.
func (c *Classifier) Classify(ctx context.Context, in Input) Result {
	text := in.Subject + " " + in.Body

	priority, source, err := c.Priority(ctx, in.Identity, text)
	if err != nil {
		c.logger.Warn("priority fallback, defaulting to normal",
			slog.String("identity", in.Identity),
			slog.Any("error", err))
	}

	return Result{
		Category:       Categorize(in.Subject),
		Sentiment:      Sentiment(text),
		Priority:       priority,
		PrioritySource: source,
		Info:           ExtractInfo(in.Body, ExtractOptions{ExcludeEmails: []string{in.Sender}}),
		Fallback:       err,
	}
}
