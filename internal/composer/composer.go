// Package composer drafts replies to support messages, using knowledge base
// context and a text generator, with category templates as the fallback.
package composer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
	"github.com/welldanyogia/webrana-support-assistant/internal/llm"
	"github.com/welldanyogia/webrana-support-assistant/internal/logger"
	"github.com/welldanyogia/webrana-support-assistant/internal/models"
)

// Defaults for reply generation
const (
	DefaultGenerateTimeout = 20 * time.Second
	DefaultMaxTokens       = 500
	DefaultTemperature     = 0.7
	KnowledgeLimit         = 3
)

var errBlankDraft = errors.New("generator returned blank draft")

// KnowledgeSearcher finds knowledge entries relevant to a message
type KnowledgeSearcher interface {
	SearchByKeywords(ctx context.Context, words []string, limit int) ([]models.KnowledgeEntry, error)
	TouchUsage(ctx context.Context, ids []uint, at time.Time) error
}

// Request carries the message and its classification
type Request struct {
	Identity  string
	Sender    string
	Subject   string
	Body      string
	Category  models.Category
	Sentiment models.Sentiment
	Priority  models.Priority
}

// Draft is the composed reply. Text is never empty.
type Draft struct {
	Text   string
	Source models.DraftSource
	// Err is the generation failure that caused a template fallback
	Err error
}

// Options configures a Composer
type Options struct {
	GenerateTimeout time.Duration
	MaxTokens       int
	Temperature     float64
}

// Composer builds reply drafts
type Composer struct {
	generator llm.Generator
	knowledge KnowledgeSearcher
	opts      Options
	logger    *slog.Logger
}

// New creates a Composer. generator and knowledge may be nil; without a
// generator every draft comes from the category templates.
func New(generator llm.Generator, knowledge KnowledgeSearcher, opts Options, log *slog.Logger) *Composer {
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = DefaultGenerateTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if log == nil {
		log = slog.Default()
	}
	return &Composer{
		generator: generator,
		knowledge: knowledge,
		opts:      opts,
		logger:    log,
	}
}

// Compose drafts a reply for req. It does not fail: when generation errors
// or yields blank text the category template is returned.
func (c *Composer) Compose(ctx context.Context, req Request) Draft {
	if c.generator == nil {
		return c.templateDraft(req, nil)
	}

	knowledge := c.retrieveKnowledge(ctx, req)

	prompt, err := BuildPrompt(req, knowledge)
	if err != nil {
		return c.templateDraft(req, err)
	}

	genCtx, cancel := context.WithTimeout(ctx, c.opts.GenerateTimeout)
	defer cancel()

	text, err := c.generator.Generate(genCtx, prompt, llm.Options{
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return c.templateDraft(req, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return c.templateDraft(req, errBlankDraft)
	}

	c.logger.Debug("draft generated",
		slog.String("identity", req.Identity),
		slog.Int("knowledge_entries", len(knowledge)),
		slog.Int("draft_length", len(text)),
		slog.String("draft_snippet", logger.Snippet(text, 80)))

	return Draft{Text: text, Source: models.DraftSourceModel}
}

func (c *Composer) templateDraft(req Request, cause error) Draft {
	var genErr error
	if cause != nil {
		genErr = apperrors.NewGenerationError(req.Identity, cause)
		c.logger.Warn("reply generation failed, using template",
			slog.String("identity", req.Identity),
			slog.String("category", string(req.Category)),
			slog.Any("error", cause))
	}
	return Draft{
		Text:   Template(req.Category),
		Source: models.DraftSourceTemplate,
		Err:    genErr,
	}
}

// retrieveKnowledge looks up entries matching the body and bumps their
// usage counters. Failures only cost context.
func (c *Composer) retrieveKnowledge(ctx context.Context, req Request) []models.KnowledgeEntry {
	if c.knowledge == nil {
		return nil
	}

	entries, err := c.knowledge.SearchByKeywords(ctx, Keywords(req.Body), KnowledgeLimit)
	if err != nil {
		c.logger.Warn("knowledge lookup failed",
			slog.String("identity", req.Identity),
			slog.Any("error", err))
		return nil
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := c.knowledge.TouchUsage(ctx, ids, time.Now().UTC()); err != nil {
		c.logger.Warn("failed to record knowledge usage",
			slog.String("identity", req.Identity),
			slog.Any("error", err))
	}
	return entries
}

// Keywords splits text into unique lowercase word tokens
func Keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r > 127)
	})
	seen := make(map[string]bool, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		words = append(words, f)
	}
	return words
}
