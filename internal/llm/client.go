// Package llm wraps the text generation backend used for priority fallback
// and reply drafting.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/welldanyogia/webrana-support-assistant/internal/config"
)

// Provider names accepted in LLM_PROVIDER
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

const defaultOllamaURL = "http://localhost:11434"

var (
	// ErrDisabled is returned by New when the provider is "none"
	ErrDisabled = errors.New("llm provider disabled")
	// ErrEmptyResponse means the backend answered without any text
	ErrEmptyResponse = errors.New("llm returned empty response")
)

// Prompt is a two part chat prompt
type Prompt struct {
	System string
	User   string
}

// Options tune a single generation call
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt Prompt, opts Options) (string, error)
}

// Client talks to a langchaingo model, throttled by a token bucket shared
// by every caller
type Client struct {
	model    llms.Model
	limiter  *rate.Limiter
	defaults Options
	logger   *slog.Logger
}

// New creates a Client for the configured provider
func New(cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithModel(model, cfg, logger), nil
}

// NewWithModel wraps an existing model. Useful for tests and custom backends.
func NewWithModel(model llms.Model, cfg config.LLMConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
		burst = max(1, cfg.RequestsPerMinute/10)
	}
	return &Client{
		model:   model,
		limiter: rate.NewLimiter(limit, burst),
		defaults: Options{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		logger: logger,
	}
}

func newModel(cfg config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(opts...)
	case ProviderOllama:
		serverURL := cfg.BaseURL
		if serverURL == "" {
			serverURL = defaultOllamaURL
		}
		return ollama.New(
			ollama.WithServerURL(serverURL),
			ollama.WithModel(cfg.Model),
		)
	case ProviderNone, "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// Generate sends prompt to the model and returns the trimmed text of the
// first choice. Zero values in opts fall back to the configured defaults.
func (c *Client) Generate(ctx context.Context, prompt Prompt, opts Options) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait: %w", err)
	}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = c.defaults.MaxTokens
	}

	messages := make([]llms.MessageContent, 0, 2)
	if prompt.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt.User))

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("llm generation completed",
		slog.Int("response_length", len(text)),
		slog.String("stop_reason", resp.Choices[0].StopReason))

	return text, nil
}
