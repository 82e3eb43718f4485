package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// Logging
	LogLevel  string
	LogFormat string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	IMAP     IMAPConfig
	SMTP     SMTPConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// IMAPConfig describes the inbound support mailbox
type IMAPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Security   string // tls, starttls or none
	Mailbox    string
	SinceDays  int
	Keywords   []string
	FetchLimit int
	Timeout    time.Duration
}

// Address returns host:port
func (c IMAPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPConfig describes the outbound transport used for replies
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	Security      string // tls, starttls or none
	From          string
	FromName      string
	SendTimeout   time.Duration
	RatePerMinute int
}

// Address returns host:port
func (c SMTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LLMConfig selects the generation backend
type LLMConfig struct {
	Provider          string // openai, ollama, anthropic or none
	Model             string
	APIKey            string
	BaseURL           string
	ClassifyTimeout   time.Duration
	GenerateTimeout   time.Duration
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
}

// PipelineConfig controls ingestion scheduling and concurrency
type PipelineConfig struct {
	SchedulerEnabled bool
	PollInterval     time.Duration
	CycleDeadline    time.Duration
	Workers          int
	AutoDispatch     bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	env := newEnvReader()
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = env.str("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	cfg.APIPort = env.int("API_PORT", 8080)
	cfg.LogLevel = env.str("LOG_LEVEL", "info")
	cfg.LogFormat = env.str("LOG_FORMAT", "json")

	cfg.APIKey = env.str("API_KEY", "")
	cfg.AllowedOrigins = env.str("ALLOWED_ORIGINS", "")
	cfg.AppEnv = env.str("APP_ENV", "development")
	cfg.RateLimitRequests = env.float("RATE_LIMIT_REQUESTS", 10.0)
	cfg.RateLimitBurst = env.int("RATE_LIMIT_BURST", 20)

	cfg.IMAP = IMAPConfig{
		Host:       env.str("IMAP_HOST", ""),
		Port:       env.int("IMAP_PORT", 993),
		Username:   env.str("IMAP_USERNAME", ""),
		Password:   env.str("IMAP_PASSWORD", ""),
		Security:   strings.ToLower(env.str("IMAP_SECURITY", "tls")),
		Mailbox:    env.str("IMAP_MAILBOX", "INBOX"),
		SinceDays:  env.int("IMAP_SINCE_DAYS", 7),
		Keywords:   env.list("IMAP_SUBJECT_KEYWORDS", []string{"support", "query", "request", "help"}),
		FetchLimit: env.int("IMAP_FETCH_LIMIT", 100),
		Timeout:    env.duration("IMAP_TIMEOUT", 30*time.Second),
	}

	cfg.SMTP = SMTPConfig{
		Host:          env.str("SMTP_HOST", ""),
		Port:          env.int("SMTP_PORT", 587),
		Username:      env.str("SMTP_USERNAME", ""),
		Password:      env.str("SMTP_PASSWORD", ""),
		Security:      strings.ToLower(env.str("SMTP_SECURITY", "starttls")),
		From:          env.str("SMTP_FROM", ""),
		FromName:      env.str("SMTP_FROM_NAME", "Customer Support"),
		SendTimeout:   env.duration("SMTP_SEND_TIMEOUT", 30*time.Second),
		RatePerMinute: env.int("SMTP_RATE_PER_MINUTE", 30),
	}
	if cfg.SMTP.Username == "" {
		cfg.SMTP.Username = cfg.IMAP.Username
	}
	if cfg.SMTP.Password == "" {
		cfg.SMTP.Password = cfg.IMAP.Password
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	cfg.LLM = LLMConfig{
		Provider:          strings.ToLower(env.str("LLM_PROVIDER", "openai")),
		Model:             env.str("LLM_MODEL", "gpt-3.5-turbo"),
		APIKey:            env.str("LLM_API_KEY", ""),
		BaseURL:           env.str("LLM_BASE_URL", ""),
		ClassifyTimeout:   env.duration("LLM_CLASSIFY_TIMEOUT", 5*time.Second),
		GenerateTimeout:   env.duration("LLM_GENERATE_TIMEOUT", 20*time.Second),
		MaxTokens:         env.int("LLM_MAX_TOKENS", 500),
		Temperature:       env.float("LLM_TEMPERATURE", 0.7),
		RequestsPerMinute: env.int("LLM_REQUESTS_PER_MINUTE", 60),
	}

	cfg.Pipeline = PipelineConfig{
		SchedulerEnabled: env.bool("SCHEDULER_ENABLED", true),
		PollInterval:     env.duration("POLL_INTERVAL", 5*time.Minute),
		CycleDeadline:    env.duration("CYCLE_DEADLINE", 4*time.Minute),
		Workers:          env.int("WORKER_COUNT", 4),
		AutoDispatch:     env.bool("AUTO_DISPATCH_URGENT", true),
	}

	if env.err != nil {
		return nil, env.err
	}
	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if err := validateSecurity("IMAP_SECURITY", c.IMAP.Security); err != nil {
		return err
	}
	if err := validateSecurity("SMTP_SECURITY", c.SMTP.Security); err != nil {
		return err
	}
	if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
		return fmt.Errorf("IMAP_PORT must be between 1 and 65535")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if c.IMAP.SinceDays <= 0 {
		return fmt.Errorf("IMAP_SINCE_DAYS must be positive")
	}
	if len(c.IMAP.Keywords) == 0 {
		return fmt.Errorf("IMAP_SUBJECT_KEYWORDS cannot be empty")
	}
	switch c.LLM.Provider {
	case "openai", "ollama", "anthropic", "none":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, ollama, anthropic, none")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	if c.LLM.ClassifyTimeout <= 0 || c.LLM.GenerateTimeout <= 0 {
		return fmt.Errorf("LLM timeouts must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	if c.Pipeline.PollInterval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s")
	}
	if c.Pipeline.CycleDeadline <= 0 {
		return fmt.Errorf("CYCLE_DEADLINE must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if c.IMAP.Security == "none" || c.SMTP.Security == "none" {
		return fmt.Errorf("plaintext mail connections are not allowed in production")
	}

	if c.IMAP.Host == "" || c.SMTP.Host == "" {
		return fmt.Errorf("IMAP_HOST and SMTP_HOST are required in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.String("imap_address", c.IMAP.Address()),
		slog.String("imap_security", c.IMAP.Security),
		slog.Any("imap_keywords", c.IMAP.Keywords),
		slog.String("smtp_address", c.SMTP.Address()),
		slog.String("smtp_security", c.SMTP.Security),
		slog.String("llm_provider", c.LLM.Provider),
		slog.String("llm_model", c.LLM.Model),
		slog.Bool("llm_api_key_set", c.LLM.APIKey != ""),
		slog.Duration("poll_interval", c.Pipeline.PollInterval),
		slog.Duration("cycle_deadline", c.Pipeline.CycleDeadline),
		slog.Int("workers", c.Pipeline.Workers),
		slog.Bool("auto_dispatch", c.Pipeline.AutoDispatch),
	)
}

func validateSecurity(name, value string) error {
	switch value {
	case "tls", "starttls", "none":
		return nil
	}
	return fmt.Errorf("%s must be one of tls, starttls, none", name)
}
