package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"golang.org/x/time/rate"

	"github.com/welldanyogia/webrana-support-assistant/internal/config"
)

// Transport delivers an outbound reply
type Transport interface {
	Send(ctx context.Context, m OutboundMail) error
}

// SMTPTransport sends replies through an SMTP submission server. Each send
// uses its own connection.
type SMTPTransport struct {
	cfg     config.SMTPConfig
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewSMTPTransport creates an SMTPTransport throttled to
// cfg.RatePerMinute messages
func NewSMTPTransport(cfg config.SMTPConfig, logger *slog.Logger) *SMTPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60.0)
	}
	return &SMTPTransport{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		now:     time.Now,
	}
}

// Send renders m and submits it
func (t *SMTPTransport) Send(ctx context.Context, m OutboundMail) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("smtp rate limit wait: %w", err)
	}

	if t.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.SendTimeout)
		defer cancel()
	}

	from := Sender{Address: t.cfg.From, Name: t.cfg.FromName}
	messageID := NewMessageID(from.Address)
	raw, err := RenderMessage(from, m, messageID, t.now())
	if err != nil {
		return err
	}

	c, err := t.dial()
	if err != nil {
		return fmt.Errorf("connecting to SMTP %s: %w", t.cfg.Address(), err)
	}
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if t.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)); err != nil {
			return fmt.Errorf("smtp auth failed for %s: %w", t.cfg.Username, err)
		}
	}

	if err := c.SendMail(from.Address, []string{m.To}, bytes.NewReader(raw)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("smtp send: %w", ctx.Err())
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	if err := c.Quit(); err != nil {
		t.logger.Debug("smtp quit failed", slog.Any("error", err))
	}

	t.logger.Info("reply sent",
		slog.String("to", m.To),
		slog.String("message_id", messageID),
		slog.Int("size", len(raw)))
	return nil
}

func (t *SMTPTransport) dial() (*smtp.Client, error) {
	addr := t.cfg.Address()
	tlsConfig := &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
	switch t.cfg.Security {
	case "tls":
		return smtp.DialTLS(addr, tlsConfig)
	case "none":
		return smtp.Dial(addr)
	default:
		return smtp.DialStartTLS(addr, tlsConfig)
	}
}
