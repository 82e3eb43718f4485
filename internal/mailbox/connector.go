package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/welldanyogia/webrana-support-assistant/internal/errors"
)

var errEmptyBody = errors.New("server returned no message body")

// Connector fetches and parses candidate messages
type Connector struct {
	open   Opener
	logger *slog.Logger
	now    func() time.Time
}

// NewConnector creates a Connector that opens sessions with open
func NewConnector(open Opener, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{open: open, logger: logger, now: time.Now}
}

// FetchCandidates returns the parsed messages matching criteria. Messages
// that fail to parse are skipped and reported in the second return value.
// A session, auth or network failure aborts the fetch with a connection
// error.
func (c *Connector) FetchCandidates(ctx context.Context, criteria Criteria) ([]RawMessage, []error, error) {
	var (
		messages  []RawMessage
		skipped   []error
		envelopes []RawEnvelope
	)

	err := WithSession(ctx, c.open, func(s Session) error {
		uids, err := s.Search(ctx, criteria)
		if err != nil {
			return err
		}
		// keep the most recent when over the limit
		if criteria.Limit > 0 && len(uids) > criteria.Limit {
			uids = uids[len(uids)-criteria.Limit:]
		}
		envelopes, err = s.FetchRaw(ctx, uids)
		return err
	})
	if err != nil {
		return nil, nil, apperrors.NewConnectionError(apperrors.StageFetch, err)
	}

	for _, env := range envelopes {
		msg, err := c.parse(env)
		if err != nil {
			skipped = append(skipped, err)
			c.logger.Warn("skipping unparseable message",
				slog.Uint64("uid", uint64(env.UID)),
				slog.Any("error", err))
			continue
		}
		if !matchesKeywords(msg.Subject, criteria.Keywords) {
			continue
		}
		messages = append(messages, *msg)
	}

	c.logger.Info("mailbox fetch completed",
		slog.Int("fetched", len(envelopes)),
		slog.Int("candidates", len(messages)),
		slog.Int("skipped", len(skipped)))

	return messages, skipped, nil
}

func (c *Connector) parse(env RawEnvelope) (*RawMessage, error) {
	uidRef := fmt.Sprintf("uid:%d", env.UID)
	if env.Err != nil {
		return nil, apperrors.NewParseError(uidRef, env.Err)
	}
	if len(env.Body) == 0 {
		return nil, apperrors.NewParseError(uidRef, errEmptyBody)
	}

	msg, err := ParseMessage(env.Body)
	if err != nil {
		return nil, apperrors.NewParseError(uidRef, err)
	}

	msg.UID = env.UID
	msg.SentAt = resolveSentAt(msg.SentAt, env.InternalDate, c.now)
	msg.Identity = DeriveIdentity(msg.MessageID, msg.Sender, msg.Subject, msg.SentAt)
	return msg, nil
}

// matchesKeywords reports whether subject contains any keyword, ignoring
// case. No keywords matches everything.
func matchesKeywords(subject string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(subject)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
