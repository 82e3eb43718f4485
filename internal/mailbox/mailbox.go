// Package mailbox reads candidate support messages from the inbound IMAP
// mailbox. Sessions are short lived: one is opened per fetch and always
// released before returning.
package mailbox

import (
	"context"
	"time"
)

// Default search criteria
const (
	DefaultSince = 7 * 24 * time.Hour
	DefaultLimit = 100
)

// DefaultKeywords are the subject words that mark a support message
var DefaultKeywords = []string{"support", "query", "request", "help"}

// Criteria selects candidate messages
type Criteria struct {
	Since      time.Duration
	Keywords   []string
	UnseenOnly bool
	Limit      int
}

// DefaultCriteria returns the standard candidate filter
func DefaultCriteria() Criteria {
	return Criteria{
		Since:      DefaultSince,
		Keywords:   DefaultKeywords,
		UnseenOnly: true,
		Limit:      DefaultLimit,
	}
}

// RawEnvelope is an unparsed message as returned by a session
type RawEnvelope struct {
	UID          uint32
	InternalDate time.Time
	Body         []byte
	// Err is set when the server response for this message could not be read
	Err error
}

// RawMessage is a parsed candidate message
type RawMessage struct {
	Identity   string
	UID        uint32
	MessageID  string
	Sender     string
	SenderName string
	Subject    string
	Body       string
	SentAt     time.Time
}

// Session is an open, authenticated mailbox connection
type Session interface {
	Search(ctx context.Context, criteria Criteria) ([]uint32, error)
	FetchRaw(ctx context.Context, uids []uint32) ([]RawEnvelope, error)
	Close() error
}

// Opener opens a new Session
type Opener func(ctx context.Context) (Session, error)

// CloseSession releases s. A nil session is a no-op.
func CloseSession(s Session) error {
	if s == nil {
		return nil
	}
	return s.Close()
}

// WithSession opens a session, runs fn with it and closes it again, also
// when fn returns an error or panics. A close failure is returned only if fn
// succeeded.
func WithSession(ctx context.Context, open Opener, fn func(Session) error) (err error) {
	s, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := CloseSession(s); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(s)
}
