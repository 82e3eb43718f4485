package fixtures

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"

	"github.com/welldanyogia/webrana-support-assistant/internal/config"
)

// Sink limits, kept close to what a real submission server enforces
const (
	sinkMaxMessageBytes = 1024 * 1024
	sinkMaxRecipients   = 10
	sinkTimeout         = 5 * time.Second
)

// CapturedMail is one message accepted by an SMTPSink
type CapturedMail struct {
	From string
	To   []string
	Data []byte
}

// SMTPSink is an in-process SMTP server that keeps every accepted message
type SMTPSink struct {
	mu     sync.Mutex
	mails  []CapturedMail
	reject *smtp.SMTPError
}

// StartSMTPSink listens on a loopback port and returns the sink together
// with a plaintext SMTPConfig pointing at it. The server is closed when the
// test ends.
func StartSMTPSink(t testing.TB) (*SMTPSink, config.SMTPConfig) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	sink := &SMTPSink{}
	server := smtp.NewServer(sink)
	server.Domain = "localhost"
	server.AllowInsecureAuth = true
	server.MaxMessageBytes = sinkMaxMessageBytes
	server.MaxRecipients = sinkMaxRecipients
	server.ReadTimeout = sinkTimeout
	server.WriteTimeout = sinkTimeout

	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = server.Close() })

	return sink, config.SMTPConfig{
		Host:        "127.0.0.1",
		Port:        ln.Addr().(*net.TCPAddr).Port,
		Security:    "none",
		From:        "support@webrana.id",
		FromName:    "Customer Support",
		SendTimeout: sinkTimeout,
	}
}

// RejectWith makes every following RCPT fail with a transient 451. Pass
// false to accept mail again.
func (s *SMTPSink) RejectWith(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !reject {
		s.reject = nil
		return
	}
	s.reject = &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 3, 0},
		Message:      "Temporary error",
	}
}

// Received returns a copy of the accepted messages
func (s *SMTPSink) Received() []CapturedMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CapturedMail(nil), s.mails...)
}

// NewSession implements smtp.Backend
func (s *SMTPSink) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &sinkSession{sink: s}, nil
}

func (s *SMTPSink) rejection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject == nil {
		return nil
	}
	return s.reject
}

type sinkSession struct {
	sink *SMTPSink
	from string
	to   []string
}

func (s *sinkSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *sinkSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if err := s.sink.rejection(); err != nil {
		return err
	}
	s.to = append(s.to, to)
	return nil
}

func (s *sinkSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.sink.mu.Lock()
	s.sink.mails = append(s.sink.mails, CapturedMail{From: s.from, To: s.to, Data: data})
	s.sink.mu.Unlock()
	return nil
}

func (s *sinkSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *sinkSession) Logout() error { return nil }
