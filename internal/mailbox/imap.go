package mailbox

import (
	"context"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/welldanyogia/webrana-support-assistant/internal/config"
)

// imapSession is a Session backed by go-imap v2
type imapSession struct {
	client *imapclient.Client
}

// OpenSession dials the configured server, logs in and selects the mailbox
// read-only. The caller must release the session with CloseSession.
func OpenSession(ctx context.Context, cfg config.IMAPConfig) (Session, error) {
	addr := cfg.Address()
	opts := clientOptions(cfg)

	var (
		client *imapclient.Client
		err    error
	)
	switch cfg.Security {
	case "none":
		client, err = imapclient.DialInsecure(addr, opts)
	case "starttls":
		client, err = imapclient.DialStartTLS(addr, opts)
	default:
		client, err = imapclient.DialTLS(addr, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	// Closing the connection unblocks any pending command
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("authentication failed for %s: %w", cfg.Username, err)
	}

	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := client.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	return &imapSession{client: client}, nil
}

// clientOptions bounds the TCP dial by cfg.Timeout. imapclient falls back to
// its own 30s dialer otherwise.
func clientOptions(cfg config.IMAPConfig) *imapclient.Options {
	if cfg.Timeout <= 0 {
		return nil
	}
	return &imapclient.Options{Dialer: &net.Dialer{Timeout: cfg.Timeout}}
}

// NewOpener returns an Opener bound to cfg. cfg.Timeout bounds the dial and
// login phase.
func NewOpener(cfg config.IMAPConfig) Opener {
	return func(ctx context.Context) (Session, error) {
		dialCtx := ctx
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		return OpenSession(dialCtx, cfg)
	}
}

func (s *imapSession) Search(ctx context.Context, criteria Criteria) ([]uint32, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.client.Close() })
	defer stop()

	search := searchCriteria(criteria, time.Now())
	data, err := s.client.UIDSearch(search, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	all := data.AllUIDs()
	uids := make([]uint32, len(all))
	for i, uid := range all {
		uids[i] = uint32(uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}

func (s *imapSession) FetchRaw(ctx context.Context, uids []uint32) ([]RawEnvelope, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	stop := context.AfterFunc(ctx, func() { _ = s.client.Close() })
	defer stop()

	set := make([]imap.UID, len(uids))
	for i, uid := range uids {
		set[i] = imap.UID(uid)
	}

	// Peek keeps the \Seen flag untouched
	section := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := s.client.Fetch(imap.UIDSetNum(set...), &imap.FetchOptions{
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{section},
	})
	defer fetchCmd.Close()

	var envelopes []RawEnvelope
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			env := RawEnvelope{Err: err}
			if buf != nil {
				env.UID = uint32(buf.UID)
			}
			envelopes = append(envelopes, env)
			continue
		}
		envelopes = append(envelopes, RawEnvelope{
			UID:          uint32(buf.UID),
			InternalDate: buf.InternalDate,
			Body:         buf.FindBodySection(section),
		})
	}

	if err := fetchCmd.Close(); err != nil {
		return envelopes, fmt.Errorf("fetching messages: %w", err)
	}
	return envelopes, nil
}

func (s *imapSession) Close() error {
	logoutErr := s.client.Logout().Wait()
	closeErr := s.client.Close()
	if logoutErr != nil {
		return fmt.Errorf("logout: %w", logoutErr)
	}
	return closeErr
}

// searchCriteria translates Criteria into an IMAP SEARCH
func searchCriteria(c Criteria, now time.Time) *imap.SearchCriteria {
	search := &imap.SearchCriteria{}
	if c.Since > 0 {
		search.Since = now.Add(-c.Since)
	}
	if c.UnseenOnly {
		search.NotFlag = []imap.Flag{imap.FlagSeen}
	}
	if len(c.Keywords) > 0 {
		subject := subjectCriteria(c.Keywords)
		search.And(&subject)
	}
	return search
}

// subjectCriteria ORs a SUBJECT match for every keyword
func subjectCriteria(keywords []string) imap.SearchCriteria {
	first := imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: keywords[0]}},
	}
	if len(keywords) == 1 {
		return first
	}
	return imap.SearchCriteria{
		Or: [][2]imap.SearchCriteria{{first, subjectCriteria(keywords[1:])}},
	}
}
