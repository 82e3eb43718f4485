package mailbox

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

var (
	scriptPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// ParseMessage parses an RFC 5322 message. SentAt is zero when the Date
// header is missing or unparseable; the caller supplies a fallback.
func ParseMessage(raw []byte) (*RawMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg := &RawMessage{
		MessageID: strings.TrimSpace(env.GetHeader("Message-ID")),
		Subject:   strings.TrimSpace(env.GetHeader("Subject")),
	}

	msg.SenderName, msg.Sender = senderFromEnvelope(env)
	if msg.Sender == "" {
		return nil, fmt.Errorf("message has no sender address")
	}

	if date, err := env.Date(); err == nil {
		msg.SentAt = date.UTC()
	}

	text := env.Text
	if !hasPlainPart(env) {
		// enmime down-converts HTML on its own; use our stripper instead
		text = ""
	}
	msg.Body = bodyText(text, env.HTML)

	return msg, nil
}

func senderFromEnvelope(env *enmime.Envelope) (name, email string) {
	addrs, err := env.AddressList("From")
	if err == nil && len(addrs) > 0 {
		return addrs[0].Name, strings.ToLower(addrs[0].Address)
	}
	name, email = parseFromHeader(env.GetHeader("From"))
	return name, strings.ToLower(email)
}

var (
	angledFromPattern = regexp.MustCompile(`^(?:"?([^"<]*?)"?\s*)?<([^<>\s]+@[^<>\s]+)>$`)
	bareFromPattern   = regexp.MustCompile(`^(?:(.*?)\s+)?([^<>\s"]+@[^<>\s"]+)$`)
)

// parseFromHeader is the lenient fallback for From headers that net/mail
// rejects. The address is always the whole angle-bracketed or last token.
func parseFromHeader(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	matches := angledFromPattern.FindStringSubmatch(from)
	if matches == nil {
		matches = bareFromPattern.FindStringSubmatch(from)
	}
	if matches == nil {
		return "", ""
	}
	name = strings.Trim(strings.TrimSpace(matches[1]), `"`)
	email = strings.TrimSpace(matches[2])
	return name, email
}

func hasPlainPart(env *enmime.Envelope) bool {
	if env.Root == nil {
		return env.HTML == ""
	}
	plain := env.Root.BreadthMatchFirst(func(p *enmime.Part) bool {
		return p.ContentType == "text/plain" && p.Disposition != "attachment"
	})
	return plain != nil || env.HTML == ""
}

// bodyText prefers the text part and falls back to stripped HTML
func bodyText(text, html string) string {
	if strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if html == "" {
		return ""
	}
	return strings.Join(strings.Fields(stripHTMLTags(html)), " ")
}

// stripHTMLTags removes markup from an HTML body
func stripHTMLTags(html string) string {
	html = scriptPattern.ReplaceAllString(html, "")
	html = stylePattern.ReplaceAllString(html, "")
	html = tagPattern.ReplaceAllString(html, " ")
	return entityReplacer.Replace(html)
}

// resolveSentAt picks the Date header, then the server receive time, then now
func resolveSentAt(header, internal time.Time, now func() time.Time) time.Time {
	switch {
	case !header.IsZero():
		return header.UTC()
	case !internal.IsZero():
		return internal.UTC()
	default:
		return now().UTC()
	}
}
