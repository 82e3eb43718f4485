package mailbox

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// derivedPrefix marks identities computed from message fields
const derivedPrefix = "derived:"

// DeriveIdentity returns the stable deduplication key of a message: the
// Message-ID without angle brackets when present, otherwise a hash over
// sender, subject and send time.
func DeriveIdentity(messageID, sender, subject string, sentAt time.Time) string {
	id := strings.TrimSpace(messageID)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	id = strings.TrimSpace(id)
	if id != "" {
		return id
	}

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(sender))))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.TrimSpace(subject)))
	h.Write([]byte{'|'})
	h.Write([]byte(sentAt.UTC().Format(time.RFC3339)))
	return derivedPrefix + hex.EncodeToString(h.Sum(nil))
}
