package mailbox

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welldanyogia/webrana-support-assistant/internal/config"
)

func TestSearchCriteria(t *testing.T) {
	// Arrange
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	// Act
	search := searchCriteria(Criteria{
		Since:      7 * 24 * time.Hour,
		Keywords:   []string{"support", "help"},
		UnseenOnly: true,
	}, now)

	// Assert
	assert.Equal(t, now.Add(-7*24*time.Hour), search.Since)
	assert.Equal(t, []imap.Flag{imap.FlagSeen}, search.NotFlag)
	require.Len(t, search.Or, 1)
	assert.Equal(t, "support", search.Or[0][0].Header[0].Value)
	assert.Equal(t, "help", search.Or[0][1].Header[0].Value)
}

func TestSearchCriteria_NoFilters(t *testing.T) {
	search := searchCriteria(Criteria{}, time.Now())

	assert.True(t, search.Since.IsZero())
	assert.Empty(t, search.NotFlag)
	assert.Empty(t, search.Or)
	assert.Empty(t, search.Header)
}

func TestSubjectCriteria_SingleKeyword(t *testing.T) {
	c := subjectCriteria([]string{"query"})

	require.Len(t, c.Header, 1)
	assert.Equal(t, "Subject", c.Header[0].Key)
	assert.Empty(t, c.Or)
}

func TestClientOptions_DialTimeout(t *testing.T) {
	opts := clientOptions(config.IMAPConfig{Timeout: 5 * time.Second})

	require.NotNil(t, opts)
	require.NotNil(t, opts.Dialer)
	assert.Equal(t, 5*time.Second, opts.Dialer.Timeout)
	assert.Nil(t, clientOptions(config.IMAPConfig{}))
}
