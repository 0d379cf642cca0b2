package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSyncTokenRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 987654321, time.UTC)
	tok := FormatSyncToken(at)
	got, ok := ParseSyncToken(tok)
	require.True(t, ok)
	require.True(t, got.Equal(at))
}

func TestParseSyncTokenMalformed(t *testing.T) {
	for _, tok := range []string{
		"",
		"ts:",
		"ts:abc",
		"seq:42",
		"1718000000000000000",
		"http://example.com/sync/5",
	} {
		_, ok := ParseSyncToken(tok)
		require.False(t, ok, "token %q should not parse", tok)
	}
}

func TestParseSyncTokenWhitespace(t *testing.T) {
	tok := " " + FormatSyncToken(time.Unix(100, 5)) + " "
	got, ok := ParseSyncToken(tok)
	require.True(t, ok)
	require.Equal(t, int64(100000000005), got.UnixNano())
}
