package common

import (
	"strconv"
	"strings"
	"time"
)

// Sync tokens are opaque to clients but are purely a function of a point in
// time: "ts:" followed by unix nanoseconds. No per-client state is kept
// server-side; each response hands the client a fresh token describing the
// collection state it just observed.
const syncTokenPrefix = "ts:"

func FormatSyncToken(t time.Time) string {
	return syncTokenPrefix + strconv.FormatInt(t.UTC().UnixNano(), 10)
}

// ParseSyncToken extracts the instant embedded in a sync token. Malformed or
// empty tokens report ok=false, which callers must treat as "no prior state"
// (a full listing), never as an error.
func ParseSyncToken(tok string) (time.Time, bool) {
	tok = strings.TrimSpace(tok)
	if !strings.HasPrefix(tok, syncTokenPrefix) {
		return time.Time{}, false
	}
	v := strings.TrimPrefix(tok, syncTokenPrefix)
	if v == "" {
		return time.Time{}, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, n).UTC(), true
}
