package carddav

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/ebalder/contactdav/internal/dav/common"
	"github.com/ebalder/contactdav/internal/storage"
)

// computeETag derives the change tag from the stored content. Same content,
// same tag: retried identical writes converge even though each still counts
// as a mutation for sync purposes.
func computeETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// checkPreconditions gates a mutation on the request's conditional headers
// against the current state. If-Match is evaluated first, then If-None-Match;
// either failing aborts the whole mutation. A nil existing means no resource
// is at the target.
//
// Returns (http.StatusPreconditionFailed, false) on rejection and (0, true)
// when the mutation may proceed.
func checkPreconditions(r *http.Request, existing *storage.Contact) (int, bool) {
	match := common.TrimQuotes(r.Header.Get("If-Match"))
	if match != "" {
		if existing == nil {
			// update-only against nothing
			return http.StatusPreconditionFailed, false
		}
		if match != "*" && existing.ETag != match {
			return http.StatusPreconditionFailed, false
		}
	}

	if r.Header.Get("If-None-Match") == "*" && existing != nil {
		return http.StatusPreconditionFailed, false
	}

	return 0, true
}
