package carddav

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebalder/contactdav/internal/storage"
)

func TestComputeETagDeterministic(t *testing.T) {
	a := computeETag([]byte("BEGIN:VCARD\r\nEND:VCARD\r\n"))
	b := computeETag([]byte("BEGIN:VCARD\r\nEND:VCARD\r\n"))
	require.Equal(t, a, b)

	c := computeETag([]byte("BEGIN:VCARD\r\nFN:X\r\nEND:VCARD\r\n"))
	require.NotEqual(t, a, c)
}

func condReq(ifMatch, ifNoneMatch string) *http.Request {
	r := httptest.NewRequest(http.MethodPut, "/dav/addressbooks/alice/contacts/x.vcf", nil)
	if ifMatch != "" {
		r.Header.Set("If-Match", ifMatch)
	}
	if ifNoneMatch != "" {
		r.Header.Set("If-None-Match", ifNoneMatch)
	}
	return r
}

func TestCheckPreconditions(t *testing.T) {
	existing := &storage.Contact{ETag: "aaa"}

	tests := []struct {
		name        string
		ifMatch     string
		ifNoneMatch string
		existing    *storage.Contact
		wantOK      bool
	}{
		{"unconditional create", "", "", nil, true},
		{"unconditional overwrite", "", "", existing, true},
		{"create-only on empty slot", "", "*", nil, true},
		{"create-only on occupied slot", "", "*", existing, false},
		{"update-only matching tag", `"aaa"`, "", existing, true},
		{"update-only stale tag", `"bbb"`, "", existing, false},
		{"update-only against nothing", `"aaa"`, "", nil, false},
		{"if-match star on existing", "*", "", existing, true},
		{"if-match star against nothing", "*", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := checkPreconditions(condReq(tt.ifMatch, tt.ifNoneMatch), tt.existing)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				require.Equal(t, http.StatusPreconditionFailed, code)
			}
		})
	}
}

func TestCheckPreconditionsIfMatchWinsOverIfNoneMatch(t *testing.T) {
	// Both headers on a missing resource: If-Match is evaluated first.
	code, ok := checkPreconditions(condReq(`"aaa"`, "*"), nil)
	require.False(t, ok)
	require.Equal(t, http.StatusPreconditionFailed, code)
}
