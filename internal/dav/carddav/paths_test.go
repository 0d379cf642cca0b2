package carddav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitResourcePath(t *testing.T) {
	tests := []struct {
		path       string
		owner      string
		collection string
		rest       []string
	}{
		{"/dav/addressbooks/alice/", "alice", "", nil},
		{"/dav/addressbooks/alice", "alice", "", nil},
		{"/dav/addressbooks/alice/contacts/", "alice", "contacts", nil},
		{"/dav/addressbooks/alice/contacts/abc.vcf", "alice", "contacts", []string{"abc.vcf"}},
		{"http://example.com/dav/addressbooks/alice/contacts/abc.vcf", "alice", "contacts", []string{"abc.vcf"}},
		{"/dav/principals/users/alice", "", "", nil},
		{"/dav/", "", "", nil},
	}
	for _, tt := range tests {
		owner, collection, rest := splitResourcePath(tt.path, "/dav")
		require.Equal(t, tt.owner, owner, tt.path)
		require.Equal(t, tt.collection, collection, tt.path)
		if len(tt.rest) == 0 {
			require.Empty(t, rest, tt.path)
		} else {
			require.Equal(t, tt.rest, rest, tt.path)
		}
	}
}

func TestUIDFromFilename(t *testing.T) {
	require.Equal(t, "abc", uidFromFilename("abc.vcf"))
	require.Equal(t, "abc", uidFromFilename("abc"))
	require.Equal(t, "a.b", uidFromFilename("a.b.vcf"))
	require.Equal(t, ".hidden", uidFromFilename(".hidden"))
}
