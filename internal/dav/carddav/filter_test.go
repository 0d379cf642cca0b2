package carddav

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ebalder/contactdav/internal/dav/common"
	"github.com/ebalder/contactdav/internal/storage"
)

func card(fn, email string) string {
	s := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:" + fn + "\r\nUID:" + fn + "\r\n"
	if email != "" {
		s += "EMAIL:" + email + "\r\n"
	}
	return s + "END:VCARD\r\n"
}

func testContacts() []*storage.Contact {
	return []*storage.Contact{
		{UID: "alice", Data: card("Alice Adams", "alice@example.com")},
		{UID: "bob", Data: card("Bob Brown", "bob@corp.example")},
		{UID: "carol", Data: card("Carol Cruz", "")},
	}
}

func filterUIDs(t *testing.T, f *common.QueryFilter) []string {
	t.Helper()
	h := &Handlers{logger: zerolog.Nop()}
	out := h.filterContacts(testContacts(), f)
	uids := make([]string, 0, len(out))
	for _, c := range out {
		uids = append(uids, c.UID)
	}
	return uids
}

func TestFilterNilMatchesAll(t *testing.T) {
	require.Equal(t, []string{"alice", "bob", "carol"}, filterUIDs(t, nil))
	require.Equal(t, []string{"alice", "bob", "carol"}, filterUIDs(t, &common.QueryFilter{}))
}

func TestFilterContains(t *testing.T) {
	f := &common.QueryFilter{PropFilters: []common.PropFilter{{
		Name:        "FN",
		TextMatches: []common.TextMatch{{Text: "adams"}},
	}}}
	require.Equal(t, []string{"alice"}, filterUIDs(t, f))
}

func TestFilterMatchTypes(t *testing.T) {
	for _, tt := range []struct {
		matchType string
		text      string
		want      []string
	}{
		{"equals", "bob brown", []string{"bob"}},
		{"starts-with", "carol", []string{"carol"}},
		{"ends-with", "brown", []string{"bob"}},
		{"contains", "o", []string{"bob", "carol"}},
	} {
		f := &common.QueryFilter{PropFilters: []common.PropFilter{{
			Name:        "FN",
			TextMatches: []common.TextMatch{{Text: tt.text, MatchType: tt.matchType}},
		}}}
		require.Equal(t, tt.want, filterUIDs(t, f), tt.matchType)
	}
}

func TestFilterNegate(t *testing.T) {
	f := &common.QueryFilter{PropFilters: []common.PropFilter{{
		Name:        "FN",
		TextMatches: []common.TextMatch{{Text: "alice", NegateCondition: "yes"}},
	}}}
	require.Equal(t, []string{"bob", "carol"}, filterUIDs(t, f))
}

func TestFilterIsNotDefined(t *testing.T) {
	f := &common.QueryFilter{PropFilters: []common.PropFilter{{
		Name:         "EMAIL",
		IsNotDefined: &struct{}{},
	}}}
	require.Equal(t, []string{"carol"}, filterUIDs(t, f))
}

func TestFilterAnyOfAllOf(t *testing.T) {
	pfAlice := common.PropFilter{Name: "FN", TextMatches: []common.TextMatch{{Text: "alice"}}}
	pfExample := common.PropFilter{Name: "EMAIL", TextMatches: []common.TextMatch{{Text: "example.com"}}}

	anyOf := &common.QueryFilter{PropFilters: []common.PropFilter{pfAlice, pfExample}}
	require.Equal(t, []string{"alice"}, filterUIDs(t, anyOf))

	allOf := &common.QueryFilter{Test: "allof", PropFilters: []common.PropFilter{pfAlice, pfExample}}
	require.Equal(t, []string{"alice"}, filterUIDs(t, allOf))

	allOfNone := &common.QueryFilter{Test: "allof", PropFilters: []common.PropFilter{
		pfAlice,
		{Name: "EMAIL", TextMatches: []common.TextMatch{{Text: "corp"}}},
	}}
	require.Empty(t, filterUIDs(t, allOfNone))
}

func TestFilterUnparsableContactIncluded(t *testing.T) {
	h := &Handlers{logger: zerolog.Nop()}
	contacts := []*storage.Contact{{UID: "broken", Data: "not a vcard"}}
	f := &common.QueryFilter{PropFilters: []common.PropFilter{{
		Name:        "FN",
		TextMatches: []common.TextMatch{{Text: "zzz"}},
	}}}
	out := h.filterContacts(contacts, f)
	require.Len(t, out, 1)
}

func TestFilterPropFilterCaseInsensitiveName(t *testing.T) {
	f := &common.QueryFilter{PropFilters: []common.PropFilter{{
		Name:        "fn",
		TextMatches: []common.TextMatch{{Text: "alice"}},
	}}}
	require.Equal(t, []string{"alice"}, filterUIDs(t, f))
}
