package carddav

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ebalder/contactdav/internal/dav/common"
)

func newTestResourceHandler() (*CardDAVResourceHandler, *Handlers) {
	h, _ := newTestHandlers()
	return NewCardDAVResourceHandler(h, h.basePath), h
}

func TestPropfindHomeCreatesDefaultAddressbook(t *testing.T) {
	rh, _ := newTestResourceHandler()

	rec := httptest.NewRecorder()
	rh.PropfindHome(rec, request("PROPFIND", "/dav/addressbooks/alice/", "", "alice", nil), "alice", "1")
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "/dav/addressbooks/alice/")
	require.Contains(t, body, "/dav/addressbooks/alice/contacts/")
	require.Contains(t, body, "addressbook")
}

func TestPropfindHomeDepthZero(t *testing.T) {
	rh, _ := newTestResourceHandler()

	rec := httptest.NewRecorder()
	rh.PropfindHome(rec, request("PROPFIND", "/dav/addressbooks/alice/", "", "alice", nil), "alice", "0")
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	require.NotContains(t, rec.Body.String(), "/dav/addressbooks/alice/contacts/")
}

func TestPropfindHomeForbidden(t *testing.T) {
	rh, _ := newTestResourceHandler()

	rec := httptest.NewRecorder()
	rh.PropfindHome(rec, request("PROPFIND", "/dav/addressbooks/alice/", "", "mallory", nil), "alice", "1")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPropfindCollectionListsMembers(t *testing.T) {
	rh, h := newTestResourceHandler()
	putCard(t, h, "/dav/addressbooks/alice/contacts/abc.vcf", testCard, nil)

	rec := httptest.NewRecorder()
	rh.PropfindCollection(rec, request("PROPFIND", "/dav/addressbooks/alice/contacts/", "", "alice", nil), "alice", "contacts", "1")
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "abc.vcf")
	require.Contains(t, body, "sync-token")
	require.Contains(t, body, "getctag")
	require.Contains(t, body, "supported-report-set")
}

func TestPropfindCollectionTokenMatchesSyncReport(t *testing.T) {
	rh, h := newTestResourceHandler()
	putCard(t, h, "/dav/addressbooks/alice/contacts/abc.vcf", testCard, nil)

	rec := httptest.NewRecorder()
	rh.PropfindCollection(rec, request("PROPFIND", "/dav/addressbooks/alice/contacts/", "", "alice", nil), "alice", "contacts", "0")
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	ms := runSync(t, h, "")
	require.Contains(t, rec.Body.String(), ms.SyncToken)
}

func TestPropfindObject(t *testing.T) {
	rh, h := newTestResourceHandler()
	rec0 := putCard(t, h, "/dav/addressbooks/alice/contacts/abc.vcf", testCard, nil)

	rec := httptest.NewRecorder()
	rh.PropfindObject(rec, request("PROPFIND", "/dav/addressbooks/alice/contacts/abc.vcf", "", "alice", nil), "alice", "contacts", "abc.vcf")
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	require.Contains(t, rec.Body.String(), "abc.vcf")
	require.Contains(t, rec.Body.String(), "getetag")
	require.Contains(t, rec.Body.String(), common.TrimQuotes(rec0.Header().Get("ETag")))
}

func TestPropfindObjectMissing(t *testing.T) {
	rh, h := newTestResourceHandler()
	h.ensureDefaultAddressbook(context.Background(), "alice")

	rec := httptest.NewRecorder()
	rh.PropfindObject(rec, request("PROPFIND", "/dav/addressbooks/alice/contacts/nope.vcf", "", "alice", nil), "alice", "contacts", "nope.vcf")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
