package common

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusMarshal(t *testing.T) {
	out, err := xml.Marshal(&Status{Code: http.StatusNotFound})
	require.NoError(t, err)
	require.Contains(t, string(out), "HTTP/1.1 404 Not Found")
}

func TestStatusUnmarshal(t *testing.T) {
	var s Status
	err := xml.Unmarshal([]byte(`<status xmlns="DAV:">HTTP/1.1 412 Precondition Failed</status>`), &s)
	require.NoError(t, err)
	require.Equal(t, http.StatusPreconditionFailed, s.Code)
}

func TestEncodePropGroupsByStatus(t *testing.T) {
	var resp Response
	require.NoError(t, resp.EncodeProp(http.StatusOK, GetETagProp("abc")))
	require.NoError(t, resp.EncodeProp(http.StatusOK, DisplayName{Name: "Contacts"}))
	require.NoError(t, resp.EncodeProp(http.StatusNotFound, GetContentType{}))

	require.Len(t, resp.Propstats, 2)
	require.Equal(t, http.StatusOK, resp.Propstats[0].Status.Code)
	require.Len(t, resp.Propstats[0].Prop.Raw, 2)
	require.Equal(t, http.StatusNotFound, resp.Propstats[1].Status.Code)
	require.Len(t, resp.Propstats[1].Prop.Raw, 1)
}

func TestServeMultiStatus(t *testing.T) {
	resp := Response{Hrefs: []Href{{Value: "/dav/addressbooks/alice/contacts/x.vcf"}}}
	require.NoError(t, resp.EncodeProp(http.StatusOK, GetETagProp("deadbeef")))

	rec := httptest.NewRecorder()
	require.NoError(t, ServeMultiStatus(rec, NewMultiStatus(resp)))

	require.Equal(t, http.StatusMultiStatus, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/xml")

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, xml.Header))
	require.Contains(t, body, "multistatus")
	require.Contains(t, body, `&#34;deadbeef&#34;`)
	require.Contains(t, body, "/dav/addressbooks/alice/contacts/x.vcf")
}

func TestGetETagPropQuotes(t *testing.T) {
	p := GetETagProp("abc123")
	require.Equal(t, `"abc123"`, p.ETag)
}

func TestMultiStatusCarriesSyncToken(t *testing.T) {
	ms := NewMultiStatus()
	ms.SyncToken = "ts:42"
	out, err := xml.Marshal(ms)
	require.NoError(t, err)
	require.Contains(t, string(out), "ts:42")
}
