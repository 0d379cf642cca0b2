package carddav

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/http"

	"github.com/ebalder/contactdav/internal/dav/common"
	"github.com/ebalder/contactdav/internal/storage"
)

const maxReportBody = 8 << 20

// HandleReport dispatches the collection-level REPORT modes. The body is
// sniffed for its root element; bodies that do not parse, or name a report
// this server does not know, fall back to a filterless query over the whole
// collection so that clients always get a usable answer.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	owner, abURI, rest := splitResourcePath(r.URL.Path, h.basePath)
	if owner == "" || abURI == "" || len(rest) != 0 {
		h.logger.Error().Str("path", r.URL.Path).Msg("REPORT with invalid path")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	// Ownership is checked before the body is consumed.
	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		h.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("REPORT denied - principal does not own collection")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ab, err := h.resolveAddressbook(r.Context(), owner, abURI)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxReportBody))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read REPORT body")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	_ = r.Body.Close()

	root := sniffRootElement(body)
	switch {
	case root.Space == common.NSCardDAV && root.Local == "addressbook-multiget":
		var mg common.AddressbookMultiget
		if err := xml.Unmarshal(body, &mg); err != nil {
			h.logger.Debug().Err(err).Msg("malformed multiget body, serving full collection")
			h.reportAddressbookQuery(w, r, ab, owner, abURI, &common.AddressbookQuery{})
			return
		}
		h.reportAddressbookMultiget(w, r, ab, owner, abURI, &mg)
	case root.Space == common.NSDAV && root.Local == "sync-collection":
		var sc common.SyncCollection
		if err := xml.Unmarshal(body, &sc); err != nil {
			h.logger.Debug().Err(err).Msg("malformed sync-collection body, serving full collection")
			h.reportAddressbookQuery(w, r, ab, owner, abURI, &common.AddressbookQuery{})
			return
		}
		h.reportSyncCollection(w, r, ab, owner, abURI, &sc)
	default:
		// addressbook-query, empty bodies, and anything unrecognized all land
		// here. A query body that fails to parse degrades to the full set.
		var q common.AddressbookQuery
		if err := xml.Unmarshal(body, &q); err != nil {
			h.logger.Debug().Err(err).Msg("unparsable REPORT body, serving full collection")
			q = common.AddressbookQuery{}
		}
		h.reportAddressbookQuery(w, r, ab, owner, abURI, &q)
	}
}

func sniffRootElement(body []byte) xml.Name {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.Name{}
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name
		}
	}
}

func (h *Handlers) reportAddressbookQuery(w http.ResponseWriter, r *http.Request, ab *storage.Addressbook, owner, abURI string, q *common.AddressbookQuery) {
	contacts, err := h.store.ListContacts(r.Context(), ab.ID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("addressbookID", ab.ID).
			Msg("failed to list contacts for query report")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	contacts = h.filterContacts(contacts, q.Filter)

	truncated := false
	if q.Limit != nil && q.Limit.NResults > 0 && len(contacts) > q.Limit.NResults {
		contacts = contacts[:q.Limit.NResults]
		truncated = true
	}

	props := common.ParsePropRequest(q.Prop)
	ms := common.NewMultiStatus()
	for _, c := range contacts {
		resp, err := h.contactResponse(owner, abURI, c, props)
		if err != nil {
			h.logger.Error().Err(err).Str("uid", c.UID).Msg("failed to encode contact response")
			continue
		}
		ms.Responses = append(ms.Responses, resp)
	}
	if truncated {
		ms.NumberOfMatchesWithinLimits = "1"
	}
	if err := common.ServeMultiStatus(w, ms); err != nil {
		h.logger.Error().Err(err).Msg("failed to serve MultiStatus for query report")
	}
}

func (h *Handlers) reportAddressbookMultiget(w http.ResponseWriter, r *http.Request, ab *storage.Addressbook, owner, abURI string, mg *common.AddressbookMultiget) {
	props := common.ParsePropRequest(mg.Prop)
	ms := common.NewMultiStatus()
	for _, href := range mg.Hrefs {
		hOwner, hAB, hRest := splitResourcePath(href, h.basePath)
		if hOwner != owner || hAB != abURI || len(hRest) == 0 {
			ms.Responses = append(ms.Responses, common.Response{
				Hrefs:  []common.Href{{Value: href}},
				Status: &common.Status{Code: http.StatusNotFound},
			})
			continue
		}
		uid := uidFromFilename(hRest[len(hRest)-1])
		c, err := h.store.GetContact(r.Context(), ab.ID, uid)
		if err != nil {
			ms.Responses = append(ms.Responses, common.Response{
				Hrefs:  []common.Href{{Value: href}},
				Status: &common.Status{Code: http.StatusNotFound},
			})
			continue
		}
		resp, err := h.contactResponse(owner, abURI, c, props)
		if err != nil {
			h.logger.Error().Err(err).Str("uid", uid).Msg("failed to encode contact response")
			continue
		}
		ms.Responses = append(ms.Responses, resp)
	}
	if err := common.ServeMultiStatus(w, ms); err != nil {
		h.logger.Error().Err(err).Msg("failed to serve MultiStatus for multiget report")
	}
}

func (h *Handlers) reportSyncCollection(w http.ResponseWriter, r *http.Request, ab *storage.Addressbook, owner, abURI string, sc *common.SyncCollection) {
	var (
		contacts []*storage.Contact
		err      error
	)
	if since, ok := common.ParseSyncToken(sc.SyncToken); ok {
		contacts, err = h.store.ListContactsSince(r.Context(), ab.ID, since)
	} else {
		// No usable prior state; the client gets the full membership.
		contacts, err = h.store.ListContacts(r.Context(), ab.ID)
	}
	if err != nil {
		h.logger.Error().Err(err).
			Str("addressbookID", ab.ID).
			Msg("failed to list contacts for sync report")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	truncated := false
	if sc.Limit != nil && sc.Limit.NResults > 0 && len(contacts) > sc.Limit.NResults {
		contacts = contacts[:sc.Limit.NResults]
		truncated = true
	}

	token, err := h.collectionToken(r.Context(), ab)
	if err != nil {
		h.logger.Error().Err(err).
			Str("addressbookID", ab.ID).
			Msg("failed to derive sync token")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	props := common.ParsePropRequest(sc.Prop)
	ms := common.NewMultiStatus()
	ms.SyncToken = token
	for _, c := range contacts {
		resp, err := h.contactResponse(owner, abURI, c, props)
		if err != nil {
			h.logger.Error().Err(err).Str("uid", c.UID).Msg("failed to encode contact response")
			continue
		}
		ms.Responses = append(ms.Responses, resp)
	}
	if truncated {
		ms.NumberOfMatchesWithinLimits = "1"
	}
	if err := common.ServeMultiStatus(w, ms); err != nil {
		h.logger.Error().Err(err).Msg("failed to serve MultiStatus for sync report")
	}
}

func (h *Handlers) contactResponse(owner, abURI string, c *storage.Contact, props common.PropRequest) (common.Response, error) {
	resp := common.Response{
		Hrefs: []common.Href{{Value: common.ContactPath(h.basePath, owner, abURI, c.UID)}},
	}
	if props.GetETag {
		if err := resp.EncodeProp(http.StatusOK, common.GetETagProp(c.ETag)); err != nil {
			return resp, err
		}
	}
	if props.AddressData {
		if err := resp.EncodeProp(http.StatusOK, common.AddressData{Text: c.Data}); err != nil {
			return resp, err
		}
	}
	return resp, nil
}
