package carddav

import (
	"encoding/xml"
	"errors"
	"io"
	"net/http"

	"github.com/ebalder/contactdav/internal/dav/common"
	"github.com/ebalder/contactdav/internal/storage"
	"github.com/ebalder/contactdav/pkg/vcard"
)

func (h *Handlers) GetCapabilities() string {
	return "addressbook"
}

type headResponseWriter struct {
	http.ResponseWriter
}

func (w *headResponseWriter) Write(p []byte) (int, error) {
	// headers and status only
	return len(p), nil
}

func (h *Handlers) HandleHead(w http.ResponseWriter, r *http.Request) {
	h.HandleGet(&headResponseWriter{ResponseWriter: w}, r)
}

func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	owner, abURI, rest := splitResourcePath(r.URL.Path, h.basePath)
	if owner == "" || len(rest) == 0 {
		h.logger.Debug().Str("path", r.URL.Path).Msg("GET request with invalid path")
		http.NotFound(w, r)
		return
	}
	uid := uidFromFilename(rest[len(rest)-1])

	if !common.SafeSegment(abURI) || !common.SafeSegment(uid) {
		h.logger.Error().
			Str("addressbook", abURI).
			Str("uid", uid).
			Msg("GET request with unsafe path segments")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		h.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("GET denied - principal does not own collection")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ab, err := h.resolveAddressbook(r.Context(), owner, abURI)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	contact, err := h.store.GetContact(r.Context(), ab.ID, uid)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error().Err(err).
				Str("addressbookID", ab.ID).
				Str("uid", uid).
				Msg("failed to get contact in GET")
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
		return
	}

	inm := common.TrimQuotes(r.Header.Get("If-None-Match"))
	if inm != "" && inm == contact.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("ETag", `"`+contact.ETag+`"`)
	if !contact.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", common.TimeText(contact.UpdatedAt))
	}
	_, _ = io.WriteString(w, contact.Data)
}

func (h *Handlers) HandlePut(w http.ResponseWriter, r *http.Request) {
	owner, abURI, rest := splitResourcePath(r.URL.Path, h.basePath)
	if owner == "" || len(rest) == 0 {
		h.logger.Debug().Str("path", r.URL.Path).Msg("PUT request with invalid path")
		http.NotFound(w, r)
		return
	}
	uid := uidFromFilename(rest[len(rest)-1])

	if !common.SafeSegment(abURI) || !common.SafeSegment(uid) {
		h.logger.Error().
			Str("addressbook", abURI).
			Str("uid", uid).
			Msg("PUT request with unsafe path segments")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	// Ownership is settled before the body is touched.
	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		h.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("PUT denied - principal does not own collection")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	h.ensureDefaultAddressbook(r.Context(), owner)
	ab, err := h.resolveAddressbook(r.Context(), owner, abURI)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	maxVCF := h.cfg.HTTP.MaxVCFBytes
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxVCF+1))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read PUT body")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	_ = r.Body.Close()
	if len(raw) == 0 {
		h.logger.Error().Msg("empty body in PUT request")
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	if maxVCF > 0 && int64(len(raw)) > maxVCF {
		h.logger.Error().
			Int("size", len(raw)).
			Int64("max", maxVCF).
			Msg("payload too large in PUT")
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := vcard.Validate(raw); err != nil {
		h.logger.Error().Err(err).Msg("invalid vCard in PUT")
		http.Error(w, "invalid vcard", http.StatusBadRequest)
		return
	}
	normalized, err := vcard.Normalize(raw, uid)
	if err != nil {
		h.logger.Error().Err(err).Msg("normalize vcard failed")
		http.Error(w, "invalid vcard", http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetContact(r.Context(), ab.ID, uid)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error().Err(err).
				Str("addressbookID", ab.ID).
				Str("uid", uid).
				Msg("failed to load existing contact in PUT")
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		existing = nil
	}

	if code, ok := checkPreconditions(r, existing); !ok {
		h.logger.Debug().
			Str("uid", uid).
			Str("if_match", r.Header.Get("If-Match")).
			Str("if_none_match", r.Header.Get("If-None-Match")).
			Msg("precondition failed in PUT")
		http.Error(w, "precondition failed", code)
		return
	}

	contact := &storage.Contact{
		AddressbookID: ab.ID,
		UID:           uid,
		ETag:          computeETag(normalized),
		Data:          string(normalized),
	}
	if err := h.store.PutContact(r.Context(), contact); err != nil {
		h.logger.Error().Err(err).
			Str("addressbookID", ab.ID).
			Str("uid", uid).
			Msg("PutContact failed")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", `"`+contact.ETag+`"`)
	if existing == nil {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, abURI, rest := splitResourcePath(r.URL.Path, h.basePath)
	if owner == "" || abURI == "" {
		h.logger.Error().
			Str("path", r.URL.Path).
			Msg("DELETE request with invalid path")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		h.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("DELETE denied - principal does not own collection")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if len(rest) == 0 {
		// collection delete
		if !common.SafeCollectionName(abURI) {
			h.logger.Error().Str("addressbook", abURI).Msg("unsafe collection name in DELETE")
			http.Error(w, "bad collection name", http.StatusBadRequest)
			return
		}
		if err := h.store.DeleteAddressbook(r.Context(), owner, abURI); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			h.logger.Error().Err(err).
				Str("owner", owner).
				Str("addressbook", abURI).
				Msg("failed to delete addressbook")
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	uid := uidFromFilename(rest[len(rest)-1])
	if !common.SafeSegment(abURI) || !common.SafeSegment(uid) {
		h.logger.Error().
			Str("addressbook", abURI).
			Str("uid", uid).
			Msg("unsafe path segments in DELETE contact")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	ab, err := h.resolveAddressbook(r.Context(), owner, abURI)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if match := common.TrimQuotes(r.Header.Get("If-Match")); match != "" && match != "*" {
		existing, err := h.store.GetContact(r.Context(), ab.ID, uid)
		if err != nil || existing.ETag != match {
			h.logger.Debug().
				Str("uid", uid).
				Str("expected_etag", match).
				Msg("precondition failed in DELETE")
			http.Error(w, "precondition failed", http.StatusPreconditionFailed)
			return
		}
	}

	if err := h.store.DeleteContact(r.Context(), ab.ID, uid); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error().Err(err).
			Str("addressbookID", ab.ID).
			Str("uid", uid).
			Msg("failed to delete contact")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleMkcol(w http.ResponseWriter, r *http.Request) {
	owner, abURI, rest := splitResourcePath(r.URL.Path, h.basePath)
	if owner == "" || abURI == "" || len(rest) != 0 {
		h.logger.Error().Str("path", r.URL.Path).Msg("MKCOL with invalid path")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	if !common.SafeCollectionName(abURI) {
		h.logger.Error().Str("addressbook", abURI).Msg("unsafe collection name in MKCOL")
		http.Error(w, "bad collection name", http.StatusBadRequest)
		return
	}

	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		h.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("MKCOL denied - principal does not own home")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read MKCOL body")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	_ = r.Body.Close()

	type mkcolProp struct {
		XMLName      xml.Name `xml:"DAV: prop"`
		DisplayName  *string  `xml:"DAV: displayname"`
		Description  *string  `xml:"urn:ietf:params:xml:ns:carddav addressbook-description"`
		ResourceType struct {
			Addressbook *struct{} `xml:"urn:ietf:params:xml:ns:carddav addressbook"`
		} `xml:"DAV: resourcetype"`
		Raw []common.RawXMLValue `xml:",any"`
	}
	var mkcolReq struct {
		XMLName xml.Name `xml:"DAV: mkcol"`
		Set     *struct {
			XMLName xml.Name  `xml:"DAV: set"`
			Prop    mkcolProp `xml:"DAV: prop"`
		} `xml:"DAV: set"`
	}
	if len(body) > 0 {
		if err := xml.Unmarshal(body, &mkcolReq); err != nil {
			h.logger.Error().Err(err).Msg("failed to unmarshal MKCOL XML")
		}
	}

	// A bare MKCOL (no body) is treated as an addressbook request; anything
	// explicitly asking for a different collection type is rejected.
	if len(body) > 0 && (mkcolReq.Set == nil || mkcolReq.Set.Prop.ResourceType.Addressbook == nil) {
		h.logger.Error().Msg("MKCOL with unsupported collection type")
		http.Error(w, "unsupported collection type", http.StatusUnsupportedMediaType)
		return
	}

	if _, err := h.store.GetAddressbookByOwnerURI(r.Context(), owner, abURI); err == nil {
		h.logger.Debug().
			Str("owner", owner).
			Str("addressbook", abURI).
			Msg("addressbook already exists in MKCOL")
		http.Error(w, "conflict", http.StatusConflict)
		return
	}

	displayName := abURI
	description := ""
	if mkcolReq.Set != nil {
		if mkcolReq.Set.Prop.DisplayName != nil {
			displayName = *mkcolReq.Set.Prop.DisplayName
		}
		if mkcolReq.Set.Prop.Description != nil {
			description = *mkcolReq.Set.Prop.Description
		}
	}

	ab := &storage.Addressbook{
		OwnerUID:    owner,
		URI:         abURI,
		DisplayName: displayName,
		Description: description,
	}
	if err := h.store.CreateAddressbook(r.Context(), ab); err != nil {
		h.logger.Error().Err(err).
			Str("owner", owner).
			Str("addressbook", abURI).
			Msg("failed to create addressbook in MKCOL")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) HandleProppatch(w http.ResponseWriter, r *http.Request) {
	owner, abURI, rest := splitResourcePath(r.URL.Path, h.basePath)
	if owner == "" || abURI == "" || len(rest) != 0 {
		h.logger.Error().Str("path", r.URL.Path).Msg("PROPPATCH with invalid path")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	if !common.SafeSegment(abURI) {
		h.logger.Error().Str("addressbook", abURI).Msg("unsafe path in PROPPATCH")
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		h.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("PROPPATCH denied - principal does not own collection")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read PROPPATCH body")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	_ = r.Body.Close()

	type setRemoveProp struct {
		DisplayName *string              `xml:"DAV: displayname"`
		Raw         []common.RawXMLValue `xml:",any"`
	}
	type setRemove struct {
		XMLName xml.Name
		Prop    setRemoveProp `xml:"DAV: prop"`
	}
	var req struct {
		XMLName xml.Name   `xml:"DAV: propertyupdate"`
		Set     *setRemove `xml:"DAV: set"`
		Remove  *setRemove `xml:"DAV: remove"`
	}

	okXML := true
	if err := xml.Unmarshal(body, &req); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal PROPPATCH XML")
		okXML = false
	}

	var newName *string
	removeName := okXML && req.Remove != nil && req.Remove.Prop.DisplayName != nil
	if okXML && req.Set != nil && req.Set.Prop.DisplayName != nil {
		newName = req.Set.Prop.DisplayName
	}

	displayNameStatus := http.StatusOK
	if newName != nil || removeName {
		if err := h.store.UpdateAddressbookDisplayName(r.Context(), owner, abURI, newName); err != nil {
			h.logger.Error().Err(err).Msg("failed to update addressbook display name")
			displayNameStatus = http.StatusInternalServerError
		}
	}

	resp := common.Response{
		Hrefs: []common.Href{{Value: r.URL.Path}},
	}
	if newName != nil || removeName {
		propValue := ""
		if newName != nil {
			propValue = *newName
		}
		if err := resp.EncodeProp(displayNameStatus, common.DisplayName{Name: propValue}); err != nil {
			h.logger.Error().Err(err).Msg("failed to encode displayname in PROPPATCH")
		}
	}

	ms := common.NewMultiStatus(resp)
	if err := common.ServeMultiStatus(w, ms); err != nil {
		h.logger.Error().Err(err).Msg("failed to serve MultiStatus for PROPPATCH")
	}
}
