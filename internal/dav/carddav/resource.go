package carddav

import (
	"net/http"
	"path"

	"github.com/ebalder/contactdav/internal/dav/common"
	"github.com/ebalder/contactdav/internal/storage"
)

type CardDAVResourceHandler struct {
	handlers *Handlers
	basePath string
}

func NewCardDAVResourceHandler(handlers *Handlers, basePath string) *CardDAVResourceHandler {
	return &CardDAVResourceHandler{
		handlers: handlers,
		basePath: basePath,
	}
}

func (c *CardDAVResourceHandler) SplitResourcePath(urlPath string) (owner, collection string, rest []string) {
	return splitResourcePath(urlPath, c.basePath)
}

func (c *CardDAVResourceHandler) GetHomeSetProperty(basePath, uid string) interface{} {
	return common.AddressbookHomeSet{Hrefs: []common.Href{{Value: common.AddressbookHome(basePath, uid)}}}
}

func (c *CardDAVResourceHandler) PropfindHome(w http.ResponseWriter, r *http.Request, owner, depth string) {
	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		c.handlers.logger.Error().Str("path", r.URL.Path).Msg("PROPFIND home unauthorized")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		c.handlers.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("PROPFIND home forbidden - user mismatch")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	c.handlers.ensureDefaultAddressbook(r.Context(), owner)

	books, err := c.handlers.store.ListAddressbooksByOwner(r.Context(), owner)
	if err != nil {
		c.handlers.logger.Error().Err(err).
			Str("owner", owner).
			Msg("failed to list addressbooks in PROPFIND home")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	self := common.PrincipalURL(c.basePath, owner)
	home := common.AddressbookHome(c.basePath, owner)

	homeResp := common.Response{Hrefs: []common.Href{{Value: home}}}
	_ = homeResp.EncodeProp(http.StatusOK, common.ResourceType{Collection: &struct{}{}})
	_ = homeResp.EncodeProp(http.StatusOK, common.DisplayName{Name: "Addressbook Home"})
	_ = homeResp.EncodeProp(http.StatusOK, common.Owner{Href: &common.Href{Value: self}})
	_ = homeResp.EncodeProp(http.StatusOK, common.CurrentUserPrincipal{Href: &common.Href{Value: self}})

	resps := []common.Response{homeResp}

	if depth != "0" {
		for _, ab := range books {
			resp, err := c.collectionResponse(r, owner, ab)
			if err != nil {
				c.handlers.logger.Error().Err(err).
					Str("addressbook", ab.URI).
					Msg("failed to encode addressbook in PROPFIND home")
				continue
			}
			resps = append(resps, resp)
		}
	}

	ms := common.NewMultiStatus(resps...)
	if err := common.ServeMultiStatus(w, ms); err != nil {
		c.handlers.logger.Error().Err(err).Msg("failed to serve MultiStatus for home")
	}
}

func (c *CardDAVResourceHandler) PropfindCollection(w http.ResponseWriter, r *http.Request, owner, collection, depth string) {
	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		c.handlers.logger.Error().Str("path", r.URL.Path).Msg("PROPFIND collection unauthorized")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		c.handlers.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("PROPFIND collection forbidden - user mismatch")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	c.handlers.ensureDefaultAddressbook(r.Context(), owner)
	ab, err := c.handlers.resolveAddressbook(r.Context(), owner, collection)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	resp, err := c.collectionResponse(r, owner, ab)
	if err != nil {
		c.handlers.logger.Error().Err(err).
			Str("addressbook", ab.URI).
			Msg("failed to encode collection PROPFIND response")
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	resps := []common.Response{resp}

	if depth != "0" {
		contacts, err := c.handlers.store.ListContacts(r.Context(), ab.ID)
		if err != nil {
			c.handlers.logger.Error().Err(err).
				Str("addressbookID", ab.ID).
				Msg("failed to list contacts in PROPFIND collection")
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		for _, contact := range contacts {
			resps = append(resps, c.objectResponse(owner, collection, contact))
		}
	}

	ms := common.NewMultiStatus(resps...)
	if err := common.ServeMultiStatus(w, ms); err != nil {
		c.handlers.logger.Error().Err(err).Msg("failed to serve MultiStatus for collection")
	}
}

func (c *CardDAVResourceHandler) PropfindObject(w http.ResponseWriter, r *http.Request, owner, collection, object string) {
	pr := common.MustPrincipal(r.Context())
	if pr == nil {
		c.handlers.logger.Error().Str("path", r.URL.Path).Msg("PROPFIND object unauthorized")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if pr.UserID != owner {
		c.handlers.logger.Debug().
			Str("user", pr.UserID).
			Str("owner", owner).
			Msg("PROPFIND object forbidden - user mismatch")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ab, err := c.handlers.resolveAddressbook(r.Context(), owner, collection)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	uid := uidFromFilename(path.Base(object))
	contact, err := c.handlers.store.GetContact(r.Context(), ab.ID, uid)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ms := common.NewMultiStatus(c.objectResponse(owner, collection, contact))
	if err := common.ServeMultiStatus(w, ms); err != nil {
		c.handlers.logger.Error().Err(err).Msg("failed to serve MultiStatus for object")
	}
}

func (c *CardDAVResourceHandler) collectionResponse(r *http.Request, owner string, ab *storage.Addressbook) (common.Response, error) {
	self := common.PrincipalURL(c.basePath, owner)
	resp := common.Response{
		Hrefs: []common.Href{{Value: common.AddressbookPath(c.basePath, owner, ab.URI)}},
	}
	_ = resp.EncodeProp(http.StatusOK, common.ResourceType{Collection: &struct{}{}, Addressbook: &struct{}{}})
	_ = resp.EncodeProp(http.StatusOK, common.DisplayName{Name: ab.DisplayName})
	_ = resp.EncodeProp(http.StatusOK, common.Owner{Href: &common.Href{Value: self}})
	_ = resp.EncodeProp(http.StatusOK, common.CurrentUserPrincipal{Href: &common.Href{Value: self}})
	_ = resp.EncodeProp(http.StatusOK, supportedReportSetValue())
	_ = resp.EncodeProp(http.StatusOK, common.SupportedAddressData{
		AddressDataType: []common.AddressDataType{
			{ContentType: "text/vcard", Version: "3.0"},
			{ContentType: "text/vcard", Version: "4.0"},
		},
	})
	if c.handlers.cfg.HTTP.MaxVCFBytes > 0 {
		_ = resp.EncodeProp(http.StatusOK, common.MaxResourceSize{Size: c.handlers.cfg.HTTP.MaxVCFBytes})
	}

	token, err := c.handlers.collectionToken(r.Context(), ab)
	if err != nil {
		return resp, err
	}
	_ = resp.EncodeProp(http.StatusOK, common.SyncTokenProp{Text: token})
	_ = resp.EncodeProp(http.StatusOK, common.GetCTag{Text: token})
	return resp, nil
}

func (c *CardDAVResourceHandler) objectResponse(owner, collection string, contact *storage.Contact) common.Response {
	resp := common.Response{
		Hrefs: []common.Href{{Value: common.ContactPath(c.basePath, owner, collection, contact.UID)}},
	}
	_ = resp.EncodeProp(http.StatusOK, common.ResourceType{})
	_ = resp.EncodeProp(http.StatusOK, common.GetETagProp(contact.ETag))
	_ = resp.EncodeProp(http.StatusOK, common.GetContentType{Type: "text/vcard; charset=utf-8"})
	if !contact.UpdatedAt.IsZero() {
		_ = resp.EncodeProp(http.StatusOK, common.GetLastModified{LastModified: common.TimeText(contact.UpdatedAt)})
	}
	return resp
}

func supportedReportSetValue() common.SupportedReportSet {
	return common.SupportedReportSet{
		SupportedReport: []common.SupportedReport{
			{Report: common.ReportType{AddressbookQuery: &struct{}{}}},
			{Report: common.ReportType{AddressbookMultiget: &struct{}{}}},
			{Report: common.ReportType{SyncCollection: &struct{}{}}},
		},
	}
}
