package dav

import (
	"github.com/rs/zerolog"

	"github.com/ebalder/contactdav/internal/auth"
	"github.com/ebalder/contactdav/internal/config"
	"github.com/ebalder/contactdav/internal/dav/carddav"
	"github.com/ebalder/contactdav/internal/storage"
)

type Handlers struct {
	cfg              *config.Config
	store            storage.Store
	auth             *auth.Chain
	logger           zerolog.Logger
	basePath         string
	CardDAVHandlers  carddav.Handlers
	resourceHandlers map[string]ResourceHandler
}

var _ ResourceHandler = (*carddav.CardDAVResourceHandler)(nil)

func NewHandlers(cfg *config.Config, store storage.Store, authn *auth.Chain, logger zerolog.Logger) *Handlers {
	h := &Handlers{
		cfg:              cfg,
		store:            store,
		auth:             authn,
		logger:           logger,
		basePath:         cfg.HTTP.BasePath,
		CardDAVHandlers:  *carddav.NewHandlers(cfg, store, logger),
		resourceHandlers: make(map[string]ResourceHandler),
	}

	h.RegisterResourceHandler("addressbooks", carddav.NewCardDAVResourceHandler(&h.CardDAVHandlers, h.basePath))

	return h
}

func (h *Handlers) RegisterResourceHandler(key string, handler ResourceHandler) {
	h.resourceHandlers[key] = handler
}
