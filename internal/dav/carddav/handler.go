package carddav

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ebalder/contactdav/internal/config"
	"github.com/ebalder/contactdav/internal/dav/common"
	"github.com/ebalder/contactdav/internal/storage"
)

// DefaultAddressbookURI is the collection every account gets implicitly on
// first home access.
const DefaultAddressbookURI = "contacts"

type Handlers struct {
	cfg      *config.Config
	store    storage.Store
	logger   zerolog.Logger
	basePath string
}

func NewHandlers(cfg *config.Config, store storage.Store, logger zerolog.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		basePath: cfg.HTTP.BasePath,
	}
}

func (h *Handlers) ensureDefaultAddressbook(ctx context.Context, ownerUID string) {
	if _, err := h.store.GetAddressbookByOwnerURI(ctx, ownerUID, DefaultAddressbookURI); err == nil {
		return
	}
	ab := &storage.Addressbook{
		OwnerUID:    ownerUID,
		URI:         DefaultAddressbookURI,
		DisplayName: "Contacts",
		Description: "Default addressbook",
	}
	if err := h.store.CreateAddressbook(ctx, ab); err != nil {
		h.logger.Error().Err(err).
			Str("owner", ownerUID).
			Str("addressbook", DefaultAddressbookURI).
			Msg("failed to create default addressbook")
	}
}

func (h *Handlers) resolveAddressbook(ctx context.Context, owner, abURI string) (*storage.Addressbook, error) {
	ab, err := h.store.GetAddressbookByOwnerURI(ctx, owner, abURI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.logger.Debug().
				Str("owner", owner).
				Str("addressbook", abURI).
				Msg("addressbook not found")
		}
		return nil, err
	}
	return ab, nil
}

// collectionToken derives the collection change tag. The embedded instant sits
// one nanosecond past the newest mutation, so that a client replaying the
// token sees an empty delta until something actually changes.
func (h *Handlers) collectionToken(ctx context.Context, ab *storage.Addressbook) (string, error) {
	latest, err := h.store.LatestModification(ctx, ab.ID)
	if err != nil {
		return "", err
	}
	if latest.IsZero() {
		latest = ab.CreatedAt
	}
	return common.FormatSyncToken(latest.Add(time.Nanosecond)), nil
}
