package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ebalder/contactdav/internal/config"
	"github.com/ebalder/contactdav/internal/storage"
)

// Principal is the authenticated account a request acts as. Resolving it is
// the transport's job; the DAV engine only ever compares it to path owners.
type Principal struct {
	UserID  string
	Display string
}

type ctxKey int

const principalKey ctxKey = 1

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// AccountLookup is the slice of the storage contract auth needs.
type AccountLookup interface {
	GetAccountByUsername(ctx context.Context, username string) (*storage.Account, error)
}

type Chain struct {
	cfg    *config.Config
	logger zerolog.Logger
	basic  *BasicAuth
	bearer *BearerAuth
}

func NewChain(cfg *config.Config, accounts AccountLookup, logger zerolog.Logger) *Chain {
	c := &Chain{
		cfg:    cfg,
		logger: logger,
	}
	if cfg.Auth.EnableBasic {
		c.basic = &BasicAuth{Accounts: accounts, Logger: logger}
	}
	if cfg.Auth.EnableBearer {
		c.bearer = NewBearerAuth(cfg, accounts, logger)
	}
	return c
}

func (c *Chain) BasicEnabled() bool  { return c.basic != nil }
func (c *Chain) BearerEnabled() bool { return c.bearer != nil }

func (c *Chain) BasicAuthenticate(ctx context.Context, header string) (*Principal, error) {
	if c.basic == nil {
		return nil, errors.New("basic disabled")
	}
	return c.basic.Authenticate(ctx, header)
}

func (c *Chain) BearerAuthenticate(ctx context.Context, token string) (*Principal, error) {
	if c.bearer == nil {
		return nil, errors.New("bearer disabled")
	}
	return c.bearer.Authenticate(ctx, token)
}
