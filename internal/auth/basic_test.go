package auth

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ebalder/contactdav/internal/config"
	"github.com/ebalder/contactdav/internal/storage"
)

type fakeAccounts struct {
	accounts map[string]*storage.Account
}

func (f *fakeAccounts) GetAccountByUsername(_ context.Context, username string) (*storage.Account, error) {
	a, ok := f.accounts[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

func testAccounts(t *testing.T) *fakeAccounts {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeAccounts{accounts: map[string]*storage.Account{
		"alice": {ID: "1", Username: "alice", PasswordHash: string(hash), DisplayName: "Alice"},
	}}
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestBasicAuthenticate(t *testing.T) {
	b := &BasicAuth{Accounts: testAccounts(t), Logger: zerolog.Nop()}

	p, err := b.Authenticate(context.Background(), basicHeader("alice", "password"))
	require.NoError(t, err)
	require.Equal(t, "alice", p.UserID)
	require.Equal(t, "Alice", p.Display)
}

func TestBasicAuthenticateRejects(t *testing.T) {
	b := &BasicAuth{Accounts: testAccounts(t), Logger: zerolog.Nop()}

	for _, header := range []string{
		"",
		"Bearer xyz",
		"Basic not-base64!!!",
		"Basic " + base64.StdEncoding.EncodeToString([]byte("no-colon")),
		basicHeader("alice", "wrong"),
		basicHeader("nobody", "password"),
	} {
		_, err := b.Authenticate(context.Background(), header)
		require.Error(t, err, "header %q", header)
	}
}

func TestChainHonorsConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.EnableBasic = true

	c := NewChain(cfg, testAccounts(t), zerolog.Nop())
	require.True(t, c.BasicEnabled())
	require.False(t, c.BearerEnabled())

	_, err := c.BearerAuthenticate(context.Background(), "token")
	require.Error(t, err)

	p, err := c.BasicAuthenticate(context.Background(), basicHeader("alice", "password"))
	require.NoError(t, err)
	require.Equal(t, "alice", p.UserID)
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	_, ok := PrincipalFrom(ctx)
	require.False(t, ok)

	ctx = WithPrincipal(ctx, &Principal{UserID: "alice"})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "alice", p.UserID)
}
