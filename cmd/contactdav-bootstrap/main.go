// Command contactdav-bootstrap provisions an account and its default
// addressbook so that a fresh deployment has something to log into.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/ebalder/contactdav/internal/config"
	"github.com/ebalder/contactdav/internal/logging"
	"github.com/ebalder/contactdav/internal/storage"
	"github.com/ebalder/contactdav/internal/storage/postgres"
	"github.com/ebalder/contactdav/internal/storage/sqlite"
)

func main() {
	username := flag.String("username", "", "account login name")
	password := flag.String("password", "", "account password")
	display := flag.String("display", "", "display name (defaults to username)")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}
	if *display == "" {
		*display = *username
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	var store storage.Store
	switch cfg.Storage.Type {
	case "postgres":
		store, err = postgres.New(cfg.Storage.PostgresURL, logger)
	case "sqlite":
		store, err = sqlite.New(cfg.Storage.SQLitePath, logger)
	default:
		err = errors.New("unknown storage type: " + cfg.Storage.Type)
	}
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	ctx := context.Background()
	acct := &storage.Account{
		Username:     *username,
		PasswordHash: string(hash),
		DisplayName:  *display,
	}
	if err := store.CreateAccount(ctx, acct); err != nil {
		log.Fatalf("create account: %v", err)
	}

	ab := &storage.Addressbook{
		OwnerUID:    *username,
		URI:         "contacts",
		DisplayName: "Contacts",
		Description: "Default addressbook",
	}
	if err := store.CreateAddressbook(ctx, ab); err != nil {
		log.Fatalf("create addressbook: %v", err)
	}

	logger.Info().
		Str("username", *username).
		Str("addressbook", ab.URI).
		Msg("account provisioned")
}
