package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups and deletes when no row matches.
var ErrNotFound = errors.New("storage: not found")

type Account struct {
	ID           string
	Username     string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

type Addressbook struct {
	ID          string
	OwnerUID    string
	URI         string
	DisplayName string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Contact struct {
	ID            string
	AddressbookID string
	UID           string
	ETag          string
	Data          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Store interface {
	Close()

	// Accounts
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)

	// Addressbooks
	CreateAddressbook(ctx context.Context, a *Addressbook) error
	DeleteAddressbook(ctx context.Context, ownerUID, abURI string) error
	GetAddressbookByOwnerURI(ctx context.Context, ownerUID, abURI string) (*Addressbook, error)
	ListAddressbooksByOwner(ctx context.Context, ownerUID string) ([]*Addressbook, error)
	UpdateAddressbookDisplayName(ctx context.Context, ownerUID, abURI string, displayName *string) error

	// Contacts
	GetContact(ctx context.Context, addressbookID, uid string) (*Contact, error)
	ListContacts(ctx context.Context, addressbookID string) ([]*Contact, error)
	ListContactsSince(ctx context.Context, addressbookID string, since time.Time) ([]*Contact, error)
	PutContact(ctx context.Context, c *Contact) error
	DeleteContact(ctx context.Context, addressbookID, uid string) error

	// LatestModification reports the instant of the most recent mutation in
	// the addressbook, including deletions. It is the basis for the
	// collection change tag and for sync tokens.
	LatestModification(ctx context.Context, addressbookID string) (time.Time, error)
}
