package carddav

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ebalder/contactdav/internal/storage"
)

// memStore is an in-memory storage.Store for handler tests. Its clock
// advances a millisecond per mutation so ordering assertions are stable.
type memStore struct {
	mu       sync.Mutex
	now      time.Time
	accounts map[string]*storage.Account
	books    map[string]*storage.Addressbook
	contacts map[string]map[string]*storage.Contact
}

func newMemStore() *memStore {
	return &memStore{
		now:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		accounts: make(map[string]*storage.Account),
		books:    make(map[string]*storage.Addressbook),
		contacts: make(map[string]map[string]*storage.Contact),
	}
}

func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Millisecond)
	return m.now
}

func bookKey(ownerUID, uri string) string { return ownerUID + "/" + uri }

func (m *memStore) Close() {}

func (m *memStore) CreateAccount(_ context.Context, a *storage.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = m.tick()
	m.accounts[a.Username] = a
	return nil
}

func (m *memStore) GetAccountByUsername(_ context.Context, username string) (*storage.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

func (m *memStore) CreateAddressbook(_ context.Context, a *storage.Addressbook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := m.tick()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.books[bookKey(a.OwnerUID, a.URI)] = a
	m.contacts[a.ID] = make(map[string]*storage.Contact)
	return nil
}

func (m *memStore) DeleteAddressbook(_ context.Context, ownerUID, abURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := bookKey(ownerUID, abURI)
	a, ok := m.books[key]
	if !ok {
		return storage.ErrNotFound
	}
	delete(m.books, key)
	delete(m.contacts, a.ID)
	return nil
}

func (m *memStore) GetAddressbookByOwnerURI(_ context.Context, ownerUID, abURI string) (*storage.Addressbook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.books[bookKey(ownerUID, abURI)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

func (m *memStore) ListAddressbooksByOwner(_ context.Context, ownerUID string) ([]*storage.Addressbook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*storage.Addressbook
	for _, a := range m.books {
		if a.OwnerUID == ownerUID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) UpdateAddressbookDisplayName(_ context.Context, ownerUID, abURI string, displayName *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.books[bookKey(ownerUID, abURI)]
	if !ok {
		return storage.ErrNotFound
	}
	if displayName != nil {
		a.DisplayName = *displayName
	} else {
		a.DisplayName = ""
	}
	a.UpdatedAt = m.tick()
	return nil
}

func (m *memStore) GetContact(_ context.Context, addressbookID, uid string) (*storage.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[addressbookID][uid]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListContacts(_ context.Context, addressbookID string) ([]*storage.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*storage.Contact
	for _, c := range m.contacts[addressbookID] {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) ListContactsSince(_ context.Context, addressbookID string, since time.Time) ([]*storage.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*storage.Contact
	for _, c := range m.contacts[addressbookID] {
		if !c.UpdatedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) PutContact(_ context.Context, c *storage.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := m.tick()
	if existing, ok := m.contacts[c.AddressbookID][c.UID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.contacts[c.AddressbookID][c.UID] = c
	m.touch(c.AddressbookID, now)
	return nil
}

func (m *memStore) DeleteContact(_ context.Context, addressbookID, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[addressbookID][uid]; !ok {
		return storage.ErrNotFound
	}
	delete(m.contacts[addressbookID], uid)
	m.touch(addressbookID, m.tick())
	return nil
}

func (m *memStore) LatestModification(_ context.Context, addressbookID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.books {
		if a.ID == addressbookID {
			return a.UpdatedAt, nil
		}
	}
	return time.Time{}, storage.ErrNotFound
}

func (m *memStore) touch(addressbookID string, at time.Time) {
	for _, a := range m.books {
		if a.ID == addressbookID {
			a.UpdatedAt = at
			return
		}
	}
}
