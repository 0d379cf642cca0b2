package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ebalder/contactdav/internal/storage"
)

func (s *Store) GetContact(ctx context.Context, addressbookID, uid string) (*storage.Contact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, addressbook_id, uid, etag, data, created_at, updated_at
		FROM contacts WHERE addressbook_id = ? AND uid = ?
	`, addressbookID, uid)
	return scanContact(row)
}

func (s *Store) ListContacts(ctx context.Context, addressbookID string) ([]*storage.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, addressbook_id, uid, etag, data, created_at, updated_at
		FROM contacts WHERE addressbook_id = ? ORDER BY uid
	`, addressbookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (s *Store) ListContactsSince(ctx context.Context, addressbookID string, since time.Time) ([]*storage.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, addressbook_id, uid, etag, data, created_at, updated_at
		FROM contacts WHERE addressbook_id = ? AND updated_at >= ? ORDER BY uid
	`, addressbookID, since.UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (s *Store) PutContact(ctx context.Context, c *storage.Contact) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.UpdatedAt = now
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (id, addressbook_id, uid, etag, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (addressbook_id, uid) DO UPDATE SET
				etag = excluded.etag,
				data = excluded.data,
				updated_at = excluded.updated_at
		`, c.ID, c.AddressbookID, c.UID, c.ETag, c.Data, now.UnixNano(), now.UnixNano())
		if err != nil {
			return err
		}
		return touchAddressbook(ctx, tx, c.AddressbookID, now)
	})
}

func (s *Store) DeleteContact(ctx context.Context, addressbookID, uid string) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM contacts WHERE addressbook_id = ? AND uid = ?
		`, addressbookID, uid)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return touchAddressbook(ctx, tx, addressbookID, now)
	})
}

// touchAddressbook advances the collection clock alongside the row mutation.
func touchAddressbook(ctx context.Context, tx *sql.Tx, addressbookID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE addressbooks SET updated_at = ? WHERE id = ?
	`, at.UnixNano(), addressbookID)
	return err
}

func scanContact(row rowScanner) (*storage.Contact, error) {
	var (
		c         storage.Contact
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.AddressbookID, &c.UID, &c.ETag, &c.Data, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &c, nil
}

func collectContacts(rows *sql.Rows) ([]*storage.Contact, error) {
	var out []*storage.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
