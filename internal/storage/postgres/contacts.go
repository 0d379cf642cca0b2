package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ebalder/contactdav/internal/storage"
)

func (s *Store) GetContact(ctx context.Context, addressbookID, uid string) (*storage.Contact, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, addressbook_id, uid, etag, data, created_at, updated_at
		FROM contacts WHERE addressbook_id = $1 AND uid = $2
	`, addressbookID, uid)
	var c storage.Contact
	if err := row.Scan(&c.ID, &c.AddressbookID, &c.UID, &c.ETag, &c.Data, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListContacts(ctx context.Context, addressbookID string) ([]*storage.Contact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, addressbook_id, uid, etag, data, created_at, updated_at
		FROM contacts WHERE addressbook_id = $1 ORDER BY uid
	`, addressbookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (s *Store) ListContactsSince(ctx context.Context, addressbookID string, since time.Time) ([]*storage.Contact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, addressbook_id, uid, etag, data, created_at, updated_at
		FROM contacts WHERE addressbook_id = $1 AND updated_at >= $2 ORDER BY uid
	`, addressbookID, since)
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO contacts (id, addressbook_id, uid, etag, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (addressbook_id, uid) DO UPDATE SET
			etag = excluded.etag,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, c.ID, c.AddressbookID, c.UID, c.ETag, c.Data, now, now)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE addressbooks SET updated_at = $1 WHERE id = $2
	`, now, c.AddressbookID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteContact(ctx context.Context, addressbookID, uid string) error {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM contacts WHERE addressbook_id = $1 AND uid = $2
	`, addressbookID, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
		UPDATE addressbooks SET updated_at = $1 WHERE id = $2
	`, now, addressbookID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func collectContacts(rows pgx.Rows) ([]*storage.Contact, error) {
	var out []*storage.Contact
	for rows.Next() {
		var c storage.Contact
		if err := rows.Scan(&c.ID, &c.AddressbookID, &c.UID, &c.ETag, &c.Data, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
