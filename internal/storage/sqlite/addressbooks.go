package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ebalder/contactdav/internal/storage"
)

func (s *Store) CreateAddressbook(ctx context.Context, a *storage.Addressbook) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addressbooks (id, owner_uid, uri, display_name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.OwnerUID, a.URI, a.DisplayName, a.Description, a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano())
	return err
}

func (s *Store) DeleteAddressbook(ctx context.Context, ownerUID, abURI string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM addressbooks WHERE owner_uid = ? AND uri = ?
	`, ownerUID, abURI)
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
	return nil
}

func (s *Store) GetAddressbookByOwnerURI(ctx context.Context, ownerUID, abURI string) (*storage.Addressbook, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_uid, uri, display_name, description, created_at, updated_at
		FROM addressbooks WHERE owner_uid = ? AND uri = ?
	`, ownerUID, abURI)
	return scanAddressbook(row)
}

func (s *Store) ListAddressbooksByOwner(ctx context.Context, ownerUID string) ([]*storage.Addressbook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_uid, uri, display_name, description, created_at, updated_at
		FROM addressbooks WHERE owner_uid = ? ORDER BY uri
	`, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*storage.Addressbook
	for rows.Next() {
		a, err := scanAddressbook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAddressbookDisplayName(ctx context.Context, ownerUID, abURI string, displayName *string) error {
	name := ""
	if displayName != nil {
		name = *displayName
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE addressbooks SET display_name = ?, updated_at = ?
		WHERE owner_uid = ? AND uri = ?
	`, name, time.Now().UTC().UnixNano(), ownerUID, abURI)
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
	return nil
}

// LatestModification reads the collection clock. Every contact write and
// delete advances addressbooks.updated_at in the same transaction, so
// deletions move the clock even though no row survives them.
func (s *Store) LatestModification(ctx context.Context, addressbookID string) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM addressbooks WHERE id = ?
	`, addressbookID)
	var updatedAt int64
	if err := row.Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, err
	}
	return time.Unix(0, updatedAt).UTC(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddressbook(row rowScanner) (*storage.Addressbook, error) {
	var (
		a         storage.Addressbook
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&a.ID, &a.OwnerUID, &a.URI, &a.DisplayName, &a.Description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	a.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &a, nil
}
