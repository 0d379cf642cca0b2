package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO addressbooks (id, owner_uid, uri, display_name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.OwnerUID, a.URI, a.DisplayName, a.Description, a.CreatedAt, a.UpdatedAt)
	return err
}

func (s *Store) DeleteAddressbook(ctx context.Context, ownerUID, abURI string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM addressbooks WHERE owner_uid = $1 AND uri = $2
	`, ownerUID, abURI)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetAddressbookByOwnerURI(ctx context.Context, ownerUID, abURI string) (*storage.Addressbook, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_uid, uri, display_name, description, created_at, updated_at
		FROM addressbooks WHERE owner_uid = $1 AND uri = $2
	`, ownerUID, abURI)
	var a storage.Addressbook
	if err := row.Scan(&a.ID, &a.OwnerUID, &a.URI, &a.DisplayName, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAddressbooksByOwner(ctx context.Context, ownerUID string) ([]*storage.Addressbook, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_uid, uri, display_name, description, created_at, updated_at
		FROM addressbooks WHERE owner_uid = $1 ORDER BY uri
	`, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*storage.Addressbook
	for rows.Next() {
		var a storage.Addressbook
		if err := rows.Scan(&a.ID, &a.OwnerUID, &a.URI, &a.DisplayName, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAddressbookDisplayName(ctx context.Context, ownerUID, abURI string, displayName *string) error {
	name := ""
	if displayName != nil {
		name = *displayName
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE addressbooks SET display_name = $1, updated_at = $2
		WHERE owner_uid = $3 AND uri = $4
	`, name, time.Now().UTC(), ownerUID, abURI)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LatestModification reads the collection clock; contact writes and deletes
// advance addressbooks.updated_at transactionally.
func (s *Store) LatestModification(ctx context.Context, addressbookID string) (time.Time, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT updated_at FROM addressbooks WHERE id = $1
	`, addressbookID)
	var updatedAt time.Time
	if err := row.Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, err
	}
	return updatedAt.UTC(), nil
}
