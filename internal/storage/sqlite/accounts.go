package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ebalder/contactdav/internal/storage"
)

func (s *Store) CreateAccount(ctx context.Context, a *storage.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.Username, a.PasswordHash, a.DisplayName, a.CreatedAt.UnixNano())
	return err
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*storage.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, display_name, created_at
		FROM accounts WHERE username = ?
	`, username)
	var (
		a         storage.Account
		createdAt int64
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.DisplayName, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	return &a, nil
}
