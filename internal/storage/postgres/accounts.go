package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ebalder/contactdav/internal/storage"
)

func (s *Store) CreateAccount(ctx context.Context, a *storage.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, username, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Username, a.PasswordHash, a.DisplayName, a.CreatedAt)
	return err
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*storage.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, display_name, created_at
		FROM accounts WHERE username = $1
	`, username)
	var a storage.Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.DisplayName, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
