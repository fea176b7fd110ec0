package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mkret/firefly-enricher/internal/apperr"
)

// Store provides SQLite-backed secrets persistence.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Compile-time check that Store implements SecretsRepository
var _ SecretsRepository = (*Store)(nil)

// NewStore opens the SQLite database and runs pending migrations.
func NewStore(dbPath string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, log: log}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new secret. A zero ID or CreatedAt is filled in.
func (s *Store) Create(ctx context.Context, secret *Secret) error {
	if secret.ID == uuid.Nil {
		secret.ID = uuid.New()
	}
	if secret.CreatedAt.IsZero() {
		secret.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_secrets (id, user_id, type, label, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, secret.ID.String(), secret.UserID, secret.Type, secret.Label, secret.Value, secret.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert secret: %w", err)
	}
	return nil
}

// Get retrieves one secret by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Secret, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, label, value, created_at
		FROM user_secrets WHERE id = ?
	`, id.String())

	secret, err := scanSecret(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrSecretNotFound
	}
	return secret, err
}

// ListForUser lists a user's secrets, newest first.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*Secret, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, label, value, created_at
		FROM user_secrets WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var secrets []*Secret
	for rows.Next() {
		secret, err := scanSecret(rows)
		if err != nil {
			return nil, err
		}
		secrets = append(secrets, secret)
	}
	return secrets, rows.Err()
}

// Delete removes one secret by id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_secrets WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrSecretNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecret(row rowScanner) (*Secret, error) {
	var (
		secret Secret
		rawID  string
	)
	if err := row.Scan(&rawID, &secret.UserID, &secret.Type, &secret.Label, &secret.Value, &secret.CreatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("corrupt secret id %q: %w", rawID, err)
	}
	secret.ID = id
	return &secret, nil
}
