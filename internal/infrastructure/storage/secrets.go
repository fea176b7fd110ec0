// Package storage persists user secrets: the credentials the Allegro flow
// needs to call the marketplace on a user's behalf. Secrets are opaque
// values here; the store never interprets them.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Secret types understood by the application.
const (
	SecretTypeAllegro = "allegro"
)

// Secret is one stored credential.
type Secret struct {
	ID        uuid.UUID
	UserID    string
	Type      string
	Label     string
	Value     string
	CreatedAt time.Time
}

// SecretsRepository is the persistence contract for secrets. The SQLite
// store implements it for production; an in-memory store backs tests.
type SecretsRepository interface {
	Create(ctx context.Context, secret *Secret) error
	Get(ctx context.Context, id uuid.UUID) (*Secret, error)
	ListForUser(ctx context.Context, userID string) ([]*Secret, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}
