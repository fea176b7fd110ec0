package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkret/firefly-enricher/internal/apperr"
)

// repositories under test: the SQLite store against a temp file and the
// in-memory store, both behind the same contract.
func repositories(t *testing.T) map[string]SecretsRepository {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return map[string]SecretsRepository{
		"sqlite": store,
		"memory": NewMemoryStore(),
	}
}

func TestSecrets_CreateAndGet(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			secret := &Secret{
				UserID: "user-1",
				Type:   SecretTypeAllegro,
				Label:  "my account",
				Value:  "cookie-value",
			}

			err := repo.Create(context.Background(), secret)
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, secret.ID)
			assert.False(t, secret.CreatedAt.IsZero())

			got, err := repo.Get(context.Background(), secret.ID)
			require.NoError(t, err)
			assert.Equal(t, secret.ID, got.ID)
			assert.Equal(t, "user-1", got.UserID)
			assert.Equal(t, SecretTypeAllegro, got.Type)
			assert.Equal(t, "my account", got.Label)
			assert.Equal(t, "cookie-value", got.Value)
		})
	}
}

func TestSecrets_GetMissing(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Get(context.Background(), uuid.New())
			assert.ErrorIs(t, err, apperr.ErrSecretNotFound)
		})
	}
}

func TestSecrets_ListForUser(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			older := &Secret{UserID: "user-1", Type: SecretTypeAllegro, Value: "a",
				CreatedAt: time.Now().UTC().Add(-time.Hour)}
			newer := &Secret{UserID: "user-1", Type: SecretTypeAllegro, Value: "b",
				CreatedAt: time.Now().UTC()}
			other := &Secret{UserID: "user-2", Type: SecretTypeAllegro, Value: "c"}

			require.NoError(t, repo.Create(context.Background(), older))
			require.NoError(t, repo.Create(context.Background(), newer))
			require.NoError(t, repo.Create(context.Background(), other))

			secrets, err := repo.ListForUser(context.Background(), "user-1")
			require.NoError(t, err)
			require.Len(t, secrets, 2)
			assert.Equal(t, newer.ID, secrets[0].ID)
			assert.Equal(t, older.ID, secrets[1].ID)
		})
	}
}

func TestSecrets_Delete(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			secret := &Secret{UserID: "user-1", Type: SecretTypeAllegro, Value: "v"}
			require.NoError(t, repo.Create(context.Background(), secret))

			require.NoError(t, repo.Delete(context.Background(), secret.ID))

			_, err := repo.Get(context.Background(), secret.ID)
			assert.ErrorIs(t, err, apperr.ErrSecretNotFound)

			err = repo.Delete(context.Background(), secret.ID)
			assert.ErrorIs(t, err, apperr.ErrSecretNotFound)
		})
	}
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := NewStore(path, log)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(path, log)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
