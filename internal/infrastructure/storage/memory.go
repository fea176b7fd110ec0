package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkret/firefly-enricher/internal/apperr"
)

// MemoryStore is an in-memory SecretsRepository for tests and local runs
// without a database file.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[uuid.UUID]*Secret
}

var _ SecretsRepository = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[uuid.UUID]*Secret)}
}

func (m *MemoryStore) Create(_ context.Context, secret *Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if secret.ID == uuid.Nil {
		secret.ID = uuid.New()
	}
	if secret.CreatedAt.IsZero() {
		secret.CreatedAt = time.Now().UTC()
	}

	copied := *secret
	m.secrets[secret.ID] = &copied
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Secret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	secret, ok := m.secrets[id]
	if !ok {
		return nil, apperr.ErrSecretNotFound
	}
	copied := *secret
	return &copied, nil
}

func (m *MemoryStore) ListForUser(_ context.Context, userID string) ([]*Secret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var secrets []*Secret
	for _, secret := range m.secrets {
		if secret.UserID == userID {
			copied := *secret
			secrets = append(secrets, &copied)
		}
	}
	sort.Slice(secrets, func(i, j int) bool {
		return secrets[i].CreatedAt.After(secrets[j].CreatedAt)
	})
	return secrets, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.secrets[id]; !ok {
		return apperr.ErrSecretNotFound
	}
	delete(m.secrets, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
