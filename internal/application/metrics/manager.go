package metrics

import (
	"context"
	"sync"
	"time"
)

// FetchFunc computes a fresh metrics snapshot. It runs on a detached
// goroutine; any error it returns is stored on the state for pollers.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Manager owns the state of one metrics kind. The mutex guards only the
// refresh entry decision and state reads/writes; the recomputation itself
// runs detached, so lock hold time stays O(1).
type Manager[T any] struct {
	mu    sync.Mutex
	state State[T]
	fetch FetchFunc[T]
}

// NewManager creates a manager in the pending state.
func NewManager[T any](fetch FetchFunc[T]) *Manager[T] {
	return &Manager[T]{
		state: State[T]{Status: StatusPending},
		fetch: fetch,
	}
}

// GetState returns a snapshot of the current state without blocking on any
// in-flight recomputation.
func (m *Manager[T]) GetState() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Refresh schedules a recomputation unless one is already running, in which
// case the current state is returned unchanged. The caller never observes
// completion directly; it polls GetState.
func (m *Manager[T]) Refresh(ctx context.Context) State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Status == StatusRunning {
		return m.state
	}

	// Claim the running status before the goroutine starts, so two
	// back-to-back refreshes can never both schedule.
	m.state.Status = StatusRunning
	m.state.Progress = "queued"
	m.state.Error = ""

	// The recomputation must outlive the caller; an HTTP request context
	// is canceled as soon as the handler returns.
	go m.recompute(context.WithoutCancel(ctx))

	return m.state
}

// recompute transitions running -> done or running -> failed, exactly one
// of the two. A failed state still accepts a subsequent Refresh.
func (m *Manager[T]) recompute(ctx context.Context) {
	m.mu.Lock()
	m.state.Progress = "fetching"
	m.mu.Unlock()

	result, err := m.fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.state.Status = StatusFailed
		m.state.Error = err.Error()
		m.state.Progress = ""
		return
	}

	now := time.Now().UTC()
	m.state.Status = StatusDone
	m.state.Result = &result
	m.state.LastUpdatedAt = &now
	m.state.Progress = ""
}
