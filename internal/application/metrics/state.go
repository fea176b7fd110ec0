// Package metrics implements the read-through cached statistics engine.
// Each metrics kind owns one manager; reads are instant snapshots and
// refreshes run detached so callers never block on a recomputation.
package metrics

import "time"

// Status is the lifecycle of a metrics snapshot.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// State is the observable state of one metrics kind. Result is only set
// once a recomputation has finished; Error only after a failure. Failure is
// not sticky: a later refresh may overwrite it.
type State[T any] struct {
	Status        Status     `json:"status"`
	Result        *T         `json:"result,omitempty"`
	Error         string     `json:"error,omitempty"`
	Progress      string     `json:"progress,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}
