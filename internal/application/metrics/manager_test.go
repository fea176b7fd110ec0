package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

func TestManager_InitialState(t *testing.T) {
	m := NewManager(func(ctx context.Context) (int, error) { return 0, nil })

	state := m.GetState()

	assert.Equal(t, StatusPending, state.Status)
	assert.Nil(t, state.Result)
	assert.Nil(t, state.LastUpdatedAt)
}

func TestManager_RefreshStoresResult(t *testing.T) {
	m := NewManager(func(ctx context.Context) (int, error) { return 42, nil })

	state := m.Refresh(context.Background())
	assert.Equal(t, "queued", state.Progress)

	require.Eventually(t, func() bool {
		return m.GetState().Status == StatusDone
	}, time.Second, 5*time.Millisecond)

	state = m.GetState()
	require.NotNil(t, state.Result)
	assert.Equal(t, 42, *state.Result)
	assert.Empty(t, state.Progress)
	assert.NotNil(t, state.LastUpdatedAt)
}

func TestManager_RefreshDedupesWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32

	m := NewManager(func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 1, nil
	})

	m.Refresh(context.Background())
	require.Eventually(t, func() bool {
		return m.GetState().Status == StatusRunning
	}, time.Second, 5*time.Millisecond)

	state := m.Refresh(context.Background())
	assert.Equal(t, StatusRunning, state.Status)

	close(release)
	require.Eventually(t, func() bool {
		return m.GetState().Status == StatusDone
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
}

func TestManager_RefreshOutlivesCallerContext(t *testing.T) {
	m := NewManager(func(ctx context.Context) (int, error) {
		// A request-scoped context is gone by the time the fetch runs;
		// the recomputation must not inherit its cancellation.
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 9, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.Refresh(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return m.GetState().Status == StatusDone
	}, time.Second, 5*time.Millisecond)

	state := m.GetState()
	require.NotNil(t, state.Result)
	assert.Equal(t, 9, *state.Result)
	assert.Empty(t, state.Error)
}

func TestManager_FailureIsNotSticky(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("upstream unavailable")
		}
		return 7, nil
	})

	m.Refresh(context.Background())
	require.Eventually(t, func() bool {
		return m.GetState().Status == StatusFailed
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, m.GetState().Error, "upstream unavailable")

	m.Refresh(context.Background())
	require.Eventually(t, func() bool {
		return m.GetState().Status == StatusDone
	}, time.Second, 5*time.Millisecond)

	state := m.GetState()
	assert.Empty(t, state.Error)
	require.NotNil(t, state.Result)
	assert.Equal(t, 7, *state.Result)
}

func TestGroupByMonth(t *testing.T) {
	mk := func(y int, mo time.Month, d int) *ledger.Transaction {
		return &ledger.Transaction{BaseItem: ledger.BaseItem{
			Date: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC),
		}}
	}

	buckets := GroupByMonth([]*ledger.Transaction{
		mk(2024, time.March, 5),
		mk(2024, time.January, 1),
		mk(2024, time.March, 20),
	})

	require.Len(t, buckets, 2)
	assert.Equal(t, MonthCount{Month: "2024-01", Count: 1}, buckets[0])
	assert.Equal(t, MonthCount{Month: "2024-03", Count: 2}, buckets[1])
}

func TestGroupByMonth_Empty(t *testing.T) {
	assert.Empty(t, GroupByMonth(nil))
}
