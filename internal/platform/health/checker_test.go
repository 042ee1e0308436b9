package health

import (
	"context"
	"errors"
	"testing"

	"github.com/SlpAus/falsifi-backend/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis 依次返回预设的run_id，空字符串表示连接失败
type fakeRedis struct {
	ids []string
}

func (f *fakeRedis) runID(context.Context) (string, error) {
	if len(f.ids) == 0 {
		return "", errors.New("no more answers")
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	if id == "" {
		return "", errors.New("connection refused")
	}
	return id, nil
}

func newTestChecker(t *testing.T, rebuild RebuildFunc, ids ...string) (*Checker, *fakeRedis) {
	t.Helper()
	t.Cleanup(func() { database.UpdateStatus(true, "") })
	fake := &fakeRedis{ids: ids}
	return &Checker{runID: fake.runID, rebuild: rebuild, status: newTracker()}, fake
}

func TestTracker_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		start     State
		connected bool
		runID     string
		want      State
		rebuild   bool
	}{
		{"healthy stays healthy", StateHealthy, true, "a", StateHealthy, false},
		{"healthy loses connection", StateHealthy, false, "", StateDegraded, false},
		{"healthy sees restart", StateHealthy, true, "b", StateRebuilding, true},
		{"degraded recovers", StateDegraded, true, "a", StateHealthy, false},
		{"degraded recovers after restart", StateDegraded, true, "b", StateRebuilding, true},
		{"degraded stays degraded", StateDegraded, false, "", StateDegraded, false},
		{"rebuilding retries", StateRebuilding, true, "a", StateRebuilding, true},
		{"rebuilding loses connection", StateRebuilding, false, "", StateDegraded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			tr.setInitialRunID("a")
			tr.currentState = tt.start

			assert.Equal(t, tt.rebuild, tr.Assess(tt.connected, tt.runID))
			assert.Equal(t, tt.want, tr.State())
		})
	}
}

func TestCheckOnce_RebuildsAfterRestart(t *testing.T) {
	rebuilds := 0
	c, _ := newTestChecker(t, func(context.Context) error {
		rebuilds++
		return nil
	}, "a", "b", "b")
	ctx := context.Background()

	c.Init(ctx)
	assert.Equal(t, StateHealthy, c.State())

	// run_id 由 a 变为 b，重建后仍为 b
	c.CheckOnce(ctx)
	assert.Equal(t, 1, rebuilds)
	assert.Equal(t, StateHealthy, c.State())
	assert.True(t, database.IsRedisHealthy())
}

func TestCheckOnce_RestartDuringRebuildKeepsRebuilding(t *testing.T) {
	rebuilds := 0
	c, _ := newTestChecker(t, func(context.Context) error {
		rebuilds++
		return nil
	}, "a", "b", "c", "c", "c")
	ctx := context.Background()

	c.Init(ctx)
	c.CheckOnce(ctx)
	assert.Equal(t, StateRebuilding, c.State())
	assert.False(t, database.IsRedisHealthy())

	c.CheckOnce(ctx)
	assert.Equal(t, 2, rebuilds)
	assert.Equal(t, StateHealthy, c.State())
	assert.True(t, database.IsRedisHealthy())
}

func TestCheckOnce_FailedRebuildRetries(t *testing.T) {
	fail := true
	c, _ := newTestChecker(t, func(context.Context) error {
		if fail {
			return errors.New("write failed")
		}
		return nil
	}, "a", "b", "b", "b", "b")
	ctx := context.Background()

	c.Init(ctx)
	c.CheckOnce(ctx)
	require.Equal(t, StateRebuilding, c.State())

	fail = false
	c.CheckOnce(ctx)
	assert.Equal(t, StateHealthy, c.State())
}

func TestCheckOnce_DegradesAndRecovers(t *testing.T) {
	c, _ := newTestChecker(t, func(context.Context) error {
		t.Fatal("unexpected rebuild")
		return nil
	}, "", "", "a")
	ctx := context.Background()

	c.Init(ctx)
	assert.Equal(t, StateDegraded, c.State())
	assert.False(t, database.IsRedisHealthy())

	c.CheckOnce(ctx)
	assert.Equal(t, StateDegraded, c.State())

	c.CheckOnce(ctx)
	assert.Equal(t, StateHealthy, c.State())
	assert.True(t, database.IsRedisHealthy())
}
