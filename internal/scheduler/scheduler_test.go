package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestScheduler_RunsJobsOnStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(zap.NewNop())
	var warmups, sweeps atomic.Int32
	require.NoError(t, s.Register("category-refresh", "@every 6h", time.Second, func(ctx context.Context) error {
		warmups.Add(1)
		return nil
	}))
	require.NoError(t, s.Register("session-sweep", "@every 10m", 0, func(ctx context.Context) error {
		sweeps.Add(1)
		return errors.New("sweep failed")
	}))

	s.Start()
	s.Start()
	assert.Eventually(t, func() bool { return warmups.Load() == 1 && sweeps.Load() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()
	s.Stop()

	status := s.GetStatus()
	assert.Equal(t, false, status["running"])
	jobs := status["jobs"].([]map[string]interface{})
	require.Len(t, jobs, 2)
	assert.Equal(t, "category-refresh", jobs[0]["name"])
	assert.Equal(t, "sweep failed", jobs[1]["last_error"])
}

func TestScheduler_ForceRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(zap.NewNop())
	var runs atomic.Int32
	require.NoError(t, s.Register("job", "@every 1h", 0, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	require.NoError(t, s.ForceRun("job"))
	assert.Error(t, s.ForceRun("missing"))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)

	s.Start()
	s.Stop()
}

func TestScheduler_RegisterErrors(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register("a", "@every 1m", 0, noop))
	assert.Error(t, s.Register("a", "@every 1m", 0, noop))
	assert.Error(t, s.Register("b", "not a spec", 0, noop))
}
