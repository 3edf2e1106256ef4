package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRoller struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRoller) RollPool(ctx context.Context) (bool, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return false, errors.New("no deadline")
	}
	return true, f.err
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRoller{}, zap.NewNop().Sugar())
	require.NoError(t, s.RegisterAll(DefaultRolloverCron))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestRegisterAllEmptyDisables(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRoller{}, zap.NewNop().Sugar())
	require.NoError(t, s.RegisterAll(""))
	assert.Empty(t, s.Cron.Entries())
}

func TestRegisterAllRejectsBadExpression(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRoller{}, zap.NewNop().Sugar())
	assert.Error(t, s.RegisterAll("every hour please"))
}

func TestRollNowBoundsTheRun(t *testing.T) {
	r := &fakeRoller{err: errors.New("store down")}
	s := NewScheduler(context.Background(), r, zap.NewNop().Sugar())
	s.RollNow()
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestRolloverCronFromEnv(t *testing.T) {
	t.Setenv("POOL_ROLLOVER_CRON", "")
	assert.Equal(t, "", RolloverCronFromEnv())
	t.Setenv("POOL_ROLLOVER_CRON", "0 */5 * * * *")
	assert.Equal(t, "0 */5 * * * *", RolloverCronFromEnv())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRoller{}, zap.NewNop().Sugar())
	require.NoError(t, s.RegisterAll(DefaultRolloverCron))
	s.Start()
	s.Stop()
}
