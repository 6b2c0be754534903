package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/bridge/internal/domain/integration"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) SyncStock(ctx context.Context) (*integration.StockSyncResult, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &integration.StockSyncResult{Considered: 2, Updated: 1, Skipped: 1}, nil
}

func TestStockSyncTrigger_DisabledWithoutInterval(t *testing.T) {
	trigger := NewStockSyncTrigger(StockSyncTriggerConfig{}, &countingRunner{}, zap.NewNop())

	assert.False(t, trigger.Enabled())
	assert.ErrorIs(t, trigger.Start(context.Background()), ErrInvalidInterval)
	assert.False(t, trigger.IsRunning())
	assert.NoError(t, trigger.Stop(context.Background()))
}

func TestStockSyncTrigger_RunsOnInterval(t *testing.T) {
	runner := &countingRunner{}
	trigger := NewStockSyncTrigger(StockSyncTriggerConfig{Interval: 10 * time.Millisecond}, runner, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))
	assert.True(t, trigger.IsRunning())

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, trigger.Stop(context.Background()))
	assert.False(t, trigger.IsRunning())

	stopped := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runner.calls.Load())

	last, err := trigger.LastRun()
	assert.False(t, last.IsZero())
	assert.NoError(t, err)
}

func TestStockSyncTrigger_RunOnStartAndFailureLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	runner := &countingRunner{err: errors.New("storefront down")}
	trigger := NewStockSyncTrigger(StockSyncTriggerConfig{Interval: time.Hour, RunOnStart: true}, runner, zap.New(core))

	require.NoError(t, trigger.Start(context.Background()))
	assert.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(context.Background()))

	_, err := trigger.LastRun()
	assert.EqualError(t, err, "storefront down")
	assert.Equal(t, 1, logs.FilterMessage("Scheduled stock sync failed").Len())
}
