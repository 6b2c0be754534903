// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/bridge/internal/domain/integration"
)

// ErrInvalidInterval is returned when a trigger is started without a positive interval
var ErrInvalidInterval = errors.New("scheduler: interval must be positive")

// StockSyncRunner pushes ERP stock levels to the storefront
type StockSyncRunner interface {
	SyncStock(ctx context.Context) (*integration.StockSyncResult, error)
}

// StockSyncTriggerConfig holds configuration for the stock sync trigger
type StockSyncTriggerConfig struct {
	// Interval between runs. Zero disables the trigger.
	Interval time.Duration
	// RunOnStart runs one sync immediately after Start
	RunOnStart bool
}

// StockSyncTrigger runs the stock sync on a fixed interval
type StockSyncTrigger struct {
	config StockSyncTriggerConfig
	runner StockSyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastErr   error
}

// NewStockSyncTrigger creates a new stock sync trigger
func NewStockSyncTrigger(config StockSyncTriggerConfig, runner StockSyncRunner, logger *zap.Logger) *StockSyncTrigger {
	return &StockSyncTrigger{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Enabled reports whether an interval is configured
func (s *StockSyncTrigger) Enabled() bool {
	return s.config.Interval > 0
}

// Start starts the trigger loop. Calling Start twice is a no-op.
func (s *StockSyncTrigger) Start(ctx context.Context) error {
	if !s.Enabled() {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Stock sync trigger started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx
func (s *StockSyncTrigger) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Stock sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *StockSyncTrigger) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRun returns the time and error of the most recent run
func (s *StockSyncTrigger) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *StockSyncTrigger) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *StockSyncTrigger) runOnce(ctx context.Context) {
	start := time.Now()
	result, err := s.runner.SyncStock(ctx)

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("Scheduled stock sync failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled stock sync completed",
		zap.Int("considered", result.Considered),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", time.Since(start)),
	)
}
