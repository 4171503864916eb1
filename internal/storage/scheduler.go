package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// QueryPruner deletes query log entries older than a cutoff.
type QueryPruner interface {
	PruneQueries(ctx context.Context, olderThan time.Time) (int64, error)
}

// SchedulerConfig holds configuration for the prune scheduler.
type SchedulerConfig struct {
	// Interval is how often to prune. Default: 24h.
	Interval time.Duration

	// Retention is how long query log entries are kept.
	Retention time.Duration

	// StartImmediately prunes once when the scheduler starts.
	StartImmediately bool

	// OnPrune is called after each prune attempt. Optional.
	OnPrune func(removed int64, err error)
}

// DefaultSchedulerConfig returns a daily prune keeping 90 days of queries.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Interval:         24 * time.Hour,
		Retention:        90 * 24 * time.Hour,
		StartImmediately: true,
	}
}

// PruneScheduler periodically trims the query log.
type PruneScheduler struct {
	pruner QueryPruner
	config *SchedulerConfig
	now    func() time.Time

	mu           sync.RWMutex
	running      bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	lastRun      time.Time
	lastError    error
	removed      int64
	runCount     int
	failureCount int
}

// NewPruneScheduler creates a scheduler over pruner.
func NewPruneScheduler(pruner QueryPruner, config *SchedulerConfig) *PruneScheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	return &PruneScheduler{pruner: pruner, config: config, now: time.Now}
}

// Start starts the scheduler. Returns an error if it is already running
// or the retention is not positive.
func (s *PruneScheduler) Start(ctx context.Context) error {
	if s.config.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %s", s.config.Retention)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *PruneScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is not running")
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// run is the main scheduler loop.
func (s *PruneScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	if s.config.StartImmediately {
		s.prune(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.prune(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// prune trims once and updates statistics.
func (s *PruneScheduler) prune(ctx context.Context) {
	removed, err := s.pruner.PruneQueries(ctx, s.now().Add(-s.config.Retention))

	s.mu.Lock()
	s.lastRun = s.now()
	s.lastError = err
	s.runCount++
	if err != nil {
		s.failureCount++
	} else {
		s.removed += removed
	}
	s.mu.Unlock()

	if s.config.OnPrune != nil {
		s.config.OnPrune(removed, err)
	}
}

// SchedulerStatus contains information about the scheduler state.
type SchedulerStatus struct {
	Running      bool
	Interval     time.Duration
	LastRun      time.Time
	NextRun      time.Time
	Removed      int64
	RunCount     int
	FailureCount int
	LastError    error
}

// Status returns the current scheduler status.
func (s *PruneScheduler) Status() *SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	if s.running && !s.lastRun.IsZero() {
		next = s.lastRun.Add(s.config.Interval)
	}

	return &SchedulerStatus{
		Running:      s.running,
		Interval:     s.config.Interval,
		LastRun:      s.lastRun,
		NextRun:      next,
		Removed:      s.removed,
		RunCount:     s.runCount,
		FailureCount: s.failureCount,
		LastError:    s.lastError,
	}
}

// String returns a human-readable representation of the scheduler status.
func (s *SchedulerStatus) String() string {
	if !s.Running {
		return "Query log pruning: stopped"
	}

	status := "Query log pruning: running\n"
	status += fmt.Sprintf("  Interval: %s\n", s.Interval)
	status += fmt.Sprintf("  Runs: %d (failures: %d)\n", s.RunCount, s.FailureCount)
	status += fmt.Sprintf("  Removed: %d\n", s.Removed)
	if !s.LastRun.IsZero() {
		status += fmt.Sprintf("  Last run: %s\n", s.LastRun.Format(time.RFC3339))
	}
	if !s.NextRun.IsZero() {
		status += fmt.Sprintf("  Next run: %s\n", s.NextRun.Format(time.RFC3339))
	}
	if s.LastError != nil {
		status += fmt.Sprintf("  Last error: %v\n", s.LastError)
	}
	return status
}
