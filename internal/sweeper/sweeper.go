// Package sweeper hosts the recurring process that force-transitions
// tickets by elapsed time, independent of any user action.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/flight-marketplace/internal/clock"
	"github.com/spec-kit/flight-marketplace/internal/events"
	"github.com/spec-kit/flight-marketplace/internal/observability"
)

// Store is the persistence surface the sweeper needs. Both updates are
// set-based with the predicate in the WHERE clause, so a re-run with
// nothing to do is a zero-row update rather than an error.
type Store interface {
	// ExpireDeparted moves live listings past their departure to expired,
	// clearing any pending edit.
	ExpireDeparted(ctx context.Context, now time.Time) (int64, error)
	// BlockStale moves never-approved listings past their flight date to
	// blocked.
	BlockStale(ctx context.Context, today time.Time) (int64, error)
}

// Sweeper runs the two decay transitions on a fixed interval. A failed
// sweep is logged and swallowed; the next tick retries from scratch.
type Sweeper struct {
	store      Store
	clock      clock.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	interval   time.Duration
}

// Config bundles sweeper collaborators.
type Config struct {
	Store      Store
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Interval   time.Duration
}

// New constructs a sweeper.
func New(cfg Config) *Sweeper {
	c := cfg.Clock
	if c == nil {
		c = clock.System()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:      cfg.Store,
		clock:      c,
		dispatcher: cfg.Dispatcher,
		logger:     logger,
		metrics:    cfg.Metrics,
		interval:   interval,
	}
}

// Run ticks until ctx is cancelled. The first sweep happens one interval
// after start, matching a cron-per-minute cadence.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce applies both decay transitions for the current instant.
// Idempotent: a second run with no intervening mutation changes nothing.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.clock.Now()

	expired, err := s.store.ExpireDeparted(ctx, now)
	if err != nil {
		s.logger.Error("expire departed tickets", zap.Error(err))
		s.recordSweep("error")
		return
	}

	blocked, err := s.store.BlockStale(ctx, startOfDay(now))
	if err != nil {
		s.logger.Error("block stale tickets", zap.Error(err))
		s.recordSweep("error")
		return
	}

	s.recordSweep("ok")
	if s.metrics != nil {
		s.metrics.RecordSweepTransitions(expired, blocked)
	}
	if expired == 0 && blocked == 0 {
		return
	}

	s.logger.Info("sweep applied decay transitions",
		zap.Int64("expired", expired),
		zap.Int64("blocked", blocked))

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventTicketsExpired,
			Timestamp: now,
			Payload:   events.TicketsExpiredPayload{Expired: expired, Blocked: blocked},
		})
	}
}

// startOfDay truncates to the calendar-day clock used by the flight-date
// decay; the departure decay uses the precise instant instead.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *Sweeper) recordSweep(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSweep(outcome)
}
