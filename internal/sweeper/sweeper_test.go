package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/flight-marketplace/internal/clock"
	"github.com/spec-kit/flight-marketplace/internal/domain"
	"github.com/spec-kit/flight-marketplace/internal/events"
)

type fakeRow struct {
	status        domain.TicketStatus
	flightDate    time.Time
	departureTime time.Time
	hasRevision   bool
}

// fakeStore mirrors the set-based UPDATE semantics of the real repository:
// the predicate decides, re-running is harmless.
type fakeStore struct {
	rows        []*fakeRow
	expireErr   error
	blockErr    error
	expireCalls int
	blockCalls  int
}

func departureDecay(status domain.TicketStatus) bool {
	for _, s := range domain.DepartureDecayStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func flightDateDecay(status domain.TicketStatus) bool {
	for _, s := range domain.FlightDateDecayStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (f *fakeStore) ExpireDeparted(_ context.Context, now time.Time) (int64, error) {
	f.expireCalls++
	if f.expireErr != nil {
		return 0, f.expireErr
	}
	var n int64
	for _, row := range f.rows {
		if departureDecay(row.status) && row.departureTime.Before(now) {
			row.status = domain.TicketStatusExpired
			row.hasRevision = false
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) BlockStale(_ context.Context, today time.Time) (int64, error) {
	f.blockCalls++
	if f.blockErr != nil {
		return 0, f.blockErr
	}
	var n int64
	for _, row := range f.rows {
		if flightDateDecay(row.status) && row.flightDate.Before(today) {
			row.status = domain.TicketStatusBlocked
			row.hasRevision = false
			n++
		}
	}
	return n, nil
}

type capturingDispatcher struct {
	published []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

var sweepNow = time.Date(2026, time.April, 15, 10, 0, 0, 0, time.UTC)

func newTestSweeper(store *fakeStore, dispatcher events.Dispatcher, c clock.Clock) *Sweeper {
	return New(Config{Store: store, Clock: c, Dispatcher: dispatcher})
}

func TestSweepExpiresDepartedListings(t *testing.T) {
	store := &fakeStore{rows: []*fakeRow{
		{status: domain.TicketStatusAvailable, flightDate: sweepNow, departureTime: sweepNow.Add(-time.Hour), hasRevision: true},
		{status: domain.TicketStatusUnavailable, flightDate: sweepNow, departureTime: sweepNow.Add(-time.Minute)},
		{status: domain.TicketStatusHold, flightDate: sweepNow, departureTime: sweepNow.Add(-time.Minute)},
		{status: domain.TicketStatusAvailable, flightDate: sweepNow, departureTime: sweepNow.Add(time.Hour)},
	}}
	dispatcher := &capturingDispatcher{}

	newTestSweeper(store, dispatcher, clock.NewFixed(sweepNow)).SweepOnce(context.Background())

	assert.Equal(t, domain.TicketStatusExpired, store.rows[0].status)
	assert.False(t, store.rows[0].hasRevision, "expiration clears the pending edit")
	assert.Equal(t, domain.TicketStatusExpired, store.rows[1].status)
	assert.Equal(t, domain.TicketStatusExpired, store.rows[2].status)
	assert.Equal(t, domain.TicketStatusAvailable, store.rows[3].status, "future departure untouched")

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTicketsExpired, dispatcher.published[0].Type)
	payload := dispatcher.published[0].Payload.(events.TicketsExpiredPayload)
	assert.EqualValues(t, 3, payload.Expired)
}

func TestSweepBlocksStaleListings(t *testing.T) {
	yesterday := sweepNow.AddDate(0, 0, -1)
	store := &fakeStore{rows: []*fakeRow{
		{status: domain.TicketStatusPending, flightDate: yesterday, departureTime: yesterday.Add(8 * time.Hour)},
		{status: domain.TicketStatusRejected, flightDate: yesterday, departureTime: yesterday.Add(8 * time.Hour)},
		// Flying today: calendar day has not passed even though it is mid-morning.
		{status: domain.TicketStatusPending, flightDate: startOfDay(sweepNow), departureTime: sweepNow.Add(2 * time.Hour)},
	}}

	newTestSweeper(store, nil, clock.NewFixed(sweepNow)).SweepOnce(context.Background())

	assert.Equal(t, domain.TicketStatusBlocked, store.rows[0].status)
	assert.Equal(t, domain.TicketStatusBlocked, store.rows[1].status)
	assert.Equal(t, domain.TicketStatusPending, store.rows[2].status)
}

func TestSweepIsIdempotent(t *testing.T) {
	store := &fakeStore{rows: []*fakeRow{
		{status: domain.TicketStatusAvailable, flightDate: sweepNow, departureTime: sweepNow.Add(-time.Hour)},
		{status: domain.TicketStatusPending, flightDate: sweepNow.AddDate(0, 0, -2), departureTime: sweepNow.Add(-time.Hour)},
	}}
	dispatcher := &capturingDispatcher{}
	s := newTestSweeper(store, dispatcher, clock.NewFixed(sweepNow))

	s.SweepOnce(context.Background())
	require.Len(t, dispatcher.published, 1)

	s.SweepOnce(context.Background())
	assert.Len(t, dispatcher.published, 1, "second run changes nothing, publishes nothing")
	assert.Equal(t, domain.TicketStatusExpired, store.rows[0].status)
	assert.Equal(t, domain.TicketStatusBlocked, store.rows[1].status)
}

func TestSweepNoOpPublishesNothing(t *testing.T) {
	store := &fakeStore{}
	dispatcher := &capturingDispatcher{}

	newTestSweeper(store, dispatcher, clock.NewFixed(sweepNow)).SweepOnce(context.Background())

	assert.Empty(t, dispatcher.published)
}

func TestSweepSwallowsStoreErrors(t *testing.T) {
	store := &fakeStore{expireErr: errors.New("connection reset")}
	dispatcher := &capturingDispatcher{}
	s := newTestSweeper(store, dispatcher, clock.NewFixed(sweepNow))

	s.SweepOnce(context.Background())
	assert.Equal(t, 1, store.expireCalls)
	assert.Equal(t, 0, store.blockCalls, "block phase skipped after expire failure")
	assert.Empty(t, dispatcher.published)

	// Next tick retries from scratch.
	store.expireErr = nil
	s.SweepOnce(context.Background())
	assert.Equal(t, 2, store.expireCalls)
	assert.Equal(t, 1, store.blockCalls)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	s := New(Config{Store: store, Clock: clock.NewFixed(sweepNow), Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, store.expireCalls, 1)
}
