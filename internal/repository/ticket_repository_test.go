package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/flight-marketplace/internal/domain"
	"github.com/spec-kit/flight-marketplace/internal/persistence"
)

// memDB is a statement-level stand-in for the ticket tables. It keeps the
// segment and location rows the repository writes, so tests can observe
// whether a delete or resubmit leaves location rows behind. Unrecognized
// statements fail the test instead of silently succeeding.
type memDB struct {
	t         *testing.T
	seq       int
	tickets   map[string]domain.TicketStatus
	segments  map[string]memSegment
	locations map[string]bool
	classes   map[string]string
	offers    map[string]string
}

type memSegment struct {
	ticketID string
	fromID   string
	toID     string
}

func newMemDB(t *testing.T) *memDB {
	return &memDB{
		t:         t,
		tickets:   map[string]domain.TicketStatus{},
		segments:  map[string]memSegment{},
		locations: map[string]bool{},
		classes:   map[string]string{},
		offers:    map[string]string{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func normalizeSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func (db *memDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	stmt := normalizeSQL(sql)
	switch {
	case strings.HasPrefix(stmt, "DELETE FROM locations WHERE id = ANY($1)"):
		n := 0
		for _, id := range args[0].([]string) {
			if db.locations[id] {
				delete(db.locations, id)
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
	case strings.HasPrefix(stmt, "DELETE FROM flight_classes WHERE ticket_id=$1"):
		ticketID := args[0].(string)
		n := 0
		for id, tid := range db.classes {
			if tid == ticketID {
				delete(db.classes, id)
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
	case strings.HasPrefix(stmt, "DELETE FROM tickets WHERE id=$1"):
		id := args[0].(string)
		if _, ok := db.tickets[id]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(db.tickets, id)
		// the schema cascades segments and classes on ticket delete
		for sid, seg := range db.segments {
			if seg.ticketID == id {
				delete(db.segments, sid)
			}
		}
		for cid, tid := range db.classes {
			if tid == id {
				delete(db.classes, cid)
			}
		}
		return pgconn.NewCommandTag("DELETE 1"), nil
	case strings.HasPrefix(stmt, "UPDATE tickets SET status=$1"):
		id := args[9].(string)
		expect := args[10].(domain.TicketStatus)
		if db.tickets[id] != expect {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		db.tickets[id] = args[0].(domain.TicketStatus)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	db.t.Fatalf("memDB: unhandled exec: %s", stmt)
	return pgconn.CommandTag{}, nil
}

func (db *memDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	stmt := normalizeSQL(sql)
	if strings.HasPrefix(stmt, "DELETE FROM segments WHERE ticket_id=$1 RETURNING from_location_id, to_location_id") {
		ticketID := args[0].(string)
		var pairs [][2]string
		for id, seg := range db.segments {
			if seg.ticketID == ticketID {
				pairs = append(pairs, [2]string{seg.fromID, seg.toID})
				delete(db.segments, id)
			}
		}
		return &locationIDRows{pairs: pairs, idx: -1}, nil
	}
	db.t.Fatalf("memDB: unhandled query: %s", stmt)
	return nil, nil
}

func (db *memDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	stmt := normalizeSQL(sql)
	switch {
	case strings.HasPrefix(stmt, "INSERT INTO tickets"):
		id := db.nextID("ticket")
		db.tickets[id] = args[2].(domain.TicketStatus)
		now := time.Now()
		return memRow{vals: []any{id, now, now}}
	case strings.HasPrefix(stmt, "INSERT INTO locations"):
		id := db.nextID("loc")
		db.locations[id] = true
		return memRow{vals: []any{id}}
	case strings.HasPrefix(stmt, "INSERT INTO segments"):
		from := args[4].(string)
		to := args[5].(string)
		if !db.locations[from] || !db.locations[to] {
			return memRow{err: fmt.Errorf("segment references missing location %q/%q", from, to)}
		}
		id := db.nextID("seg")
		db.segments[id] = memSegment{ticketID: args[0].(string), fromID: from, toID: to}
		return memRow{vals: []any{id}}
	case strings.HasPrefix(stmt, "INSERT INTO flight_classes"):
		id := db.nextID("class")
		db.classes[id] = args[0].(string)
		return memRow{vals: []any{id}}
	case strings.HasPrefix(stmt, "INSERT INTO extra_offers"):
		id := db.nextID("offer")
		db.offers[id] = args[0].(string)
		return memRow{vals: []any{id}}
	}
	db.t.Fatalf("memDB: unhandled query row: %s", stmt)
	return memRow{}
}

type memRow struct {
	vals []any
	err  error
}

func (r memRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.vals[i].(string)
		case *time.Time:
			*p = r.vals[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

type locationIDRows struct {
	pairs [][2]string
	idx   int
}

func (r *locationIDRows) Close()     {}
func (r *locationIDRows) Err() error { return nil }
func (r *locationIDRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", len(r.pairs)))
}
func (r *locationIDRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *locationIDRows) Next() bool {
	r.idx++
	return r.idx < len(r.pairs)
}
func (r *locationIDRows) Scan(dest ...any) error {
	*dest[0].(*string) = r.pairs[r.idx][0]
	*dest[1].(*string) = r.pairs[r.idx][1]
	return nil
}
func (r *locationIDRows) Values() ([]any, error) { return nil, nil }
func (r *locationIDRows) RawValues() [][]byte    { return nil }
func (r *locationIDRows) Conn() *pgx.Conn        { return nil }

func itineraryTicket(legs int) *domain.Ticket {
	dep := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		RefID:         "FLT-AGG1",
		OwnerID:       "owner-1",
		Status:        domain.TicketStatusPending,
		Seats:         4,
		FlightDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Departure:     "THR",
		Arrival:       "IST",
		DepartureTime: dep,
		ArrivalTime:   dep.Add(time.Duration(legs)*3*time.Hour - time.Hour),
		Duration:      "5h 0m",
		Stops:         legs - 1,
	}
	for i := 0; i < legs; i++ {
		legDep := dep.Add(time.Duration(i) * 3 * time.Hour)
		ticket.Segments = append(ticket.Segments, domain.Segment{
			Position:      i,
			FlightNumber:  fmt.Sprintf("FM%d", 100+i),
			Carrier:       "FM",
			From:          domain.Location{Airport: "THR", City: "Tehran", Country: "IR"},
			To:            domain.Location{Airport: "IST", City: "Istanbul", Country: "TR"},
			DepartureTime: legDep,
			ArrivalTime:   legDep.Add(2 * time.Hour),
			Duration:      "2h 0m",
		})
	}
	ticket.FlightClasses = []domain.FlightClass{{
		Name:  "economy",
		Price: domain.Price{Adult: 120, Currency: "USD"},
	}}
	return ticket
}

func TestDeleteRemovesSegmentLocations(t *testing.T) {
	db := newMemDB(t)
	ctx := persistence.WithQuerier(context.Background(), db)
	repo := NewTicketRepository(nil)

	ticket := itineraryTicket(2)
	require.NoError(t, repo.Create(ctx, ticket))
	require.Len(t, db.segments, 2)
	require.Len(t, db.locations, 4)

	require.NoError(t, repo.Delete(ctx, ticket.ID))

	assert.Empty(t, db.segments)
	assert.Empty(t, db.locations, "delete must remove the location rows its segments owned")
	assert.Empty(t, db.tickets)

	assert.ErrorIs(t, repo.Delete(ctx, ticket.ID), ErrNotFound)
}

func TestResubmitReplacesSegmentLocations(t *testing.T) {
	db := newMemDB(t)
	ctx := persistence.WithQuerier(context.Background(), db)
	repo := NewTicketRepository(nil)

	ticket := itineraryTicket(2)
	require.NoError(t, repo.Create(ctx, ticket))
	db.tickets[ticket.ID] = domain.TicketStatusRejected

	oldLocations := make([]string, 0, 4)
	for _, seg := range ticket.Segments {
		oldLocations = append(oldLocations, seg.From.ID, seg.To.ID)
	}
	require.Len(t, oldLocations, 4)

	replacement := itineraryTicket(1)
	replacement.ID = ticket.ID
	require.NoError(t, repo.ReplaceForResubmit(ctx, replacement, domain.TicketStatusRejected))

	assert.Len(t, db.segments, 1)
	assert.Len(t, db.locations, 2, "resubmit must not leave the prior itinerary's location rows behind")
	for _, id := range oldLocations {
		assert.False(t, db.locations[id], "stale location row %s survived resubmit", id)
	}
	assert.Equal(t, domain.TicketStatusPending, db.tickets[ticket.ID])
}

func TestResubmitStatusGuardLeavesRowsUntouched(t *testing.T) {
	db := newMemDB(t)
	ctx := persistence.WithQuerier(context.Background(), db)
	repo := NewTicketRepository(nil)

	ticket := itineraryTicket(2)
	require.NoError(t, repo.Create(ctx, ticket))

	replacement := itineraryTicket(1)
	replacement.ID = ticket.ID
	err := repo.ReplaceForResubmit(ctx, replacement, domain.TicketStatusRejected)
	require.ErrorIs(t, err, ErrStatusConflict)

	assert.Len(t, db.segments, 2)
	assert.Len(t, db.locations, 4)
	assert.Equal(t, domain.TicketStatusPending, db.tickets[ticket.ID])
}
