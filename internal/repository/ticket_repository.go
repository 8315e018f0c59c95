package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/flight-marketplace/internal/domain"
	"github.com/spec-kit/flight-marketplace/internal/persistence"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	OwnerID        *string
	Statuses       []domain.TicketStatus
	FlightDateFrom *time.Time
	FlightDateTo   *time.Time
	// SellableAt restricts to availability-facing rows: status available,
	// seats > 0, departure not yet passed.
	SellableAt *time.Time
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket aggregate persistence. Guarded
// writes carry the expected current status in their WHERE clause and
// return ErrStatusConflict when zero rows match.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByRefID(ctx context.Context, refID string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, expect, to domain.TicketStatus) error
	SetPendingRevision(ctx context.Context, id string, expect domain.TicketStatus, revision *domain.TicketRevision) error
	ClearPendingRevision(ctx context.Context, id string) error
	ApplyRevision(ctx context.Context, id string, revision *domain.TicketRevision) error
	ReplaceForResubmit(ctx context.Context, ticket *domain.Ticket, expect domain.TicketStatus) error
	Delete(ctx context.Context, id string) error
	ExpireDeparted(ctx context.Context, now time.Time) (int64, error)
	BlockStale(ctx context.Context, today time.Time) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFrom(ctx, r.pool)
}

const ticketColumns = `id, ref_id, owner_id, status, seats, flight_date, departure, arrival,
               departure_time, arrival_time, duration, stops, updated, pending_revision,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	q := r.q(ctx)
	const query = `
        INSERT INTO tickets (ref_id, owner_id, status, seats, flight_date, departure, arrival,
                             departure_time, arrival_time, duration, stops, updated)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	if err := q.QueryRow(ctx, query,
		ticket.RefID,
		ticket.OwnerID,
		ticket.Status,
		ticket.Seats,
		ticket.FlightDate,
		ticket.Departure,
		ticket.Arrival,
		ticket.DepartureTime,
		ticket.ArrivalTime,
		ticket.Duration,
		ticket.Stops,
		ticket.Updated,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}
	if err := r.insertSegments(ctx, ticket.ID, ticket.Segments); err != nil {
		return err
	}
	return r.insertFlightClasses(ctx, ticket.ID, ticket.FlightClasses)
}

func (r *ticketRepository) insertSegments(ctx context.Context, ticketID string, segments []domain.Segment) error {
	q := r.q(ctx)
	for i := range segments {
		seg := &segments[i]
		seg.TicketID = ticketID
		if err := r.insertLocation(ctx, &seg.From); err != nil {
			return err
		}
		if err := r.insertLocation(ctx, &seg.To); err != nil {
			return err
		}
		const query = `
            INSERT INTO segments (ticket_id, position, flight_number, carrier,
                                  from_location_id, to_location_id, departure_time, arrival_time, duration)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            RETURNING id`
		if err := q.QueryRow(ctx, query,
			ticketID,
			seg.Position,
			seg.FlightNumber,
			seg.Carrier,
			seg.From.ID,
			seg.To.ID,
			seg.DepartureTime,
			seg.ArrivalTime,
			seg.Duration,
		).Scan(&seg.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ticketRepository) insertLocation(ctx context.Context, loc *domain.Location) error {
	const query = `
        INSERT INTO locations (airport, city, country)
        VALUES ($1,$2,$3)
        RETURNING id`
	return r.q(ctx).QueryRow(ctx, query, loc.Airport, loc.City, loc.Country).Scan(&loc.ID)
}

func (r *ticketRepository) insertFlightClasses(ctx context.Context, ticketID string, classes []domain.FlightClass) error {
	q := r.q(ctx)
	for i := range classes {
		class := &classes[i]
		class.TicketID = ticketID
		const query = `
            INSERT INTO flight_classes (ticket_id, name, cabin_baggage_kg, checked_baggage_kg,
                                        price_adult, price_child, price_infant, price_tax, price_currency)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            RETURNING id`
		if err := q.QueryRow(ctx, query,
			ticketID,
			class.Name,
			class.CabinBaggageKg,
			class.CheckedBaggageKg,
			class.Price.Adult,
			class.Price.Child,
			class.Price.Infant,
			class.Price.Tax,
			class.Price.Currency,
		).Scan(&class.ID); err != nil {
			return err
		}
		for j := range class.ExtraOffers {
			offer := &class.ExtraOffers[j]
			const offerQuery = `
                INSERT INTO extra_offers (flight_class_id, name, availability)
                VALUES ($1,$2,$3)
                RETURNING id`
			if err := q.QueryRow(ctx, offerQuery, class.ID, offer.Name, offer.Availability).Scan(&offer.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *ticketRepository) GetByRefID(ctx context.Context, refID string) (*domain.Ticket, error) {
	q := r.q(ctx)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ref_id=$1`, ticketColumns)

	var ticket domain.Ticket
	if err := q.QueryRow(ctx, query, refID).Scan(
		&ticket.ID,
		&ticket.RefID,
		&ticket.OwnerID,
		&ticket.Status,
		&ticket.Seats,
		&ticket.FlightDate,
		&ticket.Departure,
		&ticket.Arrival,
		&ticket.DepartureTime,
		&ticket.ArrivalTime,
		&ticket.Duration,
		&ticket.Stops,
		&ticket.Updated,
		&ticket.PendingRevision,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	segments, err := r.loadSegments(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Segments = segments

	classes, err := r.loadFlightClasses(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.FlightClasses = classes
	return &ticket, nil
}

func (r *ticketRepository) loadSegments(ctx context.Context, ticketID string) ([]domain.Segment, error) {
	const query = `
        SELECT s.id, s.position, s.flight_number, s.carrier,
               df.id, df.airport, df.city, df.country,
               af.id, af.airport, af.city, af.country,
               s.departure_time, s.arrival_time, s.duration
        FROM segments s
        JOIN locations df ON df.id = s.from_location_id
        JOIN locations af ON af.id = s.to_location_id
        WHERE s.ticket_id=$1 ORDER BY s.position ASC`
	rows, err := r.q(ctx).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []domain.Segment
	for rows.Next() {
		seg := domain.Segment{TicketID: ticketID}
		if err := rows.Scan(
			&seg.ID,
			&seg.Position,
			&seg.FlightNumber,
			&seg.Carrier,
			&seg.From.ID,
			&seg.From.Airport,
			&seg.From.City,
			&seg.From.Country,
			&seg.To.ID,
			&seg.To.Airport,
			&seg.To.City,
			&seg.To.Country,
			&seg.DepartureTime,
			&seg.ArrivalTime,
			&seg.Duration,
		); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func (r *ticketRepository) loadFlightClasses(ctx context.Context, ticketID string) ([]domain.FlightClass, error) {
	const query = `
        SELECT id, name, cabin_baggage_kg, checked_baggage_kg,
               price_adult, price_child, price_infant, price_tax, price_currency
        FROM flight_classes WHERE ticket_id=$1 ORDER BY id ASC`
	rows, err := r.q(ctx).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []domain.FlightClass
	for rows.Next() {
		class := domain.FlightClass{TicketID: ticketID}
		if err := rows.Scan(
			&class.ID,
			&class.Name,
			&class.CabinBaggageKg,
			&class.CheckedBaggageKg,
			&class.Price.Adult,
			&class.Price.Child,
			&class.Price.Infant,
			&class.Price.Tax,
			&class.Price.Currency,
		); err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range classes {
		offers, err := r.loadExtraOffers(ctx, classes[i].ID)
		if err != nil {
			return nil, err
		}
		classes[i].ExtraOffers = offers
	}
	return classes, nil
}

func (r *ticketRepository) loadExtraOffers(ctx context.Context, classID string) ([]domain.ExtraOffer, error) {
	const query = `SELECT id, name, availability FROM extra_offers WHERE flight_class_id=$1 ORDER BY id ASC`
	rows, err := r.q(ctx).Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []domain.ExtraOffer
	for rows.Next() {
		var offer domain.ExtraOffer
		if err := rows.Scan(&offer.ID, &offer.Name, &offer.Availability); err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.FlightDateFrom != nil {
		args = append(args, *filter.FlightDateFrom)
		clauses = append(clauses, fmt.Sprintf("flight_date >= $%d", len(args)))
	}
	if filter.FlightDateTo != nil {
		args = append(args, *filter.FlightDateTo)
		clauses = append(clauses, fmt.Sprintf("flight_date <= $%d", len(args)))
	}
	if filter.SellableAt != nil {
		args = append(args, domain.TicketStatusAvailable)
		statusArg := len(args)
		args = append(args, *filter.SellableAt)
		clauses = append(clauses, fmt.Sprintf("status=$%d AND seats > 0 AND departure_time >= $%d", statusArg, len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY departure_time ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.RefID,
			&ticket.OwnerID,
			&ticket.Status,
			&ticket.Seats,
			&ticket.FlightDate,
			&ticket.Departure,
			&ticket.Arrival,
			&ticket.DepartureTime,
			&ticket.ArrivalTime,
			&ticket.Duration,
			&ticket.Stops,
			&ticket.Updated,
			&ticket.PendingRevision,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, expect, to domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.q(ctx).Exec(ctx, query, to, id, expect)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *ticketRepository) SetPendingRevision(ctx context.Context, id string, expect domain.TicketStatus, revision *domain.TicketRevision) error {
	const query = `
        UPDATE tickets SET updated=TRUE, pending_revision=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3 AND updated=FALSE`
	cmd, err := r.q(ctx).Exec(ctx, query, revision, id, expect)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *ticketRepository) ClearPendingRevision(ctx context.Context, id string) error {
	const query = `
        UPDATE tickets SET updated=FALSE, pending_revision=NULL, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyRevision replaces flight classes wholesale and copies the revised
// seat count. Classes are deleted and recreated rather than diffed: nothing
// outside the ticket holds a reference to an individual class row.
func (r *ticketRepository) ApplyRevision(ctx context.Context, id string, revision *domain.TicketRevision) error {
	q := r.q(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM flight_classes WHERE ticket_id=$1`, id); err != nil {
		return err
	}
	if err := r.insertFlightClasses(ctx, id, revision.FlightClasses); err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET seats=$1, updated=FALSE, pending_revision=NULL, updated_at=NOW()
        WHERE id=$2`
	cmd, err := q.Exec(ctx, query, revision.Seats, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceForResubmit rewrites the whole aggregate and forces the status back
// to pending, guarded on the status the caller read.
func (r *ticketRepository) ReplaceForResubmit(ctx context.Context, ticket *domain.Ticket, expect domain.TicketStatus) error {
	q := r.q(ctx)
	const query = `
        UPDATE tickets SET status=$1, seats=$2, flight_date=$3, departure=$4, arrival=$5,
               departure_time=$6, arrival_time=$7, duration=$8, stops=$9,
               updated=FALSE, pending_revision=NULL, updated_at=NOW()
        WHERE id=$10 AND status=$11`
	cmd, err := q.Exec(ctx, query,
		domain.TicketStatusPending,
		ticket.Seats,
		ticket.FlightDate,
		ticket.Departure,
		ticket.Arrival,
		ticket.DepartureTime,
		ticket.ArrivalTime,
		ticket.Duration,
		ticket.Stops,
		ticket.ID,
		expect,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	if err := r.deleteSegments(ctx, ticket.ID); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `DELETE FROM flight_classes WHERE ticket_id=$1`, ticket.ID); err != nil {
		return err
	}
	if err := r.insertSegments(ctx, ticket.ID, ticket.Segments); err != nil {
		return err
	}
	if err := r.insertFlightClasses(ctx, ticket.ID, ticket.FlightClasses); err != nil {
		return err
	}
	ticket.Status = domain.TicketStatusPending
	ticket.Updated = false
	ticket.PendingRevision = nil
	return nil
}

// deleteSegments removes a ticket's segments together with the location
// rows they own. Location IDs are captured from the segment delete itself:
// once the segment rows are gone the transaction can no longer find them,
// and the foreign keys force segments to go first.
func (r *ticketRepository) deleteSegments(ctx context.Context, ticketID string) error {
	q := r.q(ctx)
	rows, err := q.Query(ctx, `
        DELETE FROM segments WHERE ticket_id=$1
        RETURNING from_location_id, to_location_id`, ticketID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var locationIDs []string
	for rows.Next() {
		var fromID, toID string
		if err := rows.Scan(&fromID, &toID); err != nil {
			return err
		}
		locationIDs = append(locationIDs, fromID, toID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if len(locationIDs) == 0 {
		return nil
	}
	_, err = q.Exec(ctx, `DELETE FROM locations WHERE id = ANY($1)`, locationIDs)
	return err
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if err := r.deleteSegments(ctx, id); err != nil {
		return err
	}
	cmd, err := r.q(ctx).Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireDeparted force-expires live listings whose precise departure has
// passed. The predicate lives in the WHERE clause, so re-running the sweep
// is a zero-row update, never an error.
func (r *ticketRepository) ExpireDeparted(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        UPDATE tickets
        SET status=$1, updated=FALSE, pending_revision=NULL, updated_at=NOW()
        WHERE status = ANY($2) AND departure_time < $3`
	cmd, err := r.q(ctx).Exec(ctx, query, domain.TicketStatusExpired, statusStrings(domain.DepartureDecayStatuses), now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// BlockStale force-blocks never-approved listings whose calendar flight
// date has passed.
func (r *ticketRepository) BlockStale(ctx context.Context, today time.Time) (int64, error) {
	const query = `
        UPDATE tickets
        SET status=$1, updated=FALSE, pending_revision=NULL, updated_at=NOW()
        WHERE status = ANY($2) AND flight_date < $3`
	cmd, err := r.q(ctx).Exec(ctx, query, domain.TicketStatusBlocked, statusStrings(domain.FlightDateDecayStatuses), today)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
