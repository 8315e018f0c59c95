package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/flight-marketplace/internal/audit"
	"github.com/spec-kit/flight-marketplace/internal/clock"
	"github.com/spec-kit/flight-marketplace/internal/domain"
	"github.com/spec-kit/flight-marketplace/internal/events"
	"github.com/spec-kit/flight-marketplace/internal/observability"
	"github.com/spec-kit/flight-marketplace/internal/persistence"
	"github.com/spec-kit/flight-marketplace/internal/repository"
	"github.com/spec-kit/flight-marketplace/internal/validation"
	apperrors "github.com/spec-kit/flight-marketplace/pkg/util"
)

// TicketService coordinates the ticket lifecycle: agency listing and edits,
// master moderation, and the guarded status transitions both share with the
// sweeper. Every mutation runs inside one transaction and re-checks the
// ticket's current status before writing; on any guard failure nothing is
// written.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.HistoryRepository
	tx         persistence.TxRunner
	dispatcher events.Dispatcher
	clock      clock.Clock
	metrics    *observability.Metrics
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.HistoryRepository
	TxRunner    persistence.TxRunner
	Dispatcher  events.Dispatcher
	Clock       clock.Clock
	Metrics     *observability.Metrics
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		tx:         deps.TxRunner,
		dispatcher: deps.Dispatcher,
		clock:      c,
		metrics:    deps.Metrics,
	}
}

// TicketListFilter describes listing parameters for agency and master views.
type TicketListFilter struct {
	Statuses       []domain.TicketStatus
	FlightDateFrom *time.Time
	FlightDateTo   *time.Time
	Limit          int
	Offset         int
}

// CreateTickets creates one pending ticket per listed flight date, each with
// its own segments and flight classes, and stamps a "created" history entry
// for every ticket. All tickets land or none do.
func (s *TicketService) CreateTickets(ctx context.Context, agencyID string, payload validation.TicketPayload) ([]domain.Ticket, error) {
	if errs := validation.ValidateTicket(payload); errs != nil {
		return nil, apperrors.NewValidationError("invalid ticket payload", errs)
	}

	dates, err := payload.ParsedFlightDates()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"flightDates": err.Error()})
	}
	schedules, err := payload.Schedules()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"segments": err.Error()})
	}

	var created []domain.Ticket
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, flightDate := range dates {
			segments, err := domain.BuildSegments(flightDate, schedules)
			if err != nil {
				return apperrors.NewValidationError("invalid ticket payload", map[string]any{"segments": err.Error()})
			}
			itinerary, err := domain.Summarize(segments)
			if err != nil {
				return apperrors.NewValidationError("invalid ticket payload", map[string]any{"segments": err.Error()})
			}

			ticket := domain.Ticket{
				RefID:         generateRefID(),
				OwnerID:       agencyID,
				Status:        domain.TicketStatusPending,
				Seats:         payload.Seats,
				FlightDate:    flightDate,
				Departure:     itinerary.Departure,
				Arrival:       itinerary.Arrival,
				DepartureTime: itinerary.DepartureTime,
				ArrivalTime:   itinerary.ArrivalTime,
				Duration:      itinerary.Duration,
				Stops:         itinerary.Stops,
				Segments:      segments,
				FlightClasses: validation.Classes(payload.FlightClasses),
			}
			if err := s.tickets.Create(ctx, &ticket); err != nil {
				return err
			}
			entry := domain.HistoryEntry{
				TicketID:   ticket.ID,
				ActorID:    &agencyID,
				ChangeType: domain.ChangeCreated,
				NewValue:   snapshot(&ticket),
			}
			if err := s.history.Append(ctx, &entry); err != nil {
				return err
			}
			created = append(created, ticket)
		}
		return nil
	})
	if err != nil {
		s.record("create", "error")
		return nil, mapTicketError(err)
	}

	for _, ticket := range created {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketCreated,
			TicketRef: ticket.RefID,
			ActorID:   &agencyID,
			Payload: events.TicketCreatedPayload{
				OwnerID:    ticket.OwnerID,
				FlightDate: ticket.FlightDate,
				Departure:  ticket.Departure,
				Arrival:    ticket.Arrival,
				Seats:      ticket.Seats,
			},
		})
	}
	s.record("create", "ok")
	return created, nil
}

// ResubmitTicket fully replaces a rejected or still-pending listing and
// forces it back to pending review. The guard reads the ticket's actual
// current status; a caller-declared status field carries no weight.
func (s *TicketService) ResubmitTicket(ctx context.Context, agencyID, refID string, payload validation.TicketPayload) (*domain.Ticket, error) {
	if errs := validation.ValidateTicket(payload); errs != nil {
		return nil, apperrors.NewValidationError("invalid ticket payload", errs)
	}
	if len(payload.FlightDates) != 1 {
		return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"flightDates": "re-submission covers exactly one flight date"})
	}

	var result *domain.Ticket
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.ownedTicket(ctx, agencyID, refID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := domain.CheckResubmit(ticket, now); err != nil {
			return apperrors.NewPreconditionFailed(err.Error())
		}

		before := snapshot(ticket)

		dates, err := payload.ParsedFlightDates()
		if err != nil {
			return apperrors.NewValidationError("invalid ticket payload", map[string]any{"flightDates": err.Error()})
		}
		schedules, err := payload.Schedules()
		if err != nil {
			return apperrors.NewValidationError("invalid ticket payload", map[string]any{"segments": err.Error()})
		}
		segments, err := domain.BuildSegments(dates[0], schedules)
		if err != nil {
			return apperrors.NewValidationError("invalid ticket payload", map[string]any{"segments": err.Error()})
		}
		itinerary, err := domain.Summarize(segments)
		if err != nil {
			return apperrors.NewValidationError("invalid ticket payload", map[string]any{"segments": err.Error()})
		}

		expect := ticket.Status
		ticket.Seats = payload.Seats
		ticket.FlightDate = dates[0]
		ticket.Departure = itinerary.Departure
		ticket.Arrival = itinerary.Arrival
		ticket.DepartureTime = itinerary.DepartureTime
		ticket.ArrivalTime = itinerary.ArrivalTime
		ticket.Duration = itinerary.Duration
		ticket.Stops = itinerary.Stops
		ticket.Segments = segments
		ticket.FlightClasses = validation.Classes(payload.FlightClasses)

		if err := s.tickets.ReplaceForResubmit(ctx, ticket, expect); err != nil {
			return err
		}

		after := snapshot(ticket)
		entry := domain.HistoryEntry{
			TicketID:      ticket.ID,
			ActorID:       &agencyID,
			ChangeType:    domain.ChangeUpdatePending,
			ChangeDetails: diffDetails(before, after),
			OldValue:      before,
			NewValue:      after,
		}
		if err := s.history.Append(ctx, &entry); err != nil {
			return err
		}
		result = ticket
		return nil
	})
	if err != nil {
		s.record("resubmit", "error")
		return nil, mapTicketError(err)
	}
	s.record("resubmit", "ok")
	return result, nil
}

// RequestEdit records a proposed edit on a live listing without touching its
// approved fields. The proposal lives in the ticket's pending revision
// column until a master responds; the history entry keeps the full old/new
// snapshots plus a structural diff for audit.
func (s *TicketService) RequestEdit(ctx context.Context, agencyID, refID string, payload validation.RevisionPayload) (*domain.Ticket, error) {
	if errs := validation.ValidateRevision(payload); errs != nil {
		return nil, apperrors.NewValidationError("invalid revision payload", errs)
	}

	var result *domain.Ticket
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.ownedTicket(ctx, agencyID, refID)
		if err != nil {
			return err
		}
		if err := domain.CheckRequestEdit(ticket, s.clock.Now()); err != nil {
			return apperrors.NewPreconditionFailed(err.Error())
		}

		revision := &domain.TicketRevision{
			Seats:         payload.Seats,
			FlightClasses: validation.Classes(payload.FlightClasses),
		}
		if err := s.tickets.SetPendingRevision(ctx, ticket.ID, ticket.Status, revision); err != nil {
			return err
		}

		before := snapshot(ticket)
		proposed := *ticket
		proposed.Seats = revision.Seats
		proposed.FlightClasses = revision.FlightClasses
		after := snapshot(&proposed)

		entry := domain.HistoryEntry{
			TicketID:      ticket.ID,
			ActorID:       &agencyID,
			ChangeType:    domain.ChangeUpdateRequest,
			ChangeDetails: diffDetails(before, after),
			OldValue:      before,
			NewValue:      after,
		}
		if err := s.history.Append(ctx, &entry); err != nil {
			return err
		}

		ticket.Updated = true
		ticket.PendingRevision = revision
		result = ticket
		return nil
	})
	if err != nil {
		s.record("request_edit", "error")
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketEditRequested,
		TicketRef: refID,
		ActorID:   &agencyID,
		Payload:   events.TicketEditRequestedPayload{Seats: payload.Seats},
	})
	s.record("request_edit", "ok")
	return result, nil
}

// WithdrawEdit cancels a pending edit request.
func (s *TicketService) WithdrawEdit(ctx context.Context, agencyID, refID string) (*domain.Ticket, error) {
	var result *domain.Ticket
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.ownedTicket(ctx, agencyID, refID)
		if err != nil {
			return err
		}
		if err := domain.CheckWithdrawEdit(ticket, s.clock.Now()); err != nil {
			return apperrors.NewPreconditionFailed(err.Error())
		}
		if err := s.tickets.ClearPendingRevision(ctx, ticket.ID); err != nil {
			return err
		}
		entry := domain.HistoryEntry{
			TicketID:   ticket.ID,
			ActorID:    &agencyID,
			ChangeType: domain.ChangeWithdrawRequest,
		}
		if err := s.history.Append(ctx, &entry); err != nil {
			return err
		}
		ticket.Updated = false
		ticket.PendingRevision = nil
		result = ticket
		return nil
	})
	if err != nil {
		s.record("withdraw_edit", "error")
		return nil, mapTicketError(err)
	}
	s.record("withdraw_edit", "ok")
	return result, nil
}

// RespondToEdit applies a master's accept or reject decision for a pending
// edit. Accepting replaces the flight classes wholesale and copies the
// revised seat count; rejecting only clears the flag. Either way the
// proposal is consumed.
func (s *TicketService) RespondToEdit(ctx context.Context, masterID, refID string, accept bool) (*domain.Ticket, error) {
	var result *domain.Ticket
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByRefID(ctx, refID)
		if err != nil {
			return err
		}
		if err := domain.CheckRespondToEdit(ticket); err != nil {
			return apperrors.NewPreconditionFailed(err.Error())
		}

		if !accept {
			if err := s.tickets.ClearPendingRevision(ctx, ticket.ID); err != nil {
				return err
			}
			entry := domain.HistoryEntry{
				TicketID:   ticket.ID,
				ActorID:    &masterID,
				ChangeType: domain.ChangeType(domain.TicketStatusRejected),
			}
			if err := s.history.Append(ctx, &entry); err != nil {
				return err
			}
			ticket.Updated = false
			ticket.PendingRevision = nil
			result = ticket
			return nil
		}

		revision := ticket.PendingRevision
		if revision == nil {
			return apperrors.NewPreconditionFailed(domain.ErrNoPendingEdit.Error())
		}
		before := snapshot(ticket)
		if err := s.tickets.ApplyRevision(ctx, ticket.ID, revision); err != nil {
			return err
		}
		ticket.Seats = revision.Seats
		ticket.FlightClasses = revision.FlightClasses
		ticket.Updated = false
		ticket.PendingRevision = nil
		after := snapshot(ticket)

		entry := domain.HistoryEntry{
			TicketID:      ticket.ID,
			ActorID:       &masterID,
			ChangeType:    domain.ChangeAccepted,
			ChangeDetails: diffDetails(before, after),
			OldValue:      before,
			NewValue:      after,
		}
		if err := s.history.Append(ctx, &entry); err != nil {
			return err
		}
		result = ticket
		return nil
	})
	if err != nil {
		s.record("respond_edit", "error")
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketEditResolved,
		TicketRef: refID,
		ActorID:   &masterID,
		Payload:   events.TicketEditResolvedPayload{Accepted: accept},
	})
	s.record("respond_edit", "ok")
	return result, nil
}

// SetStatus applies a master status decision. Approving a pending listing is
// logged as "accepted"; every other decision is logged under the new status
// value itself.
func (s *TicketService) SetStatus(ctx context.Context, masterID, refID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	var result *domain.Ticket
	var oldStatus domain.TicketStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByRefID(ctx, refID)
		if err != nil {
			return err
		}
		if err := domain.CheckMasterSetStatus(ticket, newStatus, s.clock.Now()); err != nil {
			return apperrors.NewPreconditionFailed(err.Error())
		}

		oldStatus = ticket.Status
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, oldStatus, newStatus); err != nil {
			return err
		}
		entry := domain.HistoryEntry{
			TicketID:   ticket.ID,
			ActorID:    &masterID,
			ChangeType: domain.ChangeForStatus(oldStatus, newStatus),
			OldValue:   map[string]any{"ticketStatus": oldStatus},
			NewValue:   map[string]any{"ticketStatus": newStatus, "comment": comment},
		}
		if err := s.history.Append(ctx, &entry); err != nil {
			return err
		}
		ticket.Status = newStatus
		result = ticket
		return nil
	})
	if err != nil {
		s.record("set_status", "error")
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketRef: refID,
		ActorID:   &masterID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: result.Status,
			Comment:   comment,
		},
	})
	s.record("set_status", "ok")
	return result, nil
}

// ToggleStatus flips an agency's own live listing between available and
// unavailable, gated on the precise departure clock.
func (s *TicketService) ToggleStatus(ctx context.Context, agencyID, refID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	var result *domain.Ticket
	var oldStatus domain.TicketStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.ownedTicket(ctx, agencyID, refID)
		if err != nil {
			return err
		}
		if err := domain.CheckAgencyToggle(ticket, newStatus, s.clock.Now()); err != nil {
			return apperrors.NewPreconditionFailed(err.Error())
		}
		oldStatus = ticket.Status
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, oldStatus, newStatus); err != nil {
			return err
		}
		entry := domain.HistoryEntry{
			TicketID:   ticket.ID,
			ActorID:    &agencyID,
			ChangeType: domain.ChangeType(newStatus),
			OldValue:   map[string]any{"ticketStatus": oldStatus},
			NewValue:   map[string]any{"ticketStatus": newStatus},
		}
		if err := s.history.Append(ctx, &entry); err != nil {
			return err
		}
		ticket.Status = newStatus
		result = ticket
		return nil
	})
	if err != nil {
		s.record("toggle_status", "error")
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketRef: refID,
		ActorID:   &agencyID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: result.Status,
		},
	})
	s.record("toggle_status", "ok")
	return result, nil
}

// DeleteTicket removes an inert listing and its owned segment and location
// rows. Listings that reached the market are never deleted.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, refID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByRefID(ctx, refID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleMaster && ticket.OwnerID != actor.ID {
			return apperrors.NewForbidden("ticket belongs to another agency")
		}
		if err := domain.CheckDelete(ticket); err != nil {
			return apperrors.NewPreconditionFailed(err.Error())
		}
		return s.tickets.Delete(ctx, ticket.ID)
	})
	if err != nil {
		s.record("delete", "error")
		return mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketDeleted,
		TicketRef: refID,
		ActorID:   &actor.ID,
	})
	s.record("delete", "ok")
	return nil
}

// GetTicketForAgency fetches an aggregate ensuring ownership.
func (s *TicketService) GetTicketForAgency(ctx context.Context, agencyID, refID string) (*domain.Ticket, error) {
	ticket, err := s.ownedTicket(ctx, agencyID, refID)
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// GetTicket fetches an aggregate without an ownership check (master view).
func (s *TicketService) GetTicket(ctx context.Context, refID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByRefID(ctx, refID)
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// ListAgencyTickets returns an agency's own listings in any status.
func (s *TicketService) ListAgencyTickets(ctx context.Context, agencyID string, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		OwnerID:        &agencyID,
		Statuses:       filter.Statuses,
		FlightDateFrom: filter.FlightDateFrom,
		FlightDateTo:   filter.FlightDateTo,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
}

// ListAllTickets returns listings across agencies for moderation.
func (s *TicketService) ListAllTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:       filter.Statuses,
		FlightDateFrom: filter.FlightDateFrom,
		FlightDateTo:   filter.FlightDateTo,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
}

// ListAvailableTickets returns the affiliate-facing view: available listings
// with seats remaining whose departure has not passed. Zero-seat rows never
// surface here regardless of status.
func (s *TicketService) ListAvailableTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	now := s.clock.Now()
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		FlightDateFrom: filter.FlightDateFrom,
		FlightDateTo:   filter.FlightDateTo,
		SellableAt:     &now,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
}

// ListHistory returns a ticket's audit trail. Agencies see only their own
// tickets; masters see everything.
func (s *TicketService) ListHistory(ctx context.Context, actor *domain.User, refID string, limit, offset int) ([]domain.HistoryEntry, error) {
	ticket, err := s.tickets.GetByRefID(ctx, refID)
	if err != nil {
		return nil, mapTicketError(err)
	}
	if actor.Role != domain.RoleMaster && ticket.OwnerID != actor.ID {
		return nil, apperrors.NewForbidden("ticket belongs to another agency")
	}
	return s.history.ListByTicket(ctx, ticket.ID, limit, offset)
}

func (s *TicketService) ownedTicket(ctx context.Context, agencyID, refID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByRefID(ctx, refID)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != agencyID {
		return nil, apperrors.NewForbidden("ticket belongs to another agency")
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) record(operation, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTicketOperation(operation, outcome)
}

func generateRefID() string {
	return "FLT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// snapshot flattens a ticket into the map shape history entries store.
func snapshot(t *domain.Ticket) map[string]any {
	raw, err := json.Marshal(map[string]any{
		"refId":         t.RefID,
		"ticketStatus":  t.Status,
		"seats":         t.Seats,
		"flightDate":    t.FlightDate,
		"departure":     t.Departure,
		"arrival":       t.Arrival,
		"departureTime": t.DepartureTime,
		"arrivalTime":   t.ArrivalTime,
		"duration":      t.Duration,
		"stops":         t.Stops,
		"segments":      t.Segments,
		"flightClasses": t.FlightClasses,
	})
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// diffDetails renders the structural diff into a history-storable map.
func diffDetails(before, after map[string]any) map[string]any {
	changes := audit.Diff(before, after)
	if len(changes) == 0 {
		return nil
	}
	details := make(map[string]any, len(changes))
	for path, change := range changes {
		details[path] = change
	}
	return details
}

// mapTicketError folds repository sentinels into the error taxonomy.
func mapTicketError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("ticket", nil)
	case errors.Is(err, repository.ErrStatusConflict):
		return apperrors.NewPreconditionFailed("ticket status changed concurrently")
	default:
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return apperrors.NewInternalError(err)
	}
}
