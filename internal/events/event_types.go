package events

import (
	"time"

	"github.com/spec-kit/flight-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketEditRequested EventType = "ticket_edit_requested"
	EventTicketEditResolved  EventType = "ticket_edit_resolved"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventTicketsExpired      EventType = "tickets_expired"
)

// Event represents a domain event emitted by services. ActorID is nil for
// sweeper-generated events.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketRef string      `json:"ticket_ref"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OwnerID    string    `json:"owner_id"`
	FlightDate time.Time `json:"flight_date"`
	Departure  string    `json:"departure"`
	Arrival    string    `json:"arrival"`
	Seats      int       `json:"seats"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketEditRequestedPayload payload.
type TicketEditRequestedPayload struct {
	Seats int `json:"seats"`
}

// TicketEditResolvedPayload payload.
type TicketEditResolvedPayload struct {
	Accepted bool `json:"accepted"`
}

// TicketsExpiredPayload summarizes one sweep tick.
type TicketsExpiredPayload struct {
	Expired int64 `json:"expired"`
	Blocked int64 `json:"blocked"`
}
