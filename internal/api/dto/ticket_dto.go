package dto

import (
	"time"

	"github.com/spec-kit/flight-marketplace/internal/domain"
	"github.com/spec-kit/flight-marketplace/internal/validation"
)

// CreateTicketRequest is the agency listing payload; one ticket is created
// per flight date.
type CreateTicketRequest struct {
	validation.TicketPayload
}

// RevisionRequest is the agency edit-request payload.
type RevisionRequest struct {
	validation.RevisionPayload
}

// SetStatusRequest is the master status decision payload.
type SetStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// ToggleStatusRequest is the agency available/unavailable toggle payload.
type ToggleStatusRequest struct {
	Status string `json:"status"`
}

// RespondToEditRequest is the master accept/reject payload.
type RespondToEditRequest struct {
	Accept bool `json:"accept"`
}

// TicketSummary is the listing row shape.
type TicketSummary struct {
	RefID         string              `json:"refId"`
	Status        domain.TicketStatus `json:"ticketStatus"`
	Seats         int                 `json:"seats"`
	FlightDate    time.Time           `json:"flightDate"`
	Departure     string              `json:"departure"`
	Arrival       string              `json:"arrival"`
	DepartureTime time.Time           `json:"departureTime"`
	ArrivalTime   time.Time           `json:"arrivalTime"`
	Duration      string              `json:"duration"`
	Stops         int                 `json:"stops"`
	Updated       bool                `json:"updated"`
}

// TicketDetailResponse provides the full aggregate.
type TicketDetailResponse struct {
	TicketSummary
	Segments      []domain.Segment       `json:"segments"`
	FlightClasses []domain.FlightClass   `json:"flightClasses"`
	Revision      *domain.TicketRevision `json:"pendingRevision,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// HistoryEntryResponse is one audit row.
type HistoryEntryResponse struct {
	ChangeType    domain.ChangeType `json:"changeType"`
	ActorID       *string           `json:"actorId,omitempty"`
	ChangeDetails map[string]any    `json:"changeDetails,omitempty"`
	OldValue      map[string]any    `json:"oldValue,omitempty"`
	NewValue      map[string]any    `json:"newValue,omitempty"`
	ChangedAt     time.Time         `json:"changedAt"`
}

// NewTicketSummary maps a domain ticket to its listing row.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		RefID:         t.RefID,
		Status:        t.Status,
		Seats:         t.Seats,
		FlightDate:    t.FlightDate,
		Departure:     t.Departure,
		Arrival:       t.Arrival,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
		Duration:      t.Duration,
		Stops:         t.Stops,
		Updated:       t.Updated,
	}
}

// NewTicketDetail maps a domain ticket aggregate.
func NewTicketDetail(t *domain.Ticket) TicketDetailResponse {
	return TicketDetailResponse{
		TicketSummary: NewTicketSummary(t),
		Segments:      t.Segments,
		FlightClasses: t.FlightClasses,
		Revision:      t.PendingRevision,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// NewTicketSummaries maps a slice of tickets.
func NewTicketSummaries(tickets []domain.Ticket) []TicketSummary {
	out := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketSummary(&tickets[i]))
	}
	return out
}

// NewHistoryEntries maps audit rows.
func NewHistoryEntries(entries []domain.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntryResponse{
			ChangeType:    entry.ChangeType,
			ActorID:       entry.ActorID,
			ChangeDetails: entry.ChangeDetails,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			ChangedAt:     entry.ChangedAt,
		})
	}
	return out
}
