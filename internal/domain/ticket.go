package domain

import "time"

// TicketStatus enumerates lifecycle states for flight-ticket listings.
type TicketStatus string

const (
	TicketStatusPending     TicketStatus = "pending"
	TicketStatusAvailable   TicketStatus = "available"
	TicketStatusUnavailable TicketStatus = "unavailable"
	TicketStatusRejected    TicketStatus = "rejected"
	TicketStatusBlocked     TicketStatus = "blocked"
	TicketStatusExpired     TicketStatus = "expired"
	TicketStatusHold        TicketStatus = "hold"
)

// AllStatuses is the closed set of valid ticket statuses.
var AllStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusAvailable,
	TicketStatusUnavailable,
	TicketStatusRejected,
	TicketStatusBlocked,
	TicketStatusExpired,
	TicketStatusHold,
}

// IsValidStatus reports whether s belongs to the closed status set.
func IsValidStatus(s TicketStatus) bool {
	for _, candidate := range AllStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Ticket is the aggregate root for one sellable unit of flight inventory on
// a specific flight date. Departure, Arrival, DepartureTime, ArrivalTime,
// Duration and Stops are denormalized from Segments and must be recomputed
// whenever segments change.
type Ticket struct {
	ID              string
	RefID           string
	OwnerID         string
	Status          TicketStatus
	Seats           int
	FlightDate      time.Time
	Departure       string
	Arrival         string
	DepartureTime   time.Time
	ArrivalTime     time.Time
	Duration        string
	Stops           int
	Updated         bool
	PendingRevision *TicketRevision
	Segments        []Segment
	FlightClasses   []FlightClass
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TicketRevision is a proposed edit awaiting master approval. The live
// ticket keeps its approved values until the revision is accepted.
type TicketRevision struct {
	Seats         int           `json:"seats"`
	FlightClasses []FlightClass `json:"flightClasses"`
}

// Sellable reports whether availability-facing queries may surface the
// ticket. Status alone is not enough: zero-seat tickets stay hidden even
// while "available".
func (t *Ticket) Sellable(now time.Time) bool {
	return t.Status == TicketStatusAvailable && t.Seats > 0 && !t.DepartureTime.Before(now)
}
