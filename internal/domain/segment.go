package domain

import "time"

// Location is an airport reference owned by a single segment endpoint.
type Location struct {
	ID      string `json:"id,omitempty"`
	Airport string `json:"airport"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Segment is one flight leg (single takeoff and landing) within a ticket's
// itinerary. Times are absolute; clock values cross midnight via the date
// cursor in BuildSegments.
type Segment struct {
	ID            string    `json:"id,omitempty"`
	TicketID      string    `json:"ticketId,omitempty"`
	Position      int       `json:"position"`
	FlightNumber  string    `json:"flightNumber"`
	Carrier       string    `json:"carrier"`
	From          Location  `json:"from"`
	To            Location  `json:"to"`
	DepartureTime time.Time `json:"departureTime"`
	ArrivalTime   time.Time `json:"arrivalTime"`
	Duration      string    `json:"duration"`
}
