package domain

// OfferAvailability states how an extra offer applies to a fare tier.
type OfferAvailability string

const (
	OfferYes    OfferAvailability = "yes"
	OfferNo     OfferAvailability = "no"
	OfferCharge OfferAvailability = "charge"
)

// IsValidOfferAvailability reports whether v is a known availability value.
func IsValidOfferAvailability(v OfferAvailability) bool {
	return v == OfferYes || v == OfferNo || v == OfferCharge
}

// Price is the fare breakdown for one flight class.
type Price struct {
	Adult    float64 `json:"adult"`
	Child    float64 `json:"child"`
	Infant   float64 `json:"infant"`
	Tax      float64 `json:"tax"`
	Currency string  `json:"currency"`
}

// ExtraOffer is an optional service attached to a flight class.
type ExtraOffer struct {
	ID           string            `json:"id,omitempty"`
	Name         string            `json:"name"`
	Availability OfferAvailability `json:"availability"`
}

// FlightClass is a fare tier with its own price and baggage terms. Classes
// have no external identity once detached from a ticket; full updates
// replace them wholesale.
type FlightClass struct {
	ID               string       `json:"id,omitempty"`
	TicketID         string       `json:"ticketId,omitempty"`
	Name             string       `json:"name"`
	CabinBaggageKg   float64      `json:"cabinBaggageKg"`
	CheckedBaggageKg float64      `json:"checkedBaggageKg"`
	Price            Price        `json:"price"`
	ExtraOffers      []ExtraOffer `json:"extraOffers"`
}
