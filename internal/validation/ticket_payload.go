// Package validation checks mutation payloads before any write happens.
// Errors come back as a flat map keyed by dotted payload paths
// ("flightClasses.0.price.adult") because the presentation layer indexes
// field errors by exactly that shape.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/flight-marketplace/internal/domain"
)

// LocationPayload is an airport reference in a mutation payload.
type LocationPayload struct {
	Airport string `json:"airport"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// SegmentPayload is one leg with clock times; absolute times are derived
// against the ticket's flight date.
type SegmentPayload struct {
	FlightNumber  string          `json:"flightNumber"`
	Carrier       string          `json:"carrier"`
	From          LocationPayload `json:"from"`
	To            LocationPayload `json:"to"`
	DepartureTime string          `json:"departureTime"`
	ArrivalTime   string          `json:"arrivalTime"`
}

// PricePayload is a fare breakdown.
type PricePayload struct {
	Adult    float64 `json:"adult"`
	Child    float64 `json:"child"`
	Infant   float64 `json:"infant"`
	Tax      float64 `json:"tax"`
	Currency string  `json:"currency"`
}

// ExtraOfferPayload is an optional fare-tier service.
type ExtraOfferPayload struct {
	Name         string `json:"name"`
	Availability string `json:"availability"`
}

// FlightClassPayload is a fare tier in a mutation payload.
type FlightClassPayload struct {
	Name             string              `json:"name"`
	CabinBaggageKg   float64             `json:"cabinBaggageKg"`
	CheckedBaggageKg float64             `json:"checkedBaggageKg"`
	Price            PricePayload        `json:"price"`
	ExtraOffers      []ExtraOfferPayload `json:"extraOffers"`
}

// TicketPayload is the full ticket shape accepted by create and re-submit.
// Create makes one ticket per listed flight date.
type TicketPayload struct {
	Seats         int                  `json:"seats"`
	FlightDates   []string             `json:"flightDates"`
	Segments      []SegmentPayload     `json:"segments"`
	FlightClasses []FlightClassPayload `json:"flightClasses"`
}

// RevisionPayload is the proposed edit shape accepted by requestEdit.
type RevisionPayload struct {
	Seats         int                  `json:"seats"`
	FlightClasses []FlightClassPayload `json:"flightClasses"`
}

const flightDateLayout = "2006-01-02"

// ValidateTicket checks a full ticket payload. A nil result means valid.
func ValidateTicket(p TicketPayload) map[string]any {
	errs := map[string]any{}

	if p.Seats < 0 {
		errs["seats"] = "must be zero or greater"
	}
	if len(p.FlightDates) == 0 {
		errs["flightDates"] = "at least one flight date is required"
	}
	for i, raw := range p.FlightDates {
		if _, err := time.Parse(flightDateLayout, raw); err != nil {
			errs[fmt.Sprintf("flightDates.%d", i)] = "must be a date in YYYY-MM-DD format"
		}
	}
	if len(p.Segments) == 0 {
		errs["segments"] = "at least one segment is required"
	}
	for i, seg := range p.Segments {
		validateSegment(fmt.Sprintf("segments.%d", i), seg, errs)
	}
	validateClasses("flightClasses", p.FlightClasses, errs)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateRevision checks a proposed edit payload. A nil result means valid.
func ValidateRevision(p RevisionPayload) map[string]any {
	errs := map[string]any{}
	if p.Seats < 0 {
		errs["seats"] = "must be zero or greater"
	}
	validateClasses("flightClasses", p.FlightClasses, errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateSegment(path string, seg SegmentPayload, errs map[string]any) {
	if strings.TrimSpace(seg.FlightNumber) == "" {
		errs[path+".flightNumber"] = "is required"
	}
	if strings.TrimSpace(seg.Carrier) == "" {
		errs[path+".carrier"] = "is required"
	}
	validateLocation(path+".from", seg.From, errs)
	validateLocation(path+".to", seg.To, errs)
	if _, err := domain.ParseClockTime(seg.DepartureTime); err != nil {
		errs[path+".departureTime"] = "must be a time in HH:MM format"
	}
	if _, err := domain.ParseClockTime(seg.ArrivalTime); err != nil {
		errs[path+".arrivalTime"] = "must be a time in HH:MM format"
	}
}

func validateLocation(path string, loc LocationPayload, errs map[string]any) {
	if strings.TrimSpace(loc.Airport) == "" {
		errs[path+".airport"] = "is required"
	}
	if strings.TrimSpace(loc.City) == "" {
		errs[path+".city"] = "is required"
	}
}

func validateClasses(path string, classes []FlightClassPayload, errs map[string]any) {
	if len(classes) == 0 {
		errs[path] = "at least one flight class is required"
		return
	}
	for i, class := range classes {
		classPath := fmt.Sprintf("%s.%d", path, i)
		if strings.TrimSpace(class.Name) == "" {
			errs[classPath+".name"] = "is required"
		}
		if class.CabinBaggageKg < 0 {
			errs[classPath+".cabinBaggageKg"] = "must be zero or greater"
		}
		if class.CheckedBaggageKg < 0 {
			errs[classPath+".checkedBaggageKg"] = "must be zero or greater"
		}
		validatePrice(classPath+".price", class.Price, errs)
		for j, offer := range class.ExtraOffers {
			offerPath := fmt.Sprintf("%s.extraOffers.%d", classPath, j)
			if strings.TrimSpace(offer.Name) == "" {
				errs[offerPath+".name"] = "is required"
			}
			if !domain.IsValidOfferAvailability(domain.OfferAvailability(offer.Availability)) {
				errs[offerPath+".availability"] = "must be one of yes, no, charge"
			}
		}
	}
}

func validatePrice(path string, price PricePayload, errs map[string]any) {
	if price.Adult < 0 {
		errs[path+".adult"] = "must be zero or greater"
	}
	if price.Child < 0 {
		errs[path+".child"] = "must be zero or greater"
	}
	if price.Infant < 0 {
		errs[path+".infant"] = "must be zero or greater"
	}
	if price.Tax < 0 {
		errs[path+".tax"] = "must be zero or greater"
	}
	if strings.TrimSpace(price.Currency) == "" {
		errs[path+".currency"] = "is required"
	}
}

// ParsedFlightDates parses the payload's dates. Call only after ValidateTicket.
func (p TicketPayload) ParsedFlightDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(p.FlightDates))
	for _, raw := range p.FlightDates {
		parsed, err := time.Parse(flightDateLayout, raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, parsed)
	}
	return dates, nil
}

// Schedules converts segment payloads into domain schedules. Call only
// after ValidateTicket.
func (p TicketPayload) Schedules() ([]domain.SegmentSchedule, error) {
	schedules := make([]domain.SegmentSchedule, 0, len(p.Segments))
	for _, seg := range p.Segments {
		departure, err := domain.ParseClockTime(seg.DepartureTime)
		if err != nil {
			return nil, err
		}
		arrival, err := domain.ParseClockTime(seg.ArrivalTime)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, domain.SegmentSchedule{
			FlightNumber: seg.FlightNumber,
			Carrier:      seg.Carrier,
			From:         domain.Location{Airport: seg.From.Airport, City: seg.From.City, Country: seg.From.Country},
			To:           domain.Location{Airport: seg.To.Airport, City: seg.To.City, Country: seg.To.Country},
			Departure:    departure,
			Arrival:      arrival,
		})
	}
	return schedules, nil
}

// Classes converts class payloads into domain flight classes.
func Classes(payloads []FlightClassPayload) []domain.FlightClass {
	classes := make([]domain.FlightClass, 0, len(payloads))
	for _, p := range payloads {
		class := domain.FlightClass{
			Name:             p.Name,
			CabinBaggageKg:   p.CabinBaggageKg,
			CheckedBaggageKg: p.CheckedBaggageKg,
			Price: domain.Price{
				Adult:    p.Price.Adult,
				Child:    p.Price.Child,
				Infant:   p.Price.Infant,
				Tax:      p.Price.Tax,
				Currency: p.Price.Currency,
			},
		}
		for _, offer := range p.ExtraOffers {
			class.ExtraOffers = append(class.ExtraOffers, domain.ExtraOffer{
				Name:         offer.Name,
				Availability: domain.OfferAvailability(offer.Availability),
			})
		}
		classes = append(classes, class)
	}
	return classes
}
