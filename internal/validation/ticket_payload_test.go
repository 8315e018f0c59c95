package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wellFormed() TicketPayload {
	return TicketPayload{
		Seats:       5,
		FlightDates: []string{"2026-06-01"},
		Segments: []SegmentPayload{{
			FlightNumber:  "FM101",
			Carrier:       "Acme Air",
			From:          LocationPayload{Airport: "THR", City: "Tehran", Country: "IR"},
			To:            LocationPayload{Airport: "IST", City: "Istanbul", Country: "TR"},
			DepartureTime: "10:00",
			ArrivalTime:   "14:00",
		}},
		FlightClasses: []FlightClassPayload{{
			Name:  "economy",
			Price: PricePayload{Adult: 120, Currency: "USD"},
		}},
	}
}

func TestValidateTicketWellFormed(t *testing.T) {
	assert.Nil(t, ValidateTicket(wellFormed()))
}

func TestValidateTicketErrorPaths(t *testing.T) {
	p := wellFormed()
	p.Seats = -1
	p.FlightDates = []string{"June 1st"}
	p.Segments[0].ArrivalTime = "25:99"
	p.Segments[0].From.Airport = ""
	p.FlightClasses[0].Price.Adult = -10
	p.FlightClasses[0].ExtraOffers = []ExtraOfferPayload{{Name: "meal", Availability: "maybe"}}

	errs := ValidateTicket(p)
	require.NotNil(t, errs)
	assert.Contains(t, errs, "seats")
	assert.Contains(t, errs, "flightDates.0")
	assert.Contains(t, errs, "segments.0.arrivalTime")
	assert.Contains(t, errs, "segments.0.from.airport")
	assert.Contains(t, errs, "flightClasses.0.price.adult")
	assert.Contains(t, errs, "flightClasses.0.extraOffers.0.availability")
}

func TestValidateTicketRequiredCollections(t *testing.T) {
	errs := ValidateTicket(TicketPayload{Seats: 1})
	require.NotNil(t, errs)
	assert.Contains(t, errs, "flightDates")
	assert.Contains(t, errs, "segments")
	assert.Contains(t, errs, "flightClasses")
}

func TestValidateRevision(t *testing.T) {
	assert.Nil(t, ValidateRevision(RevisionPayload{
		Seats:         3,
		FlightClasses: wellFormed().FlightClasses,
	}))

	errs := ValidateRevision(RevisionPayload{Seats: -2})
	require.NotNil(t, errs)
	assert.Contains(t, errs, "seats")
	assert.Contains(t, errs, "flightClasses")
}

func TestSchedulesConversion(t *testing.T) {
	schedules, err := wellFormed().Schedules()
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, 10, schedules[0].Departure.Hour)
	assert.Equal(t, 14, schedules[0].Arrival.Hour)
	assert.Equal(t, "THR", schedules[0].From.Airport)
}
