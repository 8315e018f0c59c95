package domain

import (
	"errors"
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day without a date.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "15:04" style values.
func ParseClockTime(s string) (ClockTime, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// on anchors the clock value onto a calendar day.
func (c ClockTime) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// before compares two clock values within a single day.
func (c ClockTime) before(other ClockTime) bool {
	if c.Hour != other.Hour {
		return c.Hour < other.Hour
	}
	return c.Minute < other.Minute
}

// SegmentSchedule is the caller-supplied shape of one leg: airports plus
// clock times. Absolute times are derived against the ticket's flight date.
type SegmentSchedule struct {
	FlightNumber string
	Carrier      string
	From         Location
	To           Location
	Departure    ClockTime
	Arrival      ClockTime
}

// ErrNoSegments is returned when an itinerary has no legs.
var ErrNoSegments = errors.New("itinerary requires at least one segment")

// BuildSegments turns clock-time schedules into segments with absolute
// times, walking a date cursor that starts at flightDate. Whenever a leg's
// arrival clock reads earlier than its departure clock the flight crossed
// midnight, so the cursor (and every later leg) rolls to the next day. The
// same rule applies between legs: a connection departing at an earlier clock
// value than the previous arrival departs the following day.
func BuildSegments(flightDate time.Time, schedules []SegmentSchedule) ([]Segment, error) {
	if len(schedules) == 0 {
		return nil, ErrNoSegments
	}

	cursor := flightDate
	segments := make([]Segment, 0, len(schedules))
	prevArrival := ClockTime{}

	for i, sched := range schedules {
		if i > 0 && sched.Departure.before(prevArrival) {
			cursor = cursor.AddDate(0, 0, 1)
		}
		departure := sched.Departure.on(cursor)
		if sched.Arrival.before(sched.Departure) {
			cursor = cursor.AddDate(0, 0, 1)
		}
		arrival := sched.Arrival.on(cursor)

		segments = append(segments, Segment{
			Position:      i,
			FlightNumber:  sched.FlightNumber,
			Carrier:       sched.Carrier,
			From:          sched.From,
			To:            sched.To,
			DepartureTime: departure,
			ArrivalTime:   arrival,
			Duration:      FormatDuration(arrival.Sub(departure)),
		})
		prevArrival = sched.Arrival
	}
	return segments, nil
}

// Itinerary is the ticket-level summary denormalized from segments.
type Itinerary struct {
	Departure     string
	Arrival       string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Duration      string
	Stops         int
}

// Summarize derives the ticket-level cache fields: earliest departure,
// latest arrival, total duration and stop count. Segments are the source of
// truth; callers must re-run this on every segment change.
func Summarize(segments []Segment) (Itinerary, error) {
	if len(segments) == 0 {
		return Itinerary{}, ErrNoSegments
	}
	first := segments[0]
	last := segments[len(segments)-1]
	return Itinerary{
		Departure:     first.From.Airport,
		Arrival:       last.To.Airport,
		DepartureTime: first.DepartureTime,
		ArrivalTime:   last.ArrivalTime,
		Duration:      FormatDuration(last.ArrivalTime.Sub(first.DepartureTime)),
		Stops:         len(segments) - 1,
	}, nil
}

// FormatDuration renders a duration as "4h 30m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Minutes())
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
