package domain

import (
	"errors"
	"time"
)

// Transition guard errors. The mutation service maps these onto the
// precondition branch of the error taxonomy; the ticket is never written
// when one is returned.
var (
	ErrInvalidStatus       = errors.New("invalid ticket status")
	ErrFlightDatePassed    = errors.New("flight date has passed")
	ErrDepartureTimePassed = errors.New("departure time has passed")
	ErrStatusNotEditable   = errors.New("ticket cannot be edited in its current status")
	ErrStatusNotResubmittable = errors.New("ticket cannot be updated in its current status")
	ErrStatusNotDeletable  = errors.New("ticket cannot be deleted in its current status")
	ErrStatusNotToggleable = errors.New("status can only be toggled between available and unavailable")
	ErrNoPendingEdit       = errors.New("ticket has no pending edit request")
	ErrEditAlreadyPending  = errors.New("ticket already has a pending edit request")
)

// Two independent clocks gate transitions: FlightDate is the calendar day of
// travel ("is this listing still relevant"), DepartureTime is the precise
// scheduled departure ("can a live listing still be sold or edited"). Using
// the wrong clock is the bug class this table exists to prevent.

// masterAssignable is the status set a master may write directly.
var masterAssignable = map[TicketStatus]struct{}{
	TicketStatusAvailable:   {},
	TicketStatusUnavailable: {},
	TicketStatusRejected:    {},
	TicketStatusBlocked:     {},
	TicketStatusHold:        {},
}

// deletable is the inert-status whitelist; anything that reached the market
// (available/unavailable/booked-equivalents) must never be removed.
var deletable = map[TicketStatus]struct{}{
	TicketStatusPending:  {},
	TicketStatusRejected: {},
	TicketStatusBlocked:  {},
}

// editable statuses accept agency edit requests and the agency
// available/unavailable toggle.
var editable = map[TicketStatus]struct{}{
	TicketStatusAvailable:   {},
	TicketStatusUnavailable: {},
}

// resubmittable statuses accept a full agency re-submission back to pending.
var resubmittable = map[TicketStatus]struct{}{
	TicketStatusPending:  {},
	TicketStatusRejected: {},
}

// DepartureDecayStatuses are force-expired once DepartureTime passes.
var DepartureDecayStatuses = []TicketStatus{
	TicketStatusAvailable,
	TicketStatusUnavailable,
	TicketStatusHold,
}

// FlightDateDecayStatuses are force-blocked once FlightDate passes without
// the listing ever having been approved.
var FlightDateDecayStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusRejected,
}

// CheckMasterSetStatus guards the master status-set transition. Gated on the
// calendar clock: a master may still moderate a listing on departure day.
func CheckMasterSetStatus(t *Ticket, to TicketStatus, now time.Time) error {
	if !IsValidStatus(to) {
		return ErrInvalidStatus
	}
	if _, ok := masterAssignable[to]; !ok {
		return ErrInvalidStatus
	}
	if flightDatePassed(t, now) {
		return ErrFlightDatePassed
	}
	return nil
}

// CheckAgencyToggle guards the agency available/unavailable toggle. Gated on
// the precise departure clock: a live listing stops being togglable the
// moment its flight leaves.
func CheckAgencyToggle(t *Ticket, to TicketStatus, now time.Time) error {
	if _, ok := editable[t.Status]; !ok {
		return ErrStatusNotToggleable
	}
	if _, ok := editable[to]; !ok || to == t.Status {
		return ErrStatusNotToggleable
	}
	if t.DepartureTime.Before(now) {
		return ErrDepartureTimePassed
	}
	return nil
}

// CheckRequestEdit guards the agency edit-request transition.
func CheckRequestEdit(t *Ticket, now time.Time) error {
	if _, ok := editable[t.Status]; !ok {
		return ErrStatusNotEditable
	}
	if t.DepartureTime.Before(now) {
		return ErrDepartureTimePassed
	}
	if t.Updated {
		return ErrEditAlreadyPending
	}
	return nil
}

// CheckWithdrawEdit guards withdrawing a pending edit request.
func CheckWithdrawEdit(t *Ticket, now time.Time) error {
	if _, ok := editable[t.Status]; !ok {
		return ErrStatusNotEditable
	}
	if t.DepartureTime.Before(now) {
		return ErrDepartureTimePassed
	}
	if !t.Updated {
		return ErrNoPendingEdit
	}
	return nil
}

// CheckRespondToEdit guards the master accept/reject of a pending edit.
func CheckRespondToEdit(t *Ticket) error {
	if !t.Updated {
		return ErrNoPendingEdit
	}
	return nil
}

// CheckResubmit guards the agency re-submission of a rejected or still
// pending listing. The guard reads the ticket's actual current status, not
// any caller-declared status field.
func CheckResubmit(t *Ticket, now time.Time) error {
	if _, ok := resubmittable[t.Status]; !ok {
		return ErrStatusNotResubmittable
	}
	if flightDatePassed(t, now) {
		return ErrFlightDatePassed
	}
	return nil
}

// CheckDelete guards physical deletion against the inert-status whitelist.
func CheckDelete(t *Ticket) error {
	if _, ok := deletable[t.Status]; !ok {
		return ErrStatusNotDeletable
	}
	return nil
}

// flightDatePassed compares calendar days, not instants: a ticket flying
// today is still actionable even after midnight has technically passed.
func flightDatePassed(t *Ticket, now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return t.FlightDate.Before(today)
}
