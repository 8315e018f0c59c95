package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func futureTicket(status TicketStatus) *Ticket {
	return &Ticket{
		Status:        status,
		FlightDate:    testNow.AddDate(0, 0, 7),
		DepartureTime: testNow.AddDate(0, 0, 7).Add(9 * time.Hour),
	}
}

func TestCheckMasterSetStatus(t *testing.T) {
	tests := []struct {
		name    string
		ticket  *Ticket
		to      TicketStatus
		wantErr error
	}{
		{"approve pending", futureTicket(TicketStatusPending), TicketStatusAvailable, nil},
		{"reject pending", futureTicket(TicketStatusPending), TicketStatusRejected, nil},
		{"block live", futureTicket(TicketStatusAvailable), TicketStatusBlocked, nil},
		{"hold live", futureTicket(TicketStatusAvailable), TicketStatusHold, nil},
		{"unknown status", futureTicket(TicketStatusPending), TicketStatus("bogus"), ErrInvalidStatus},
		{"pending not assignable", futureTicket(TicketStatusAvailable), TicketStatusPending, ErrInvalidStatus},
		{"expired not assignable", futureTicket(TicketStatusAvailable), TicketStatusExpired, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMasterSetStatus(tt.ticket, tt.to, testNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckMasterSetStatusUsesCalendarClock(t *testing.T) {
	ticket := futureTicket(TicketStatusPending)

	// Same day, departure already gone: masters may still moderate.
	ticket.FlightDate = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	ticket.DepartureTime = testNow.Add(-3 * time.Hour)
	assert.NoError(t, CheckMasterSetStatus(ticket, TicketStatusAvailable, testNow))

	// Yesterday's flight date: moderation window closed.
	ticket.FlightDate = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, CheckMasterSetStatus(ticket, TicketStatusAvailable, testNow), ErrFlightDatePassed)
}

func TestCheckAgencyToggle(t *testing.T) {
	tests := []struct {
		name    string
		ticket  *Ticket
		to      TicketStatus
		wantErr error
	}{
		{"available to unavailable", futureTicket(TicketStatusAvailable), TicketStatusUnavailable, nil},
		{"unavailable to available", futureTicket(TicketStatusUnavailable), TicketStatusAvailable, nil},
		{"same status", futureTicket(TicketStatusAvailable), TicketStatusAvailable, ErrStatusNotToggleable},
		{"pending not togglable", futureTicket(TicketStatusPending), TicketStatusAvailable, ErrStatusNotToggleable},
		{"target outside toggle pair", futureTicket(TicketStatusAvailable), TicketStatusHold, ErrStatusNotToggleable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAgencyToggle(tt.ticket, tt.to, testNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckAgencyToggleUsesDepartureClock(t *testing.T) {
	ticket := futureTicket(TicketStatusAvailable)

	// Flight date is still today but the plane already left: toggle closed.
	ticket.FlightDate = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	ticket.DepartureTime = testNow.Add(-1 * time.Minute)
	assert.ErrorIs(t, CheckAgencyToggle(ticket, TicketStatusUnavailable, testNow), ErrDepartureTimePassed)

	// Departing later today: still togglable.
	ticket.DepartureTime = testNow.Add(1 * time.Minute)
	assert.NoError(t, CheckAgencyToggle(ticket, TicketStatusUnavailable, testNow))
}

func TestCheckRequestEdit(t *testing.T) {
	ticket := futureTicket(TicketStatusAvailable)
	require.NoError(t, CheckRequestEdit(ticket, testNow))

	ticket.Updated = true
	assert.ErrorIs(t, CheckRequestEdit(ticket, testNow), ErrEditAlreadyPending)

	ticket = futureTicket(TicketStatusPending)
	assert.ErrorIs(t, CheckRequestEdit(ticket, testNow), ErrStatusNotEditable)

	ticket = futureTicket(TicketStatusAvailable)
	ticket.DepartureTime = testNow.Add(-time.Hour)
	assert.ErrorIs(t, CheckRequestEdit(ticket, testNow), ErrDepartureTimePassed)
}

func TestCheckWithdrawEdit(t *testing.T) {
	ticket := futureTicket(TicketStatusAvailable)
	assert.ErrorIs(t, CheckWithdrawEdit(ticket, testNow), ErrNoPendingEdit)

	ticket.Updated = true
	assert.NoError(t, CheckWithdrawEdit(ticket, testNow))

	ticket.DepartureTime = testNow.Add(-time.Hour)
	assert.ErrorIs(t, CheckWithdrawEdit(ticket, testNow), ErrDepartureTimePassed)
}

func TestCheckRespondToEdit(t *testing.T) {
	ticket := futureTicket(TicketStatusAvailable)
	assert.ErrorIs(t, CheckRespondToEdit(ticket), ErrNoPendingEdit)

	ticket.Updated = true
	assert.NoError(t, CheckRespondToEdit(ticket))
}

func TestCheckResubmit(t *testing.T) {
	for _, status := range []TicketStatus{TicketStatusPending, TicketStatusRejected} {
		assert.NoError(t, CheckResubmit(futureTicket(status), testNow), string(status))
	}
	for _, status := range []TicketStatus{
		TicketStatusAvailable, TicketStatusUnavailable,
		TicketStatusBlocked, TicketStatusExpired, TicketStatusHold,
	} {
		assert.ErrorIs(t, CheckResubmit(futureTicket(status), testNow), ErrStatusNotResubmittable, string(status))
	}

	stale := futureTicket(TicketStatusRejected)
	stale.FlightDate = testNow.AddDate(0, 0, -1)
	assert.ErrorIs(t, CheckResubmit(stale, testNow), ErrFlightDatePassed)
}

func TestCheckDelete(t *testing.T) {
	for _, status := range []TicketStatus{TicketStatusPending, TicketStatusRejected, TicketStatusBlocked} {
		assert.NoError(t, CheckDelete(futureTicket(status)), string(status))
	}
	for _, status := range []TicketStatus{
		TicketStatusAvailable, TicketStatusUnavailable,
		TicketStatusExpired, TicketStatusHold,
	} {
		assert.ErrorIs(t, CheckDelete(futureTicket(status)), ErrStatusNotDeletable, string(status))
	}
}

func TestStatusSetClosure(t *testing.T) {
	assert.Len(t, AllStatuses, 7)
	for _, status := range AllStatuses {
		assert.True(t, IsValidStatus(status))
	}
	assert.False(t, IsValidStatus(TicketStatus("updated")))
	assert.False(t, IsValidStatus(TicketStatus("")))
}

func TestDecaySetsAreDisjoint(t *testing.T) {
	seen := map[TicketStatus]struct{}{}
	for _, status := range DepartureDecayStatuses {
		seen[status] = struct{}{}
	}
	for _, status := range FlightDateDecayStatuses {
		_, dup := seen[status]
		assert.False(t, dup, string(status))
	}
}

func TestChangeForStatus(t *testing.T) {
	assert.Equal(t, ChangeAccepted, ChangeForStatus(TicketStatusPending, TicketStatusAvailable))
	assert.Equal(t, ChangeType("rejected"), ChangeForStatus(TicketStatusPending, TicketStatusRejected))
	assert.Equal(t, ChangeType("blocked"), ChangeForStatus(TicketStatusAvailable, TicketStatusBlocked))
}
