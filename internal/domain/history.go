package domain

import "time"

// ChangeType labels a history entry. Unlike TicketStatus this is an open
// tag set: some labels mirror status values ("available", "blocked"), others
// are audit-only ("accepted", "update request") and never appear as a
// ticket's status.
type ChangeType string

const (
	ChangeCreated         ChangeType = "created"
	ChangeAccepted        ChangeType = "accepted"
	ChangeUpdateRequest   ChangeType = "update request"
	ChangeUpdatePending   ChangeType = "updated (pending)"
	ChangeWithdrawRequest ChangeType = "withdraw request"
	ChangeDeleted         ChangeType = "deleted"
)

// ChangeForStatus returns the audit label for a master status change.
// Approving a pending ticket is logged as "accepted" even though the
// underlying transition is an ordinary move to "available".
func ChangeForStatus(from, to TicketStatus) ChangeType {
	if from == TicketStatusPending && to == TicketStatusAvailable {
		return ChangeAccepted
	}
	return ChangeType(to)
}

// HistoryEntry is an immutable audit record of one ticket transition.
// ActorID is nil for sweeper-generated entries.
type HistoryEntry struct {
	ID            string
	TicketID      string
	ActorID       *string
	ChangeType    ChangeType
	ChangeDetails map[string]any
	OldValue      map[string]any
	NewValue      map[string]any
	ChangedAt     time.Time
}
