package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStatusConflict is returned when a guarded write matches zero rows
	// because the ticket's status changed between the caller's read and the
	// write. This is the optimistic precondition re-check surfacing a lost
	// race, typically against the sweeper.
	ErrStatusConflict = errors.New("ticket status changed concurrently")
)
