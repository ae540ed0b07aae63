package domain

import "errors"

var (
	// ErrInvalidTimeWindow rejects a reservation window before any write:
	// missing bounds, start not before end, or end already in the past.
	ErrInvalidTimeWindow = errors.New("invalid reservation time window")

	// ErrLockerUnavailable means the locker cannot take the requested
	// window: an overlapping active reservation exists, the locker is out
	// of service, or a concurrent attempt won the race. Callers may retry.
	ErrLockerUnavailable = errors.New("locker unavailable for requested window")

	// ErrNotFound covers unknown locker and reservation ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition rejects lifecycle operations on
	// reservations that are no longer active.
	ErrInvalidStateTransition = errors.New("reservation is not active")
)
