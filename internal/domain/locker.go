package domain

import "time"

type LockerStatus string

const (
	LockerStatusAvailable   LockerStatus = "AVAILABLE"
	LockerStatusOccupied    LockerStatus = "OCCUPIED"
	LockerStatusReserved    LockerStatus = "RESERVED"
	LockerStatusMaintenance LockerStatus = "MAINTENANCE"
	LockerStatusOutOfOrder  LockerStatus = "OUT_OF_ORDER"
)

type Locker struct {
	ID         int64
	SizeClass  string
	HourlyRate float64
	Status     LockerStatus
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Bookable reports whether the locker accepts new reservations at all.
// OCCUPIED does not gate admission: a non-overlapping future window is
// still admissible, the overlap check is what decides.
func (l *Locker) Bookable() bool {
	return l.Status != LockerStatusMaintenance && l.Status != LockerStatusOutOfOrder
}
