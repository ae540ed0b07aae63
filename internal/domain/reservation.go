package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID         uuid.UUID
	CustomerID int64
	LockerID   int64
	StartTime  time.Time
	EndTime    time.Time
	Status     ReservationStatus
	TotalPrice float64
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overlaps applies the half-open interval test against [start, end).
// Windows that only touch (r.EndTime == start or end == r.StartTime)
// do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// Expired reports whether the reservation window has fully elapsed.
func (r *Reservation) Expired(now time.Time) bool {
	return r.EndTime.Before(now)
}

// ValidateWindow checks a reservation window against admission rules:
// both ends set, start strictly before end, end not in the past.
func ValidateWindow(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrInvalidTimeWindow
	}
	if !start.Before(end) {
		return ErrInvalidTimeWindow
	}
	if end.Before(now) {
		return ErrInvalidTimeWindow
	}
	return nil
}
