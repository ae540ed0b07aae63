package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vzorin/lockerbook/internal/domain"
)

// Store is the single logical store behind the reservation core. Reads
// outside InTx take no locks; every mutation goes through InTx so the
// overlap check and the writes it guards commit or roll back together.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetLocker(ctx context.Context, id int64) (*domain.Locker, error)
	ListLockers(ctx context.Context) ([]domain.Locker, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListReservationsByCustomer(ctx context.Context, customerID int64) ([]domain.Reservation, error)
	FindExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	FindOverlapping(ctx context.Context, lockerID int64, start, end time.Time, exclude uuid.UUID) ([]domain.Reservation, error)
}

// Tx exposes the operations available inside a store transaction.
// LockerForUpdate grants an exclusive hold on the locker row until the
// transaction ends; a second holder blocks. This is the synchronization
// point that prevents double-booking.
type Tx interface {
	LockerForUpdate(ctx context.Context, id int64) (*domain.Locker, error)
	SaveLocker(ctx context.Context, locker *domain.Locker) error

	ReservationForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	FindOverlapping(ctx context.Context, lockerID int64, start, end time.Time, exclude uuid.UUID) ([]domain.Reservation, error)
	InsertReservation(ctx context.Context, r *domain.Reservation) error
	UpdateReservation(ctx context.Context, r *domain.Reservation) error
	DeleteReservation(ctx context.Context, id uuid.UUID) error
}
