package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vzorin/lockerbook/internal/domain"
)

// Half-open interval test: touching windows do not conflict.
const overlapQuery = `SELECT ` + reservationColumns + ` FROM reservations
	WHERE locker_id=$1 AND status=$2 AND start_time < $4 AND end_time > $3 AND id <> $5
	ORDER BY start_time`

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockerForUpdate(ctx context.Context, id int64) (*domain.Locker, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+lockerColumns+` FROM lockers WHERE id=$1 FOR UPDATE`, id)
	return scanLocker(row)
}

func (t *pgTx) SaveLocker(ctx context.Context, locker *domain.Locker) error {
	row := t.tx.QueryRow(ctx, `UPDATE lockers SET status=$2, version=version+1, updated_at=now() WHERE id=$1 RETURNING version, updated_at`, locker.ID, locker.Status)
	return row.Scan(&locker.Version, &locker.UpdatedAt)
}

func (t *pgTx) ReservationForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1 FOR UPDATE`, id)
	return scanReservation(row)
}

func (t *pgTx) FindOverlapping(ctx context.Context, lockerID int64, start, end time.Time, exclude uuid.UUID) ([]domain.Reservation, error) {
	rows, err := t.tx.Query(ctx, overlapQuery, lockerID, domain.ReservationStatusActive, start, end, exclude)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (t *pgTx) InsertReservation(ctx context.Context, r *domain.Reservation) error {
	row := t.tx.QueryRow(ctx, `INSERT INTO reservations (id, customer_id, locker_id, start_time, end_time, status, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING version, created_at, updated_at`,
		r.ID, r.CustomerID, r.LockerID, r.StartTime, r.EndTime, r.Status, r.TotalPrice)
	return row.Scan(&r.Version, &r.CreatedAt, &r.UpdatedAt)
}

func (t *pgTx) UpdateReservation(ctx context.Context, r *domain.Reservation) error {
	row := t.tx.QueryRow(ctx, `UPDATE reservations SET start_time=$2, end_time=$3, status=$4, total_price=$5, version=version+1, updated_at=now()
		WHERE id=$1 RETURNING version, updated_at`,
		r.ID, r.StartTime, r.EndTime, r.Status, r.TotalPrice)
	return row.Scan(&r.Version, &r.UpdatedAt)
}

func (t *pgTx) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	return err
}

var _ Tx = (*pgTx)(nil)
