package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vzorin/lockerbook/internal/domain"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) Store {
	return &PGStore{db: db}
}

// InTx runs fn inside a transaction. Serialization failures and deadlocks
// detected by postgres at commit time are reported as ErrLockerUnavailable
// so callers can retry instead of seeing a generic storage error.
func (s *PGStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return translateConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateConflict(err)
	}
	return nil
}

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %s", domain.ErrLockerUnavailable, pgErr.Code)
		}
	}
	return err
}

const lockerColumns = `id, size_class, hourly_rate, status, version, created_at, updated_at`

func scanLocker(row pgx.Row) (*domain.Locker, error) {
	var l domain.Locker
	if err := row.Scan(&l.ID, &l.SizeClass, &l.HourlyRate, &l.Status, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("locker: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &l, nil
}

func (s *PGStore) GetLocker(ctx context.Context, id int64) (*domain.Locker, error) {
	row := s.db.QueryRow(ctx, `SELECT `+lockerColumns+` FROM lockers WHERE id=$1`, id)
	return scanLocker(row)
}

func (s *PGStore) ListLockers(ctx context.Context) ([]domain.Locker, error) {
	rows, err := s.db.Query(ctx, `SELECT `+lockerColumns+` FROM lockers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lockers := make([]domain.Locker, 0)
	for rows.Next() {
		var l domain.Locker
		if err := rows.Scan(&l.ID, &l.SizeClass, &l.HourlyRate, &l.Status, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lockers = append(lockers, l)
	}
	return lockers, rows.Err()
}

const reservationColumns = `id, customer_id, locker_id, start_time, end_time, status, total_price, version, created_at, updated_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := row.Scan(&r.ID, &r.CustomerID, &r.LockerID, &r.StartTime, &r.EndTime, &r.Status, &r.TotalPrice, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return &r, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()
	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var r domain.Reservation
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.LockerID, &r.StartTime, &r.EndTime, &r.Status, &r.TotalPrice, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func (s *PGStore) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	row := s.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id)
	return scanReservation(row)
}

func (s *PGStore) ListReservationsByCustomer(ctx context.Context, customerID int64) ([]domain.Reservation, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE customer_id=$1 ORDER BY start_time`, customerID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (s *PGStore) FindExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE status=$1 AND end_time < $2 ORDER BY end_time`, domain.ReservationStatusActive, now)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (s *PGStore) FindOverlapping(ctx context.Context, lockerID int64, start, end time.Time, exclude uuid.UUID) ([]domain.Reservation, error) {
	rows, err := s.db.Query(ctx, overlapQuery, lockerID, domain.ReservationStatusActive, start, end, exclude)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

var _ Store = (*PGStore)(nil)
