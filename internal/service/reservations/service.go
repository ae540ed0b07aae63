package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vzorin/lockerbook/internal/domain"
	"github.com/vzorin/lockerbook/internal/kafka"
	"github.com/vzorin/lockerbook/internal/metrics"
	"github.com/vzorin/lockerbook/internal/repository"
)

// ReservationUseCase is what the HTTP layer and the worker call into.
type ReservationUseCase interface {
	Create(ctx context.Context, input CreateInput) (*domain.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	Complete(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	Update(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*domain.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RunExpirySweep(ctx context.Context) (SweepResult, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Mirror is a best-effort snapshot hook; its failures never fail a
// domain operation.
type Mirror interface {
	SnapshotReservation(ctx context.Context, r *domain.Reservation) error
	DropReservation(ctx context.Context, id uuid.UUID) error
}

type CreateInput struct {
	CustomerID int64     `json:"customer_id"`
	LockerID   int64     `json:"locker_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type Service struct {
	store              repository.Store
	producer           Producer
	mirror             Mirror
	topic              string
	notificationsTopic string
	metrics            *metrics.Metrics
	log                zerolog.Logger
	now                func() time.Time
}

type ServiceOption func(*Service)

// WithNotificationsTopic duplicates every event onto a second topic the
// notification worker consumes.
func WithNotificationsTopic(topic string) ServiceOption {
	return func(s *Service) { s.notificationsTopic = topic }
}

func WithMirror(m Mirror) ServiceOption {
	return func(s *Service) { s.mirror = m }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store repository.Store, producer Producer, topic string, log zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		producer: producer,
		topic:    topic,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create admits a new reservation. The locker row is held exclusively for
// the whole check-then-act sequence, so for any one locker admissions are
// totally ordered and the overlap check always sees every previously
// committed reservation.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Reservation, error) {
	now := s.now()
	if err := domain.ValidateWindow(input.StartTime, input.EndTime, now); err != nil {
		return nil, err
	}

	var created *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		locker, err := tx.LockerForUpdate(ctx, input.LockerID)
		if err != nil {
			return err
		}
		if !locker.Bookable() {
			return fmt.Errorf("%w: locker %d is %s", domain.ErrLockerUnavailable, locker.ID, locker.Status)
		}

		overlapping, err := tx.FindOverlapping(ctx, locker.ID, input.StartTime, input.EndTime, uuid.Nil)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: locker %d", domain.ErrLockerUnavailable, locker.ID)
		}

		r := &domain.Reservation{
			ID:         uuid.New(),
			CustomerID: input.CustomerID,
			LockerID:   locker.ID,
			StartTime:  input.StartTime,
			EndTime:    input.EndTime,
			Status:     domain.ReservationStatusActive,
			TotalPrice: domain.Price(input.StartTime, input.EndTime, locker.HourlyRate),
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}

		locker.Status = domain.LockerStatusOccupied
		if err := tx.SaveLocker(ctx, locker); err != nil {
			return err
		}

		created = r
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrLockerUnavailable) && s.metrics != nil {
			s.metrics.AdmissionConflictsTotal.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReservationsCreatedTotal.Inc()
	}
	s.notify(ctx, "reservation_created", created)
	s.snapshot(ctx, created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Reservation, error) {
	return s.store.ListReservationsByCustomer(ctx, customerID)
}

// Cancel moves an active reservation to CANCELLED and releases the locker.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.transition(ctx, id, domain.ReservationStatusCancelled, "reservation_cancelled")
}

// Complete moves an active reservation to COMPLETED and releases the
// locker. The expiry sweeper drives overdue reservations through here.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.transition(ctx, id, domain.ReservationStatusCompleted, "reservation_completed")
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to domain.ReservationStatus, event string) (*domain.Reservation, error) {
	var updated *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		r, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != domain.ReservationStatusActive {
			return fmt.Errorf("%w: reservation %s is %s", domain.ErrInvalidStateTransition, r.ID, r.Status)
		}

		r.Status = to
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if err := s.releaseLocker(ctx, tx, r.LockerID); err != nil {
			return err
		}

		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, event, updated)
	s.snapshot(ctx, updated)
	return updated, nil
}

// Update changes the window of an active reservation, re-running the full
// admission check with the reservation itself excluded from the overlap
// query, and reprices the new window at the locker's current rate.
func (s *Service) Update(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*domain.Reservation, error) {
	now := s.now()
	if err := domain.ValidateWindow(newStart, newEnd, now); err != nil {
		return nil, err
	}

	var updated *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		r, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != domain.ReservationStatusActive {
			return fmt.Errorf("%w: reservation %s is %s", domain.ErrInvalidStateTransition, r.ID, r.Status)
		}

		locker, err := tx.LockerForUpdate(ctx, r.LockerID)
		if err != nil {
			return err
		}

		overlapping, err := tx.FindOverlapping(ctx, locker.ID, newStart, newEnd, r.ID)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: locker %d", domain.ErrLockerUnavailable, locker.ID)
		}

		r.StartTime = newStart
		r.EndTime = newEnd
		r.TotalPrice = domain.Price(newStart, newEnd, locker.HourlyRate)
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}

		updated = r
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrLockerUnavailable) && s.metrics != nil {
			s.metrics.AdmissionConflictsTotal.Inc()
		}
		return nil, err
	}

	s.notify(ctx, "reservation_updated", updated)
	s.snapshot(ctx, updated)
	return updated, nil
}

// Delete removes the reservation record. An active reservation releases
// its locker first, exactly as Cancel does.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var removed *domain.Reservation
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		r, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.Status == domain.ReservationStatusActive {
			if err := s.releaseLocker(ctx, tx, r.LockerID); err != nil {
				return err
			}
		}
		if err := tx.DeleteReservation(ctx, r.ID); err != nil {
			return err
		}

		removed = r
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, "reservation_deleted", removed)
	if s.mirror != nil {
		if err := s.mirror.DropReservation(ctx, removed.ID); err != nil {
			s.log.Warn().Err(err).Str("reservation_id", removed.ID.String()).Msg("mirror drop failed")
		}
	}
	return nil
}

func (s *Service) releaseLocker(ctx context.Context, tx repository.Tx, lockerID int64) error {
	locker, err := tx.LockerForUpdate(ctx, lockerID)
	if err != nil {
		return err
	}
	locker.Status = domain.LockerStatusAvailable
	return tx.SaveLocker(ctx, locker)
}

func (s *Service) notify(ctx context.Context, eventType string, r *domain.Reservation) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID.String(),
		CustomerID:    r.CustomerID,
		LockerID:      r.LockerID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        string(r.Status),
		TotalPrice:    r.TotalPrice,
	}
	if err := s.producer.Publish(ctx, s.topic, event.ReservationID, event); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Str("reservation_id", event.ReservationID).Msg("failed to publish event")
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.ReservationID, event); err != nil {
			s.log.Warn().Err(err).Str("event", eventType).Str("reservation_id", event.ReservationID).Msg("failed to publish notification")
		}
	}
}

func (s *Service) snapshot(ctx context.Context, r *domain.Reservation) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SnapshotReservation(ctx, r); err != nil {
		s.log.Warn().Err(err).Str("reservation_id", r.ID.String()).Msg("mirror snapshot failed")
	}
}

var _ ReservationUseCase = (*Service)(nil)
