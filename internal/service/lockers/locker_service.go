package lockers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vzorin/lockerbook/internal/domain"
	"github.com/vzorin/lockerbook/internal/repository"
)

type LockerUseCase interface {
	List(ctx context.Context) ([]domain.Locker, error)
	GetByID(ctx context.Context, id int64) (*domain.Locker, error)
	CheckAvailability(ctx context.Context, id int64, start, end time.Time) (bool, error)
}

type Cache interface {
	GetLockers(ctx context.Context) ([]domain.Locker, error)
	SetLockers(ctx context.Context, lockers []domain.Locker) error
}

type LockerService struct {
	store repository.Store
	cache Cache
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*LockerService)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LockerService) {
		s.now = now
	}
}

func NewLockerService(store repository.Store, cache Cache, log zerolog.Logger, opts ...Option) *LockerService {
	s := &LockerService{store: store, cache: cache, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LockerService) List(ctx context.Context) ([]domain.Locker, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetLockers(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	lockers, err := s.store.ListLockers(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetLockers(ctx, lockers); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache locker list")
		}
	}
	return lockers, nil
}

func (s *LockerService) GetByID(ctx context.Context, id int64) (*domain.Locker, error) {
	return s.store.GetLocker(ctx, id)
}

// CheckAvailability answers whether the locker can take the window. The
// active-reservation overlap query is authoritative; the locker's status
// field only gates lockers that are out of service. A read here takes no
// locks, so the answer is advisory: admission re-checks under the hold.
func (s *LockerService) CheckAvailability(ctx context.Context, id int64, start, end time.Time) (bool, error) {
	if err := domain.ValidateWindow(start, end, s.now()); err != nil {
		return false, err
	}

	locker, err := s.store.GetLocker(ctx, id)
	if err != nil {
		return false, err
	}
	if !locker.Bookable() {
		return false, nil
	}

	overlapping, err := s.store.FindOverlapping(ctx, id, start, end, uuid.Nil)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}

var _ LockerUseCase = (*LockerService)(nil)
