package lockers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vzorin/lockerbook/internal/domain"
	"github.com/vzorin/lockerbook/internal/repository"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *mockStore) GetLocker(ctx context.Context, id int64) (*domain.Locker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Locker), args.Error(1)
}

func (m *mockStore) ListLockers(ctx context.Context) ([]domain.Locker, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Locker), args.Error(1)
}

func (m *mockStore) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockStore) ListReservationsByCustomer(ctx context.Context, customerID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *mockStore) FindExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *mockStore) FindOverlapping(ctx context.Context, lockerID int64, start, end time.Time, exclude uuid.UUID) ([]domain.Reservation, error) {
	args := m.Called(ctx, lockerID, start, end, exclude)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetLockers(ctx context.Context) ([]domain.Locker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Locker), args.Error(1)
}

func (m *mockCache) SetLockers(ctx context.Context, lockers []domain.Locker) error {
	args := m.Called(ctx, lockers)
	return args.Error(0)
}

func TestList_CacheHit(t *testing.T) {
	store := &mockStore{}
	cache := &mockCache{}
	cached := []domain.Locker{{ID: 1, Status: domain.LockerStatusAvailable}}
	cache.On("GetLockers", mock.Anything).Return(cached, nil).Once()

	svc := NewLockerService(store, cache, zerolog.Nop())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	store.AssertNotCalled(t, "ListLockers")
	cache.AssertExpectations(t)
}

func TestList_CacheMissFillsCache(t *testing.T) {
	store := &mockStore{}
	cache := &mockCache{}
	fromDB := []domain.Locker{{ID: 1}, {ID: 2}}
	cache.On("GetLockers", mock.Anything).Return(nil, nil).Once()
	store.On("ListLockers", mock.Anything).Return(fromDB, nil).Once()
	cache.On("SetLockers", mock.Anything, fromDB).Return(nil).Once()

	svc := NewLockerService(store, cache, zerolog.Nop())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
	store.AssertExpectations(t)
	cache.AssertExpectations(t)
}

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func TestCheckAvailability(t *testing.T) {
	start := testNow.Add(time.Hour)
	end := start.Add(2 * time.Hour)

	t.Run("free window", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetLocker", mock.Anything, int64(1)).Return(&domain.Locker{ID: 1, Status: domain.LockerStatusAvailable}, nil).Once()
		store.On("FindOverlapping", mock.Anything, int64(1), start, end, uuid.Nil).Return([]domain.Reservation{}, nil).Once()

		svc := NewLockerService(store, nil, zerolog.Nop(), WithClock(fixedClock))
		available, err := svc.CheckAvailability(context.Background(), 1, start, end)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("occupied window", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetLocker", mock.Anything, int64(1)).Return(&domain.Locker{ID: 1, Status: domain.LockerStatusAvailable}, nil).Once()
		store.On("FindOverlapping", mock.Anything, int64(1), start, end, uuid.Nil).Return([]domain.Reservation{{ID: uuid.New()}}, nil).Once()

		svc := NewLockerService(store, nil, zerolog.Nop(), WithClock(fixedClock))
		available, err := svc.CheckAvailability(context.Background(), 1, start, end)
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("out of service locker", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetLocker", mock.Anything, int64(1)).Return(&domain.Locker{ID: 1, Status: domain.LockerStatusOutOfOrder}, nil).Once()

		svc := NewLockerService(store, nil, zerolog.Nop(), WithClock(fixedClock))
		available, err := svc.CheckAvailability(context.Background(), 1, start, end)
		require.NoError(t, err)
		assert.False(t, available)
		store.AssertNotCalled(t, "FindOverlapping")
	})

	t.Run("invalid window", func(t *testing.T) {
		store := &mockStore{}
		svc := NewLockerService(store, nil, zerolog.Nop(), WithClock(fixedClock))

		_, err := svc.CheckAvailability(context.Background(), 1, end, start)
		assert.ErrorIs(t, err, domain.ErrInvalidTimeWindow)
	})

	t.Run("window in the past against injected clock", func(t *testing.T) {
		store := &mockStore{}
		svc := NewLockerService(store, nil, zerolog.Nop(), WithClock(fixedClock))

		// Ends before the service clock's notion of now. A wall-clock
		// read would accept this window in early 2024 and reject it
		// later; the injected clock makes the answer deterministic.
		pastStart := testNow.Add(-3 * time.Hour)
		_, err := svc.CheckAvailability(context.Background(), 1, pastStart, pastStart.Add(time.Hour))
		assert.ErrorIs(t, err, domain.ErrInvalidTimeWindow)
		store.AssertNotCalled(t, "GetLocker")
	})
}
