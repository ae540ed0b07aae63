package reservations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vzorin/lockerbook/internal/domain"
	"github.com/vzorin/lockerbook/internal/repository"
)

// fakeStore is an in-memory Store whose InTx holds a real mutex for the
// whole transaction, mirroring the exclusive row hold the postgres store
// takes with FOR UPDATE. Writes stage inside the transaction and only
// apply on commit, so a failed transaction leaves no partial state.
type fakeStore struct {
	mu           sync.Mutex
	lockers      map[int64]*domain.Locker
	reservations map[uuid.UUID]*domain.Reservation

	// updateErr injects a failure into UpdateReservation for a given
	// reservation, used to test sweep failure isolation.
	updateErr map[uuid.UUID]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lockers:      make(map[int64]*domain.Locker),
		reservations: make(map[uuid.UUID]*domain.Reservation),
		updateErr:    make(map[uuid.UUID]error),
	}
}

func (f *fakeStore) addLocker(l domain.Locker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := l
	f.lockers[l.ID] = &cp
}

func (f *fakeStore) addReservation(r domain.Reservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := r
	f.reservations[r.ID] = &cp
}

func (f *fakeStore) locker(id int64) domain.Locker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.lockers[id]
}

func (f *fakeStore) reservation(id uuid.UUID) (domain.Reservation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, false
	}
	return *r, true
}

func (f *fakeStore) activeReservations(lockerID int64) []domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.LockerID == lockerID && r.Status == domain.ReservationStatusActive {
			out = append(out, *r)
		}
	}
	return out
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &fakeTx{
		store:        f,
		lockers:      make(map[int64]*domain.Locker),
		reservations: make(map[uuid.UUID]*domain.Reservation),
		deleted:      make(map[uuid.UUID]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id, l := range tx.lockers {
		f.lockers[id] = l
	}
	for id, r := range tx.reservations {
		f.reservations[id] = r
	}
	for id := range tx.deleted {
		delete(f.reservations, id)
	}
	return nil
}

func (f *fakeStore) GetLocker(ctx context.Context, id int64) (*domain.Locker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lockers[id]
	if !ok {
		return nil, fmt.Errorf("locker: %w", domain.ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) ListLockers(ctx context.Context) ([]domain.Locker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Locker, 0, len(f.lockers))
	for _, l := range f.lockers {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeStore) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) ListReservationsByCustomer(ctx context.Context, customerID int64) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, r := range f.reservations {
		if r.CustomerID == customerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) FindExpiredActive(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, r := range f.reservations {
		if r.Status == domain.ReservationStatusActive && r.Expired(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) FindOverlapping(ctx context.Context, lockerID int64, start, end time.Time, exclude uuid.UUID) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return overlapping(f.reservations, lockerID, start, end, exclude), nil
}

func overlapping(all map[uuid.UUID]*domain.Reservation, lockerID int64, start, end time.Time, exclude uuid.UUID) []domain.Reservation {
	out := make([]domain.Reservation, 0)
	for _, r := range all {
		if r.LockerID != lockerID || r.Status != domain.ReservationStatusActive || r.ID == exclude {
			continue
		}
		if r.Overlaps(start, end) {
			out = append(out, *r)
		}
	}
	return out
}

type fakeTx struct {
	store        *fakeStore
	lockers      map[int64]*domain.Locker
	reservations map[uuid.UUID]*domain.Reservation
	deleted      map[uuid.UUID]bool
}

func (t *fakeTx) LockerForUpdate(ctx context.Context, id int64) (*domain.Locker, error) {
	if l, ok := t.lockers[id]; ok {
		cp := *l
		return &cp, nil
	}
	l, ok := t.store.lockers[id]
	if !ok {
		return nil, fmt.Errorf("locker: %w", domain.ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (t *fakeTx) SaveLocker(ctx context.Context, locker *domain.Locker) error {
	cp := *locker
	cp.Version++
	cp.UpdatedAt = time.Now()
	t.lockers[locker.ID] = &cp
	locker.Version = cp.Version
	return nil
}

func (t *fakeTx) ReservationForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	if t.deleted[id] {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	if r, ok := t.reservations[id]; ok {
		cp := *r
		return &cp, nil
	}
	r, ok := t.store.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (t *fakeTx) FindOverlapping(ctx context.Context, lockerID int64, start, end time.Time, exclude uuid.UUID) ([]domain.Reservation, error) {
	merged := make(map[uuid.UUID]*domain.Reservation, len(t.store.reservations))
	for id, r := range t.store.reservations {
		merged[id] = r
	}
	for id, r := range t.reservations {
		merged[id] = r
	}
	for id := range t.deleted {
		delete(merged, id)
	}
	return overlapping(merged, lockerID, start, end, exclude), nil
}

func (t *fakeTx) InsertReservation(ctx context.Context, r *domain.Reservation) error {
	cp := *r
	cp.Version = 1
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	t.reservations[r.ID] = &cp
	r.Version = cp.Version
	return nil
}

func (t *fakeTx) UpdateReservation(ctx context.Context, r *domain.Reservation) error {
	if err := t.store.updateErr[r.ID]; err != nil {
		return err
	}
	cp := *r
	cp.Version++
	cp.UpdatedAt = time.Now()
	t.reservations[r.ID] = &cp
	r.Version = cp.Version
	return nil
}

func (t *fakeTx) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	delete(t.reservations, id)
	t.deleted[id] = true
	return nil
}

var (
	_ repository.Store = (*fakeStore)(nil)
	_ repository.Tx    = (*fakeTx)(nil)
)
