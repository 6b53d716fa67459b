package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

type statusChange struct {
	status model.BookingStatus
	at     time.Time
}

// session buffers writes and applies them atomically on Commit. Locks it
// takes are held until Commit or Rollback.
type session struct {
	s        *Store
	held     map[string]bool
	order    []string
	inserted []*model.Booking
	claims   map[claimKey]uuid.UUID
	statuses map[uuid.UUID]statusChange
	released []uuid.UUID
	done     bool
}

func (t *session) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key); err != nil {
		return err
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *session) unlockAll() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.s.locks.release(t.order[i])
	}
	t.order = nil
	t.held = map[string]bool{}
}

func (t *session) GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error) {
	return t.s.GetScreening(ctx, id)
}

func (t *session) SeatsByIDs(_ context.Context, ids []uuid.UUID) ([]model.Seat, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := make([]model.Seat, 0, len(ids))
	for _, id := range ids {
		if seat, ok := t.s.seats[id]; ok {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (t *session) ClaimedSeatIDs(_ context.Context, screeningID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var out []uuid.UUID
	for _, id := range seatIDs {
		if _, ok := t.s.claims[claimKey{screeningID, id}]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (t *session) InsertBooking(_ context.Context, b *model.Booking) error {
	t.inserted = append(t.inserted, copyBooking(b))
	return nil
}

// ClaimSeats locks every (screening, seat) pair in the order given, then
// checks the committed claims. A competing session holding one of the
// locks makes this call wait until it commits or rolls back.
func (t *session) ClaimSeats(ctx context.Context, screeningID, bookingID uuid.UUID, seatIDs []uuid.UUID) error {
	for _, id := range seatIDs {
		if err := t.lock(ctx, claimKey{screeningID, id}.lockKey()); err != nil {
			return err
		}
	}
	t.s.mu.RLock()
	var taken []uuid.UUID
	for _, id := range seatIDs {
		k := claimKey{screeningID, id}
		if _, ok := t.s.claims[k]; ok {
			taken = append(taken, id)
			continue
		}
		if _, ok := t.claims[k]; ok {
			taken = append(taken, id)
		}
	}
	t.s.mu.RUnlock()
	if len(taken) > 0 {
		return &model.SeatUnavailableError{ScreeningID: screeningID, SeatIDs: taken}
	}
	for _, id := range seatIDs {
		t.claims[claimKey{screeningID, id}] = bookingID
	}
	return nil
}

func (t *session) LockBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	if err := t.lock(ctx, bookingLockKey(id)); err != nil {
		return nil, err
	}
	return t.s.GetBooking(ctx, id)
}

func (t *session) UpdateBookingStatus(_ context.Context, id uuid.UUID, status model.BookingStatus, at time.Time) error {
	if !t.held[bookingLockKey(id)] {
		return fmt.Errorf("booking %s: status update without lock", id)
	}
	t.statuses[id] = statusChange{status: status, at: at}
	return nil
}

// ReleaseClaims locks the booking's claims in sorted order and schedules
// their removal.
func (t *session) ReleaseClaims(ctx context.Context, bookingID uuid.UUID) error {
	t.s.mu.RLock()
	var keys []claimKey
	for k, owner := range t.s.claims {
		if owner == bookingID {
			keys = append(keys, k)
		}
	}
	t.s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].lockKey() < keys[j].lockKey() })
	for _, k := range keys {
		if err := t.lock(ctx, k.lockKey()); err != nil {
			return err
		}
	}
	t.released = append(t.released, bookingID)
	return nil
}

func (t *session) Commit() error {
	if t.done {
		return fmt.Errorf("memstore: session already finished")
	}
	t.done = true
	defer t.unlockAll()

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, b := range t.inserted {
		t.s.bookings[b.ID] = b
	}
	for k, owner := range t.claims {
		t.s.claims[k] = owner
	}
	for id, ch := range t.statuses {
		if b, ok := t.s.bookings[id]; ok {
			b.Status = ch.status
			b.UpdatedAt = ch.at
		}
	}
	for _, id := range t.released {
		for k, owner := range t.s.claims {
			if owner == id {
				delete(t.s.claims, k)
			}
		}
	}
	return nil
}

func (t *session) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.unlockAll()
	return nil
}
