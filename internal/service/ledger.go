package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/queue"
)

// SeatSelection is one requested seat.
type SeatSelection struct {
	SeatID    uuid.UUID
	HalfPrice bool
}

// CreateBookingRequest asks for a set of seats on one screening.
type CreateBookingRequest struct {
	CustomerID  uuid.UUID
	ScreeningID uuid.UUID
	Seats       []SeatSelection
}

// Ledger is the only writer of bookings and seat claims.
type Ledger struct {
	store BookingStore
	opts  options
}

// NewLedger constructs a Ledger over the given store.
func NewLedger(store BookingStore, opts ...Option) *Ledger {
	if store == nil {
		panic("service: NewLedger requires a BookingStore")
	}
	return &Ledger{store: store, opts: buildOptions(opts)}
}

// CreateBooking claims the requested seats for the customer and records a
// pending booking. Either the booking, its seats and its claims are all
// committed, or nothing is.
func (l *Ledger) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	if len(req.Seats) == 0 {
		return nil, fmt.Errorf("%w: no seats selected", model.ErrInvalidArgument)
	}
	seen := make(map[uuid.UUID]bool, len(req.Seats))
	for _, s := range req.Seats {
		if seen[s.SeatID] {
			return nil, fmt.Errorf("%w: seat %s selected twice", model.ErrInvalidArgument, s.SeatID)
		}
		seen[s.SeatID] = true
	}
	seatIDs := sortedSeatIDs(req.Seats)

	sess, err := l.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = sess.Rollback()
		}
	}()

	scr, err := sess.GetScreening(ctx, req.ScreeningID)
	if err != nil {
		return nil, err
	}

	seats, err := sess.SeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}
	labels := make(map[uuid.UUID]string, len(seatIDs))
	for _, id := range seatIDs {
		seat, ok := byID[id]
		if !ok || seat.ScreenID != scr.ScreenID {
			return nil, fmt.Errorf("%w: seat %s is not on screen %s", model.ErrInvalidArgument, id, scr.ScreenID)
		}
		if !seat.IsEnabled() {
			return nil, fmt.Errorf("%w: seat %s is %s", model.ErrInvalidArgument, seat.Label(), seat.Status)
		}
		labels[id] = seat.Label()
	}

	taken, err := sess.ClaimedSeatIDs(ctx, scr.ID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, &model.SeatUnavailableError{ScreeningID: scr.ID, SeatIDs: taken}
	}

	now := l.opts.now().UTC()
	b := &model.Booking{
		ID:          model.NewID(),
		CustomerID:  req.CustomerID,
		ScreeningID: scr.ID,
		Status:      model.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Seats:       make([]model.BookingSeat, 0, len(req.Seats)),
	}
	for _, sel := range req.Seats {
		price := scr.PriceCents
		if sel.HalfPrice {
			price = model.HalfPriceCents(price)
		}
		b.TotalCents += price
		b.Seats = append(b.Seats, model.BookingSeat{
			ID:         model.NewID(),
			BookingID:  b.ID,
			SeatID:     sel.SeatID,
			HalfPrice:  sel.HalfPrice,
			PriceCents: price,
		})
	}

	if err := sess.InsertBooking(ctx, b); err != nil {
		return nil, err
	}
	if err := sess.ClaimSeats(ctx, scr.ID, b.ID, seatIDs); err != nil {
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	committed = true

	l.logger(b).WithField("seats", len(b.Seats)).Info("booking created")
	ev := bookingEvent(queue.EventBookingCreated, b, now)
	for _, s := range b.Seats {
		ev.SeatLabels = append(ev.SeatLabels, labels[s.SeatID])
	}
	l.publish(ctx, ev)
	return b, nil
}

// CancelBooking cancels a pending or confirmed booking whose screening has
// not started and releases its seats. Canceling a canceled booking returns
// it unchanged.
func (l *Ledger) CancelBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, _, err := l.transition(ctx, id, model.BookingCanceled, func(b *model.Booking, scr *model.Screening, now time.Time) (bool, error) {
		if b.Status == model.BookingCanceled {
			return true, nil
		}
		if b.Status.CanTransitionTo(model.BookingCanceled) && scr.HasStarted(now) {
			return false, fmt.Errorf("%w: screening %s already started", model.ErrInvalidState, scr.ID)
		}
		return false, nil
	})
	return b, err
}

// GetBooking returns a booking with its seats.
func (l *Ledger) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return l.store.GetBooking(ctx, id)
}

// ListCustomerBookings returns the customer's bookings, newest first.
func (l *Ledger) ListCustomerBookings(ctx context.Context, customerID uuid.UUID) ([]model.Booking, error) {
	return l.store.ListBookingsByCustomer(ctx, customerID)
}

// AttachBill stores the payment bill issued for a booking.
func (l *Ledger) AttachBill(ctx context.Context, bookingID uuid.UUID, billID, paymentURL string) error {
	return l.store.SetBill(ctx, bookingID, billID, paymentURL)
}

// guardFunc inspects a locked booking before a transition. Returning skip
// leaves the booking untouched and reports no change.
type guardFunc func(b *model.Booking, scr *model.Screening, now time.Time) (skip bool, err error)

// transition moves one booking to next inside its own session. Seats are
// released in the same session when next is canceled.
func (l *Ledger) transition(ctx context.Context, id uuid.UUID, next model.BookingStatus, guard guardFunc) (*model.Booking, bool, error) {
	sess, err := l.store.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = sess.Rollback()
		}
	}()

	b, err := sess.LockBooking(ctx, id)
	if err != nil {
		return nil, false, err
	}
	scr, err := sess.GetScreening(ctx, b.ScreeningID)
	if err != nil {
		return nil, false, err
	}
	now := l.opts.now().UTC()
	if guard != nil {
		skip, err := guard(b, scr, now)
		if err != nil {
			return nil, false, err
		}
		if skip {
			return b, false, nil
		}
	}
	if err := b.Status.Transition(next); err != nil {
		return nil, false, fmt.Errorf("booking %s: %w", b.ID, err)
	}

	if err := sess.UpdateBookingStatus(ctx, b.ID, next, now); err != nil {
		return nil, false, err
	}
	if next == model.BookingCanceled {
		if err := sess.ReleaseClaims(ctx, b.ID); err != nil {
			return nil, false, err
		}
	}
	if err := sess.Commit(); err != nil {
		return nil, false, err
	}
	committed = true

	prev := b.Status
	b.Status = next
	b.UpdatedAt = now
	l.logger(b).WithField("from", prev).Infof("booking %s", next)
	l.publish(ctx, bookingEvent(eventTypeFor(next), b, now))
	return b, true, nil
}

func (l *Ledger) publish(ctx context.Context, ev queue.BookingEvent) {
	if err := l.opts.events.Publish(ctx, ev); err != nil {
		l.opts.log.WithFields(logrus.Fields{
			"booking_id": ev.BookingID,
			"event":      ev.Type,
		}).WithError(err).Warn("publish booking event failed")
	}
}

func (l *Ledger) logger(b *model.Booking) logrus.FieldLogger {
	return l.opts.log.WithFields(logrus.Fields{
		"component":    "ledger",
		"booking_id":   b.ID,
		"screening_id": b.ScreeningID,
	})
}

func bookingEvent(typ string, b *model.Booking, at time.Time) queue.BookingEvent {
	ev := queue.BookingEvent{
		Type:        typ,
		BookingID:   b.ID.String(),
		CustomerID:  b.CustomerID.String(),
		ScreeningID: b.ScreeningID.String(),
		Status:      string(b.Status),
		TotalCents:  b.TotalCents,
		OccurredAt:  at,
	}
	for _, s := range b.Seats {
		ev.SeatIDs = append(ev.SeatIDs, s.SeatID.String())
	}
	return ev
}

func eventTypeFor(st model.BookingStatus) string {
	switch st {
	case model.BookingConfirmed:
		return queue.EventBookingConfirmed
	case model.BookingCanceled:
		return queue.EventBookingCanceled
	case model.BookingCompleted:
		return queue.EventBookingCompleted
	}
	return queue.EventBookingCreated
}

// sortedSeatIDs returns the selected seat ids in ascending byte order, the
// order in which claims are taken.
func sortedSeatIDs(sel []SeatSelection) []uuid.UUID {
	ids := make([]uuid.UUID, len(sel))
	for i, s := range sel {
		ids[i] = s.SeatID
	}
	SortIDs(ids)
	return ids
}

// SortIDs sorts ids in ascending byte order.
func SortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
}
