package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

// ApplyPaymentResult drives a pending booking to confirmed on success or
// to canceled on failure. Repeated results for a booking already in the
// target state are accepted without change.
func (l *Ledger) ApplyPaymentResult(ctx context.Context, bookingID uuid.UUID, success bool) (*model.Booking, error) {
	return l.applyPayment(ctx, bookingID, "", success)
}

// ApplyBillResult is ApplyPaymentResult for a result naming the bill it
// settles. A booking holding a different bill is rejected with
// model.ErrInvalidArgument and left unchanged.
func (l *Ledger) ApplyBillResult(ctx context.Context, bookingID uuid.UUID, billID string, success bool) (*model.Booking, error) {
	return l.applyPayment(ctx, bookingID, billID, success)
}

func (l *Ledger) applyPayment(ctx context.Context, bookingID uuid.UUID, billID string, success bool) (*model.Booking, error) {
	next := model.BookingCanceled
	if success {
		next = model.BookingConfirmed
	}
	b, _, err := l.transition(ctx, bookingID, next, func(b *model.Booking, _ *model.Screening, _ time.Time) (bool, error) {
		if billID != "" && b.BillID != nil && *b.BillID != billID {
			return false, fmt.Errorf("%w: bill %s does not belong to booking %s", model.ErrInvalidArgument, billID, b.ID)
		}
		if b.Status == next {
			return true, nil
		}
		if b.Status != model.BookingPending {
			return false, fmt.Errorf("%w: payment result for %s booking %s", model.ErrInvalidState, b.Status, b.ID)
		}
		return false, nil
	})
	if err != nil && errors.Is(err, model.ErrInvalidState) && success {
		l.opts.log.WithField("booking_id", bookingID).WithError(err).Warn("payment succeeded for a booking that can no longer be confirmed")
	}
	return b, err
}

// ExpirePending cancels pending bookings created more than timeout ago and
// releases their seats. It returns how many bookings it canceled.
func (l *Ledger) ExpirePending(ctx context.Context, timeout time.Duration) (int, error) {
	cutoff := l.opts.now().UTC().Add(-timeout)
	ids, err := l.store.PendingCreatedBefore(ctx, cutoff, l.opts.sweepBatch)
	if err != nil {
		return 0, err
	}
	return l.sweep(ctx, ids, model.BookingCanceled, func(b *model.Booking, _ *model.Screening, _ time.Time) (bool, error) {
		// Paid or canceled since the listing, or too young after all.
		return b.Status != model.BookingPending || !b.CreatedAt.Before(cutoff), nil
	})
}

// CompleteStarted marks confirmed bookings whose screening has started as
// completed. It returns how many bookings it changed.
func (l *Ledger) CompleteStarted(ctx context.Context) (int, error) {
	ids, err := l.store.ConfirmedStartedBefore(ctx, l.opts.now().UTC(), l.opts.sweepBatch)
	if err != nil {
		return 0, err
	}
	return l.sweep(ctx, ids, model.BookingCompleted, func(b *model.Booking, scr *model.Screening, now time.Time) (bool, error) {
		return b.Status != model.BookingConfirmed || !scr.HasStarted(now), nil
	})
}

func (l *Ledger) sweep(ctx context.Context, ids []uuid.UUID, next model.BookingStatus, guard guardFunc) (int, error) {
	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		_, changed, err := l.transition(ctx, id, next, guard)
		if err != nil {
			l.opts.log.WithField("booking_id", id).WithError(err).Errorf("sweep to %s failed", next)
			continue
		}
		if changed {
			n++
		}
	}
	return n, nil
}
