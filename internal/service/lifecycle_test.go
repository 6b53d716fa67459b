package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/queue"
	"github.com/andregamma/cinema-saas/internal/service"
)

func TestApplyPaymentResult(t *testing.T) {
	ctx := context.Background()

	t.Run("success confirms and is repeatable", func(t *testing.T) {
		f := newFixture(t, 2000)
		b, err := f.book(t, "A1")
		require.NoError(t, err)

		got, err := f.ledger.ApplyPaymentResult(ctx, b.ID, true)
		require.NoError(t, err)
		assert.Equal(t, model.BookingConfirmed, got.Status)

		got, err = f.ledger.ApplyPaymentResult(ctx, b.ID, true)
		require.NoError(t, err)
		assert.Equal(t, model.BookingConfirmed, got.Status)
		assert.Equal(t, []string{queue.EventBookingCreated, queue.EventBookingConfirmed}, f.events.types())
	})

	t.Run("failure cancels and releases seats", func(t *testing.T) {
		f := newFixture(t, 2000)
		b, err := f.book(t, "A1", "A2")
		require.NoError(t, err)

		got, err := f.ledger.ApplyPaymentResult(ctx, b.ID, false)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCanceled, got.Status)
		assert.Equal(t, 0, f.store.ClaimCount(f.screening.ID))
	})

	t.Run("failure after confirmation is rejected", func(t *testing.T) {
		f := newFixture(t, 2000)
		b, err := f.book(t, "A1")
		require.NoError(t, err)
		_, err = f.ledger.ApplyPaymentResult(ctx, b.ID, true)
		require.NoError(t, err)

		_, err = f.ledger.ApplyPaymentResult(ctx, b.ID, false)
		assert.True(t, errors.Is(err, model.ErrInvalidState))
		stored, err := f.ledger.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingConfirmed, stored.Status)
	})

	t.Run("success after expiry is rejected", func(t *testing.T) {
		f := newFixture(t, 2000)
		b, err := f.book(t, "A1")
		require.NoError(t, err)
		_, err = f.ledger.CancelBooking(ctx, b.ID)
		require.NoError(t, err)

		_, err = f.ledger.ApplyPaymentResult(ctx, b.ID, true)
		assert.True(t, errors.Is(err, model.ErrInvalidState))
	})

	t.Run("result for another bill is rejected", func(t *testing.T) {
		f := newFixture(t, 2000)
		b, err := f.book(t, "A1")
		require.NoError(t, err)
		require.NoError(t, f.ledger.AttachBill(ctx, b.ID, "bill_1", "https://pay.example/1"))

		_, err = f.ledger.ApplyBillResult(ctx, b.ID, "bill_2", true)
		assert.True(t, errors.Is(err, model.ErrInvalidArgument))
		stored, err := f.ledger.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingPending, stored.Status)

		got, err := f.ledger.ApplyBillResult(ctx, b.ID, "bill_1", true)
		require.NoError(t, err)
		assert.Equal(t, model.BookingConfirmed, got.Status)
	})

	t.Run("bill id is not checked before a bill is attached", func(t *testing.T) {
		f := newFixture(t, 2000)
		b, err := f.book(t, "A1")
		require.NoError(t, err)
		got, err := f.ledger.ApplyBillResult(ctx, b.ID, "bill_9", false)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCanceled, got.Status)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t, 2000)
		_, err := f.ledger.ApplyPaymentResult(ctx, uuid.New(), true)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestExpirePendingReleasesSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)

	stale, err := f.book(t, "A1")
	require.NoError(t, err)
	paid, err := f.book(t, "A2")
	require.NoError(t, err)
	_, err = f.ledger.ApplyPaymentResult(ctx, paid.ID, true)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	fresh, err := f.book(t, "B1")
	require.NoError(t, err)

	f.clock.Advance(6 * time.Minute)
	n, err := f.ledger.ExpirePending(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for id, want := range map[uuid.UUID]model.BookingStatus{
		stale.ID: model.BookingCanceled,
		paid.ID:  model.BookingConfirmed,
		fresh.ID: model.BookingPending,
	} {
		b, err := f.ledger.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Status)
	}

	avail, err := f.registry.IsAvailable(ctx, f.screening.ID, []uuid.UUID{f.seats["A1"].ID})
	require.NoError(t, err)
	assert.True(t, avail[f.seats["A1"].ID])

	_, err = f.book(t, "A1")
	assert.NoError(t, err)
}

func TestCompleteStartedKeepsClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)

	confirmed, err := f.book(t, "A1")
	require.NoError(t, err)
	_, err = f.ledger.ApplyPaymentResult(ctx, confirmed.ID, true)
	require.NoError(t, err)
	pending, err := f.book(t, "A2")
	require.NoError(t, err)

	n, err := f.ledger.CompleteStarted(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing completes before the screening starts")

	f.clock.Advance(24 * time.Hour)
	n, err = f.ledger.CompleteStarted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, err := f.ledger.GetBooking(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, b.Status)
	b, err = f.ledger.GetBooking(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)

	assert.Equal(t, 2, f.store.ClaimCount(f.screening.ID))
}

func TestSweeperRunOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)
	_, err := f.book(t, "A1")
	require.NoError(t, err)
	paid, err := f.book(t, "A2")
	require.NoError(t, err)
	_, err = f.ledger.ApplyPaymentResult(ctx, paid.ID, true)
	require.NoError(t, err)

	sw, err := service.NewSweeper(f.ledger, 15*time.Minute, time.Minute, quietLogger())
	require.NoError(t, err)
	defer func() { _ = sw.Stop() }()

	f.clock.Advance(25 * time.Hour)
	expired, completed := sw.RunOnce(ctx)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, f.store.ClaimCount(f.screening.ID))
}

func TestNewSweeperRejectsBadDurations(t *testing.T) {
	f := newFixture(t, 2000)
	_, err := service.NewSweeper(f.ledger, 0, time.Minute, nil)
	assert.Error(t, err)
}
