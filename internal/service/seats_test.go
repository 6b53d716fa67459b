package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andregamma/cinema-saas/internal/model"
)

func TestListSeatsOrderedByRowThenColumn(t *testing.T) {
	f := newFixture(t, 2000)
	seats, err := f.registry.ListSeats(context.Background(), f.screen.ID)
	require.NoError(t, err)

	labels := make([]string, len(seats))
	for i, s := range seats {
		labels[i] = s.Label()
	}
	assert.Equal(t, []string{"A1", "A2", "B1"}, labels)

	_, err = f.registry.ListSeats(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSeatAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)
	_, err := f.book(t, "A1")
	require.NoError(t, err)
	_, err = f.registry.SetSeatStatus(ctx, f.seats["B1"].ID, model.SeatDisabled)
	require.NoError(t, err)

	list, err := f.registry.ListSeatsAvailability(ctx, f.screening.ID)
	require.NoError(t, err)
	got := map[string]bool{}
	for _, a := range list {
		got[a.Seat.Label()] = a.Available
	}
	assert.Equal(t, map[string]bool{"A1": false, "A2": true, "B1": false}, got)

	stranger := uuid.New()
	avail, err := f.registry.IsAvailable(ctx, f.screening.ID, []uuid.UUID{f.seats["A2"].ID, stranger})
	require.NoError(t, err)
	assert.True(t, avail[f.seats["A2"].ID])
	assert.False(t, avail[stranger])

	_, err = f.registry.ListSeatsAvailability(ctx, uuid.New())
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSetSeatStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)

	seat, err := f.registry.SetSeatStatus(ctx, f.seats["A1"].ID, model.SeatTemporarilyDisabled)
	require.NoError(t, err)
	assert.Equal(t, model.SeatTemporarilyDisabled, seat.Status)

	_, err = f.registry.SetSeatStatus(ctx, f.seats["A1"].ID, model.SeatStatus("broken"))
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = f.registry.SetSeatStatus(ctx, uuid.New(), model.SeatEnabled)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
