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
	"github.com/andregamma/cinema-saas/internal/service"
)

func TestGenerateScreeningsCartesianProduct(t *testing.T) {
	f := newFixture(t, 2000)
	room2, _ := f.store.AddScreen(f.exhibitor.ID, "Room 2", 2, 2)
	before := f.store.ScreeningCount()

	times := []string{"2026-03-05T14:00:00Z", "2026-03-05T18:00:00Z", "2026-03-05T21:30:00-03:00"}
	got, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
		MovieID:    f.movie.ID,
		ScreenIDs:  []uuid.UUID{f.screen.ID, room2.ID},
		StartTimes: times,
		PriceCents: 3000,
	})
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, before+6, f.store.ScreeningCount())

	// screen-major, then start times in request order
	for i, scr := range got {
		wantScreen := f.screen.ID
		if i >= 3 {
			wantScreen = room2.ID
		}
		wantStart, err := time.Parse(time.RFC3339, times[i%3])
		require.NoError(t, err)
		assert.Equal(t, wantScreen, scr.ScreenID)
		assert.True(t, wantStart.Equal(scr.StartsAt))
		assert.Equal(t, time.UTC, scr.StartsAt.Location())
		assert.Equal(t, scr.StartsAt.Add(110*time.Minute), scr.EndsAt)
		assert.Equal(t, int64(3000), scr.PriceCents)
	}
}

func TestGenerateScreeningsAtomicOnFailure(t *testing.T) {
	f := newFixture(t, 2000)
	before := f.store.ScreeningCount()

	tests := []struct {
		name    string
		req     service.GenerateScreeningsRequest
		wantErr error
	}{
		{
			name: "malformed start time",
			req: service.GenerateScreeningsRequest{
				MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
				StartTimes: []string{"2026-03-05T14:00:00Z", "tomorrow 8pm"}, PriceCents: 2000,
			},
			wantErr: model.ErrInvalidArgument,
		},
		{
			name: "unknown screen",
			req: service.GenerateScreeningsRequest{
				MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID, uuid.New()},
				StartTimes: []string{"2026-03-05T14:00:00Z"}, PriceCents: 2000,
			},
			wantErr: model.ErrNotFound,
		},
		{
			name: "unknown movie",
			req: service.GenerateScreeningsRequest{
				MovieID: uuid.New(), ScreenIDs: []uuid.UUID{f.screen.ID},
				StartTimes: []string{"2026-03-05T14:00:00Z"}, PriceCents: 2000,
			},
			wantErr: model.ErrNotFound,
		},
		{
			name: "non-positive price",
			req: service.GenerateScreeningsRequest{
				MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
				StartTimes: []string{"2026-03-05T14:00:00Z"}, PriceCents: 0,
			},
			wantErr: model.ErrInvalidArgument,
		},
		{
			name: "no screens",
			req: service.GenerateScreeningsRequest{
				MovieID: f.movie.ID, StartTimes: []string{"2026-03-05T14:00:00Z"}, PriceCents: 2000,
			},
			wantErr: model.ErrInvalidArgument,
		},
		{
			name: "duplicate start time",
			req: service.GenerateScreeningsRequest{
				MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
				StartTimes: []string{"2026-03-05T14:00:00Z", "2026-03-05T11:00:00-03:00"}, PriceCents: 2000,
			},
			wantErr: model.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.generator.GenerateScreenings(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Nil(t, got)
			assert.Equal(t, before, f.store.ScreeningCount())
		})
	}
}

func TestGenerateScreeningsScreenWithoutExhibitor(t *testing.T) {
	f := newFixture(t, 2000)
	orphan, _ := f.store.AddScreen(uuid.New(), "Orphan", 1, 1)

	_, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
		MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{orphan.ID},
		StartTimes: []string{"2026-03-05T14:00:00Z"}, PriceCents: 2000,
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestGenerateScreeningsOverlapPolicy(t *testing.T) {
	// fixture screening starts 2026-03-02T10:00Z and runs 110 minutes
	clash := "2026-03-02T11:00:00Z"

	t.Run("allowed when the check is off", func(t *testing.T) {
		f := newFixture(t, 2000)
		got, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
			MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
			StartTimes: []string{clash}, PriceCents: 2000,
		})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("existing screening", func(t *testing.T) {
		f := newFixture(t, 2000, service.WithOverlapCheck(true))
		_, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
			MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
			StartTimes: []string{"2026-03-03T10:00:00Z", clash}, PriceCents: 2000,
		})
		assert.True(t, errors.Is(err, model.ErrInvalidArgument))
		assert.Equal(t, 1, f.store.ScreeningCount())
	})

	t.Run("within the batch", func(t *testing.T) {
		f := newFixture(t, 2000, service.WithOverlapCheck(true))
		_, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
			MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
			StartTimes: []string{"2026-03-04T14:00:00Z", "2026-03-04T15:00:00Z"}, PriceCents: 2000,
		})
		assert.True(t, errors.Is(err, model.ErrInvalidArgument))
	})

	t.Run("back to back is fine", func(t *testing.T) {
		f := newFixture(t, 2000, service.WithOverlapCheck(true))
		got, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
			MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
			StartTimes: []string{"2026-03-02T11:50:00Z"}, PriceCents: 2000,
		})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestListScreenings(t *testing.T) {
	f := newFixture(t, 2000)
	_, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
		MovieID: f.movie.ID, ScreenIDs: []uuid.UUID{f.screen.ID},
		StartTimes: []string{"2026-03-01T20:00:00Z"}, PriceCents: 2000,
	})
	require.NoError(t, err)

	list, err := f.generator.ListScreenings(context.Background(), f.movie.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].StartsAt.Before(list[1].StartsAt))

	_, err = f.generator.ListScreenings(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
