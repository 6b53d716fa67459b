package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andregamma/cinema-saas/internal/model"
)

// ErrAlreadySeeded is returned by SeedDemo when the demo movie exists.
var ErrAlreadySeeded = errors.New("demo data already present")

// Demo holds what SeedDemo created.
type Demo struct {
	Exhibitor model.Exhibitor
	Screens   []model.Screen
	Movie     model.Movie
	Screening model.Screening
	Customer  model.Customer
}

// SeedDemo creates a movie, one exhibitor with two screens, a screening
// tomorrow at 19:00 UTC and a customer. The movie goes first so a second
// run stops before writing anything.
func SeedDemo(ctx context.Context, catalog CatalogWriter, screenings ScreeningStore, customers CustomerStore, now time.Time) (*Demo, error) {
	d := &Demo{Movie: model.Movie{
		Title:           "Central Station",
		Description:     "A former schoolteacher helps a boy search for the father he never met.",
		DurationMinutes: 110,
		ImdbID:          "tt0140888",
		TmdbID:          "666",
	}}
	if err := catalog.CreateMovie(ctx, &d.Movie); err != nil {
		if errors.Is(err, model.ErrInvalidArgument) {
			return nil, ErrAlreadySeeded
		}
		return nil, fmt.Errorf("seed movie: %w", err)
	}

	d.Exhibitor = model.Exhibitor{Name: "Cine Centro"}
	if err := catalog.CreateExhibitor(ctx, &d.Exhibitor); err != nil {
		return nil, fmt.Errorf("seed exhibitor: %w", err)
	}
	for _, room := range []struct {
		name       string
		rows, cols int
	}{{"Room 1", 5, 8}, {"Room 2", 4, 6}} {
		sc := model.Screen{ExhibitorID: d.Exhibitor.ID, Name: room.name}
		if _, err := catalog.CreateScreen(ctx, &sc, room.rows, room.cols); err != nil {
			return nil, fmt.Errorf("seed screen %s: %w", room.name, err)
		}
		d.Screens = append(d.Screens, sc)
	}

	start := now.UTC().Truncate(24 * time.Hour).Add(24*time.Hour + 19*time.Hour)
	d.Screening = model.Screening{
		ID:         model.NewID(),
		MovieID:    d.Movie.ID,
		ScreenID:   d.Screens[0].ID,
		StartsAt:   start,
		EndsAt:     start.Add(d.Movie.Duration()),
		PriceCents: 3000,
		CreatedAt:  now.UTC(),
	}
	if err := screenings.CreateScreenings(ctx, []model.Screening{d.Screening}); err != nil {
		return nil, fmt.Errorf("seed screening: %w", err)
	}

	d.Customer = model.Customer{
		ID:           model.NewID(),
		Name:         "Demo Customer",
		Email:        "demo@cinema.example",
		TaxID:        "52998224725",
		PasswordHash: "!",
		CreatedAt:    now.UTC(),
	}
	if err := customers.CreateCustomer(ctx, &d.Customer); err != nil {
		return nil, fmt.Errorf("seed customer: %w", err)
	}
	return d, nil
}
