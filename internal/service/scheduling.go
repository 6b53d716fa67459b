package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/model"
)

// GenerateScreeningsRequest schedules one movie on several screens at
// several start times. StartTimes are RFC 3339 strings.
type GenerateScreeningsRequest struct {
	MovieID    uuid.UUID
	ScreenIDs  []uuid.UUID
	StartTimes []string
	PriceCents int64
}

// ScreeningGenerator expands scheduling requests into screenings.
type ScreeningGenerator struct {
	catalog Catalog
	store   ScreeningStore
	opts    options
}

// NewScreeningGenerator constructs a ScreeningGenerator.
func NewScreeningGenerator(catalog Catalog, store ScreeningStore, opts ...Option) *ScreeningGenerator {
	if catalog == nil || store == nil {
		panic("service: NewScreeningGenerator requires a Catalog and a ScreeningStore")
	}
	return &ScreeningGenerator{catalog: catalog, store: store, opts: buildOptions(opts)}
}

// GenerateScreenings creates one screening per (screen, start time) pair.
// The result is screen-major: all start times of the first screen, then all
// start times of the second, each in request order. Validation runs before
// any write and the batch is stored in one transaction, so a failure
// persists nothing.
func (g *ScreeningGenerator) GenerateScreenings(ctx context.Context, req GenerateScreeningsRequest) ([]model.Screening, error) {
	if req.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", model.ErrInvalidArgument)
	}
	if len(req.ScreenIDs) == 0 || len(req.StartTimes) == 0 {
		return nil, fmt.Errorf("%w: at least one screen and one start time are required", model.ErrInvalidArgument)
	}

	movie, err := g.catalog.GetMovie(ctx, req.MovieID)
	if err != nil {
		return nil, err
	}

	starts, err := parseStartTimes(req.StartTimes)
	if err != nil {
		return nil, err
	}

	seenScreen := make(map[uuid.UUID]bool, len(req.ScreenIDs))
	for _, id := range req.ScreenIDs {
		if seenScreen[id] {
			return nil, fmt.Errorf("%w: screen %s listed twice", model.ErrInvalidArgument, id)
		}
		seenScreen[id] = true
		screen, err := g.catalog.GetScreen(ctx, id)
		if err != nil {
			return nil, err
		}
		if screen.ExhibitorID == uuid.Nil {
			return nil, fmt.Errorf("screen %s has no exhibitor: %w", id, model.ErrNotFound)
		}
	}

	now := g.opts.now().UTC()
	out := make([]model.Screening, 0, len(req.ScreenIDs)*len(starts))
	for _, screenID := range req.ScreenIDs {
		for _, start := range starts {
			out = append(out, model.Screening{
				ID:         model.NewID(),
				MovieID:    movie.ID,
				ScreenID:   screenID,
				StartsAt:   start,
				EndsAt:     start.Add(movie.Duration()),
				PriceCents: req.PriceCents,
				CreatedAt:  now,
			})
		}
	}

	if g.opts.overlapCheck {
		if err := g.checkOverlaps(ctx, out); err != nil {
			return nil, err
		}
	}

	if err := g.store.CreateScreenings(ctx, out); err != nil {
		return nil, err
	}
	g.opts.log.WithFields(logrus.Fields{
		"component": "scheduling",
		"movie_id":  movie.ID,
		"count":     len(out),
	}).Info("screenings generated")
	return out, nil
}

// ListScreenings returns the movie's screenings ordered by start time.
func (g *ScreeningGenerator) ListScreenings(ctx context.Context, movieID uuid.UUID) ([]model.Screening, error) {
	ok, err := g.catalog.MovieExists(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("movie %s: %w", movieID, model.ErrNotFound)
	}
	return g.store.ListScreeningsByMovie(ctx, movieID)
}

// GetScreening returns one screening.
func (g *ScreeningGenerator) GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error) {
	return g.store.GetScreening(ctx, id)
}

func (g *ScreeningGenerator) checkOverlaps(ctx context.Context, batch []model.Screening) error {
	for i, s := range batch {
		for _, other := range batch[:i] {
			if other.ScreenID == s.ScreenID && other.Overlaps(s) {
				return fmt.Errorf("%w: screenings at %s and %s overlap on screen %s",
					model.ErrInvalidArgument, other.StartsAt.Format(time.RFC3339), s.StartsAt.Format(time.RFC3339), s.ScreenID)
			}
		}
		existing, err := g.store.OverlappingScreenings(ctx, s.ScreenID, s.StartsAt, s.EndsAt)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: screening at %s overlaps screening %s on screen %s",
				model.ErrInvalidArgument, s.StartsAt.Format(time.RFC3339), existing[0].ID, s.ScreenID)
		}
	}
	return nil
}

func parseStartTimes(raw []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(raw))
	seen := make(map[int64]bool, len(raw))
	for _, s := range raw {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: start time %q is not RFC 3339", model.ErrInvalidArgument, s)
		}
		t = t.UTC()
		if seen[t.UnixNano()] {
			return nil, fmt.Errorf("%w: start time %q listed twice", model.ErrInvalidArgument, s)
		}
		seen[t.UnixNano()] = true
		out = append(out, t)
	}
	return out, nil
}
