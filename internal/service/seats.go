package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

// SeatRegistry exposes seat layouts and per-screening availability. It never
// touches seat claims.
type SeatRegistry struct {
	catalog Catalog
	seats   SeatStore
}

// NewSeatRegistry constructs a SeatRegistry.
func NewSeatRegistry(catalog Catalog, seats SeatStore) *SeatRegistry {
	if catalog == nil || seats == nil {
		panic("service: NewSeatRegistry requires a Catalog and a SeatStore")
	}
	return &SeatRegistry{catalog: catalog, seats: seats}
}

// ListSeats returns all seats of a screen ordered by row then column.
func (r *SeatRegistry) ListSeats(ctx context.Context, screenID uuid.UUID) ([]model.Seat, error) {
	ok, err := r.catalog.ScreenExists(ctx, screenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("screen %s: %w", screenID, model.ErrNotFound)
	}
	return r.seats.SeatsByScreen(ctx, screenID)
}

// IsAvailable reports, per requested seat, whether it is on the screening's
// screen, enabled and unclaimed.
func (r *SeatRegistry) IsAvailable(ctx context.Context, screeningID uuid.UUID, seatIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	all, err := r.ListSeatsAvailability(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	index := make(map[uuid.UUID]bool, len(all))
	for _, a := range all {
		index[a.Seat.ID] = a.Available
	}
	out := make(map[uuid.UUID]bool, len(seatIDs))
	for _, id := range seatIDs {
		out[id] = index[id]
	}
	return out, nil
}

// ListSeatsAvailability returns every seat of the screening's screen with
// its availability for that screening.
func (r *SeatRegistry) ListSeatsAvailability(ctx context.Context, screeningID uuid.UUID) ([]model.SeatAvailability, error) {
	scr, err := r.seats.GetScreening(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	seats, err := r.seats.SeatsByScreen(ctx, scr.ScreenID)
	if err != nil {
		return nil, err
	}
	claimed, err := r.seats.ClaimedSeatIDs(ctx, scr.ID)
	if err != nil {
		return nil, err
	}
	taken := make(map[uuid.UUID]bool, len(claimed))
	for _, id := range claimed {
		taken[id] = true
	}
	out := make([]model.SeatAvailability, len(seats))
	for i, s := range seats {
		out[i] = model.SeatAvailability{Seat: s, Available: s.IsEnabled() && !taken[s.ID]}
	}
	return out, nil
}

// SetSeatStatus enables or disables a seat. Existing claims are kept; a
// disabled seat simply cannot be selected by new bookings.
func (r *SeatRegistry) SetSeatStatus(ctx context.Context, seatID uuid.UUID, status model.SeatStatus) (*model.Seat, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown seat status %q", model.ErrInvalidArgument, status)
	}
	if err := r.seats.SetSeatStatus(ctx, seatID, status); err != nil {
		return nil, err
	}
	return r.seats.GetSeat(ctx, seatID)
}
