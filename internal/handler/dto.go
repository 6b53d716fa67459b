package handler

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/service"
)

// SeatRequest is one selected seat in a booking request.
type SeatRequest struct {
	SeatID    uuid.UUID `json:"seat_id" validate:"required"`
	HalfPrice bool      `json:"half_price"`
}

// SeatResponse is a seat as shown to buyers.
type SeatResponse struct {
	ID        uuid.UUID        `json:"id"`
	Label     string           `json:"label"`
	Row       int              `json:"row"`
	Column    int              `json:"column"`
	Status    model.SeatStatus `json:"status"`
	Available *bool            `json:"available,omitempty"`
}

// ScreeningResponse is a screening with prices rendered in cents.
type ScreeningResponse struct {
	ID         uuid.UUID `json:"id"`
	MovieID    uuid.UUID `json:"movie_id"`
	ScreenID   uuid.UUID `json:"screen_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	PriceCents int64     `json:"price_cents"`
}

// BookingSeatResponse is one line of a booking.
type BookingSeatResponse struct {
	SeatID     uuid.UUID `json:"seat_id"`
	HalfPrice  bool      `json:"half_price"`
	PriceCents int64     `json:"price_cents"`
}

// BookingResponse is a booking as shown to its owner.
type BookingResponse struct {
	ID          uuid.UUID             `json:"id"`
	ScreeningID uuid.UUID             `json:"screening_id"`
	Status      model.BookingStatus   `json:"status"`
	TotalCents  int64                 `json:"total_cents"`
	PaymentURL  *string               `json:"payment_url,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Seats       []BookingSeatResponse `json:"seats"`
}

func toSelections(in []SeatRequest) []service.SeatSelection {
	out := make([]service.SeatSelection, len(in))
	for i, s := range in {
		out[i] = service.SeatSelection{SeatID: s.SeatID, HalfPrice: s.HalfPrice}
	}
	return out
}

func toSeatResponse(s model.Seat) SeatResponse {
	return SeatResponse{ID: s.ID, Label: s.Label(), Row: s.Row, Column: s.Column, Status: s.Status}
}

func toScreeningResponse(s model.Screening) ScreeningResponse {
	return ScreeningResponse{
		ID: s.ID, MovieID: s.MovieID, ScreenID: s.ScreenID,
		StartsAt: s.StartsAt, EndsAt: s.EndsAt, PriceCents: s.PriceCents,
	}
}

func toBookingResponse(b *model.Booking) BookingResponse {
	out := BookingResponse{
		ID:          b.ID,
		ScreeningID: b.ScreeningID,
		Status:      b.Status,
		TotalCents:  b.TotalCents,
		PaymentURL:  b.PaymentURL,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Seats:       make([]BookingSeatResponse, len(b.Seats)),
	}
	for i, s := range b.Seats {
		out.Seats[i] = BookingSeatResponse{SeatID: s.SeatID, HalfPrice: s.HalfPrice, PriceCents: s.PriceCents}
	}
	return out
}

// pathID parses a uuid path parameter.
func pathID(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}

// formatCents renders 4500 as "45.00".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + frac
}
