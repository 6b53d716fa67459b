package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/service"
)

// CatalogHandler serves the public, unauthenticated reads: seat layouts,
// a movie's screenings and per-screening availability.
type CatalogHandler struct {
	Seats      *service.SeatRegistry
	Screenings *service.ScreeningGenerator
	Log        logrus.FieldLogger
}

func NewCatalogHandler(seats *service.SeatRegistry, screenings *service.ScreeningGenerator, log logrus.FieldLogger) *CatalogHandler {
	if seats == nil || screenings == nil {
		panic("nil service passed to NewCatalogHandler")
	}
	return &CatalogHandler{Seats: seats, Screenings: screenings, Log: log}
}

// ScreenSeatsPath is the URL of a screen's seat layout.
func ScreenSeatsPath(screenID uuid.UUID) string { return "/v1/screens/" + screenID.String() + "/seats" }

// MovieScreeningsPath is the URL of a movie's screening list.
func MovieScreeningsPath(movieID uuid.UUID) string {
	return "/v1/movies/" + movieID.String() + "/screenings"
}

// ScreenSeats handles GET /v1/screens/:id/seats.
func (h *CatalogHandler) ScreenSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screen id"})
	}
	seats, err := h.Seats.ListSeats(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]SeatResponse, len(seats))
	for i, s := range seats {
		out[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": out})
}

// MovieScreenings handles GET /v1/movies/:id/screenings.
func (h *CatalogHandler) MovieScreenings(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	list, err := h.Screenings.ListScreenings(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]ScreeningResponse, len(list))
	for i, s := range list {
		out[i] = toScreeningResponse(s)
	}
	return c.JSON(http.StatusOK, echo.Map{"screenings": out})
}

// ScreeningSeats handles GET /v1/screenings/:id/seats. The answer reflects
// committed claims only and is never cached.
func (h *CatalogHandler) ScreeningSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
	}
	ctx := c.Request().Context()
	scr, err := h.Screenings.GetScreening(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	list, err := h.Seats.ListSeatsAvailability(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]SeatResponse, len(list))
	for i, a := range list {
		r := toSeatResponse(a.Seat)
		avail := a.Available
		r.Available = &avail
		out[i] = r
	}
	return c.JSON(http.StatusOK, echo.Map{
		"screening": toScreeningResponse(*scr),
		"seats":     out,
	})
}
