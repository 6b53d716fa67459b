package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/service"
)

// CacheEvictor drops cached responses for a request path.
type CacheEvictor interface {
	Evict(ctx context.Context, path string) error
}

// AdminHandler serves exhibitor administration: scheduling screenings and
// taking seats out of service. Cached catalog reads touched by a change are
// evicted after it commits.
type AdminHandler struct {
	Screenings *service.ScreeningGenerator
	Seats      *service.SeatRegistry
	Cache      CacheEvictor // may be nil
	Log        logrus.FieldLogger
}

func NewAdminHandler(screenings *service.ScreeningGenerator, seats *service.SeatRegistry, cache CacheEvictor, log logrus.FieldLogger) *AdminHandler {
	if screenings == nil || seats == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Screenings: screenings, Seats: seats, Cache: cache, Log: log}
}

func (h *AdminHandler) evict(c echo.Context, path string) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Evict(c.Request().Context(), path); err != nil {
		h.Log.WithError(err).WithField("path", path).Warn("cache eviction failed")
	}
}

// GenerateScreeningsRequest is the body of
// POST /v1/admin/movies/:id/screenings. Start times are RFC 3339.
type GenerateScreeningsRequest struct {
	ScreenIDs  []uuid.UUID `json:"screen_ids" validate:"required,min=1,dive,required"`
	StartTimes []string    `json:"start_times" validate:"required,min=1,dive,required"`
	PriceCents int64       `json:"price_cents" validate:"required,gt=0"`
}

// GenerateScreenings creates one screening per screen and start time.
func (h *AdminHandler) GenerateScreenings(c echo.Context) error {
	movieID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var body GenerateScreeningsRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	created, err := h.Screenings.GenerateScreenings(c.Request().Context(), service.GenerateScreeningsRequest{
		MovieID:    movieID,
		ScreenIDs:  body.ScreenIDs,
		StartTimes: body.StartTimes,
		PriceCents: body.PriceCents,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.evict(c, MovieScreeningsPath(movieID))
	out := make([]ScreeningResponse, len(created))
	for i, s := range created {
		out[i] = toScreeningResponse(s)
	}
	return c.JSON(http.StatusCreated, echo.Map{"screenings": out})
}

// SeatStatusRequest is the body of PATCH /v1/admin/seats/:id.
type SeatStatusRequest struct {
	Status model.SeatStatus `json:"status" validate:"required,oneof=enabled disabled temporarily_disabled"`
}

// SetSeatStatus changes a seat's status. Existing bookings keep the seat.
func (h *AdminHandler) SetSeatStatus(c echo.Context) error {
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var body SeatStatusRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	seat, err := h.Seats.SetSeatStatus(c.Request().Context(), seatID, body.Status)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.evict(c, ScreenSeatsPath(seat.ScreenID))
	return c.JSON(http.StatusOK, toSeatResponse(*seat))
}
