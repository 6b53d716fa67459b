package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/service"
)

// msgSeatTaken is shown to buyers who lost a seat race.
const msgSeatTaken = "someone else just booked this seat, pick again"

// respondError maps error kinds to HTTP responses. Anything unrecognised
// is logged and answered with a generic 500.
func respondError(c echo.Context, log logrus.FieldLogger, err error) error {
	var taken *model.SeatUnavailableError
	switch {
	case errors.As(err, &taken):
		return c.JSON(http.StatusConflict, echo.Map{"error": msgSeatTaken, "seat_ids": taken.SeatIDs})
	case errors.Is(err, model.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": msgSeatTaken})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrConflict):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "busy, try again"})
	case errors.Is(err, service.ErrPaymentUnavailable):
		log.WithError(err).Warn("payment issuer unavailable")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable, try again shortly"})
	}
	log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
