package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/middleware"
	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/service"
	"github.com/andregamma/cinema-saas/internal/utils"
)

// BookingHandler serves the authenticated customer's bookings. All methods
// assume JWTAuth and RequireRole(CUSTOMER) ran before them.
type BookingHandler struct {
	Ledger   *service.Ledger
	Checkout *service.CheckoutService
	Log      logrus.FieldLogger
}

func NewBookingHandler(ledger *service.Ledger, checkout *service.CheckoutService, log logrus.FieldLogger) *BookingHandler {
	if ledger == nil || checkout == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: ledger, Checkout: checkout, Log: log}
}

// CreateBookingRequest is the body of POST /v1/bookings.
type CreateBookingRequest struct {
	ScreeningID uuid.UUID     `json:"screening_id" validate:"required"`
	Seats       []SeatRequest `json:"seats" validate:"required,min=1,max=20,dive"`
}

// Create handles POST /v1/bookings. It answers 201 with the pending
// booking and its payment link.
func (h *BookingHandler) Create(c echo.Context) error {
	customerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body CreateBookingRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	res, err := h.Checkout.Book(c.Request().Context(), customerID, body.ScreeningID, toSelections(body.Seats))
	return respondCheckout(c, h.Log, res, err)
}

// respondCheckout writes the outcome of a booking attempt. A booking that
// was stored but could not get a payment link is reported with its id.
func respondCheckout(c echo.Context, log logrus.FieldLogger, res *service.CheckoutResult, err error) error {
	if err != nil {
		if errors.Is(err, service.ErrPaymentUnavailable) && res != nil && res.Booking != nil {
			log.WithError(err).WithField("booking_id", res.Booking.ID).Warn("booking left pending without payment link")
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":      "payment provider unavailable, try again shortly",
				"booking_id": res.Booking.ID,
			})
		}
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking":     toBookingResponse(res.Booking),
		"payment_url": res.Bill.URL,
	})
}

// List handles GET /v1/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	customerID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Ledger.ListCustomerBookings(c.Request().Context(), customerID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]BookingResponse, len(list))
	for i := range list {
		out[i] = toBookingResponse(&list[i])
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// owned loads the booking in the path and checks it belongs to the caller.
// Someone else's booking is reported as not found.
func (h *BookingHandler) owned(c echo.Context) (*model.Booking, error) {
	customerID, ok := middleware.UserID(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return nil, fmt.Errorf("%w: invalid booking id", model.ErrInvalidArgument)
	}
	b, err := h.Ledger.GetBooking(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	return b, nil
}

func (h *BookingHandler) fail(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.JSON(he.Code, echo.Map{"error": he.Message})
	}
	return respondError(c, h.Log, err)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.owned(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel handles DELETE /v1/bookings/:id. Canceling twice is not an error.
func (h *BookingHandler) Cancel(c echo.Context) error {
	b, err := h.owned(c)
	if err != nil {
		return h.fail(c, err)
	}
	b, err = h.Ledger.CancelBooking(c.Request().Context(), b.ID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Ticket handles GET /v1/bookings/:id/ticket.png. Only paid bookings have
// a ticket.
func (h *BookingHandler) Ticket(c echo.Context) error {
	b, err := h.owned(c)
	if err != nil {
		return h.fail(c, err)
	}
	if b.Status != model.BookingConfirmed && b.Status != model.BookingCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is " + string(b.Status) + ", ticket not available"})
	}
	png, err := utils.GenerateQRCode(ticketPayload(b), 256)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// ticketPayload is the text encoded in the QR code scanned at the door.
func ticketPayload(b *model.Booking) string {
	return fmt.Sprintf("CINE|%s|%s|%d|%s", b.ID, b.ScreeningID, len(b.Seats), formatCents(b.TotalCents))
}
