package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/service"
)

// CheckoutHandler serves the guest purchase flow.
type CheckoutHandler struct {
	Service *service.CheckoutService
	Log     logrus.FieldLogger
}

func NewCheckoutHandler(checkout *service.CheckoutService, log logrus.FieldLogger) *CheckoutHandler {
	if checkout == nil {
		panic("nil service passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Service: checkout, Log: log}
}

// CheckoutRequest is the body of POST /v1/checkout.
type CheckoutRequest struct {
	Name        string        `json:"name" validate:"required,max=255"`
	Email       string        `json:"email" validate:"required,email"`
	TaxID       string        `json:"tax_id" validate:"required,min=11,max=18"`
	ScreeningID uuid.UUID     `json:"screening_id" validate:"required"`
	Seats       []SeatRequest `json:"seats" validate:"required,min=1,max=20,dive"`
}

// Checkout handles POST /v1/checkout.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	var body CheckoutRequest
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	res, err := h.Service.Checkout(c.Request().Context(), service.CheckoutRequest{
		Customer:    service.CustomerDetails{Name: body.Name, Email: body.Email, TaxID: body.TaxID},
		ScreeningID: body.ScreeningID,
		Seats:       toSelections(body.Seats),
	})
	return respondCheckout(c, h.Log, res, err)
}
