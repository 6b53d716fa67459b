package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/service"
)

// WebhookSecretHeader carries the secret shared with the payment provider.
const WebhookSecretHeader = "X-Webhook-Secret"

// Payment outcomes accepted by the webhook.
const (
	PaymentPaid   = "paid"
	PaymentFailed = "failed"
)

// PaymentHandler receives payment results.
type PaymentHandler struct {
	Ledger *service.Ledger
	Secret string
	Log    logrus.FieldLogger
}

func NewPaymentHandler(ledger *service.Ledger, secret string, log logrus.FieldLogger) *PaymentHandler {
	if ledger == nil || secret == "" {
		panic("NewPaymentHandler requires a ledger and a webhook secret")
	}
	return &PaymentHandler{Ledger: ledger, Secret: secret, Log: log}
}

// PaymentWebhook is the body posted by the payment provider.
type PaymentWebhook struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
	BillID    string    `json:"bill_id"`
	Status    string    `json:"status" validate:"required,oneof=paid failed"`
}

// Webhook handles POST /v1/payments/webhook. Redelivered results are
// answered 200 without changing anything. A bill id that does not match
// the booking's bill is answered 400.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	got := c.Request().Header.Get(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook secret"})
	}
	var body PaymentWebhook
	if ok, err := bindValid(c, &body); !ok {
		return err
	}
	b, err := h.Ledger.ApplyBillResult(c.Request().Context(), body.BookingID, body.BillID, body.Status == PaymentPaid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.Log.WithFields(logrus.Fields{"booking_id": b.ID, "bill_id": body.BillID, "result": body.Status}).Info("payment result applied")
	return c.JSON(http.StatusOK, echo.Map{"booking_id": b.ID, "status": b.Status})
}
