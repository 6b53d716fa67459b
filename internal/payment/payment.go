// Package payment issues payment links for bookings. The provider settles
// the payment and reports the outcome back through the webhook handler.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Request describes what the customer pays for one booking.
type Request struct {
	BookingID     uuid.UUID
	ScreeningID   uuid.UUID
	AmountCents   int64
	Quantity      int
	CustomerRef   string
	CustomerName  string
	CustomerEmail string
	CustomerTaxID string
}

// Bill is the provider's reference for a payment link.
type Bill struct {
	ID  string
	URL string
}

// LocalIssuer fakes a provider for development. Bills point at BaseURL and
// are settled by calling the webhook by hand.
type LocalIssuer struct {
	BaseURL string
}

// RequestPayment returns a bill derived from the booking id.
func (l LocalIssuer) RequestPayment(_ context.Context, req Request) (Bill, error) {
	id := "local_" + req.BookingID.String()
	return Bill{ID: id, URL: fmt.Sprintf("%s/pay/%s", l.BaseURL, id)}, nil
}
