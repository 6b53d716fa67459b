package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/payment"
	"github.com/andregamma/cinema-saas/internal/service"
)

type fakeIssuer struct {
	mu       sync.Mutex
	requests []payment.Request
	err      error
}

func (f *fakeIssuer) RequestPayment(_ context.Context, req payment.Request) (payment.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return payment.Bill{}, f.err
	}
	return payment.Bill{ID: "bill_" + req.BookingID.String()[:8], URL: "https://pay.example/" + req.BookingID.String()}, nil
}

func TestCheckoutRegistersCustomerAndIssuesBill(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3000)
	issuer := &fakeIssuer{}
	co := service.NewCheckoutService(f.store, f.ledger, issuer, 4, quietLogger())

	res, err := co.Checkout(ctx, service.CheckoutRequest{
		Customer:    service.CustomerDetails{Name: "Ana", Email: " Ana@Example.com ", TaxID: "123.456.789-09"},
		ScreeningID: f.screening.ID,
		Seats:       f.selection(map[string]bool{"A2": true}, "A1", "A2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "12345678909", res.Customer.TaxID)
	assert.Equal(t, "ana@example.com", res.Customer.Email)
	assert.NotEmpty(t, res.Customer.PasswordHash)
	assert.Equal(t, int64(4500), res.Booking.TotalCents)
	require.NotNil(t, res.Booking.BillID)
	assert.Equal(t, res.Bill.ID, *res.Booking.BillID)

	require.Len(t, issuer.requests, 1)
	assert.Equal(t, int64(4500), issuer.requests[0].AmountCents)
	assert.Equal(t, 2, issuer.requests[0].Quantity)
	assert.Equal(t, res.Customer.ID.String(), issuer.requests[0].CustomerRef)

	stored, err := f.ledger.GetBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentURL)
	assert.Equal(t, res.Bill.URL, *stored.PaymentURL)

	again, err := co.Checkout(ctx, service.CheckoutRequest{
		Customer:    service.CustomerDetails{Name: "Ana", Email: "ana@example.com", TaxID: "12345678909"},
		ScreeningID: f.screening.ID,
		Seats:       f.selection(nil, "B1"),
	})
	require.NoError(t, err)
	assert.Equal(t, res.Customer.ID, again.Customer.ID)
}

func TestCheckoutPaymentFailureLeavesPendingBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)
	issuer := &fakeIssuer{err: errors.New("provider down")}
	co := service.NewCheckoutService(f.store, f.ledger, issuer, 4, quietLogger())

	res, err := co.Checkout(ctx, service.CheckoutRequest{
		Customer:    service.CustomerDetails{Name: "Bia", Email: "bia@example.com", TaxID: "98765432100"},
		ScreeningID: f.screening.ID,
		Seats:       f.selection(nil, "A1"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrPaymentUnavailable))
	require.NotNil(t, res)

	stored, err := f.ledger.GetBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, stored.Status)
	assert.Nil(t, stored.BillID)
}

func TestCheckoutRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)
	co := service.NewCheckoutService(f.store, f.ledger, &fakeIssuer{}, 4, quietLogger())

	_, err := co.Checkout(ctx, service.CheckoutRequest{
		Customer:    service.CustomerDetails{Name: "No Tax", Email: "x@example.com", TaxID: "---"},
		ScreeningID: f.screening.ID,
		Seats:       f.selection(nil, "A1"),
	})
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))

	_, err = co.Book(ctx, uuid.New(), f.screening.ID, f.selection(nil, "A1"))
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestBookForKnownCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000)
	cust := &model.Customer{ID: model.NewID(), Name: "Caio", Email: "caio@example.com", TaxID: "11122233344", PasswordHash: "x"}
	require.NoError(t, f.store.CreateCustomer(ctx, cust))

	co := service.NewCheckoutService(f.store, f.ledger, payment.LocalIssuer{BaseURL: "http://localhost:8080"}, 4, quietLogger())
	res, err := co.Book(ctx, cust.ID, f.screening.ID, f.selection(nil, "B1"))
	require.NoError(t, err)
	assert.Equal(t, cust.ID, res.Booking.CustomerID)
	assert.Equal(t, "local_"+res.Booking.ID.String(), res.Bill.ID)
	assert.Equal(t, "http://localhost:8080/pay/"+res.Bill.ID, res.Bill.URL)
}
