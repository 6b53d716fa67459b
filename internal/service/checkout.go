package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/payment"
	"github.com/andregamma/cinema-saas/internal/utils"
)

// ErrPaymentUnavailable means the booking was created but no payment link
// could be issued. The booking stays pending until the sweeper expires it.
var ErrPaymentUnavailable = errors.New("payment provider unavailable")

// PaymentIssuer creates payment links.
type PaymentIssuer interface {
	RequestPayment(ctx context.Context, req payment.Request) (payment.Bill, error)
}

// CustomerDetails identifies a buyer at checkout.
type CustomerDetails struct {
	Name  string
	Email string
	TaxID string
}

// CheckoutRequest is an anonymous purchase: the customer is found or
// created by tax id.
type CheckoutRequest struct {
	Customer    CustomerDetails
	ScreeningID uuid.UUID
	Seats       []SeatSelection
}

// CheckoutResult is a pending booking together with its payment link.
type CheckoutResult struct {
	Booking  *model.Booking
	Customer *model.Customer
	Bill     payment.Bill
}

// CheckoutService books seats and requests payment for them.
type CheckoutService struct {
	customers  CustomerStore
	ledger     *Ledger
	issuer     PaymentIssuer
	bcryptCost int
	log        logrus.FieldLogger
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(customers CustomerStore, ledger *Ledger, issuer PaymentIssuer, bcryptCost int, log logrus.FieldLogger) *CheckoutService {
	if customers == nil || ledger == nil || issuer == nil {
		panic("service: NewCheckoutService requires customers, ledger and issuer")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CheckoutService{
		customers:  customers,
		ledger:     ledger,
		issuer:     issuer,
		bcryptCost: bcryptCost,
		log:        log.WithField("component", "checkout"),
	}
}

// Checkout finds or registers the customer, books the seats and issues a
// payment link.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	cust, err := s.findOrCreateCustomer(ctx, req.Customer)
	if err != nil {
		return nil, err
	}
	return s.book(ctx, cust, req.ScreeningID, req.Seats)
}

// Book books seats for a known customer and issues a payment link.
func (s *CheckoutService) Book(ctx context.Context, customerID, screeningID uuid.UUID, seats []SeatSelection) (*CheckoutResult, error) {
	cust, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.book(ctx, cust, screeningID, seats)
}

func (s *CheckoutService) book(ctx context.Context, cust *model.Customer, screeningID uuid.UUID, seats []SeatSelection) (*CheckoutResult, error) {
	b, err := s.ledger.CreateBooking(ctx, CreateBookingRequest{
		CustomerID:  cust.ID,
		ScreeningID: screeningID,
		Seats:       seats,
	})
	if err != nil {
		return nil, err
	}
	res := &CheckoutResult{Booking: b, Customer: cust}

	bill, err := s.issuer.RequestPayment(ctx, payment.Request{
		BookingID:     b.ID,
		ScreeningID:   b.ScreeningID,
		AmountCents:   b.TotalCents,
		Quantity:      len(b.Seats),
		CustomerRef:   cust.ID.String(),
		CustomerName:  cust.Name,
		CustomerEmail: cust.Email,
		CustomerTaxID: cust.TaxID,
	})
	if err != nil {
		s.log.WithField("booking_id", b.ID).WithError(err).Error("request payment")
		return res, fmt.Errorf("%w: booking %s: %v", ErrPaymentUnavailable, b.ID, err)
	}
	if err := s.ledger.AttachBill(ctx, b.ID, bill.ID, bill.URL); err != nil {
		return res, fmt.Errorf("attach bill to booking %s: %w", b.ID, err)
	}
	b.BillID = &bill.ID
	b.PaymentURL = &bill.URL
	res.Bill = bill
	return res, nil
}

func (s *CheckoutService) findOrCreateCustomer(ctx context.Context, d CustomerDetails) (*model.Customer, error) {
	taxID := normalizeTaxID(d.TaxID)
	if taxID == "" {
		return nil, fmt.Errorf("%w: tax id is required", model.ErrInvalidArgument)
	}
	cust, err := s.customers.GetCustomerByTaxID(ctx, taxID)
	if err == nil {
		return cust, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.PlaceholderPasswordHash(s.bcryptCost)
	if err != nil {
		return nil, err
	}
	cust = &model.Customer{
		ID:           model.NewID(),
		Name:         strings.TrimSpace(d.Name),
		Email:        strings.ToLower(strings.TrimSpace(d.Email)),
		TaxID:        taxID,
		PasswordHash: hash,
	}
	if err := s.customers.CreateCustomer(ctx, cust); err != nil {
		if errors.Is(err, model.ErrConflict) {
			// Registered concurrently by another checkout.
			return s.customers.GetCustomerByTaxID(ctx, taxID)
		}
		return nil, err
	}
	s.log.WithField("customer_id", cust.ID).Info("customer registered at checkout")
	return cust, nil
}

// normalizeTaxID keeps only digits, so "123.456.789-09" and "12345678909"
// identify the same customer.
func normalizeTaxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
