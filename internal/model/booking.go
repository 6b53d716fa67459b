package model

import (
	"time"

	"github.com/google/uuid"
)

// Booking records a customer's purchase of seats for one screening. It is
// created pending and moves through the transitions in booking_status.go.
//
// Fields:
//
//	ID          – primary key identifier.
//	CustomerID  – customer who made the booking.
//	ScreeningID – screening being booked.
//	Status      – pending, confirmed, canceled or completed.
//	BillID      – external payment bill reference, if issued.
//	PaymentURL  – link the customer follows to pay, if issued.
//	TotalCents  – total price in cents for all seats.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
//	Seats       – seats in this booking (not a column).
type Booking struct {
	ID          uuid.UUID     // bookings.id
	CustomerID  uuid.UUID     // bookings.customer_id
	ScreeningID uuid.UUID     // bookings.screening_id
	Status      BookingStatus // bookings.status
	BillID      *string       // bookings.bill_id (nullable)
	PaymentURL  *string       // bookings.payment_url (nullable)
	TotalCents  int64         // bookings.total_cents
	CreatedAt   time.Time     // bookings.created_at
	UpdatedAt   time.Time     // bookings.updated_at
	Seats       []BookingSeat
}

// SeatIDs returns the ids of the booked seats in booking order.
func (b *Booking) SeatIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(b.Seats))
	for i, s := range b.Seats {
		out[i] = s.SeatID
	}
	return out
}

// BookingSeat links a booking to one seat. PriceCents is the amount
// charged for this seat after the half-price discount.
type BookingSeat struct {
	ID         uuid.UUID // booking_seats.id
	BookingID  uuid.UUID // booking_seats.booking_id
	SeatID     uuid.UUID // booking_seats.seat_id
	HalfPrice  bool      // booking_seats.half_price
	PriceCents int64     // booking_seats.price_cents
}

// Customer is the buyer. TaxID is the national taxpayer number (CPF) and
// is unique.
type Customer struct {
	ID           uuid.UUID // customers.id
	Name         string    // customers.name
	Email        string    // customers.email
	TaxID        string    // customers.tax_id
	PasswordHash string    // customers.password_hash
	CreatedAt    time.Time // customers.created_at
}
