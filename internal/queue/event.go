// Package queue defines message payloads exchanged over the message broker
// and the AMQP publisher and consumer that carry them.
package queue

import "time"

// Event types published for booking state changes.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCanceled  = "booking.canceled"
	EventBookingCompleted = "booking.completed"
)

// BookingEvent is published after a booking state change commits. It
// carries enough for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id"`
	CustomerID  string    `json:"customer_id"`
	ScreeningID string    `json:"screening_id"`
	Status      string    `json:"status"`
	SeatIDs     []string  `json:"seat_ids"`
	SeatLabels  []string  `json:"seats,omitempty"`
	TotalCents  int64     `json:"total_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}
