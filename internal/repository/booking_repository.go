package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/service"
)

const bookingColumns = `id, customer_id, screening_id, status, bill_id, payment_url, total_cents, created_at, updated_at`

// BookingRepo stores bookings, their seats and the seat claims that keep
// two live bookings off the same seat. Writes go through sessions opened
// with Begin; reads that need no locking use the pool directly.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Begin opens a READ COMMITTED transaction. Claim exclusivity comes from
// the seat_claims primary key, not from the isolation level.
func (r *BookingRepo) Begin(ctx context.Context) (service.BookingSession, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, classify(err)
	}
	return &bookingSession{tx: tx}, nil
}

func scanBooking(sc rowScanner) (*model.Booking, error) {
	var (
		b           model.Booking
		bill, payTo sql.NullString
	)
	if err := sc.Scan(&b.ID, &b.CustomerID, &b.ScreeningID, &b.Status, &bill, &payTo,
		&b.TotalCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if bill.Valid {
		v := bill.String
		b.BillID = &v
	}
	if payTo.Valid {
		v := payTo.String
		b.PaymentURL = &v
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

// loadSeats fills in the seats of each booking. Seat ids are time ordered,
// so ORDER BY id returns them in booking order.
func loadSeats(ctx context.Context, q querier, bookings ...*model.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.Booking, len(bookings))
	ids := make([]uuid.UUID, 0, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}
	rows, err := q.QueryContext(ctx,
		`SELECT id, booking_id, seat_id, half_price, price_cents FROM booking_seats
		 WHERE booking_id IN (`+placeholders(len(ids))+`) ORDER BY booking_id, id`, idArgs(ids)...)
	if err != nil {
		return classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var s model.BookingSeat
		if err := rows.Scan(&s.ID, &s.BookingID, &s.SeatID, &s.HalfPrice, &s.PriceCents); err != nil {
			return err
		}
		if b := byID[s.BookingID]; b != nil {
			b.Seats = append(b.Seats, s)
		}
	}
	return classify(rows.Err())
}

// GetBooking returns a booking with its seats.
func (r *BookingRepo) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	if err := loadSeats(ctx, r.db, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookingsByCustomer returns a customer's bookings, newest first.
func (r *BookingRepo) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE customer_id = ? ORDER BY created_at DESC, id DESC`, customerID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var ptrs []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	if err := loadSeats(ctx, r.db, ptrs...); err != nil {
		return nil, err
	}
	out := make([]model.Booking, len(ptrs))
	for i, b := range ptrs {
		out[i] = *b
	}
	return out, nil
}

// PendingCreatedBefore returns ids of pending bookings created before
// cutoff, oldest first.
func (r *BookingRepo) PendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM bookings WHERE status = ? AND created_at < ? ORDER BY created_at LIMIT ?`,
		model.BookingPending, cutoff.UTC(), limit)
	if err != nil {
		return nil, classify(err)
	}
	return scanIDs(rows)
}

// ConfirmedStartedBefore returns ids of confirmed bookings whose screening
// starts at or before now.
func (r *BookingRepo) ConfirmedStartedBefore(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id FROM bookings b
		 JOIN screenings s ON s.id = b.screening_id
		 WHERE b.status = ? AND s.starts_at <= ?
		 ORDER BY s.starts_at LIMIT ?`,
		model.BookingConfirmed, now.UTC(), limit)
	if err != nil {
		return nil, classify(err)
	}
	return scanIDs(rows)
}

// SetBill records the payment bill issued for a booking.
func (r *BookingRepo) SetBill(ctx context.Context, bookingID uuid.UUID, billID, paymentURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET bill_id = ?, payment_url = ? WHERE id = ?`, billID, paymentURL, bookingID)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "booking", bookingID)
}
