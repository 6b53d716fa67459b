package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

// bookingSession wraps one transaction. Seat exclusivity rests on the
// seat_claims primary key (screening_id, seat_id): the second of two
// racing inserts waits for the first transaction and then fails with a
// duplicate key once it commits.
type bookingSession struct {
	tx   *sql.Tx
	done bool
}

func (s *bookingSession) GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error) {
	return getScreening(ctx, s.tx, id)
}

func (s *bookingSession) SeatsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return querySeats(ctx, s.tx,
		`SELECT `+seatColumns+` FROM seats WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
}

// ClaimedSeatIDs is a plain read with no locks. It lets the common case of
// an already sold seat fail before any row is written.
func (s *bookingSession) ClaimedSeatIDs(ctx context.Context, screeningID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.claimed(ctx, screeningID, seatIDs, "")
}

func (s *bookingSession) claimed(ctx context.Context, screeningID uuid.UUID, seatIDs []uuid.UUID, lockClause string) ([]uuid.UUID, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	args := append([]any{screeningID}, idArgs(seatIDs)...)
	rows, err := s.tx.QueryContext(ctx,
		`SELECT seat_id FROM seat_claims WHERE screening_id = ? AND seat_id IN (`+
			placeholders(len(seatIDs))+`) ORDER BY seat_id`+lockClause, args...)
	if err != nil {
		return nil, classify(err)
	}
	return scanIDs(rows)
}

func (s *bookingSession) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.tx.ExecContext(ctx, q, b.ID, b.CustomerID, b.ScreeningID, b.Status, b.BillID, b.PaymentURL,
		b.TotalCents, b.CreatedAt.UTC(), b.UpdatedAt.UTC()); err != nil {
		return classify(err)
	}
	if len(b.Seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (id, booking_id, seat_id, half_price, price_cents) VALUES `
	args := make([]any, 0, len(b.Seats)*5)
	for i, seat := range b.Seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, seat.ID, b.ID, seat.SeatID, seat.HalfPrice, seat.PriceCents)
	}
	_, err := s.tx.ExecContext(ctx, query, args...)
	return classify(err)
}

// ClaimSeats inserts all claims in one statement, in the order given. A
// duplicate key means a competing booking committed first; the winning
// rows are then read with a locking read, which sees the latest committed
// data.
func (s *bookingSession) ClaimSeats(ctx context.Context, screeningID, bookingID uuid.UUID, seatIDs []uuid.UUID) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO seat_claims (screening_id, seat_id, booking_id) VALUES `
	args := make([]any, 0, len(seatIDs)*3)
	for i, id := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, screeningID, id, bookingID)
	}
	_, err := s.tx.ExecContext(ctx, query, args...)
	if err == nil {
		return nil
	}
	if !isDuplicate(err) {
		return classify(err)
	}
	taken, lookupErr := s.claimed(ctx, screeningID, seatIDs, " LOCK IN SHARE MODE")
	if lookupErr != nil || len(taken) == 0 {
		taken = seatIDs
	}
	return &model.SeatUnavailableError{ScreeningID: screeningID, SeatIDs: taken}
}

func (s *bookingSession) LockBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, err := scanBooking(s.tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	if err := loadSeats(ctx, s.tx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingSession) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, at time.Time) error {
	res, err := s.tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`, status, at.UTC(), id)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "booking", id)
}

func (s *bookingSession) ReleaseClaims(ctx context.Context, bookingID uuid.UUID) error {
	_, err := s.tx.ExecContext(ctx, `DELETE FROM seat_claims WHERE booking_id = ?`, bookingID)
	return classify(err)
}

func (s *bookingSession) Commit() error {
	if s.done {
		return errors.New("repository: session already finished")
	}
	s.done = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}

func (s *bookingSession) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
