package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

const seatColumns = `id, screen_id, seat_row, seat_column, row_identifier, column_identifier, status`

// SeatRepo reads the seat layout and the committed seat claims.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeat(sc rowScanner) (model.Seat, error) {
	var s model.Seat
	err := sc.Scan(&s.ID, &s.ScreenID, &s.Row, &s.Column, &s.RowIdentifier, &s.ColumnIdentifier, &s.Status)
	return s, err
}

func querySeats(ctx context.Context, q querier, query string, args ...any) ([]model.Seat, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// SeatsByScreen retrieves all seats of a screen ordered by row then column.
func (r *SeatRepo) SeatsByScreen(ctx context.Context, screenID uuid.UUID) ([]model.Seat, error) {
	return querySeats(ctx, r.db,
		`SELECT `+seatColumns+` FROM seats WHERE screen_id = ? ORDER BY seat_row, seat_column`, screenID)
}

// GetSeat retrieves a seat by its id.
func (r *SeatRepo) GetSeat(ctx context.Context, id uuid.UUID) (*model.Seat, error) {
	s, err := scanSeat(r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "seat", id)
	}
	return &s, nil
}

// SetSeatStatus changes a seat's status. Existing claims are untouched.
func (r *SeatRepo) SetSeatStatus(ctx context.Context, id uuid.UUID, status model.SeatStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE seats SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return classify(err)
	}
	return mustAffect(res, "seat", id)
}

// GetScreening returns a screening.
func (r *SeatRepo) GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error) {
	return getScreening(ctx, r.db, id)
}

// ClaimedSeatIDs returns the seats currently claimed for the screening.
func (r *SeatRepo) ClaimedSeatIDs(ctx context.Context, screeningID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_id FROM seat_claims WHERE screening_id = ? ORDER BY seat_id`, screeningID)
	if err != nil {
		return nil, classify(err)
	}
	return scanIDs(rows)
}
