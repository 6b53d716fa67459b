package model

import (
	"strconv"

	"github.com/google/uuid"
)

// SeatStatus is the administrative state of a physical seat.
type SeatStatus string

const (
	SeatEnabled             SeatStatus = "enabled"
	SeatDisabled            SeatStatus = "disabled"
	SeatTemporarilyDisabled SeatStatus = "temporarily_disabled"
)

// IsValid reports whether s is a known seat status.
func (s SeatStatus) IsValid() bool {
	switch s {
	case SeatEnabled, SeatDisabled, SeatTemporarilyDisabled:
		return true
	}
	return false
}

// AxisIdentifier says how a row or column index is shown to customers.
type AxisIdentifier string

const (
	AxisNumber AxisIdentifier = "number"
	AxisLetter AxisIdentifier = "letter"
)

// Seat describes a physical seat on a screen. Seats are uniquely
// identified by their screen, row and column. Row and Column are
// 1-based positions; RowIdentifier and ColumnIdentifier control the
// printed label (row 1 with a letter identifier prints as "A").
//
// Fields:
//
//	ID               – primary key identifier.
//	ScreenID         – screen to which this seat belongs.
//	Row              – 1-based row position.
//	Column           – 1-based column position.
//	RowIdentifier    – label kind for the row (number or letter).
//	ColumnIdentifier – label kind for the column (number or letter).
//	Status           – enabled, disabled or temporarily_disabled.
type Seat struct {
	ID               uuid.UUID      // seats.id
	ScreenID         uuid.UUID      // seats.screen_id
	Row              int            // seats.seat_row
	Column           int            // seats.seat_column
	RowIdentifier    AxisIdentifier // seats.row_identifier
	ColumnIdentifier AxisIdentifier // seats.column_identifier
	Status           SeatStatus     // seats.status
}

// Label renders the seat position, e.g. "A1" or "3C".
func (s Seat) Label() string {
	return axisLabel(s.Row, s.RowIdentifier) + axisLabel(s.Column, s.ColumnIdentifier)
}

// IsEnabled reports whether the seat can be sold.
func (s Seat) IsEnabled() bool { return s.Status == SeatEnabled }

// SeatGrid lays out rows x cols enabled seats for a screen, rows lettered
// and columns numbered, in row then column order.
func SeatGrid(screenID uuid.UUID, rows, cols int) []Seat {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	seats := make([]Seat, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			seats = append(seats, Seat{
				ID:               NewID(),
				ScreenID:         screenID,
				Row:              r,
				Column:           c,
				RowIdentifier:    AxisLetter,
				ColumnIdentifier: AxisNumber,
				Status:           SeatEnabled,
			})
		}
	}
	return seats
}

// SeatAvailability pairs a seat with whether it can be booked for one
// screening.
type SeatAvailability struct {
	Seat      Seat
	Available bool
}

// axisLabel converts a 1-based index to "A".."Z","AA".. for letters or a
// decimal string for numbers.
func axisLabel(n int, kind AxisIdentifier) string {
	if kind != AxisLetter || n <= 0 {
		return strconv.Itoa(n)
	}
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
