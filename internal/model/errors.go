package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error kinds shared by storage, services and handlers. Callers wrap them
// with fmt.Errorf("...: %w", ErrX) and match with errors.Is.
var (
	// ErrNotFound is returned when a screening, seat, screen, movie,
	// customer or booking does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument covers empty, duplicate or out-of-screen seat
	// selections and malformed scheduling requests.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSeatUnavailable means another booking holds one of the seats. It is
	// a final answer; the caller must pick different seats.
	ErrSeatUnavailable = errors.New("seat unavailable")
	// ErrInvalidState is returned for booking transitions the state machine
	// does not allow.
	ErrInvalidState = errors.New("invalid booking state")
	// ErrConflict is a transaction serialization failure. Nothing was
	// decided, so the whole operation may be retried.
	ErrConflict = errors.New("conflict")
)

// SeatUnavailableError lists the seats that were already claimed.
type SeatUnavailableError struct {
	ScreeningID uuid.UUID
	SeatIDs     []uuid.UUID
}

func (e *SeatUnavailableError) Error() string {
	if len(e.SeatIDs) == 0 {
		return fmt.Sprintf("%s for screening %s", ErrSeatUnavailable, e.ScreeningID)
	}
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s for screening %s: %s", ErrSeatUnavailable, e.ScreeningID, strings.Join(ids, ","))
}

// Is lets errors.Is(err, ErrSeatUnavailable) match.
func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }
