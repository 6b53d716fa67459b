package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

// Catalog answers existence questions about screens and movies. Catalog
// maintenance itself lives outside the booking core.
type Catalog interface {
	ScreenExists(ctx context.Context, id uuid.UUID) (bool, error)
	MovieExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetScreen(ctx context.Context, id uuid.UUID) (*model.Screen, error)
	GetMovie(ctx context.Context, id uuid.UUID) (*model.Movie, error)
}

// CatalogWriter creates catalog entries. Only demo seeding writes the
// catalog; everything else treats it as read-only.
type CatalogWriter interface {
	CreateExhibitor(ctx context.Context, e *model.Exhibitor) error
	// CreateScreen stores the screen with a rows x cols seat grid.
	CreateScreen(ctx context.Context, s *model.Screen, rows, cols int) ([]model.Seat, error)
	// CreateMovie returns an error matching model.ErrInvalidArgument when
	// the movie is already registered.
	CreateMovie(ctx context.Context, m *model.Movie) error
}

// SeatStore reads the seat layout and committed seat claims.
type SeatStore interface {
	// SeatsByScreen returns every seat of a screen ordered by row then column.
	SeatsByScreen(ctx context.Context, screenID uuid.UUID) ([]model.Seat, error)
	GetSeat(ctx context.Context, id uuid.UUID) (*model.Seat, error)
	SetSeatStatus(ctx context.Context, id uuid.UUID, status model.SeatStatus) error
	GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error)
	// ClaimedSeatIDs returns the seats held by non-canceled bookings.
	ClaimedSeatIDs(ctx context.Context, screeningID uuid.UUID) ([]uuid.UUID, error)
}

// ScreeningStore persists screenings.
type ScreeningStore interface {
	// CreateScreenings stores all screenings in one transaction.
	CreateScreenings(ctx context.Context, screenings []model.Screening) error
	// OverlappingScreenings returns screenings on screenID whose window
	// intersects [start, end).
	OverlappingScreenings(ctx context.Context, screenID uuid.UUID, start, end time.Time) ([]model.Screening, error)
	GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error)
	ListScreeningsByMovie(ctx context.Context, movieID uuid.UUID) ([]model.Screening, error)
}

// BookingStore opens booking sessions and serves booking reads that need no
// locking.
type BookingStore interface {
	Begin(ctx context.Context) (BookingSession, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Booking, error)
	// PendingCreatedBefore returns ids of pending bookings created before cutoff.
	PendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	// ConfirmedStartedBefore returns ids of confirmed bookings whose screening
	// starts at or before now.
	ConfirmedStartedBefore(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	SetBill(ctx context.Context, bookingID uuid.UUID, billID, paymentURL string) error
}

// BookingSession is one unit of work over bookings and seat claims. Every
// change made through it becomes visible on Commit or is discarded on
// Rollback. Rollback after Commit is a no-op.
type BookingSession interface {
	GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error)
	SeatsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Seat, error)
	// ClaimedSeatIDs returns the subset of seatIDs already claimed for the
	// screening.
	ClaimedSeatIDs(ctx context.Context, screeningID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error)
	// InsertBooking stores the booking and its seats.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// ClaimSeats records the claims in the order given. A seat already
	// claimed by another booking yields a model.SeatUnavailableError.
	ClaimSeats(ctx context.Context, screeningID, bookingID uuid.UUID, seatIDs []uuid.UUID) error
	// LockBooking loads a booking with its seats and holds it against
	// concurrent status changes until the session ends.
	LockBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, at time.Time) error
	ReleaseClaims(ctx context.Context, bookingID uuid.UUID) error
	Commit() error
	Rollback() error
}

// CustomerStore finds and creates customers.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	GetCustomerByTaxID(ctx context.Context, taxID string) (*model.Customer, error)
	// CreateCustomer returns an error matching model.ErrConflict when the
	// tax id is already registered.
	CreateCustomer(ctx context.Context, c *model.Customer) error
}
