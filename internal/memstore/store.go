// Package memstore keeps the catalog, screenings, bookings and seat claims
// in memory. It backs the service tests and the server's "memory" storage
// driver. Seat claims are guarded by per-(screening, seat) locks taken in
// the order the caller supplies and held until the session ends.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/service"
)

type claimKey struct {
	screening uuid.UUID
	seat      uuid.UUID
}

func (k claimKey) lockKey() string { return "claim:" + k.screening.String() + ":" + k.seat.String() }

func bookingLockKey(id uuid.UUID) string { return "booking:" + id.String() }

// Store is an in-memory implementation of every storage interface the
// services need.
type Store struct {
	mu         sync.RWMutex
	exhibitors map[uuid.UUID]model.Exhibitor
	screens    map[uuid.UUID]model.Screen
	seats      map[uuid.UUID]model.Seat
	movies     map[uuid.UUID]model.Movie
	screenings map[uuid.UUID]model.Screening
	bookings   map[uuid.UUID]*model.Booking
	claims     map[claimKey]uuid.UUID
	customers  map[uuid.UUID]model.Customer
	byTaxID    map[string]uuid.UUID
	locks      *lockManager
}

var (
	_ service.Catalog        = (*Store)(nil)
	_ service.SeatStore      = (*Store)(nil)
	_ service.ScreeningStore = (*Store)(nil)
	_ service.BookingStore   = (*Store)(nil)
	_ service.CustomerStore  = (*Store)(nil)
	_ service.CatalogWriter  = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{
		exhibitors: make(map[uuid.UUID]model.Exhibitor),
		screens:    make(map[uuid.UUID]model.Screen),
		seats:      make(map[uuid.UUID]model.Seat),
		movies:     make(map[uuid.UUID]model.Movie),
		screenings: make(map[uuid.UUID]model.Screening),
		bookings:   make(map[uuid.UUID]*model.Booking),
		claims:     make(map[claimKey]uuid.UUID),
		customers:  make(map[uuid.UUID]model.Customer),
		byTaxID:    make(map[string]uuid.UUID),
		locks:      newLockManager(),
	}
}

// AddExhibitor registers an exhibitor.
func (s *Store) AddExhibitor(name string) model.Exhibitor {
	e := model.Exhibitor{Name: name}
	_ = s.CreateExhibitor(context.Background(), &e)
	return e
}

// AddScreen configures a screen with a rows x cols grid of enabled seats.
func (s *Store) AddScreen(exhibitorID uuid.UUID, name string, rows, cols int) (model.Screen, []model.Seat) {
	sc := model.Screen{ExhibitorID: exhibitorID, Name: name}
	seats, _ := s.CreateScreen(context.Background(), &sc, rows, cols)
	return sc, seats
}

// AddSeat adds a single seat. Positions must be unique per screen.
func (s *Store) AddSeat(seat model.Seat) (model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.screens[seat.ScreenID]; !ok {
		return model.Seat{}, fmt.Errorf("screen %s: %w", seat.ScreenID, model.ErrNotFound)
	}
	for _, other := range s.seats {
		if other.ScreenID == seat.ScreenID && other.Row == seat.Row && other.Column == seat.Column {
			return model.Seat{}, fmt.Errorf("%w: seat position %d/%d already taken", model.ErrInvalidArgument, seat.Row, seat.Column)
		}
	}
	if seat.ID == uuid.Nil {
		seat.ID = model.NewID()
	}
	s.seats[seat.ID] = seat
	return seat, nil
}

// AddMovie registers a movie.
func (s *Store) AddMovie(m model.Movie) model.Movie {
	_ = s.CreateMovie(context.Background(), &m)
	return m
}

// CreateExhibitor stores an exhibitor, assigning an id when missing.
func (s *Store) CreateExhibitor(_ context.Context, e *model.Exhibitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = model.NewID()
	}
	s.exhibitors[e.ID] = *e
	return nil
}

// CreateScreen stores a screen and a rows x cols grid of enabled seats.
func (s *Store) CreateScreen(_ context.Context, sc *model.Screen, rows, cols int) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.ID == uuid.Nil {
		sc.ID = model.NewID()
	}
	sc.Capacity = rows * cols
	seats := model.SeatGrid(sc.ID, rows, cols)
	s.screens[sc.ID] = *sc
	for _, seat := range seats {
		s.seats[seat.ID] = seat
	}
	return seats, nil
}

// CreateMovie stores a movie. A repeated IMDb or TMDb id yields
// model.ErrInvalidArgument.
func (s *Store) CreateMovie(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.movies {
		if (m.ImdbID != "" && other.ImdbID == m.ImdbID) || (m.TmdbID != "" && other.TmdbID == m.TmdbID) {
			return fmt.Errorf("%w: movie %s already registered", model.ErrInvalidArgument, m.ImdbID)
		}
	}
	if m.ID == uuid.Nil {
		m.ID = model.NewID()
	}
	s.movies[m.ID] = *m
	return nil
}

// ---- catalog ----

func (s *Store) ScreenExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.screens[id]
	return ok, nil
}

func (s *Store) MovieExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.movies[id]
	return ok, nil
}

func (s *Store) GetScreen(_ context.Context, id uuid.UUID) (*model.Screen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.screens[id]
	if !ok {
		return nil, fmt.Errorf("screen %s: %w", id, model.ErrNotFound)
	}
	if _, ok := s.exhibitors[sc.ExhibitorID]; !ok {
		sc.ExhibitorID = uuid.Nil
	}
	return &sc, nil
}

func (s *Store) GetMovie(_ context.Context, id uuid.UUID) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %s: %w", id, model.ErrNotFound)
	}
	return &m, nil
}

// ---- seats ----

func (s *Store) SeatsByScreen(_ context.Context, screenID uuid.UUID) ([]model.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Seat
	for _, seat := range s.seats {
		if seat.ScreenID == screenID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Column < out[j].Column
	})
	return out, nil
}

func (s *Store) GetSeat(_ context.Context, id uuid.UUID) (*model.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, ok := s.seats[id]
	if !ok {
		return nil, fmt.Errorf("seat %s: %w", id, model.ErrNotFound)
	}
	return &seat, nil
}

func (s *Store) SetSeatStatus(_ context.Context, id uuid.UUID, status model.SeatStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[id]
	if !ok {
		return fmt.Errorf("seat %s: %w", id, model.ErrNotFound)
	}
	seat.Status = status
	s.seats[id] = seat
	return nil
}

func (s *Store) ClaimedSeatIDs(_ context.Context, screeningID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for k := range s.claims {
		if k.screening == screeningID {
			out = append(out, k.seat)
		}
	}
	service.SortIDs(out)
	return out, nil
}

// ClaimCount reports how many seats are claimed for a screening.
func (s *Store) ClaimCount(screeningID uuid.UUID) int {
	ids, _ := s.ClaimedSeatIDs(context.Background(), screeningID)
	return len(ids)
}

// ---- screenings ----

func (s *Store) GetScreening(_ context.Context, id uuid.UUID) (*model.Screening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screeningLocked(id)
}

func (s *Store) screeningLocked(id uuid.UUID) (*model.Screening, error) {
	scr, ok := s.screenings[id]
	if !ok {
		return nil, fmt.Errorf("screening %s: %w", id, model.ErrNotFound)
	}
	return &scr, nil
}

func (s *Store) CreateScreenings(_ context.Context, batch []model.Screening) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, scr := range batch {
		if _, ok := s.movies[scr.MovieID]; !ok {
			return fmt.Errorf("movie %s: %w", scr.MovieID, model.ErrNotFound)
		}
		if _, ok := s.screens[scr.ScreenID]; !ok {
			return fmt.Errorf("screen %s: %w", scr.ScreenID, model.ErrNotFound)
		}
	}
	for _, scr := range batch {
		s.screenings[scr.ID] = scr
	}
	return nil
}

func (s *Store) OverlappingScreenings(_ context.Context, screenID uuid.UUID, start, end time.Time) ([]model.Screening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	probe := model.Screening{StartsAt: start, EndsAt: end}
	var out []model.Screening
	for _, scr := range s.screenings {
		if scr.ScreenID == screenID && scr.Overlaps(probe) {
			out = append(out, scr)
		}
	}
	sortScreenings(out)
	return out, nil
}

func (s *Store) ListScreeningsByMovie(_ context.Context, movieID uuid.UUID) ([]model.Screening, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Screening
	for _, scr := range s.screenings {
		if scr.MovieID == movieID {
			out = append(out, scr)
		}
	}
	sortScreenings(out)
	return out, nil
}

// ScreeningCount reports how many screenings are stored.
func (s *Store) ScreeningCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.screenings)
}

func sortScreenings(out []model.Screening) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ScreenID.String() < out[j].ScreenID.String()
	})
}

// ---- bookings ----

func (s *Store) Begin(_ context.Context) (service.BookingSession, error) {
	return &session{
		s:        s,
		held:     make(map[string]bool),
		claims:   make(map[claimKey]uuid.UUID),
		statuses: make(map[uuid.UUID]statusChange),
	}, nil
}

func (s *Store) GetBooking(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookingLocked(id)
}

func (s *Store) bookingLocked(id uuid.UUID) (*model.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	return copyBooking(b), nil
}

func (s *Store) ListBookingsByCustomer(_ context.Context, customerID uuid.UUID) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.CustomerID == customerID {
			out = append(out, *copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PendingCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	var found []*model.Booking
	for _, b := range s.bookings {
		if b.Status == model.BookingPending && b.CreatedAt.Before(cutoff) {
			found = append(found, b)
		}
	}
	s.mu.RUnlock()
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	return limitIDs(found, limit), nil
}

func (s *Store) ConfirmedStartedBefore(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	var found []*model.Booking
	for _, b := range s.bookings {
		if b.Status != model.BookingConfirmed {
			continue
		}
		if scr, ok := s.screenings[b.ScreeningID]; ok && scr.HasStarted(now) {
			found = append(found, b)
		}
	}
	s.mu.RUnlock()
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	return limitIDs(found, limit), nil
}

func (s *Store) SetBill(_ context.Context, bookingID uuid.UUID, billID, paymentURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s: %w", bookingID, model.ErrNotFound)
	}
	b.BillID = &billID
	b.PaymentURL = &paymentURL
	return nil
}

func limitIDs(found []*model.Booking, limit int) []uuid.UUID {
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	ids := make([]uuid.UUID, len(found))
	for i, b := range found {
		ids[i] = b.ID
	}
	return ids
}

func copyBooking(b *model.Booking) *model.Booking {
	out := *b
	out.Seats = append([]model.BookingSeat(nil), b.Seats...)
	if b.BillID != nil {
		v := *b.BillID
		out.BillID = &v
	}
	if b.PaymentURL != nil {
		v := *b.PaymentURL
		out.PaymentURL = &v
	}
	return &out
}

// ---- customers ----

func (s *Store) GetCustomer(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, model.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) GetCustomerByTaxID(_ context.Context, taxID string) (*model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTaxID[taxID]
	if !ok {
		return nil, fmt.Errorf("customer with tax id %s: %w", taxID, model.ErrNotFound)
	}
	c := s.customers[id]
	return &c, nil
}

func (s *Store) CreateCustomer(_ context.Context, c *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTaxID[c.TaxID]; ok {
		return fmt.Errorf("%w: tax id already registered", model.ErrConflict)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.customers[c.ID] = *c
	s.byTaxID[c.TaxID] = c.ID
	return nil
}
