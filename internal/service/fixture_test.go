package service_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/andregamma/cinema-saas/internal/memstore"
	"github.com/andregamma/cinema-saas/internal/model"
	"github.com/andregamma/cinema-saas/internal/queue"
	"github.com/andregamma/cinema-saas/internal/service"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	store     *memstore.Store
	clock     *testClock
	events    *recordingPublisher
	ledger    *service.Ledger
	registry  *service.SeatRegistry
	generator *service.ScreeningGenerator
	exhibitor model.Exhibitor
	screen    model.Screen
	movie     model.Movie
	seats     map[string]model.Seat
	screening model.Screening
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newFixture builds screen "Room 1" with seats A1, A2 and B1 and one
// screening tomorrow at priceCents.
func newFixture(t *testing.T, priceCents int64, extra ...service.Option) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		clock:  &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		events: &recordingPublisher{},
		seats:  map[string]model.Seat{},
	}
	opts := append([]service.Option{
		service.WithClock(f.clock.Now),
		service.WithLogger(quietLogger()),
		service.WithPublisher(f.events),
	}, extra...)

	f.ledger = service.NewLedger(f.store, opts...)
	f.registry = service.NewSeatRegistry(f.store, f.store)
	f.generator = service.NewScreeningGenerator(f.store, f.store, opts...)

	f.exhibitor = f.store.AddExhibitor("Cine Centro")
	f.screen, _ = f.store.AddScreen(f.exhibitor.ID, "Room 1", 0, 0)
	for _, pos := range []struct{ row, col int }{{1, 1}, {1, 2}, {2, 1}} {
		seat, err := f.store.AddSeat(model.Seat{
			ScreenID:         f.screen.ID,
			Row:              pos.row,
			Column:           pos.col,
			RowIdentifier:    model.AxisLetter,
			ColumnIdentifier: model.AxisNumber,
			Status:           model.SeatEnabled,
		})
		require.NoError(t, err)
		f.seats[seat.Label()] = seat
	}
	f.movie = f.store.AddMovie(model.Movie{Title: "Central Station", DurationMinutes: 110, ImdbID: "tt0140888", TmdbID: "666"})

	start := f.clock.Now().Add(24 * time.Hour).Format(time.RFC3339)
	got, err := f.generator.GenerateScreenings(context.Background(), service.GenerateScreeningsRequest{
		MovieID:    f.movie.ID,
		ScreenIDs:  []uuid.UUID{f.screen.ID},
		StartTimes: []string{start},
		PriceCents: priceCents,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	f.screening = got[0]
	return f
}

func (f *fixture) selection(half map[string]bool, labels ...string) []service.SeatSelection {
	out := make([]service.SeatSelection, len(labels))
	for i, l := range labels {
		out[i] = service.SeatSelection{SeatID: f.seats[l].ID, HalfPrice: half[l]}
	}
	return out
}

func (f *fixture) book(t *testing.T, labels ...string) (*model.Booking, error) {
	t.Helper()
	return f.ledger.CreateBooking(context.Background(), service.CreateBookingRequest{
		CustomerID:  uuid.New(),
		ScreeningID: f.screening.ID,
		Seats:       f.selection(nil, labels...),
	})
}
