package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

// CatalogRepo reads and seeds exhibitors, screens and movies.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a CatalogRepo bound to db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) exists(ctx context.Context, q string, id uuid.UUID) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}
	return true, nil
}

// ScreenExists reports whether a screen with id exists.
func (r *CatalogRepo) ScreenExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM screens WHERE id = ? LIMIT 1`, id)
}

// MovieExists reports whether a movie with id exists.
func (r *CatalogRepo) MovieExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM movies WHERE id = ? LIMIT 1`, id)
}

// GetScreen returns a screen. A screen whose exhibitor row is gone comes
// back with a nil ExhibitorID.
func (r *CatalogRepo) GetScreen(ctx context.Context, id uuid.UUID) (*model.Screen, error) {
	const q = `SELECT s.id, COALESCE(e.id, ''), s.name, s.capacity
	           FROM screens s
	           LEFT JOIN exhibitors e ON e.id = s.exhibitor_id
	           WHERE s.id = ?`
	var (
		s  model.Screen
		ex string
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &ex, &s.Name, &s.Capacity); err != nil {
		return nil, notFound(err, "screen", id)
	}
	if ex != "" {
		parsed, err := uuid.Parse(ex)
		if err != nil {
			return nil, err
		}
		s.ExhibitorID = parsed
	}
	return &s, nil
}

// GetMovie returns a movie.
func (r *CatalogRepo) GetMovie(ctx context.Context, id uuid.UUID) (*model.Movie, error) {
	const q = `SELECT id, title, description, duration_minutes, imdb_id, tmdb_id FROM movies WHERE id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&m.ID, &m.Title, &m.Description, &m.DurationMinutes, &m.ImdbID, &m.TmdbID)
	if err != nil {
		return nil, notFound(err, "movie", id)
	}
	return &m, nil
}

// CreateExhibitor inserts an exhibitor, assigning an id when missing.
func (r *CatalogRepo) CreateExhibitor(ctx context.Context, e *model.Exhibitor) error {
	if e.ID == uuid.Nil {
		e.ID = model.NewID()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO exhibitors (id, name) VALUES (?, ?)`, e.ID, e.Name)
	return classify(err)
}

// CreateMovie inserts a movie. Duplicate IMDb or TMDb ids yield
// model.ErrInvalidArgument.
func (r *CatalogRepo) CreateMovie(ctx context.Context, m *model.Movie) error {
	if m.ID == uuid.Nil {
		m.ID = model.NewID()
	}
	const q = `INSERT INTO movies (id, title, description, duration_minutes, imdb_id, tmdb_id) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.Title, m.Description, m.DurationMinutes, m.ImdbID, m.TmdbID)
	if isDuplicate(err) {
		return fmt.Errorf("%w: movie %s already registered", model.ErrInvalidArgument, m.ImdbID)
	}
	return classify(err)
}

// CreateScreen inserts a screen and a rows x cols grid of enabled seats in
// one transaction. Rows are lettered and columns numbered.
func (r *CatalogRepo) CreateScreen(ctx context.Context, s *model.Screen, rows, cols int) ([]model.Seat, error) {
	if s.ID == uuid.Nil {
		s.ID = model.NewID()
	}
	s.Capacity = rows * cols

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `INSERT INTO screens (id, exhibitor_id, name, capacity) VALUES (?, ?, ?, ?)`,
		s.ID, s.ExhibitorID, s.Name, s.Capacity); err != nil {
		return nil, classify(err)
	}

	seats := model.SeatGrid(s.ID, rows, cols)
	if err := insertSeats(ctx, tx, seats); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	committed = true
	return seats, nil
}

func insertSeats(ctx context.Context, q querier, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (id, screen_id, seat_row, seat_column, row_identifier, column_identifier, status) VALUES `
	args := make([]any, 0, len(seats)*7)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, s.ID, s.ScreenID, s.Row, s.Column, s.RowIdentifier, s.ColumnIdentifier, s.Status)
	}
	_, err := q.ExecContext(ctx, query, args...)
	if isDuplicate(err) {
		return fmt.Errorf("%w: seat position already taken on screen", model.ErrInvalidArgument)
	}
	return classify(err)
}
