package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/andregamma/cinema-saas/internal/model"
)

const screeningColumns = `id, movie_id, screen_id, starts_at, ends_at, price_cents, created_at`

// ScreeningRepo persists screenings.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo returns a ScreeningRepo bound to db.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo { return &ScreeningRepo{db: db} }

func scanScreening(sc rowScanner) (model.Screening, error) {
	var s model.Screening
	err := sc.Scan(&s.ID, &s.MovieID, &s.ScreenID, &s.StartsAt, &s.EndsAt, &s.PriceCents, &s.CreatedAt)
	s.StartsAt = s.StartsAt.UTC()
	s.EndsAt = s.EndsAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, err
}

func getScreening(ctx context.Context, q querier, id uuid.UUID) (*model.Screening, error) {
	s, err := scanScreening(q.QueryRowContext(ctx, `SELECT `+screeningColumns+` FROM screenings WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "screening", id)
	}
	return &s, nil
}

func (r *ScreeningRepo) list(ctx context.Context, query string, args ...any) ([]model.Screening, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []model.Screening
	for rows.Next() {
		s, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// CreateScreenings inserts the whole batch with one statement inside a
// transaction, so either every screening is stored or none is.
func (r *ScreeningRepo) CreateScreenings(ctx context.Context, screenings []model.Screening) error {
	if len(screenings) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO screenings (` + screeningColumns + `) VALUES `
	args := make([]any, 0, len(screenings)*7)
	for i, s := range screenings {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		created := s.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		args = append(args, s.ID, s.MovieID, s.ScreenID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.PriceCents, created.UTC())
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}

// OverlappingScreenings returns screenings on screenID whose window
// intersects [start, end).
func (r *ScreeningRepo) OverlappingScreenings(ctx context.Context, screenID uuid.UUID, start, end time.Time) ([]model.Screening, error) {
	return r.list(ctx,
		`SELECT `+screeningColumns+` FROM screenings
		 WHERE screen_id = ? AND NOT (ends_at <= ? OR starts_at >= ?)
		 ORDER BY starts_at`,
		screenID, start.UTC(), end.UTC())
}

// GetScreening returns a screening.
func (r *ScreeningRepo) GetScreening(ctx context.Context, id uuid.UUID) (*model.Screening, error) {
	return getScreening(ctx, r.db, id)
}

// ListScreeningsByMovie returns a movie's screenings by start time.
func (r *ScreeningRepo) ListScreeningsByMovie(ctx context.Context, movieID uuid.UUID) ([]model.Screening, error) {
	return r.list(ctx,
		`SELECT `+screeningColumns+` FROM screenings WHERE movie_id = ? ORDER BY starts_at, screen_id`, movieID)
}
