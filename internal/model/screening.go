package model

import (
	"time"

	"github.com/google/uuid"
)

// Movie is a catalog title. ImdbID and TmdbID are unique external catalog
// identifiers.
type Movie struct {
	ID              uuid.UUID // movies.id
	Title           string    // movies.title
	Description     string    // movies.description
	DurationMinutes int       // movies.duration_minutes
	ImdbID          string    // movies.imdb_id
	TmdbID          string    // movies.tmdb_id
}

// Duration returns the running time as a time.Duration.
func (m Movie) Duration() time.Duration {
	return time.Duration(m.DurationMinutes) * time.Minute
}

// Screening is a scheduled showing of a movie on one screen. StartsAt and
// EndsAt are stored in UTC; EndsAt is StartsAt plus the movie duration.
//
// Fields:
//
//	ID         – primary key identifier.
//	MovieID    – movie being shown.
//	ScreenID   – screen where the screening takes place.
//	StartsAt   – when the screening begins.
//	EndsAt     – when the screening ends.
//	PriceCents – full ticket price in cents.
//	CreatedAt  – creation timestamp.
type Screening struct {
	ID         uuid.UUID // screenings.id
	MovieID    uuid.UUID // screenings.movie_id
	ScreenID   uuid.UUID // screenings.screen_id
	StartsAt   time.Time // screenings.starts_at
	EndsAt     time.Time // screenings.ends_at
	PriceCents int64     // screenings.price_cents
	CreatedAt  time.Time // screenings.created_at
}

// HasStarted reports whether the screening start time is at or before now.
func (s Screening) HasStarted(now time.Time) bool {
	return !s.StartsAt.After(now)
}

// Overlaps reports whether the half-open windows [StartsAt, EndsAt) of
// both screenings intersect.
func (s Screening) Overlaps(o Screening) bool {
	return s.StartsAt.Before(o.EndsAt) && o.StartsAt.Before(s.EndsAt)
}

// HalfPriceCents is the discounted seat price. Odd cent amounts round up.
func HalfPriceCents(price int64) int64 {
	return (price + 1) / 2
}
