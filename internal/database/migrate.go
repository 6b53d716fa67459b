package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates every table the service needs. seat_claims is the
// exclusion relation: its primary key allows one claim per seat per
// screening, and rows are deleted when the claiming booking is canceled.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS exhibitors (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS screens (
		id CHAR(36) NOT NULL PRIMARY KEY,
		exhibitor_id CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		capacity INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		CONSTRAINT fk_screens_exhibitor FOREIGN KEY (exhibitor_id) REFERENCES exhibitors(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seats (
		id CHAR(36) NOT NULL PRIMARY KEY,
		screen_id CHAR(36) NOT NULL,
		seat_row INT NOT NULL,
		seat_column INT NOT NULL,
		row_identifier ENUM('number','letter') NOT NULL DEFAULT 'letter',
		column_identifier ENUM('number','letter') NOT NULL DEFAULT 'number',
		status ENUM('enabled','disabled','temporarily_disabled') NOT NULL DEFAULT 'enabled',
		UNIQUE KEY uq_seats_position (screen_id, seat_row, seat_column),
		CONSTRAINT fk_seats_screen FOREIGN KEY (screen_id) REFERENCES screens(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS movies (
		id CHAR(36) NOT NULL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		duration_minutes INT NOT NULL,
		imdb_id VARCHAR(32) NOT NULL,
		tmdb_id VARCHAR(32) NOT NULL,
		UNIQUE KEY uq_movies_imdb (imdb_id),
		UNIQUE KEY uq_movies_tmdb (tmdb_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS screenings (
		id CHAR(36) NOT NULL PRIMARY KEY,
		movie_id CHAR(36) NOT NULL,
		screen_id CHAR(36) NOT NULL,
		starts_at DATETIME(6) NOT NULL,
		ends_at DATETIME(6) NOT NULL,
		price_cents BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_screenings_screen_time (screen_id, starts_at),
		KEY idx_screenings_movie_time (movie_id, starts_at),
		CONSTRAINT fk_screenings_movie FOREIGN KEY (movie_id) REFERENCES movies(id),
		CONSTRAINT fk_screenings_screen FOREIGN KEY (screen_id) REFERENCES screens(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS customers (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		tax_id VARCHAR(14) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_customers_tax_id (tax_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) NOT NULL PRIMARY KEY,
		customer_id CHAR(36) NOT NULL,
		screening_id CHAR(36) NOT NULL,
		status ENUM('pending','confirmed','canceled','completed') NOT NULL DEFAULT 'pending',
		bill_id VARCHAR(128) NULL,
		payment_url VARCHAR(512) NULL,
		total_cents BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_bookings_status_created (status, created_at),
		KEY idx_bookings_customer (customer_id, created_at),
		KEY idx_bookings_screening (screening_id),
		CONSTRAINT fk_bookings_customer FOREIGN KEY (customer_id) REFERENCES customers(id),
		CONSTRAINT fk_bookings_screening FOREIGN KEY (screening_id) REFERENCES screenings(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS booking_seats (
		id CHAR(36) NOT NULL PRIMARY KEY,
		booking_id CHAR(36) NOT NULL,
		seat_id CHAR(36) NOT NULL,
		half_price BOOLEAN NOT NULL DEFAULT FALSE,
		price_cents BIGINT NOT NULL,
		UNIQUE KEY uq_booking_seats (booking_id, seat_id),
		CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
		CONSTRAINT fk_booking_seats_seat FOREIGN KEY (seat_id) REFERENCES seats(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seat_claims (
		screening_id CHAR(36) NOT NULL,
		seat_id CHAR(36) NOT NULL,
		booking_id CHAR(36) NOT NULL,
		PRIMARY KEY (screening_id, seat_id),
		KEY idx_seat_claims_booking (booking_id),
		CONSTRAINT fk_seat_claims_screening FOREIGN KEY (screening_id) REFERENCES screenings(id),
		CONSTRAINT fk_seat_claims_seat FOREIGN KEY (seat_id) REFERENCES seats(id),
		CONSTRAINT fk_seat_claims_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates missing tables. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
