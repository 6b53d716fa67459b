package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Settings describes how to reach MySQL.
type Settings struct {
	User     string
	Pass     string
	Host     string
	Port     string
	Name     string
	MaxOpen  int
	MaxIdle  int
	Lifetime time.Duration
	// LockWait bounds how long a statement waits on a row lock before
	// InnoDB gives up with error 1205.
	LockWait time.Duration
}

// DSN renders the driver connection string. parseTime maps DATETIME to
// time.Time and loc=UTC keeps times consistent. clientFoundRows makes
// RowsAffected count matched rows, so an UPDATE that changes nothing
// still reports the row as found.
func (s Settings) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Pass
	cfg.Net = "tcp"
	cfg.Addr = s.Host + ":" + s.Port
	cfg.DBName = s.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if s.LockWait > 0 {
		cfg.Params["innodb_lock_wait_timeout"] = fmt.Sprintf("%d", int(s.LockWait.Seconds()))
	}
	return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(s Settings) (*sql.DB, error) {
	db, err := sql.Open("mysql", s.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	if s.MaxOpen <= 0 {
		s.MaxOpen = 25
	}
	if s.MaxIdle <= 0 {
		s.MaxIdle = s.MaxOpen
	}
	if s.Lifetime <= 0 {
		s.Lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(s.MaxOpen)
	db.SetMaxIdleConns(s.MaxIdle)
	db.SetConnMaxLifetime(s.Lifetime)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
