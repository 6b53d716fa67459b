package database

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDSN(t *testing.T) {
	dsn := Settings{User: "cine", Pass: "s3cret", Host: "db", Port: "3306", Name: "cinema", LockWait: 5 * time.Second}.DSN()

	assert.True(t, strings.HasPrefix(dsn, "cine:s3cret@tcp(db:3306)/cinema?"), dsn)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "cine", cfg.User)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "cinema", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.True(t, cfg.ClientFoundRows)
	assert.Equal(t, "utf8mb4", cfg.Params["charset"])
	assert.Equal(t, "5", cfg.Params["innodb_lock_wait_timeout"])
}

func TestSettingsDSNWithoutLockWait(t *testing.T) {
	cfg, err := mysql.ParseDSN(Settings{User: "cine", Host: "db", Port: "3306", Name: "cinema"}.DSN())
	require.NoError(t, err)
	_, ok := cfg.Params["innodb_lock_wait_timeout"]
	assert.False(t, ok)
	assert.Equal(t, time.UTC, cfg.Loc)
}

func TestSchemaHasSeatClaimKey(t *testing.T) {
	var claims string
	for _, stmt := range schema {
		if strings.Contains(stmt, "TABLE IF NOT EXISTS seat_claims") {
			claims = stmt
		}
	}
	assert.Contains(t, claims, "PRIMARY KEY (screening_id, seat_id)")
}
