package db

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Migrate creates the tables for the connection's driver. Safe to call on
// every start.
func Migrate(conn *sqlx.DB) error {
	stmts, ok := schemas[conn.DriverName()]
	if !ok {
		return errors.Errorf("no schema for driver %q", conn.DriverName())
	}

	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return errors.Wrap(err, "failed to create schema")
		}
	}

	return nil
}

var schemas = map[string][]string{
	"sqlite": {`
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		device_id TEXT UNIQUE NOT NULL,
		code TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		ticket_data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
		`CREATE INDEX IF NOT EXISTS idx_players_created_at ON players(created_at)`,
	},
	"postgres": {`
	CREATE TABLE IF NOT EXISTS players (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		device_id TEXT UNIQUE NOT NULL,
		code TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		ticket_data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
		`CREATE INDEX IF NOT EXISTS idx_players_created_at ON players(created_at)`,
	},
	"mysql": {`
	CREATE TABLE IF NOT EXISTS players (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		device_id VARCHAR(64) NOT NULL UNIQUE,
		code VARCHAR(32) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL DEFAULT '',
		ticket_data TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_players_created_at (created_at)
	)`,
	},
}
