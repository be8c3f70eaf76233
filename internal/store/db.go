package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB opens a Postgres pool and verifies it answers.
func NewDB(ctx context.Context, connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{Client: db}, nil
}

// schema is idempotent. The unique index on lower(mobile) and the unique
// qr_code constraint are what keep concurrent imports from double-inserting;
// their names are matched by the meals repository.
const schema = `
CREATE TABLE IF NOT EXISTS participants (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT,
	mobile      TEXT NOT NULL,
	team_name   TEXT NOT NULL,
	qr_code     TEXT NOT NULL,
	breakfast   BOOLEAN NOT NULL DEFAULT FALSE,
	lunch       BOOLEAN NOT NULL DEFAULT FALSE,
	dinner      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT participants_qr_code_key UNIQUE (qr_code)
);

CREATE UNIQUE INDEX IF NOT EXISTS participants_mobile_lower_key ON participants (lower(mobile));
CREATE INDEX IF NOT EXISTS participants_login_idx ON participants (lower(name), lower(team_name));
CREATE INDEX IF NOT EXISTS participants_created_idx ON participants (created_at DESC);

CREATE TABLE IF NOT EXISTS admins (
	id             TEXT PRIMARY KEY,
	username       TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT admins_username_key UNIQUE (username)
);
`

// Migrate creates the tables and indexes if they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
