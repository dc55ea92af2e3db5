package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect interface {
	// DriverName is the database/sql driver registered for the engine.
	DriverName() string
	// Rebind rewrites '?' placeholders into the engine's native form.
	Rebind(query string) string
	Schema() string
	IsUniqueViolation(err error) bool
}

// DialectFor returns the dialect for a store driver name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "postgres", "pgx":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", name)
	}
}

type SQLite struct{}

func (SQLite) DriverName() string         { return "sqlite3" }
func (SQLite) Rebind(query string) string { return query }

func (SQLite) Schema() string {
	return `CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('ADMIN', 'USER')),
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
}

func (SQLite) IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

type Postgres struct{}

func (Postgres) DriverName() string { return "pgx" }

func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (Postgres) Schema() string {
	return `CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('ADMIN', 'USER')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`
}

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

func (Postgres) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
