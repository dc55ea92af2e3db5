// Package sqlstore implements the credential store on database/sql. SQLite is
// the default engine; Postgres is selected with the postgres dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/collabspace/collabspace/internal/core/domain"
)

const defaultTimeout = 5 * time.Second

// Store implements ports.IdentityRepository.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Open connects to the engine selected by driver and verifies the connection.
// SQLite is limited to a single connection so in-memory databases are shared
// and writes are serialized.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore open: %w", err)
	}
	if _, ok := dialect.(SQLite); ok {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore ping: %w", err)
	}

	return New(db, dialect), nil
}

// Migrate creates the users table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema()); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// Create relies on the UNIQUE constraint on email; a collision aborts the
// single INSERT so nothing is written.
func (s *Store) Create(ctx context.Context, identity *domain.Identity) (string, error) {
	if identity.Name == "" || identity.Email == "" || identity.PasswordHash == "" || !identity.Role.Valid() {
		return "", domain.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := identity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := s.dialect.Rebind(`INSERT INTO users (name, email, password_hash, role, created_at)
VALUES (?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		identity.Name, identity.Email, identity.PasswordHash, string(identity.Role), createdAt,
	).Scan(&id)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return "", domain.ErrDuplicateIdentity
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := s.dialect.Rebind(`SELECT id, name, email, password_hash, role, created_at
FROM users WHERE email = ?`)

	var (
		id   int64
		role string
		u    domain.Identity
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	u.Role = domain.Role(role)
	return &u, nil
}

func (s *Store) List(ctx context.Context) ([]domain.IdentitySummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.IdentitySummary, 0)
	for rows.Next() {
		var (
			id   int64
			role string
			u    domain.IdentitySummary
		)
		if err := rows.Scan(&id, &u.Name, &u.Email, &role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ID = strconv.FormatInt(id, 10)
		u.Role = domain.Role(role)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
