package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/collabspace/collabspace/internal/core/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return s
}

func identity(name, email string, role domain.Role) *domain.Identity {
	return &domain.Identity{Name: name, Email: email, PasswordHash: "$2a$10$hash-" + email, Role: role}
}

func TestStore_CreateAndFind(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, identity("Ada", "ada@x.com", domain.RoleUser))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}

	got, err := s.FindByEmail(ctx, "ada@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.ID != id || got.Name != "Ada" || got.Role != domain.RoleUser || got.PasswordHash != "$2a$10$hash-ada@x.com" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestStore_FindByEmail_NotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.FindByEmail(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestStore_FindByEmail_CaseSensitive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, identity("Ada", "Ada@x.com", domain.RoleUser)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.FindByEmail(ctx, "ada@x.com"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected no normalization of email, got %v", err)
	}
	if _, err := s.Create(ctx, identity("Ada2", "ada@x.com", domain.RoleUser)); err != nil {
		t.Fatalf("differently cased email should be distinct: %v", err)
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, identity("Ada", "ada@x.com", domain.RoleUser)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, identity("Imposter", "ada@x.com", domain.RoleAdmin)); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Ada" {
		t.Fatalf("expected exactly the original record, got %+v", list)
	}
}

func TestStore_Create_ConcurrentDuplicates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, identity(fmt.Sprintf("u%d", i), "same@x.com", domain.RoleUser))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrDuplicateIdentity):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 1 || dups != n-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", n-1, ok, dups)
	}
}

func TestStore_Create_InvalidInput(t *testing.T) {
	s := setupTestStore(t)
	cases := []*domain.Identity{
		{Email: "a@x.com", PasswordHash: "h", Role: domain.RoleUser},
		{Name: "A", PasswordHash: "h", Role: domain.RoleUser},
		{Name: "A", Email: "a@x.com", Role: domain.RoleUser},
		{Name: "A", Email: "a@x.com", PasswordHash: "h", Role: "ROOT"},
	}
	for i, c := range cases {
		if _, err := s.Create(context.Background(), c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestStore_List_OrderedWithoutHashes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, u := range []*domain.Identity{
		identity("Ada", "ada@x.com", domain.RoleAdmin),
		identity("Bob", "bob@x.com", domain.RoleUser),
		identity("Cy", "cy@x.com", domain.RoleUser),
	} {
		if _, err := s.Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 identities, got %d", len(list))
	}
	for i, want := range []string{"Ada", "Bob", "Cy"} {
		if list[i].Name != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, list[i].Name)
		}
	}
	if list[0].Role != domain.RoleAdmin || list[1].Role != domain.RoleUser {
		t.Fatalf("roles not preserved: %+v", list)
	}
}

func TestStore_List_Empty(t *testing.T) {
	s := setupTestStore(t)
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}

func TestStore_Ping(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "dsn"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestPostgres_Rebind(t *testing.T) {
	got := Postgres{}.Rebind("SELECT * FROM users WHERE email = ? AND role = ?")
	want := "SELECT * FROM users WHERE email = $1 AND role = $2"
	if got != want {
		t.Fatalf("Rebind = %q, want %q", got, want)
	}
}

func TestPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users .* VALUES \(\$1, \$2, \$3, \$4, \$5\) RETURNING id`).
		WithArgs("Ada", "ada@x.com", "hash", "USER", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := New(db, Postgres{}).Create(context.Background(), &domain.Identity{
		Name: "Ada", Email: "ada@x.com", PasswordHash: "hash", Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != "42" {
		t.Fatalf("expected id 42, got %s", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgres_Create_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err = New(db, Postgres{}).Create(context.Background(), identity("Ada", "ada@x.com", domain.RoleUser))
	if !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestPostgres_Create_OtherError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("connection reset"))

	_, err = New(db, Postgres{}).Create(context.Background(), identity("Ada", "ada@x.com", domain.RoleUser))
	if err == nil || errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected a wrapped internal error, got %v", err)
	}
}

func TestPostgres_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, email, password_hash, role, created_at\s+FROM users WHERE email = \$1`).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}))

	if _, err := New(db, Postgres{}).FindByEmail(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}
