package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/collabspace/collabspace/internal/core/domain"
)

var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newManager(t *testing.T, clock *fakeClock) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("secret", WithClock(clock.now))
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

var ada = domain.Principal{ID: "7", Email: "ada@x.com", Name: "Ada", Role: domain.RoleUser}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	if _, err := NewJWTManager(""); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestJWTManager_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	m := newManager(t, clock)

	token, exp, err := m.Issue(ada)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(issuedAt.Add(time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", issuedAt.Add(time.Hour), exp)
	}

	clock.t = issuedAt.Add(59 * time.Minute)
	p, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if *p != ada {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestJWTManager_Claims(t *testing.T) {
	m := newManager(t, &fakeClock{t: issuedAt})
	token, _, _ := m.Issue(ada)

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "7" || claims.Subject != "7" || claims.Email != "ada@x.com" || claims.Name != "Ada" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %v", got)
	}
}

func TestJWTManager_UniqueTokenIDs(t *testing.T) {
	m := newManager(t, &fakeClock{t: issuedAt})
	a, _, _ := m.Issue(ada)
	b, _, _ := m.Issue(ada)
	if a == b {
		t.Fatalf("expected distinct tokens for the same principal")
	}
}

func TestJWTManager_Expired(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	m := newManager(t, clock)
	token, _, _ := m.Issue(ada)

	for _, at := range []time.Time{issuedAt.Add(time.Hour), issuedAt.Add(2 * time.Hour)} {
		clock.t = at
		_, err := m.Verify(token)
		if !errors.Is(err, domain.ErrTokenExpired) {
			t.Fatalf("at %v: expected ErrTokenExpired, got %v", at, err)
		}
		if !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("at %v: expected ErrInvalidToken wrapper, got %v", at, err)
		}
	}
}

// flip replaces the character at i with a different base64url character.
func flip(s string, i int) string {
	c := byte('A')
	if s[i] == 'A' {
		c = 'B'
	}
	return s[:i] + string(c) + s[i+1:]
}

func TestJWTManager_Tampered(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	m := newManager(t, clock)
	token, _, _ := m.Issue(ada)
	parts := strings.Split(token, ".")
	header, payload := len(parts[0]), len(parts[1])

	positions := map[string]int{
		"header":           1,
		"payload start":    header + 1,
		"payload middle":   header + 1 + payload/2,
		"signature start":  header + payload + 2,
		"signature middle": header + payload + 2 + len(parts[2])/2,
	}
	for name, pos := range positions {
		_, err := m.Verify(flip(token, pos))
		if !errors.Is(err, domain.ErrInvalidSignature) {
			t.Errorf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	token, _, _ := newManager(t, clock).Issue(ada)

	other, _ := NewJWTManager("rotated", WithClock(clock.now))
	if _, err := other.Verify(token); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestJWTManager_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	m := newManager(t, clock)

	claims := Claims{
		UserID: "1", Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour))},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Verify(none); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if _, err := m.Verify(hs512); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected HS512 to be rejected, got %v", err)
	}
}

func TestJWTManager_RequiresExpiry(t *testing.T) {
	m := newManager(t, &fakeClock{t: issuedAt})
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "1", Role: domain.RoleUser}).SignedString([]byte("secret"))
	if _, err := m.Verify(noExp); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}

func TestJWTManager_UnknownRole(t *testing.T) {
	m := newManager(t, &fakeClock{t: issuedAt})
	claims := Claims{
		UserID: "1", Role: "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour))},
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if _, err := m.Verify(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
}

func TestJWTManager_Garbage(t *testing.T) {
	m := newManager(t, &fakeClock{t: issuedAt})
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(tok); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Errorf("%q: expected ErrInvalidSignature, got %v", tok, err)
		}
	}
}
