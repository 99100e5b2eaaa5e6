package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte(strings.Repeat("k", MinSecretLength))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 10, 0, 0, int(250*time.Millisecond), time.UTC)}
}

func newHSManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		TTL:           90 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		Issuer:        "natours",
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	clock := newClock()
	m := newHSManager(t, clock)

	tok, err := m.Issue("acct-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Parse(tok.Value)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != "acct-1" {
		t.Fatalf("unexpected account id %q", claims.AccountID)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
	if !claims.IssuedAtTime().Equal(clock.Now().Truncate(time.Millisecond)) {
		t.Fatalf("issued at %v, want %v", claims.IssuedAtTime(), clock.Now())
	}
	if !tok.IssuedAt.Equal(claims.IssuedAtTime()) {
		t.Fatal("token metadata must match embedded issue time")
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	m := newHSManager(t, newClock())
	a, _ := m.Issue("acct-1")
	b, _ := m.Issue("acct-1")
	if a.Value == b.Value {
		t.Fatal("jti must make same-instant tokens distinct")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	clock := newClock()
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testSecret, Now: clock.Now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, _ := m.Issue("acct-1")
	clock.Advance(2 * time.Minute)
	if _, err := m.Parse(tok.Value); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseRejectsTampered(t *testing.T) {
	m := newHSManager(t, newClock())
	tok, _ := m.Issue("acct-1")

	parts := strings.Split(tok.Value, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	for _, raw := range []string{"", "garbage", "a.b.c", tampered} {
		if _, err := m.Parse(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	clock := newClock()
	m := newHSManager(t, clock)
	other, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte(strings.Repeat("z", MinSecretLength)),
		Issuer:        "natours",
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, _ := other.Issue("acct-1")
	if _, err := m.Parse(tok.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token to fail, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	clock := newClock()
	m := newHSManager(t, clock)

	claims := Claims{AccountID: "acct-1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "natours",
		IssuedAt:  gjwt.NewNumericDate(clock.Now()),
		ExpiresAt: gjwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}}
	none, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Parse(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}

	hs512, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString(testSecret)
	if _, err := m.Parse(hs512); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected HS512 to be rejected, got %v", err)
	}
}

func TestParseRejectsMissingAccountID(t *testing.T) {
	clock := newClock()
	m := newHSManager(t, clock)
	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "natours",
		IssuedAt:  gjwt.NewNumericDate(clock.Now()),
		ExpiresAt: gjwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}}
	raw, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if _, err := m.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected missing id to fail, got %v", err)
	}
}

func TestParseRejectsFutureIssuedAt(t *testing.T) {
	clock := newClock()
	m := newHSManager(t, clock)
	future := clock.Now().Add(time.Hour)
	claims := Claims{AccountID: "acct-1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "natours",
		IssuedAt:  gjwt.NewNumericDate(future),
		ExpiresAt: gjwt.NewNumericDate(future.Add(time.Hour)),
	}}
	raw, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if _, err := m.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected future iat to fail, got %v", err)
	}
}

func TestIssuedAtFallsBackToSeconds(t *testing.T) {
	clock := newClock()
	m := newHSManager(t, clock)
	claims := Claims{AccountID: "acct-1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "natours",
		IssuedAt:  gjwt.NewNumericDate(clock.Now()),
		ExpiresAt: gjwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}}
	raw, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	parsed, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.IssuedAtTime().Equal(clock.Now().Truncate(time.Second)) {
		t.Fatalf("expected floored seconds, got %v", parsed.IssuedAtTime())
	}
}

func TestEd25519WithKeyRotation(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(rand.Reader)
	pub2, _, _ := ed25519.GenerateKey(rand.Reader)
	clock := newClock()

	m, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub1, "k2": pub2},
		Audience:      "api",
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, err := m.Issue("acct-9")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(tok.Value); err != nil {
		t.Fatalf("parse: %v", err)
	}

	verifyOnly, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodEd25519,
		VerifyKeys:    map[string][]byte{"k2": pub2},
		Audience:      "api",
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := verifyOnly.Parse(tok.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected unknown kid to fail, got %v", err)
	}
	if _, err := verifyOnly.Issue("acct-9"); err == nil {
		t.Fatal("verify-only manager must not issue")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []Config{
		{TTL: 0, SigningMethod: MethodHS256, PrivateKey: testSecret},
		{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("short")},
		{TTL: time.Hour, SigningMethod: "rs256", PrivateKey: testSecret},
		{TTL: time.Hour, SigningMethod: MethodEd25519},
		{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testSecret, Leeway: time.Hour},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}

func FuzzParse(f *testing.F) {
	m, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testSecret})
	if err != nil {
		f.Fatal(err)
	}
	valid, err := m.Issue("acct-1")
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid.Value)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJpZCI6InRlc3QifQ.")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := m.Parse(input)
		if err == nil && claims == nil {
			t.Fatal("Parse returned nil claims without error")
		}
	})
}
