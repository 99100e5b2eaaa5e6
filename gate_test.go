package natours

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/natours/account"
)

func TestGateAcceptsWithinLifetimeAndRejectsAfter(t *testing.T) {
	env := newTestEnv(t)
	s := env.signup(t, "a@b.com", "secret123")

	env.clock.Advance(30 * time.Minute)
	access, err := env.gate(t, s.Token)
	if err != nil {
		t.Fatalf("expected token accepted within lifetime: %v", err)
	}
	if access.Account == nil || access.Account.ID != s.Account.ID {
		t.Fatalf("expected account %s, got %+v", s.Account.ID, access.Account)
	}
	if access.Claims == nil || access.Claims.AccountID != s.Account.ID {
		t.Fatalf("unexpected claims: %+v", access.Claims)
	}

	env.clock.Advance(31 * time.Minute)
	_, err = env.gate(t, s.Token)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after expiry, got %v", err)
	}
	if ErrorMessage(err) != "your token has expired, please log in again" {
		t.Fatalf("unexpected message %q", ErrorMessage(err))
	}
}

func TestGateRejectsMissingAndGarbageTokens(t *testing.T) {
	env := newTestEnv(t)

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := env.gate(t, token); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("token %q: expected ErrNotAuthenticated, got %v", token, err)
		}
	}
}

func TestGateRejectsDeletedAndDeactivatedAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gone := env.signup(t, "gone@b.com", "secret123")
	if err := env.engine.DeleteAccount(ctx, "admin", gone.Account.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	_, err := env.gate(t, gone.Token)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for deleted account, got %v", err)
	}
	if ErrorMessage(err) != "the user belonging to this token no longer exists" {
		t.Fatalf("unexpected message %q", ErrorMessage(err))
	}

	quiet := env.signup(t, "quiet@b.com", "secret123")
	if err := env.engine.Deactivate(ctx, quiet.Account.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if _, err := env.gate(t, quiet.Token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for inactive account, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "quiet@b.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected inactive account login to fail, got %v", err)
	}
}

func TestPasswordChangeInvalidatesEveryEarlierToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.signup(t, "a@b.com", "secret123")

	env.clock.Advance(time.Second)
	second, err := env.engine.Login(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	env.clock.Advance(time.Second)
	fresh, err := env.engine.UpdatePassword(ctx, first.Account.ID, "secret123", "newsecret456", "newsecret456")
	if err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	for _, old := range []string{first.Token, second.Token} {
		if _, err := env.gate(t, old); !errors.Is(err, ErrStaleSession) {
			t.Fatalf("expected ErrStaleSession, got %v", err)
		}
	}
	if _, err := env.gate(t, fresh.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
}

func TestStalenessUsesMillisecondPrecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.signup(t, "a@b.com", "secret123")

	// Same second, later millisecond: the old token must still go stale.
	env.clock.Advance(250 * time.Millisecond)
	fresh, err := env.engine.UpdatePassword(ctx, s.Account.ID, "secret123", "newsecret456", "newsecret456")
	if err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	if _, err := env.gate(t, s.Token); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
	if _, err := env.gate(t, fresh.Token); err != nil {
		t.Fatalf("token issued with the change rejected: %v", err)
	}
}

func TestRestrictTo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.signup(t, "user@b.com", "secret123")
	admin := env.signup(t, "admin@b.com", "secret123")
	role := account.RoleAdmin
	if _, err := env.engine.AdminUpdateAccount(ctx, "root", admin.Account.ID, AdminUpdate{Role: &role}); err != nil {
		t.Fatalf("AdminUpdateAccount failed: %v", err)
	}

	adminsOnly := env.engine.RestrictTo(account.MustRoleSet(account.RoleAdmin))

	if _, err := env.gate(t, user.Token, adminsOnly); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for user, got %v", err)
	}
	access, err := env.gate(t, admin.Token, adminsOnly)
	if err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if access.Account.Role != account.RoleAdmin {
		t.Fatalf("expected admin role, got %q", access.Account.Role)
	}

	guides := env.engine.RestrictTo(account.MustRoleSet(account.RoleGuide, account.RoleLeadGuide))
	if _, err := env.gate(t, admin.Token, guides); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected no role hierarchy, got %v", err)
	}

	nobody := env.engine.RestrictTo(account.RoleSet{})
	if _, err := env.gate(t, admin.Token, nobody); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected empty set to deny, got %v", err)
	}

	if got := env.engine.MetricsSnapshot().Counters[MetricAccessDenied]; got != 3 {
		t.Fatalf("expected 3 denials, got %d", got)
	}
}

func TestRestrictToRequiresResolvedAccount(t *testing.T) {
	env := newTestEnv(t)
	check := env.engine.RestrictTo(account.MustRoleSet(account.RoleUser))
	if err := check(context.Background(), &Access{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCurrentAccountIsSoft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.signup(t, "a@b.com", "secret123")

	if got := env.engine.CurrentAccount(ctx, s.Token); got == nil || got.ID != s.Account.ID {
		t.Fatalf("expected current account, got %+v", got)
	}
	if got := env.engine.CurrentAccount(ctx, ""); got != nil {
		t.Fatalf("expected nil for empty token, got %+v", got)
	}
	if got := env.engine.CurrentAccount(ctx, "garbage"); got != nil {
		t.Fatalf("expected nil for garbage token, got %+v", got)
	}

	env.clock.Advance(time.Second)
	if _, err := env.engine.UpdatePassword(ctx, s.Account.ID, "secret123", "newsecret456", "newsecret456"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	if got := env.engine.CurrentAccount(ctx, s.Token); got != nil {
		t.Fatalf("expected nil for stale token, got %+v", got)
	}
}

func TestPipelineStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var ran []int
	p := Pipeline{
		func(context.Context, *Access) error { ran = append(ran, 1); return nil },
		func(context.Context, *Access) error { ran = append(ran, 2); return boom },
		func(context.Context, *Access) error { ran = append(ran, 3); return nil },
	}
	if err := p.Run(context.Background(), &Access{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected 2 checks to run, got %v", ran)
	}
}

func TestGateLatencyRecorded(t *testing.T) {
	env := newTestEnv(t)
	s := env.signup(t, "a@b.com", "secret123")
	if _, err := env.gate(t, s.Token); err != nil {
		t.Fatalf("gate failed: %v", err)
	}

	var total uint64
	for _, n := range env.engine.MetricsSnapshot().Histograms[MetricGateLatency] {
		total += n
	}
	if total != 1 {
		t.Fatalf("expected one latency sample, got %d", total)
	}
}
