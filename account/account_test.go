package account

import (
	"errors"
	"testing"
	"time"
)

func TestNewAccountDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewAccount(NewAccountInput{
		Name:         "  Ann ",
		Email:        " Ann@Example.COM ",
		PasswordHash: "hash",
	}, now)
	if err != nil {
		t.Fatalf("NewAccount failed: %v", err)
	}
	if a.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", a.Email)
	}
	if a.Name != "Ann" {
		t.Fatalf("expected trimmed name, got %q", a.Name)
	}
	if a.Role != DefaultRole {
		t.Fatalf("expected default role, got %q", a.Role)
	}
	if a.Photo != DefaultPhoto || !a.Active {
		t.Fatalf("unexpected defaults: %+v", a)
	}
}

func TestNewAccountRejectsBadInput(t *testing.T) {
	now := time.Now()
	cases := []NewAccountInput{
		{Name: "", Email: "a@b.io", PasswordHash: "h"},
		{Name: "A", Email: "not-an-email", PasswordHash: "h"},
		{Name: "A", Email: "a@b.io"},
	}
	for i, in := range cases {
		if _, err := NewAccount(in, now); !errors.Is(err, ErrInvalid) {
			t.Fatalf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
}

func TestChangedPasswordAfter(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var a Account
	if a.ChangedPasswordAfter(issued) {
		t.Fatal("account without change timestamp must never be stale")
	}

	changed := issued.Add(time.Millisecond)
	a.PasswordChangedAt = &changed
	if !a.ChangedPasswordAfter(issued) {
		t.Fatal("expected change after issuance to be detected")
	}
	if a.ChangedPasswordAfter(changed) {
		t.Fatal("equal instants are not a later change")
	}
}

func TestUpdateApplyResetPairing(t *testing.T) {
	now := time.Now().UTC()
	a := Account{Name: "A", Email: "a@b.io", Role: RoleUser}

	a = Update{Reset: &ResetToken{Hash: "abc", ExpiresAt: now.Add(10 * time.Minute)}}.Apply(a)
	if !a.HasPendingReset(now) {
		t.Fatal("expected pending reset")
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("paired reset fields should validate: %v", err)
	}

	a = SetPassword("newhash", now).Apply(a)
	if a.ResetTokenHash != "" || a.ResetTokenExpiresAt != nil {
		t.Fatal("SetPassword must clear both reset fields")
	}
	if a.PasswordHash != "newhash" || a.PasswordChangedAt == nil {
		t.Fatalf("password fields not applied: %+v", a)
	}
}

func TestUpdateCheckRejectsConflict(t *testing.T) {
	u := Update{Reset: &ResetToken{Hash: "x", ExpiresAt: time.Now()}, ClearReset: true}
	if !errors.Is(u.Check(), ErrConflictingUpdate) {
		t.Fatal("expected conflicting update error")
	}
	if !(Update{}).Empty() {
		t.Fatal("zero update should be empty")
	}
}

func TestValidateRejectsHalfReset(t *testing.T) {
	a := Account{Name: "A", Email: "a@b.io", Role: RoleUser, ResetTokenHash: "x"}
	if !errors.Is(a.Validate(), ErrInvalid) {
		t.Fatal("expected hash without expiry to be invalid")
	}
}

func TestRoleSet(t *testing.T) {
	set, err := NewRoleSet(RoleAdmin, RoleLeadGuide)
	if err != nil {
		t.Fatalf("NewRoleSet failed: %v", err)
	}
	if !set.Contains(RoleAdmin) || set.Contains(RoleGuide) {
		t.Fatal("unexpected membership")
	}
	roles := set.Roles()
	if len(roles) != 2 || roles[0] != RoleAdmin || roles[1] != RoleLeadGuide {
		t.Fatalf("unexpected ordering: %v", roles)
	}
	if _, err := NewRoleSet("owner"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
	if r, err := ParseRole(" Lead-Guide "); err != nil || r != RoleLeadGuide {
		t.Fatalf("ParseRole: %v %v", r, err)
	}
}

func TestChangedPasswordAfterSameMillisecond(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, int(5*time.Millisecond), time.UTC)
	changed := issued.Add(400 * time.Microsecond)
	a := Account{PasswordChangedAt: &changed}
	if a.ChangedPasswordAfter(issued) {
		t.Fatal("a token minted in the same millisecond as the change must stay valid")
	}
}
