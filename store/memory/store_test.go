package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/natours/account"
)

func seed(t *testing.T, s *Store, email string) account.Account {
	t.Helper()
	a, err := account.NewAccount(account.NewAccountInput{Name: "Test", Email: email, PasswordHash: "hash"}, time.Now())
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	created, err := s.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return created
}

func TestCreateAndFind(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seed(t, s, "Ann@Example.com")

	if a.ID == "" || a.PasswordHash != "" {
		t.Fatalf("unexpected created projection: %+v", a)
	}

	byEmail, err := s.FindByEmail(ctx, "ann@example.com", true)
	if err != nil || byEmail.PasswordHash != "hash" {
		t.Fatalf("FindByEmail with hash: %+v %v", byEmail, err)
	}
	byID, err := s.FindByID(ctx, a.ID, false)
	if err != nil || byID.PasswordHash != "" {
		t.Fatalf("FindByID without hash: %+v %v", byID, err)
	}

	if _, err := s.Create(ctx, byEmail); !errors.Is(err, account.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestInactiveAccountsAreHidden(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seed(t, s, "a@b.io")

	off := false
	if _, err := s.Update(ctx, a.ID, account.Update{Active: &off}, account.Unvalidated); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := s.FindByID(ctx, a.ID, false); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected hidden by id, got %v", err)
	}
	if _, err := s.FindByEmail(ctx, "a@b.io", false); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected hidden by email, got %v", err)
	}
	list, _ := s.List(ctx, account.ListOptions{})
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	on := true
	if _, err := s.Update(ctx, a.ID, account.Update{Active: &on}, account.Unvalidated); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
}

func TestResetTokenLookupRespectsExpiry(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seed(t, s, "a@b.io")
	now := time.Now()

	_, err := s.Update(ctx, a.ID, account.Update{Reset: &account.ResetToken{Hash: "h1", ExpiresAt: now.Add(10 * time.Minute)}}, account.Unvalidated)
	if err != nil {
		t.Fatalf("set reset: %v", err)
	}
	if _, err := s.FindByResetTokenHash(ctx, "h1", now); err != nil {
		t.Fatalf("expected pending token to match: %v", err)
	}
	if _, err := s.FindByResetTokenHash(ctx, "h1", now.Add(11*time.Minute)); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected expired token miss, got %v", err)
	}
	if _, err := s.FindByResetTokenHash(ctx, "h2", now); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected unknown hash miss, got %v", err)
	}
}

func TestConsumeResetIsSingleUse(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seed(t, s, "a@b.io")
	now := time.Now()
	_, _ = s.Update(ctx, a.ID, account.Update{Reset: &account.ResetToken{Hash: "h1", ExpiresAt: now.Add(time.Minute)}}, account.Unvalidated)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Update(ctx, a.ID, account.ConsumeReset("h1", "new", now), account.Validated); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one consumer, got %d", wins.Load())
	}

	raw, _ := s.Raw(a.ID)
	if raw.ResetTokenHash != "" || raw.ResetTokenExpiresAt != nil || raw.PasswordHash != "new" {
		t.Fatalf("unexpected record after consume: %+v", raw)
	}
}

func TestUpdateValidation(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seed(t, s, "a@b.io")
	_ = seed(t, s, "c@d.io")

	bad := "not-an-email"
	if _, err := s.Update(ctx, a.ID, account.Update{Email: &bad}, account.Validated); !errors.Is(err, account.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	taken := "c@d.io"
	if _, err := s.Update(ctx, a.ID, account.Update{Email: &taken}, account.Validated); !errors.Is(err, account.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	fresh := "new@d.io"
	if _, err := s.Update(ctx, a.ID, account.Update{Email: &fresh}, account.Validated); err != nil {
		t.Fatalf("email change: %v", err)
	}
	if _, err := s.FindByEmail(ctx, "a@b.io", false); !errors.Is(err, account.ErrNotFound) {
		t.Fatal("old email index must be dropped")
	}
}

func TestListPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, e := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		seed(t, s, e)
	}
	page, err := s.List(ctx, account.ListOptions{Limit: 2, Offset: 1})
	if err != nil || len(page) != 2 {
		t.Fatalf("List: %d %v", len(page), err)
	}
	if err := s.Delete(ctx, page[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, page[0].ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
