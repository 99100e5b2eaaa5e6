// Package memory is an in-process account.Store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/natours/account"
	"github.com/google/uuid"
)

// Store keeps accounts in a map guarded by a mutex. Every Update is applied
// under the lock, so it is atomic with respect to other calls.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]account.Account
	byEmail map[string]string
	newID   func() string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]account.Account),
		byEmail: make(map[string]string),
		newID:   uuid.NewString,
	}
}

// FindByID returns the account with id. The password hash is kept only
// when includeHash is set.
func (s *Store) FindByID(_ context.Context, id string, includeHash bool) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok || !a.Active {
		return account.Account{}, account.ErrNotFound
	}
	return project(a, includeHash), nil
}

// FindByEmail looks up an account by its normalized email.
func (s *Store) FindByEmail(_ context.Context, email string, includeHash bool) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[account.NormalizeEmail(email)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	a := s.byID[id]
	if !a.Active {
		return account.Account{}, account.ErrNotFound
	}
	return project(a, includeHash), nil
}

// FindByResetTokenHash returns the account holding hash as an unexpired
// reset token at now.
func (s *Store) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (account.Account, error) {
	if hash == "" {
		return account.Account{}, account.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byID {
		if a.Active && a.ResetTokenHash == hash && a.HasPendingReset(now) {
			return project(a, false), nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

// Create inserts a and assigns its ID. A taken email fails with
// account.ErrDuplicateEmail.
func (s *Store) Create(_ context.Context, a account.Account) (account.Account, error) {
	if err := a.Validate(); err != nil {
		return account.Account{}, err
	}
	a.Email = account.NormalizeEmail(a.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[a.Email]; taken {
		return account.Account{}, account.ErrDuplicateEmail
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	if _, taken := s.byID[a.ID]; taken {
		return account.Account{}, account.ErrDuplicateEmail
	}
	s.byID[a.ID] = clone(a)
	s.byEmail[a.Email] = a.ID
	return project(a, false), nil
}

// Update applies u to the account with id. A failed IfResetHash guard
// reports account.ErrNotFound.
func (s *Store) Update(_ context.Context, id string, u account.Update, opts account.UpdateOptions) (account.Account, error) {
	if err := u.Check(); err != nil {
		return account.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[id]
	// Reactivation is the one write allowed on an inactive record.
	if !ok || (!cur.Active && (u.Active == nil || !*u.Active)) {
		return account.Account{}, account.ErrNotFound
	}
	if u.IfResetHash != "" && cur.ResetTokenHash != u.IfResetHash {
		return account.Account{}, account.ErrNotFound
	}

	next := u.Apply(cur)
	if opts.Validate {
		if err := next.Validate(); err != nil {
			return account.Account{}, err
		}
	}
	if next.Email != cur.Email {
		if owner, taken := s.byEmail[next.Email]; taken && owner != id {
			return account.Account{}, account.ErrDuplicateEmail
		}
		delete(s.byEmail, cur.Email)
		s.byEmail[next.Email] = id
	}
	s.byID[id] = clone(next)
	return project(next, false), nil
}

// List returns active accounts ordered by creation, filtered and paged by
// opts.
func (s *Store) List(_ context.Context, opts account.ListOptions) ([]account.Account, error) {
	s.mu.RLock()
	out := make([]account.Account, 0, len(s.byID))
	for _, a := range s.byID {
		if !a.Active || (opts.Role != "" && a.Role != opts.Role) {
			continue
		}
		out = append(out, project(a, false))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []account.Account{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Delete removes the account with id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return account.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, a.Email)
	return nil
}

// Raw returns the stored record including inactive ones and secrets.
func (s *Store) Raw(id string) (account.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	return clone(a), ok
}

func project(a account.Account, includeHash bool) account.Account {
	a = clone(a)
	if !includeHash {
		a.PasswordHash = ""
	}
	return a
}

func clone(a account.Account) account.Account {
	if a.PasswordChangedAt != nil {
		t := *a.PasswordChangedAt
		a.PasswordChangedAt = &t
	}
	if a.ResetTokenExpiresAt != nil {
		t := *a.ResetTokenExpiresAt
		a.ResetTokenExpiresAt = &t
	}
	return a
}
