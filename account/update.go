package account

import (
	"strings"
	"time"
)

// ResetToken is the stored half of a password reset token.
type ResetToken struct {
	Hash      string
	ExpiresAt time.Time
}

// Update is a partial mutation. Nil fields are left untouched.
//
// Reset and ClearReset are mutually exclusive; both reset fields always move
// together.
type Update struct {
	Name              *string
	Email             *string
	Photo             *string
	Role              *Role
	Active            *bool
	PasswordHash      *string
	PasswordChangedAt *time.Time
	Reset             *ResetToken
	ClearReset        bool

	// IfResetHash, when set, makes the update conditional on the stored
	// reset hash still being this value. Stores report a mismatch as
	// ErrNotFound.
	IfResetHash string
}

// UpdateOptions controls store-side behavior for a single update.
type UpdateOptions struct {
	// Validate runs Account.Validate on the result before persisting.
	// Internal compensating writes turn it off.
	Validate bool
}

// Validated is the default option set for user-driven writes.
var Validated = UpdateOptions{Validate: true}

// Unvalidated bypasses field validation.
var Unvalidated = UpdateOptions{Validate: false}

// ConsumeReset is SetPassword conditioned on hash still being pending.
func ConsumeReset(hash, newPasswordHash string, changedAt time.Time) Update {
	u := SetPassword(newPasswordHash, changedAt)
	u.IfResetHash = hash
	return u
}

// SetPassword stamps a new hash together with its change time and clears
// any pending reset token in the same write.
func SetPassword(hash string, changedAt time.Time) Update {
	at := changedAt.UTC()
	return Update{
		PasswordHash:      &hash,
		PasswordChangedAt: &at,
		ClearReset:        true,
	}
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Photo == nil && u.Role == nil &&
		u.Active == nil && u.PasswordHash == nil && u.PasswordChangedAt == nil &&
		u.Reset == nil && !u.ClearReset
}

// Check rejects self-contradictory updates.
func (u Update) Check() error {
	if u.Reset != nil && u.ClearReset {
		return ErrConflictingUpdate
	}
	return nil
}

// Apply returns a copy of a with u applied.
func (u Update) Apply(a Account) Account {
	if u.Name != nil {
		a.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		a.Email = NormalizeEmail(*u.Email)
	}
	if u.Photo != nil {
		a.Photo = strings.TrimSpace(*u.Photo)
	}
	if u.Role != nil {
		a.Role = *u.Role
	}
	if u.Active != nil {
		a.Active = *u.Active
	}
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.PasswordChangedAt != nil {
		at := u.PasswordChangedAt.UTC()
		a.PasswordChangedAt = &at
	}
	if u.Reset != nil {
		exp := u.Reset.ExpiresAt.UTC()
		a.ResetTokenHash = u.Reset.Hash
		a.ResetTokenExpiresAt = &exp
	}
	if u.ClearReset {
		a.ResetTokenHash = ""
		a.ResetTokenExpiresAt = nil
	}
	return a
}
