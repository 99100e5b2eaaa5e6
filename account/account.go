package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned by stores when no active account matches.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by stores when the email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalid wraps field validation failures.
	ErrInvalid = errors.New("invalid account")
	// ErrConflictingUpdate is returned when an update both sets and clears
	// the pending reset token.
	ErrConflictingUpdate = errors.New("conflicting reset token update")
)

// DefaultPhoto is stored when signup does not supply one.
const DefaultPhoto = "default.jpg"

// Account is the credential-bearing user record.
//
// PasswordHash and the reset fields never leave the process through JSON.
type Account struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name" validate:"required,max=120"`
	Email               string     `json:"email" validate:"required,email"`
	Photo               string     `json:"photo,omitempty"`
	Role                Role       `json:"role" validate:"required,role"`
	PasswordHash        string     `json:"-"`
	PasswordChangedAt   *time.Time `json:"-"`
	ResetTokenHash      string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	Active              bool       `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// ChangedPasswordAfter reports whether the password changed strictly after
// issuedAt, compared at millisecond precision. Accounts that never changed
// their password always return false.
func (a Account) ChangedPasswordAfter(issuedAt time.Time) bool {
	if a.PasswordChangedAt == nil {
		return false
	}
	return a.PasswordChangedAt.Truncate(time.Millisecond).After(issuedAt)
}

// HasPendingReset reports whether a reset token is outstanding at now.
func (a Account) HasPendingReset(now time.Time) bool {
	return a.ResetTokenHash != "" && a.ResetTokenExpiresAt != nil && a.ResetTokenExpiresAt.After(now)
}

// WithoutSecrets returns a copy with the password hash removed.
func (a Account) WithoutSecrets() Account {
	a.PasswordHash = ""
	return a
}

// NewAccountInput carries the fields accepted on signup. Role is not part
// of it: self-service accounts always start at DefaultRole.
type NewAccountInput struct {
	Name         string
	Email        string
	Photo        string
	PasswordHash string
}

// NewAccount assembles a validated account ready for Store.Create.
func NewAccount(in NewAccountInput, now time.Time) (Account, error) {
	photo := strings.TrimSpace(in.Photo)
	if photo == "" {
		photo = DefaultPhoto
	}
	a := Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		Photo:        photo,
		Role:         DefaultRole,
		PasswordHash: in.PasswordHash,
		Active:       true,
		CreatedAt:    now.UTC(),
	}
	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	if a.PasswordHash == "" {
		return Account{}, fmt.Errorf("%w: password hash is required", ErrInvalid)
	}
	return a, nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks field-level constraints and the reset-field pairing.
func (a Account) Validate() error {
	if err := validate.Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if (a.ResetTokenHash == "") != (a.ResetTokenExpiresAt == nil) {
		return fmt.Errorf("%w: reset token hash and expiry must be set together", ErrInvalid)
	}
	return nil
}

// ValidEmail reports whether email is syntactically acceptable.
func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
