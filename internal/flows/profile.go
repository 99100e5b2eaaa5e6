package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/natours/account"
)

// ProfileUpdateRequest is a self-service profile change.
type ProfileUpdateRequest struct {
	AccountID string
	Name      *string
	Email     *string
	Photo     *string
	// HasPasswordFields is set when the body carried any password field.
	HasPasswordFields bool
}

// ProfileDeps wires self-service profile flows.
type ProfileDeps struct {
	Shared

	UpdateAccount func(context.Context, string, account.Update, account.UpdateOptions) (account.Account, error)
}

// RunUpdateProfile applies name, email and photo changes. Role and password
// are not reachable from here.
func RunUpdateProfile(ctx context.Context, req ProfileUpdateRequest, deps ProfileDeps) (account.Account, error) {
	deps.normalize()
	if deps.UpdateAccount == nil {
		return account.Account{}, deps.Errors.EngineNotReady
	}

	if req.HasPasswordFields {
		err := Fail(deps.Errors.BadRequest, "this route is not for password updates, please use /updateMyPassword")
		deps.EmitAudit(ctx, deps.Events.ProfileUpdate, false, req.AccountID, err, reasonMeta("password_fields"))
		return account.Account{}, err
	}

	u := account.Update{Name: req.Name, Email: req.Email, Photo: req.Photo}
	if u.Empty() {
		return account.Account{}, Fail(deps.Errors.BadRequest, "nothing to update")
	}
	if req.Email != nil && !account.ValidEmail(account.NormalizeEmail(*req.Email)) {
		return account.Account{}, Fail(deps.Errors.BadRequest, "please provide a valid email")
	}

	updated, err := deps.UpdateAccount(ctx, req.AccountID, u, account.Validated)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrDuplicateEmail):
			return account.Account{}, Fail(deps.Errors.AccountExists, "an account with this email already exists")
		case errors.Is(err, account.ErrInvalid):
			return account.Account{}, Fail(deps.Errors.BadRequest, err.Error())
		case errors.Is(err, account.ErrNotFound):
			return account.Account{}, Fail(deps.Errors.NotAuthenticated, "the user belonging to this token no longer exists")
		}
		return account.Account{}, err
	}

	deps.MetricInc(deps.Metrics.ProfileUpdated)
	deps.EmitAudit(ctx, deps.Events.ProfileUpdate, true, updated.ID, nil, nil)
	return updated.WithoutSecrets(), nil
}

// RunDeactivate soft-deletes an account. It disappears from every lookup.
func RunDeactivate(ctx context.Context, accountID string, deps ProfileDeps) error {
	deps.normalize()
	if deps.UpdateAccount == nil {
		return deps.Errors.EngineNotReady
	}

	inactive := false
	if _, err := deps.UpdateAccount(ctx, accountID, account.Update{Active: &inactive}, account.Unvalidated); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Fail(deps.Errors.NotAuthenticated, "the user belonging to this token no longer exists")
		}
		return err
	}

	deps.MetricInc(deps.Metrics.AccountDeactivated)
	deps.EmitAudit(ctx, deps.Events.AccountDeactivate, true, accountID, nil, nil)
	return nil
}
