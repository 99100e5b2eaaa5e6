package natours

import (
	"context"
	"errors"

	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/flows"
)

const maxListLimit = 100

// UpdateProfile applies self-service changes to name, email and photo.
func (e *Engine) UpdateProfile(ctx context.Context, accountID string, u ProfileUpdate) (account.Account, error) {
	if !e.ready() {
		return account.Account{}, ErrEngineNotReady
	}
	return e.flows.UpdateProfile(ctx, flows.ProfileUpdateRequest{
		AccountID:         accountID,
		Name:              u.Name,
		Email:             u.Email,
		Photo:             u.Photo,
		HasPasswordFields: u.HasPasswordFields,
	})
}

// Deactivate soft-deletes the caller's own account.
func (e *Engine) Deactivate(ctx context.Context, accountID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.Deactivate(ctx, accountID)
}

// ListAccounts returns active accounts ordered by creation time.
func (e *Engine) ListAccounts(ctx context.Context, opts account.ListOptions) ([]account.Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if opts.Limit <= 0 || opts.Limit > maxListLimit {
		opts.Limit = maxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Role != "" && !opts.Role.Valid() {
		return nil, flows.Fail(ErrBadRequest, "unknown role")
	}
	out, err := e.store.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = out[i].WithoutSecrets()
	}
	return out, nil
}

// GetAccount loads one active account.
func (e *Engine) GetAccount(ctx context.Context, id string) (account.Account, error) {
	if !e.ready() {
		return account.Account{}, ErrEngineNotReady
	}
	a, err := e.store.FindByID(ctx, id, false)
	if err != nil {
		return account.Account{}, mapStoreError(err)
	}
	return a.WithoutSecrets(), nil
}

// AdminUpdateAccount applies administrator changes, including role and
// active flag.
func (e *Engine) AdminUpdateAccount(ctx context.Context, actorID, id string, u AdminUpdate) (account.Account, error) {
	if !e.ready() {
		return account.Account{}, ErrEngineNotReady
	}
	upd := account.Update{Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role, Active: u.Active}
	if upd.Empty() {
		return account.Account{}, flows.Fail(ErrBadRequest, "nothing to update")
	}
	if u.Role != nil && !u.Role.Valid() {
		return account.Account{}, flows.Fail(ErrBadRequest, "unknown role")
	}

	updated, err := e.store.Update(ctx, id, upd, account.Validated)
	if err != nil {
		e.emitAudit(ctx, auditEventAdminAccountUpdate, false, id, mapStoreError(err), actorMeta(actorID))
		return account.Account{}, mapStoreError(err)
	}
	e.emitAudit(ctx, auditEventAdminAccountUpdate, true, id, nil, actorMeta(actorID))
	return updated.WithoutSecrets(), nil
}

// DeleteAccount removes an account for good.
func (e *Engine) DeleteAccount(ctx context.Context, actorID, id string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.store.Delete(ctx, id); err != nil {
		e.emitAudit(ctx, auditEventAdminAccountDelete, false, id, mapStoreError(err), actorMeta(actorID))
		return mapStoreError(err)
	}
	e.metricInc(MetricAccountDeleted)
	e.emitAudit(ctx, auditEventAdminAccountDelete, true, id, nil, actorMeta(actorID))
	return nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, account.ErrNotFound):
		return flows.Fail(ErrNotFound, "no document found with that id")
	case errors.Is(err, account.ErrDuplicateEmail):
		return flows.Fail(ErrAccountExists, "an account with this email already exists")
	case errors.Is(err, account.ErrInvalid):
		return flows.Fail(ErrBadRequest, err.Error())
	default:
		return err
	}
}

func actorMeta(actorID string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"actor_id": actorID}
	}
}

func (e *Engine) profileFlowDeps() flows.ProfileDeps {
	return flows.ProfileDeps{
		Shared:        e.sharedFlowDeps(),
		UpdateAccount: e.store.Update,
	}
}
