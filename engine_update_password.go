package natours

import (
	"context"

	"github.com/MrEthical07/natours/internal/flows"
	"github.com/MrEthical07/natours/password"
)

// UpdatePassword changes the password of a logged-in account after checking
// the current one. The returned session replaces every earlier token, all
// of which are stale from now on.
func (e *Engine) UpdatePassword(ctx context.Context, accountID, current, newPassword, passwordConfirm string) (Session, error) {
	if !e.ready() {
		return Session{}, ErrEngineNotReady
	}
	res, err := e.flows.UpdatePassword(ctx, flows.UpdatePasswordRequest{
		AccountID:       accountID,
		Current:         current,
		Password:        newPassword,
		PasswordConfirm: passwordConfirm,
	})
	if err != nil {
		return Session{}, err
	}
	return toSession(res), nil
}

func (e *Engine) updatePasswordFlowDeps() flows.UpdatePasswordDeps {
	return flows.UpdatePasswordDeps{
		Shared:              e.sharedFlowDeps(),
		FindByID:            e.findWithHash,
		VerifyPassword:      e.hasher.Verify,
		CheckPasswordPolicy: password.CheckPolicy,
		HashPassword:        e.hasher.Hash,
		UpdateAccount:       e.store.Update,
		IssueToken:          e.issueToken,
	}
}
