package mongo

import (
	"time"

	"github.com/MrEthical07/natours/account"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type document struct {
	ID                   bson.ObjectID `bson:"_id,omitempty"`
	Name                 string        `bson:"name"`
	Email                string        `bson:"email"`
	Photo                string        `bson:"photo,omitempty"`
	Role                 string        `bson:"role"`
	Password             string        `bson:"password,omitempty"`
	PasswordChangedAt    *time.Time    `bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string        `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time    `bson:"passwordResetExpires,omitempty"`
	Active               bool          `bson:"active"`
	CreatedAt            time.Time     `bson:"createdAt"`
}

func fromAccount(a account.Account) document {
	return document{
		Name:                 a.Name,
		Email:                account.NormalizeEmail(a.Email),
		Photo:                a.Photo,
		Role:                 string(a.Role),
		Password:             a.PasswordHash,
		PasswordChangedAt:    utcPtr(a.PasswordChangedAt),
		PasswordResetToken:   a.ResetTokenHash,
		PasswordResetExpires: utcPtr(a.ResetTokenExpiresAt),
		Active:               a.Active,
		CreatedAt:            a.CreatedAt.UTC(),
	}
}

func (d document) toAccount(includeHash bool) account.Account {
	a := account.Account{
		ID:                  d.ID.Hex(),
		Name:                d.Name,
		Email:               d.Email,
		Photo:               d.Photo,
		Role:                account.Role(d.Role),
		PasswordChangedAt:   utcPtr(d.PasswordChangedAt),
		ResetTokenHash:      d.PasswordResetToken,
		ResetTokenExpiresAt: utcPtr(d.PasswordResetExpires),
		Active:              d.Active,
		CreatedAt:           d.CreatedAt.UTC(),
	}
	if includeHash {
		a.PasswordHash = d.Password
	}
	return a
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// updateDocument renders u as a $set/$unset pair.
func updateDocument(u account.Update) bson.M {
	set := bson.M{}
	unset := bson.M{}

	if u.Name != nil {
		set["name"] = account.Update{Name: u.Name}.Apply(account.Account{}).Name
	}
	if u.Email != nil {
		set["email"] = account.NormalizeEmail(*u.Email)
	}
	if u.Photo != nil {
		set["photo"] = account.Update{Photo: u.Photo}.Apply(account.Account{}).Photo
	}
	if u.Role != nil {
		set["role"] = string(*u.Role)
	}
	if u.Active != nil {
		set["active"] = *u.Active
	}
	if u.PasswordHash != nil {
		set["password"] = *u.PasswordHash
	}
	if u.PasswordChangedAt != nil {
		set["passwordChangedAt"] = u.PasswordChangedAt.UTC()
	}
	if u.Reset != nil {
		set["passwordResetToken"] = u.Reset.Hash
		set["passwordResetExpires"] = u.Reset.ExpiresAt.UTC()
	}
	if u.ClearReset {
		unset["passwordResetToken"] = ""
		unset["passwordResetExpires"] = ""
	}

	out := bson.M{}
	if len(set) > 0 {
		out["$set"] = set
	}
	if len(unset) > 0 {
		out["$unset"] = unset
	}
	return out
}

// updateFilter selects the record an update may touch. Inactive records are
// only reachable by a reactivation.
func updateFilter(id bson.ObjectID, u account.Update) bson.M {
	filter := bson.M{"_id": id}
	if u.Active == nil || !*u.Active {
		filter["active"] = true
	}
	if u.IfResetHash != "" {
		filter["passwordResetToken"] = u.IfResetHash
	}
	return filter
}
