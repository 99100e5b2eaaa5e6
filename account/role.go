package account

import (
	"fmt"
	"sort"
	"strings"
)

// Role is the authorization tier of an account.
type Role string

const (
	// RoleUser is the default tier assigned on signup.
	RoleUser Role = "user"
	// RoleGuide marks tour guides.
	RoleGuide Role = "guide"
	// RoleLeadGuide marks lead guides.
	RoleLeadGuide Role = "lead-guide"
	// RoleAdmin marks administrators.
	RoleAdmin Role = "admin"
)

// DefaultRole is applied to every self-service signup.
const DefaultRole = RoleUser

var knownRoles = map[Role]struct{}{
	RoleUser:      {},
	RoleGuide:     {},
	RoleLeadGuide: {},
	RoleAdmin:     {},
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string { return string(r) }

// ParseRole converts a wire name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is an unordered set of roles permitted through an authorization
// check. Membership is exact; no role implies another.
type RoleSet struct {
	members map[Role]struct{}
}

// NewRoleSet builds a set from roles. Unknown roles are rejected.
func NewRoleSet(roles ...Role) (RoleSet, error) {
	set := RoleSet{members: make(map[Role]struct{}, len(roles))}
	for _, r := range roles {
		if !r.Valid() {
			return RoleSet{}, fmt.Errorf("unknown role %q", r)
		}
		set.members[r] = struct{}{}
	}
	return set, nil
}

// MustRoleSet is NewRoleSet for static route tables.
func MustRoleSet(roles ...Role) RoleSet {
	set, err := NewRoleSet(roles...)
	if err != nil {
		panic(err)
	}
	return set
}

// Contains reports whether r is a member.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s.members[r]
	return ok
}

// Empty reports whether the set admits nobody.
func (s RoleSet) Empty() bool { return len(s.members) == 0 }

// Roles returns the members in lexical order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s.members))
	for r := range s.members {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
