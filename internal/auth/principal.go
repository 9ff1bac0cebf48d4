package auth

import "github.com/cbcoder/dealer-webapp/internal/model"

// Principal is the authenticated identity resolved for a single request.
// It is built fresh from a credential-store lookup by the identity filter,
// carried on the request context and discarded when the request ends.  It
// is never shared across requests, so no locking applies.
type Principal struct {
	Email        string
	PasswordHash string
	Roles        []string
	Enabled      bool
}

// NewPrincipal derives a Principal from a loaded user record.  The role
// slice is copied so later store mutations cannot alias into a live
// request.
func NewPrincipal(u *model.User) *Principal {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return &Principal{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		Enabled:      u.Enabled,
	}
}

// HasRole reports whether the principal holds the named role.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of the named
// roles.  Authorization gates are plain set intersection over role names.
func (p *Principal) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if p.HasRole(n) {
			return true
		}
	}
	return false
}
