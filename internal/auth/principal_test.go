package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbcoder/dealer-webapp/internal/model"
)

func TestNewPrincipalCopiesRoles(t *testing.T) {
	u := model.User{
		Email:   "john@dealer.test",
		Enabled: true,
		Roles:   []string{model.RoleSales},
	}
	p := NewPrincipal(&u)

	u.Roles[0] = model.RoleSuperAdmin
	assert.True(t, p.HasRole(model.RoleSales), "principal must not alias the user's role slice")
	assert.False(t, p.HasRole(model.RoleSuperAdmin))
}

func TestHasAnyRole(t *testing.T) {
	p := &Principal{Roles: []string{model.RoleWorkshop}}

	assert.True(t, p.HasAnyRole(model.RoleAdmin, model.RoleWorkshop))
	assert.False(t, p.HasAnyRole(model.RoleAdmin, model.RoleSuperAdmin))
	assert.False(t, p.HasAnyRole())
}
