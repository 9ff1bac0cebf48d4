package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"john", "John"},
		{"jOHN", "John"},
		{"  alice  ", "Alice"},
		{"X", "X"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeName(c.in), "input %q", c.in)
	}
}

func TestNormalizeLastName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"smith", "Smith"},
		{"van der berg", "Van Der Berg"},
		{"  o'NEILL ", "O'neill"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeLastName(c.in), "input %q", c.in)
	}
}

func TestRegistrationRoles(t *testing.T) {
	assert.True(t, RegistrationRoles[RoleSales])
	assert.True(t, RegistrationRoles[RoleWorkshop])
	assert.True(t, RegistrationRoles[RoleValeter])
	assert.False(t, RegistrationRoles[RoleAdmin])
	assert.False(t, RegistrationRoles[RoleSuperAdmin])
}

func TestIsKnownRole(t *testing.T) {
	for _, r := range AllRoles {
		assert.True(t, IsKnownRole(r))
	}
	assert.False(t, IsKnownRole("JANITOR"))
	assert.False(t, IsKnownRole("admin"), "role names are case sensitive")
}
