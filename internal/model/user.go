package model

import (
	"strings"
	"time"
)

// Role names form a fixed reference set.  Rows are seeded into the `roles`
// table at startup and are never created through the API.
const (
	RoleSuperAdmin = "SUPERADMIN"
	RoleAdmin      = "ADMIN"
	RoleSales      = "SALES"
	RoleWorkshop   = "WORKSHOP"
	RoleValeter    = "VALETER"
)

// AllRoles lists every seeded role name in a stable order.
var AllRoles = []string{RoleSuperAdmin, RoleAdmin, RoleSales, RoleWorkshop, RoleValeter}

// RegistrationRoles are the only role names a user may pick for themselves
// at sign-up.  ADMIN is granted by a super admin and SUPERADMIN is managed
// through the delegation endpoints.
var RegistrationRoles = map[string]bool{
	RoleSales:    true,
	RoleWorkshop: true,
	RoleValeter:  true,
}

// IsKnownRole reports whether name is one of the seeded role names.
func IsKnownRole(name string) bool {
	for _, r := range AllRoles {
		if r == name {
			return true
		}
	}
	return false
}

// User represents a row in the `users` table together with the role names
// loaded from the user_roles join.  The password hash never leaves the
// server; response types in the handler package omit it.
//
// Fields:
//  ID           – users.user_id
//  FirstName    – users.first_name (normalized on write)
//  LastName     – users.last_name (normalized on write, per word)
//  Email        – users.email (unique, lower-cased)
//  PasswordHash – users.password (bcrypt)
//  Enabled      – users.is_enabled
//  CreatedAt    – users.created_at
//  UpdatedAt    – users.updated_at
//  Roles        – role names from user_roles
type User struct {
	ID           uint64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Roles        []string
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// FullName joins the normalized first and last names.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Role represents a row in the `roles` table.
type Role struct {
	ID   uint8
	Name string
}

// NormalizeName upper-cases the first letter of the given name and
// lower-cases the rest, e.g. "jOHN" -> "John".
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}

// NormalizeLastName normalizes each word of a possibly multi-word last
// name, e.g. "van der berg" -> "Van Der Berg".
func NormalizeLastName(name string) string {
	parts := strings.Fields(name)
	for i, p := range parts {
		parts[i] = NormalizeName(p)
	}
	return strings.Join(parts, " ")
}
