// Package repository implements the credential and inventory stores over
// MySQL.  Sentinel error values defined here let handlers translate store
// outcomes into HTTP statuses without inspecting driver errors.
package repository

import "errors"

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when an insert collides with the unique email
// index.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrRoleNotFound is returned when a role name is not part of the seeded
// set, or when a revoke targets a role the user does not hold.
var ErrRoleNotFound = errors.New("role not found")

// ErrRoleAlreadyAssigned is returned when granting a role the user already
// holds through an operation that treats re-grants as a conflict.
var ErrRoleAlreadyAssigned = errors.New("role already assigned")

// ErrSuperAdminQuorum is returned when removing a super admin would leave
// the store without one.  At least one SUPERADMIN must exist at all times.
var ErrSuperAdminQuorum = errors.New("at least one super admin must remain")

// ErrCarNotFound is returned when no car row matches the lookup.
var ErrCarNotFound = errors.New("car not found")

// ErrCarExists is returned when a car insert collides with the unique
// registration or chassis number index.
var ErrCarExists = errors.New("car already exists")
