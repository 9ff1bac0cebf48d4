package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cbcoder/dealer-webapp/internal/model"
)

const userColumns = "user_id, first_name, last_name, email, password, is_enabled, created_at, updated_at"

// UserRepo is the credential store: user rows plus their role memberships
// through the user_roles join table.  Multi-step role mutations run inside
// a transaction with the target row locked, so concurrent delegation calls
// on the same user cannot interleave partial role-set updates.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and its role links in one transaction and returns
// the new id.  Every requested role name must exist in the seeded set.
func (r *UserRepo) Create(ctx context.Context, u *model.User, roleNames []string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password, is_enabled, created_at) VALUES (?,?,?,?,?,NOW())",
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Enabled)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, name := range roleNames {
		if err := grantTx(ctx, tx, uint64(id), name); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ExistsByEmail reports whether a user row with the email exists.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=?", email).Scan(&n)
	return n > 0, err
}

// GetByEmail fetches a user and its role names by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getBy(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user and its role names by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getBy(ctx, "SELECT "+userColumns+" FROM users WHERE user_id=? LIMIT 1", id)
}

func (r *UserRepo) getBy(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	var updated sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Enabled, &u.CreatedAt, &updated)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if updated.Valid {
		u.UpdatedAt = updated.Time
	}
	u.Roles, err = r.rolesOf(ctx, u.ID)
	return u, err
}

func (r *UserRepo) rolesOf(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT ro.role_name FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ur.user_id=? ORDER BY ro.role_id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// List returns one page of users (roles loaded) plus the total row count.
func (r *UserRepo) List(ctx context.Context, page, size int) ([]model.User, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY user_id LIMIT ? OFFSET ?",
		size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		var updated sql.NullTime
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Enabled, &u.CreatedAt, &updated); err != nil {
			return nil, 0, err
		}
		if updated.Valid {
			u.UpdatedAt = updated.Time
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range users {
		if users[i].Roles, err = r.rolesOf(ctx, users[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return users, total, nil
}

// UpdateProfile updates the self-service fields: names and password hash.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, password=?, updated_at=NOW() WHERE user_id=?",
		firstName, lastName, passwordHash, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrUserNotFound)
}

// AdminUpdate updates names and the enabled flag and replaces the full
// role set.  Unknown role names are skipped, matching the admin update
// behavior of the rest of the system.  Runs in one transaction.
func (r *UserRepo) AdminUpdate(ctx context.Context, id uint64, firstName, lastName string, enabled bool, roleNames []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, is_enabled=?, updated_at=NOW() WHERE user_id=?",
		firstName, lastName, enabled, id)
	if err != nil {
		return err
	}
	if err := requireRow(res, ErrUserNotFound); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", id); err != nil {
		return err
	}
	granted := make(map[string]bool, len(roleNames))
	for _, name := range roleNames {
		if !model.IsKnownRole(name) || granted[name] {
			continue
		}
		if err := grantTx(ctx, tx, id, name); err != nil {
			return err
		}
		granted[name] = true
	}
	return tx.Commit()
}

// Delete removes a user row; role links go with it via the foreign key.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE user_id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrUserNotFound)
}

// CountByRole returns how many users currently hold the named role.
func (r *UserRepo) CountByRole(ctx context.Context, roleName string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ro.role_name=?",
		roleName).Scan(&n)
	return n, err
}

// AddAdminRole grants ADMIN to the user, treating a re-grant as a
// conflict.  The user row is locked for the duration of the check+insert.
func (r *UserRepo) AddAdminRole(ctx context.Context, userID uint64) error {
	return r.inRoleTx(ctx, userID, func(tx *sql.Tx) error {
		has, err := hasRoleTx(ctx, tx, userID, model.RoleAdmin)
		if err != nil {
			return err
		}
		if has {
			return ErrRoleAlreadyAssigned
		}
		return grantTx(ctx, tx, userID, model.RoleAdmin)
	})
}

// RevokeAdminRole removes ADMIN from the user; the user must hold it.
func (r *UserRepo) RevokeAdminRole(ctx context.Context, userID uint64) error {
	return r.inRoleTx(ctx, userID, func(tx *sql.Tx) error {
		has, err := hasRoleTx(ctx, tx, userID, model.RoleAdmin)
		if err != nil {
			return err
		}
		if !has {
			return ErrRoleNotFound
		}
		return revokeTx(ctx, tx, userID, model.RoleAdmin)
	})
}

// EnsureSuperAdmin grants SUPERADMIN if the user does not already hold it.
// Unlike AddAdminRole a re-grant is not an error: super-admin creation
// doubles as create-and-ensure.
func (r *UserRepo) EnsureSuperAdmin(ctx context.Context, userID uint64) error {
	return r.inRoleTx(ctx, userID, func(tx *sql.Tx) error {
		has, err := hasRoleTx(ctx, tx, userID, model.RoleSuperAdmin)
		if err != nil || has {
			return err
		}
		return grantTx(ctx, tx, userID, model.RoleSuperAdmin)
	})
}

// RevokeSuperAdmin removes SUPERADMIN from a user that holds it alongside
// at least one other role.  A sole-role super admin cannot be demoted to
// roleless; that case reports ErrRoleNotFound, same as not holding the
// role at all.
func (r *UserRepo) RevokeSuperAdmin(ctx context.Context, userID uint64) error {
	return r.inRoleTx(ctx, userID, func(tx *sql.Tx) error {
		has, err := hasRoleTx(ctx, tx, userID, model.RoleSuperAdmin)
		if err != nil {
			return err
		}
		total, err := countRolesTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !has || total == 1 {
			return ErrRoleNotFound
		}
		return revokeTx(ctx, tx, userID, model.RoleSuperAdmin)
	})
}

// DeleteSuperAdmin deletes the whole user record of a super admin, subject
// to the quorum invariant: at least one SUPERADMIN must remain, so the
// current count must be at least two.  Count and delete share the
// transaction so two concurrent deletes cannot both pass the check.
func (r *UserRepo) DeleteSuperAdmin(ctx context.Context, userID uint64) error {
	return r.inRoleTx(ctx, userID, func(tx *sql.Tx) error {
		has, err := hasRoleTx(ctx, tx, userID, model.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if !has {
			return ErrRoleNotFound
		}
		var count int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ro.role_name=?",
			model.RoleSuperAdmin).Scan(&count); err != nil {
			return err
		}
		if count < 2 {
			return ErrSuperAdminQuorum
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", userID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM users WHERE user_id=?", userID)
		return err
	})
}

// inRoleTx runs fn inside a transaction after locking the target user row.
// The lock serializes delegation operations per user; the updated_at stamp
// and commit happen here so every mutation path agrees on them.
func (r *UserRepo) inRoleTx(ctx context.Context, userID uint64, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var id uint64
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM users WHERE user_id=? FOR UPDATE", userID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET updated_at=NOW() WHERE user_id=?", userID); err != nil {
		return err
	}
	return tx.Commit()
}

func hasRoleTx(ctx context.Context, tx *sql.Tx, userID uint64, roleName string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ur.user_id=? AND ro.role_name=?",
		userID, roleName).Scan(&n)
	return n > 0, err
}

func countRolesTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_roles WHERE user_id=?", userID).Scan(&n)
	return n, err
}

func grantTx(ctx context.Context, tx *sql.Tx, userID uint64, roleName string) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) SELECT ?, role_id FROM roles WHERE role_name=?",
		userID, roleName)
	if err != nil {
		return err
	}
	return requireRow(res, ErrRoleNotFound)
}

func revokeTx(ctx context.Context, tx *sql.Tx, userID uint64, roleName string) error {
	res, err := tx.ExecContext(ctx,
		"DELETE ur FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ur.user_id=? AND ro.role_name=?",
		userID, roleName)
	if err != nil {
		return err
	}
	return requireRow(res, ErrRoleNotFound)
}

// requireRow maps a zero-rows-affected result to the given sentinel.
func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062 on a unique index).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
