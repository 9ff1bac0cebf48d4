package repository

import (
	"context"
	"database/sql"

	"github.com/cbcoder/dealer-webapp/internal/model"
)

// RoleRepo reads the fixed `roles` reference table.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// Seed inserts the fixed role set if missing.  Called once at startup;
// INSERT IGNORE keeps it idempotent across restarts.
func (r *RoleRepo) Seed(ctx context.Context) error {
	for i, name := range model.AllRoles {
		if _, err := r.DB.ExecContext(ctx,
			"INSERT IGNORE INTO roles (role_id, role_name) VALUES (?,?)",
			i+1, name); err != nil {
			return err
		}
	}
	return nil
}

// GetByName looks a role up by its name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT role_id, role_name FROM roles WHERE role_name=? LIMIT 1",
		name).Scan(&role.ID, &role.Name)
	if err == sql.ErrNoRows {
		return model.Role{}, ErrRoleNotFound
	}
	return role, err
}
