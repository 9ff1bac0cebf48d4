package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbcoder/dealer-webapp/internal/model"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

const (
	lockUserQuery  = "SELECT user_id FROM users WHERE user_id=? FOR UPDATE"
	hasRoleQuery   = "SELECT COUNT(*) FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ur.user_id=? AND ro.role_name=?"
	countRoleQuery = "SELECT COUNT(*) FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ro.role_name=?"
	grantQuery     = "INSERT INTO user_roles (user_id, role_id) SELECT ?, role_id FROM roles WHERE role_name=?"
	revokeQuery    = "DELETE ur FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ur.user_id=? AND ro.role_name=?"
	stampQuery     = "UPDATE users SET updated_at=NOW() WHERE user_id=?"
)

func expectLock(mock sqlmock.Sqlmock, userID uint64) {
	mock.ExpectQuery(lockUserQuery).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID))
}

func expectHasRole(mock sqlmock.Sqlmock, userID uint64, role string, n int) {
	mock.ExpectQuery(hasRoleQuery).WithArgs(userID, role).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(n))
}

func TestAddAdminRole(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	expectLock(mock, 7)
	expectHasRole(mock, 7, model.RoleAdmin, 0)
	mock.ExpectExec(grantQuery).WithArgs(uint64(7), model.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(stampQuery).WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AddAdminRole(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddAdminRoleConflict(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	expectLock(mock, 7)
	expectHasRole(mock, 7, model.RoleAdmin, 1)
	mock.ExpectRollback()

	err := repo.AddAdminRole(context.Background(), 7)
	assert.ErrorIs(t, err, ErrRoleAlreadyAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddAdminRoleUnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockUserQuery).WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.AddAdminRole(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAdminRoleNotHeld(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	expectLock(mock, 7)
	expectHasRole(mock, 7, model.RoleAdmin, 0)
	mock.ExpectRollback()

	err := repo.RevokeAdminRole(context.Background(), 7)
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSuperAdminIsIdempotent(t *testing.T) {
	repo, mock := newUserRepo(t)

	// already holding the role is not an error and grants nothing
	mock.ExpectBegin()
	expectLock(mock, 3)
	expectHasRole(mock, 3, model.RoleSuperAdmin, 1)
	mock.ExpectExec(stampQuery).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.EnsureSuperAdmin(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSuperAdminSoleRole(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	expectLock(mock, 3)
	expectHasRole(mock, 3, model.RoleSuperAdmin, 1)
	mock.ExpectQuery("SELECT COUNT(*) FROM user_roles WHERE user_id=?").WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.RevokeSuperAdmin(context.Background(), 3)
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSuperAdminWithSecondRole(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	expectLock(mock, 3)
	expectHasRole(mock, 3, model.RoleSuperAdmin, 1)
	mock.ExpectQuery("SELECT COUNT(*) FROM user_roles WHERE user_id=?").WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	mock.ExpectExec(revokeQuery).WithArgs(uint64(3), model.RoleSuperAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(stampQuery).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RevokeSuperAdmin(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSuperAdminQuorumHolds(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	expectLock(mock, 5)
	expectHasRole(mock, 5, model.RoleSuperAdmin, 1)
	mock.ExpectQuery(countRoleQuery).WithArgs(model.RoleSuperAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=?").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM users WHERE user_id=?").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(stampQuery).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteSuperAdmin(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSuperAdminQuorumBlocksLastOne(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	expectLock(mock, 5)
	expectHasRole(mock, 5, model.RoleSuperAdmin, 1)
	mock.ExpectQuery(countRoleQuery).WithArgs(model.RoleSuperAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.DeleteSuperAdmin(context.Background(), 5)
	assert.ErrorIs(t, err, ErrSuperAdminQuorum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdateSkipsDuplicateAndUnknownRoles(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET first_name=?, last_name=?, is_enabled=?, updated_at=NOW() WHERE user_id=?").
		WithArgs("John", "Smith", true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_roles WHERE user_id=?").WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(grantQuery).WithArgs(uint64(7), model.RoleSales).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AdminUpdate(context.Background(), 7, "John", "Smith", true,
		[]string{model.RoleSales, model.RoleSales, "JANITOR"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "exactly one grant for the repeated role")
}

func TestGetByEmailLoadsRoles(t *testing.T) {
	repo, mock := newUserRepo(t)

	userRows := sqlmock.NewRows([]string{"user_id", "first_name", "last_name", "email", "password", "is_enabled", "created_at", "updated_at"}).
		AddRow(4, "John", "Smith", "john@dealer.test", "$2a$hash", true, time.Now(), nil)
	mock.ExpectQuery("SELECT user_id, first_name, last_name, email, password, is_enabled, created_at, updated_at FROM users WHERE email=? LIMIT 1").
		WithArgs("john@dealer.test").WillReturnRows(userRows)
	mock.ExpectQuery("SELECT ro.role_name FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ur.user_id=? ORDER BY ro.role_id").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"role_name"}).AddRow(model.RoleAdmin).AddRow(model.RoleSales))

	u, err := repo.GetByEmail(context.Background(), "  John@Dealer.TEST ")
	require.NoError(t, err)
	assert.Equal(t, "john@dealer.test", u.Email)
	assert.Equal(t, []string{model.RoleAdmin, model.RoleSales}, u.Roles)
	assert.True(t, u.HasRole(model.RoleAdmin))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT user_id, first_name, last_name, email, password, is_enabled, created_at, updated_at FROM users WHERE user_id=? LIMIT 1").
		WithArgs(uint64(42)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users (first_name, last_name, email, password, is_enabled, created_at) VALUES (?,?,?,?,?,NOW())").
		WithArgs("John", "Smith", "john@dealer.test", "$2a$hash", true).
		WillReturnError(errDuplicate{})
	mock.ExpectRollback()

	u := model.User{FirstName: "John", LastName: "Smith", Email: "john@dealer.test", PasswordHash: "$2a$hash", Enabled: true}
	_, err := repo.Create(context.Background(), &u, nil)
	assert.ErrorIs(t, err, ErrEmailExists)
}

type errDuplicate struct{}

func (errDuplicate) Error() string {
	return "Error 1062 (23000): Duplicate entry 'john@dealer.test' for key 'users.email'"
}
