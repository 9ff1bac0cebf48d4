package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbcoder/dealer-webapp/internal/auth"
	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/repository"
)

const testSecret = "identity-test-secret"

const (
	userByEmailQuery = "SELECT user_id, first_name, last_name, email, password, is_enabled, created_at, updated_at FROM users WHERE email=? LIMIT 1"
	rolesOfQuery     = "SELECT ro.role_name FROM user_roles ur JOIN roles ro ON ro.role_id=ur.role_id WHERE ur.user_id=? ORDER BY ro.role_id"
)

func newIdentityRepo(t *testing.T) (*repository.UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewUserRepo(db), mock
}

func expectUserLookup(mock sqlmock.Sqlmock, email string, roles ...string) {
	mock.ExpectQuery(userByEmailQuery).WithArgs(email).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "first_name", "last_name", "email", "password", "is_enabled", "created_at", "updated_at"}).
			AddRow(1, "John", "Smith", email, "$2a$hash", true, time.Now(), nil))
	roleRows := sqlmock.NewRows([]string{"role_name"})
	for _, r := range roles {
		roleRows.AddRow(r)
	}
	mock.ExpectQuery(rolesOfQuery).WithArgs(uint64(1)).WillReturnRows(roleRows)
}

// runIdentity sends one GET through Authenticate and captures the bound
// principal.
func runIdentity(t *testing.T, users *repository.UserRepo, authHeader string) (*auth.Principal, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var bound *auth.Principal
	handler := Authenticate(testSecret, users)(func(c echo.Context) error {
		bound = PrincipalFrom(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return bound, rec
}

func TestAuthenticateBindsPrincipal(t *testing.T) {
	users, mock := newIdentityRepo(t)
	expectUserLookup(mock, "john@dealer.test", model.RoleSales)

	tok, err := auth.NewAccessToken(testSecret, "john@dealer.test", time.Hour)
	require.NoError(t, err)

	p, rec := runIdentity(t, users, "Bearer "+tok.Token)
	require.NotNil(t, p)
	assert.Equal(t, "john@dealer.test", p.Email)
	assert.True(t, p.HasRole(model.RoleSales))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateAnonymousWithoutHeader(t *testing.T) {
	users, _ := newIdentityRepo(t)

	p, rec := runIdentity(t, users, "")
	assert.Nil(t, p)
	assert.Equal(t, http.StatusOK, rec.Code, "the filter itself never rejects")
}

func TestAuthenticateAnonymousOnGarbageToken(t *testing.T) {
	users, mock := newIdentityRepo(t)

	p, rec := runIdentity(t, users, "Bearer not-a-jwt")
	assert.Nil(t, p)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "no store lookup for an unparseable token")
}

func TestAuthenticateAnonymousOnExpiredToken(t *testing.T) {
	users, mock := newIdentityRepo(t)
	expectUserLookup(mock, "john@dealer.test", model.RoleSales)

	tok, err := auth.NewAccessToken(testSecret, "john@dealer.test", -time.Minute)
	require.NoError(t, err)

	// the subject still parses and the user loads, but validation fails
	p, rec := runIdentity(t, users, "Bearer "+tok.Token)
	assert.Nil(t, p)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateAnonymousOnUnknownSubject(t *testing.T) {
	users, mock := newIdentityRepo(t)
	mock.ExpectQuery(userByEmailQuery).WithArgs("gone@dealer.test").
		WillReturnError(sql.ErrNoRows)

	tok, err := auth.NewAccessToken(testSecret, "gone@dealer.test", time.Hour)
	require.NoError(t, err)

	p, _ := runIdentity(t, users, "Bearer "+tok.Token)
	assert.Nil(t, p)
}
