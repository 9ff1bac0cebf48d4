package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbcoder/dealer-webapp/internal/auth"
	"github.com/cbcoder/dealer-webapp/internal/model"
)

func runGate(t *testing.T, p *auth.Principal, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		BindPrincipal(c, p)
	}

	handler := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

func TestRequireRole(t *testing.T) {
	sales := &auth.Principal{Email: "s@dealer.test", Roles: []string{model.RoleSales}}
	admin := &auth.Principal{Email: "a@dealer.test", Roles: []string{model.RoleAdmin}}

	cases := []struct {
		name      string
		principal *auth.Principal
		allowed   []string
		want      int
	}{
		{"anonymous gets 401", nil, []string{model.RoleSales}, http.StatusUnauthorized},
		{"wrong role gets 403", sales, []string{model.RoleAdmin, model.RoleSuperAdmin}, http.StatusForbidden},
		{"matching role passes", admin, []string{model.RoleAdmin, model.RoleSuperAdmin}, http.StatusOK},
		{"any of several roles passes", sales, []string{model.RoleAdmin, model.RoleSales}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := runGate(t, tc.principal, tc.allowed...)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
