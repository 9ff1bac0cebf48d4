package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/config"
	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/repository"
)

// AdminHandler serves user administration: paged listing, lookup, the
// privileged update (enabled flag + full role set) and deletion.  Routes
// are gated to ADMIN/SUPERADMIN by the router.
type AdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: u}
}

type adminUpdateReq struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Enabled   bool     `json:"enabled"`
	Roles     []string `json:"roles"`
}

// All returns one page of users.
func (h *AdminHandler) All(c echo.Context) error {
	page, size := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, total, err := h.Users.List(ctx, page, size)
	if err != nil {
		return storeError(c, err)
	}
	if total == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no users found"})
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	return c.JSON(http.StatusOK, newPageView(views, page, size, total))
}

// Get returns a single user by id.
func (h *AdminHandler) Get(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserView(&u))
}

// Update is the admin-privileged user update: names, the enabled flag and
// a full replacement of the role set.  The body email must match the
// target row; unknown role names are skipped rather than rejected.
func (h *AdminHandler) Update(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req adminUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	if req.Email != target.Email {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email not matching with the user email"})
	}

	roles := make([]string, 0, len(req.Roles))
	for _, r := range req.Roles {
		roles = append(roles, strings.ToUpper(strings.TrimSpace(r)))
	}
	err = h.Users.AdminUpdate(ctx, id,
		model.NormalizeName(req.FirstName), model.NormalizeLastName(req.LastName),
		req.Enabled, roles)
	if err != nil {
		return storeError(c, err)
	}
	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserView(&updated))
}

// Delete removes an ordinary user.  Accounts holding ADMIN or SUPERADMIN
// are protected from this path: ADMIN must be revoked first and a
// SUPERADMIN only leaves through the delegation protocol.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	if target.HasRole(model.RoleAdmin) || target.HasRole(model.RoleSuperAdmin) {
		return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": "operation not permitted"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
}
