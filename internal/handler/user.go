package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/auth"
	"github.com/cbcoder/dealer-webapp/internal/config"
	"github.com/cbcoder/dealer-webapp/internal/middleware"
	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/repository"
)

// UserHandler serves the self-service endpoint: a user maintaining their
// own names and password.  Everything else about a user account goes
// through the admin or superadmin handlers.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type updateUserReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Update rewrites the caller's own name fields and password.  The body
// email must match the target row (guards an id/email desync in the
// client) and the target must be the authenticated principal; users never
// edit each other here.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req updateUserReq
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
	p := middleware.PrincipalFrom(c)
	if p == nil || p.Email != target.Email {
		return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": "user can only update their own information"})
	}
	if len(req.Password) < auth.MinPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters long"})
	}
	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	err = h.Users.UpdateProfile(ctx, id,
		model.NormalizeName(req.FirstName), model.NormalizeLastName(req.LastName), hash)
	if err != nil {
		return storeError(c, err)
	}
	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserView(&updated))
}
