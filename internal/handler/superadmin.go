package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/auth"
	"github.com/cbcoder/dealer-webapp/internal/config"
	"github.com/cbcoder/dealer-webapp/internal/middleware"
	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/queue"
	"github.com/cbcoder/dealer-webapp/internal/repository"
	queue_publisher "github.com/cbcoder/dealer-webapp/internal/service"
)

// SuperAdminHandler implements the delegation protocol: granting and
// revoking ADMIN, and creating, demoting or deleting SUPERADMIN accounts.
// Besides the route gate, every operation re-checks that the caller's
// principal holds SUPERADMIN; route configuration alone is not trusted
// with these.
type SuperAdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewSuperAdminHandler(cfg config.Config, u *repository.UserRepo) *SuperAdminHandler {
	return &SuperAdminHandler{Cfg: cfg, Users: u}
}

type addAdminReq struct {
	UserID uint64 `json:"userId"`
	Email  string `json:"email"`
}

type createSuperAdminReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// caller returns the request principal if it holds SUPERADMIN, else nil.
func (h *SuperAdminHandler) caller(c echo.Context) *auth.Principal {
	p := middleware.PrincipalFrom(c)
	if p == nil || !p.HasRole(model.RoleSuperAdmin) {
		return nil
	}
	return p
}

// AddAdminRole grants ADMIN to the user named in the body.  The supplied
// email must match the target's current email (defends against an
// id/email desync on the client side) and a re-grant is a conflict.
func (h *SuperAdminHandler) AddAdminRole(c echo.Context) error {
	p := h.caller(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "only super admin can add admin role to user"})
	}
	var req addAdminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	target, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return storeError(c, err)
	}
	if strings.ToLower(strings.TrimSpace(req.Email)) != target.Email {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email given not matching with user email"})
	}
	if err := h.Users.AddAdminRole(ctx, target.ID); err != nil {
		return storeError(c, err)
	}
	updated, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		return storeError(c, err)
	}

	_ = queue_publisher.Publish(ctx, queue.AuditEvent{
		Kind: queue.KindRoleGranted, UserID: updated.ID, Email: updated.Email,
		Role: model.RoleAdmin, Actor: p.Email,
	})
	return c.JSON(http.StatusOK, toUserView(&updated))
}

// RevokeAdminRole removes ADMIN from the target, which must hold it.
func (h *SuperAdminHandler) RevokeAdminRole(c echo.Context) error {
	p := h.caller(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "only super admin can revoke admin role from user"})
	}
	id, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.RevokeAdminRole(ctx, id); err != nil {
		return storeError(c, err)
	}
	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}

	_ = queue_publisher.Publish(ctx, queue.AuditEvent{
		Kind: queue.KindRoleRevoked, UserID: updated.ID, Email: updated.Email,
		Role: model.RoleAdmin, Actor: p.Email,
	})
	return c.JSON(http.StatusOK, toUserView(&updated))
}

// CreateSuperAdmin promotes an existing account (matched by email) or
// creates a fresh enabled one, then ensures it holds SUPERADMIN.  Unlike
// AddAdminRole the grant is idempotent: this operation doubles as
// create-and-ensure.
func (h *SuperAdminHandler) CreateSuperAdmin(c echo.Context) error {
	p := h.caller(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "only super admin can create super admin"})
	}
	var req createSuperAdminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	target, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		if req.Password == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required for new user"})
		}
		hash, herr := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
		if herr != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
		u := model.User{
			FirstName:    model.NormalizeName(req.FirstName),
			LastName:     model.NormalizeLastName(req.LastName),
			Email:        req.Email,
			PasswordHash: hash,
			Enabled:      true,
		}
		id, cerr := h.Users.Create(ctx, &u, nil)
		if cerr != nil {
			return storeError(c, cerr)
		}
		target, err = h.Users.GetByID(ctx, id)
	}
	if err != nil {
		return storeError(c, err)
	}

	if err := h.Users.EnsureSuperAdmin(ctx, target.ID); err != nil {
		return storeError(c, err)
	}
	updated, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		return storeError(c, err)
	}

	_ = queue_publisher.Publish(ctx, queue.AuditEvent{
		Kind: queue.KindRoleGranted, UserID: updated.ID, Email: updated.Email,
		Role: model.RoleSuperAdmin, Actor: p.Email,
	})
	return c.JSON(http.StatusCreated, toUserView(&updated))
}

// DeleteSuperAdminRole deletes the whole account of another super admin.
// Self-deletion is refused, and the quorum invariant holds: at least one
// SUPERADMIN must remain, so the store must have two before the delete.
func (h *SuperAdminHandler) DeleteSuperAdminRole(c echo.Context) error {
	p := h.caller(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "only super admin can delete super admin role"})
	}
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
	if target.Email == p.Email {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "super admin cannot delete own role"})
	}
	if err := h.Users.DeleteSuperAdmin(ctx, id); err != nil {
		return storeError(c, err)
	}

	_ = queue_publisher.Publish(ctx, queue.AuditEvent{
		Kind: queue.KindRoleRevoked, UserID: target.ID, Email: target.Email,
		Role: model.RoleSuperAdmin, Actor: p.Email,
	})
	return c.NoContent(http.StatusNoContent)
}

// RevokeSuperAdminRole demotes a super admin who also holds another role.
// A sole-role SUPERADMIN cannot be left roleless; that case is reported
// the same as not holding the role.
func (h *SuperAdminHandler) RevokeSuperAdminRole(c echo.Context) error {
	p := h.caller(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "only super admin can revoke super admin role"})
	}
	id, err := pathID(c, "userId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.RevokeSuperAdmin(ctx, id); err != nil {
		return storeError(c, err)
	}
	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}

	_ = queue_publisher.Publish(ctx, queue.AuditEvent{
		Kind: queue.KindRoleRevoked, UserID: updated.ID, Email: updated.Email,
		Role: model.RoleSuperAdmin, Actor: p.Email,
	})
	return c.JSON(http.StatusOK, toUserView(&updated))
}
