package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/auth"
	"github.com/cbcoder/dealer-webapp/internal/config"
	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/queue"
	"github.com/cbcoder/dealer-webapp/internal/repository"
	queue_publisher "github.com/cbcoder/dealer-webapp/internal/service"
)

// AuthHandler bundles dependencies for the public auth endpoints:
// register, login and refresh.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Roles *repository.RoleRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, r *repository.RoleRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Roles: r}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type tokenResp struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates a new enabled user with the requested non-privileged
// roles.  Role choices at sign-up are SALES, WORKSHOP and VALETER; ADMIN
// is delegated by a super admin later and SUPERADMIN only ever comes from
// the delegation endpoints.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "firstName/lastName/email/password required"})
	}
	if len(req.Password) < auth.MinPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters long"})
	}
	if len(req.Roles) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one role required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	roleNames := make([]string, 0, len(req.Roles))
	seen := make(map[string]bool, len(req.Roles))
	for _, name := range req.Roles {
		name = strings.ToUpper(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		if _, err := h.Roles.GetByName(ctx, name); err != nil {
			if errors.Is(err, repository.ErrRoleNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": fmt.Sprintf("role %s not found", name)})
			}
			return storeError(c, err)
		}
		if !model.RegistrationRoles[name] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("role %s cannot be chosen at registration", name)})
		}
		seen[name] = true
		roleNames = append(roleNames, name)
	}

	taken, err := h.Users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return storeError(c, err)
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": fmt.Sprintf("user with email %s already exists", req.Email)})
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	u := model.User{
		FirstName:    model.NormalizeName(req.FirstName),
		LastName:     model.NormalizeLastName(req.LastName),
		Email:        req.Email,
		PasswordHash: hash,
		Enabled:      true, // new accounts are enabled; an admin can disable later
	}
	id, err := h.Users.Create(ctx, &u, roleNames)
	if err != nil {
		return storeError(c, err)
	}
	created, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}

	_ = queue_publisher.Publish(ctx, queue.AuditEvent{
		Kind:   queue.KindUserRegistered,
		UserID: created.ID,
		Email:  created.Email,
	})

	return c.JSON(http.StatusCreated, toUserView(&created))
}

// Login verifies credentials and issues an access/refresh token pair.  The
// enabled flag is checked before the password so a disabled account gets
// the explicit "not enabled" answer; unknown email and wrong password are
// indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return storeError(c, err)
	}
	if !u.Enabled {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user is not enabled"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	return h.issuePair(c, u.Email)
}

// Refresh exchanges a valid refresh token for a fresh access/refresh pair.
// The old refresh token is not revoked; it stays usable until its own
// expiry (stateless tokens, no blacklist).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)

	subject, err := auth.Subject(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return storeError(c, err)
	}
	if !auth.Validate(h.Cfg.JWTSecret, raw, auth.NewPrincipal(&u)) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	return h.issuePair(c, u.Email)
}

func (h *AuthHandler) issuePair(c echo.Context, email string) error {
	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, email, h.Cfg.AccessTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := auth.NewRefreshToken(h.Cfg.JWTSecret, email, nil, h.Cfg.RefreshTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: access.Token, RefreshToken: refresh.Token})
}
