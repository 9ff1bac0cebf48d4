package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/repository"
)

// dbTimeout bounds every store call made from a handler.
const dbTimeout = 5 * time.Second

// userView is the outward shape of a user.  The password hash is never
// serialized.
type userView struct {
	UserID    uint64    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Roles     []string  `json:"roles"`
}

func toUserView(u *model.User) userView {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userView{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		Roles:     roles,
	}
}

// carView is the outward shape of a car.
type carView struct {
	CarID            uint64     `json:"carId"`
	Make             string     `json:"make"`
	Model            string     `json:"model"`
	Color            string     `json:"color"`
	RegNumber        string     `json:"regNumber"`
	ChassisNumber    string     `json:"chassisNumber"`
	KeyNumber        int        `json:"keyNumber"`
	CarStatus        string     `json:"carStatus"`
	BuyerName        string     `json:"buyerName,omitempty"`
	HandoverDate     *time.Time `json:"handoverDate,omitempty"`
	Comments         string     `json:"comments,omitempty"`
	WorkshopStatuses []string   `json:"workshopServiceStatus"`
	ValeterStatuses  []string   `json:"valeterStatus"`
	UserID           uint64     `json:"userId"`
	DateCreated      time.Time  `json:"dateCreated"`
	DateUpdated      time.Time  `json:"dateUpdated"`
}

func toCarView(c *model.Car) carView {
	workshop := c.WorkshopStatuses
	if workshop == nil {
		workshop = []string{}
	}
	valeter := c.ValeterStatuses
	if valeter == nil {
		valeter = []string{}
	}
	return carView{
		CarID:            c.ID,
		Make:             c.Make,
		Model:            c.Model,
		Color:            c.Color,
		RegNumber:        c.RegNumber,
		ChassisNumber:    c.ChassisNumber,
		KeyNumber:        c.KeyNumber,
		CarStatus:        c.Status,
		BuyerName:        c.BuyerName,
		HandoverDate:     c.HandoverDate,
		Comments:         c.Comments,
		WorkshopStatuses: workshop,
		ValeterStatuses:  valeter,
		UserID:           c.CreatedBy,
		DateCreated:      c.DateCreated,
		DateUpdated:      c.DateUpdated,
	}
}

// pageView is the paging envelope for list endpoints.
type pageView struct {
	Content       any   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int64 `json:"totalPages"`
}

func newPageView(content any, page, size int, total int64) pageView {
	pages := total / int64(size)
	if total%int64(size) != 0 {
		pages++
	}
	return pageView{Content: content, Page: page, Size: size, TotalElements: total, TotalPages: pages}
}

// maxPage caps the page number so page*size can never overflow into a
// negative OFFSET.
const maxPage = 1 << 20

// pageParams reads ?page= and ?size= with sane defaults and caps.
func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}
	if page > maxPage {
		page = maxPage
	}
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// storeError maps repository sentinels onto HTTP responses.  Anything
// unknown becomes an opaque 500; internals never leak to the client.
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrRoleNotFound),
		errors.Is(err, repository.ErrCarNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrCarExists),
		errors.Is(err, repository.ErrRoleAlreadyAssigned):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSuperAdminQuorum):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
