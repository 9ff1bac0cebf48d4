package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/config"
	"github.com/cbcoder/dealer-webapp/internal/middleware"
	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/queue"
	"github.com/cbcoder/dealer-webapp/internal/repository"
	queue_publisher "github.com/cbcoder/dealer-webapp/internal/service"
)

// CarHandler serves the car inventory: intake, the sale flip, deletion and
// the read endpoints used by the workshop and valeting teams.
type CarHandler struct {
	Cfg   config.Config
	Cars  *repository.CarRepo
	Users *repository.UserRepo
}

func NewCarHandler(cfg config.Config, cars *repository.CarRepo, users *repository.UserRepo) *CarHandler {
	return &CarHandler{Cfg: cfg, Cars: cars, Users: users}
}

type createCarReq struct {
	Make          string `json:"make"`
	Model         string `json:"model"`
	Color         string `json:"color"`
	RegNumber     string `json:"regNumber"`
	ChassisNumber string `json:"chassisNumber"`
	KeyNumber     int    `json:"keyNumber"`
	Comments      string `json:"comments"`
}

type sellCarReq struct {
	BuyerName        string   `json:"buyerName"`
	HandoverDate     string   `json:"handoverDate"` // RFC 3339 or yyyy-mm-dd, optional
	WorkshopStatuses []string `json:"workshopServiceStatus"`
	ValeterStatuses  []string `json:"valeterStatus"`
	Comments         string   `json:"comments"`
}

// actor resolves the authenticated principal to its user row; car rows
// record who created or last touched them.
func (h *CarHandler) actor(ctx context.Context, c echo.Context) (model.User, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return model.User{}, repository.ErrUserNotFound
	}
	return h.Users.GetByEmail(ctx, p.Email)
}

// Create takes a car into stock.  Plate and chassis number are unique
// across the inventory; a clash on either is a conflict.
func (h *CarHandler) Create(c echo.Context) error {
	var req createCarReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RegNumber = strings.ToUpper(strings.TrimSpace(req.RegNumber))
	req.ChassisNumber = strings.ToUpper(strings.TrimSpace(req.ChassisNumber))
	if req.Make == "" || req.Model == "" || req.RegNumber == "" || req.ChassisNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "make/model/regNumber/chassisNumber required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if taken, err := h.Cars.ExistsByRegNumber(ctx, req.RegNumber); err != nil {
		return storeError(c, err)
	} else if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": fmt.Sprintf("car with reg number %s already exists", req.RegNumber)})
	}
	if taken, err := h.Cars.ExistsByChassisNumber(ctx, req.ChassisNumber); err != nil {
		return storeError(c, err)
	} else if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": fmt.Sprintf("car with chassis number %s already exists", req.ChassisNumber)})
	}

	actor, err := h.actor(ctx, c)
	if err != nil {
		return storeError(c, err)
	}

	car := model.Car{
		Make:          strings.TrimSpace(req.Make),
		Model:         strings.TrimSpace(req.Model),
		Color:         strings.TrimSpace(req.Color),
		RegNumber:     req.RegNumber,
		ChassisNumber: req.ChassisNumber,
		KeyNumber:     req.KeyNumber,
		Comments:      req.Comments,
		CreatedBy:     actor.ID,
	}
	id, err := h.Cars.Create(ctx, &car)
	if err != nil {
		return storeError(c, err)
	}
	created, err := h.Cars.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, toCarView(&created))
}

// UpdateToSold flips a stock car to SOLD, recording buyer, handover date
// and the outstanding workshop/valeter work.
func (h *CarHandler) UpdateToSold(c echo.Context) error {
	id, err := pathID(c, "carId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	var req sellCarReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.BuyerName = strings.TrimSpace(req.BuyerName)
	if req.BuyerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "buyerName required"})
	}

	var handover *time.Time
	if s := strings.TrimSpace(req.HandoverDate); s != "" {
		t, perr := parseDate(s)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid handoverDate"})
		}
		handover = &t
	}
	workshop, err := normalizeStatuses(req.WorkshopStatuses, model.IsWorkshopStatus)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	valeter, err := normalizeStatuses(req.ValeterStatuses, model.IsValeterStatus)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	actor, err := h.actor(ctx, c)
	if err != nil {
		return storeError(c, err)
	}
	if err := h.Cars.UpdateToSold(ctx, id, req.BuyerName, handover, workshop, valeter, req.Comments, actor.ID); err != nil {
		return storeError(c, err)
	}
	updated, err := h.Cars.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}

	_ = queue_publisher.Publish(ctx, queue.AuditEvent{
		Kind: queue.KindCarSold, CarID: updated.ID, RegNumber: updated.RegNumber,
		BuyerName: updated.BuyerName, Actor: actor.Email,
	})
	return c.JSON(http.StatusOK, toCarView(&updated))
}

// Delete removes a car from the inventory.
func (h *CarHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "carId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Cars.Delete(ctx, id); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "car deleted successfully"})
}

// All returns one page over the whole inventory.
func (h *CarHandler) All(c echo.Context) error {
	return h.paged(c, func(ctx context.Context, page, size int) ([]model.Car, int64, error) {
		return h.Cars.ListAll(ctx, page, size)
	})
}

// AllStock returns one page of cars still in stock.
func (h *CarHandler) AllStock(c echo.Context) error {
	return h.paged(c, func(ctx context.Context, page, size int) ([]model.Car, int64, error) {
		return h.Cars.ListByStatus(ctx, model.CarStatusStock, page, size)
	})
}

// AllSold returns one page of sold cars.
func (h *CarHandler) AllSold(c echo.Context) error {
	return h.paged(c, func(ctx context.Context, page, size int) ([]model.Car, int64, error) {
		return h.Cars.ListByStatus(ctx, model.CarStatusSold, page, size)
	})
}

// ByModel returns one page of cars whose model matches the path fragment.
func (h *CarHandler) ByModel(c echo.Context) error {
	fragment := c.Param("model")
	return h.paged(c, func(ctx context.Context, page, size int) ([]model.Car, int64, error) {
		return h.Cars.FindByModel(ctx, fragment, page, size)
	})
}

func (h *CarHandler) paged(c echo.Context, fetch func(context.Context, int, int) ([]model.Car, int64, error)) error {
	page, size := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cars, total, err := fetch(ctx, page, size)
	if err != nil {
		return storeError(c, err)
	}
	if total == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no cars found"})
	}
	return c.JSON(http.StatusOK, newPageView(carViews(cars), page, size, total))
}

// Get returns a single car by id.
func (h *CarHandler) Get(c echo.Context) error {
	id, err := pathID(c, "carId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	car, err := h.Cars.GetByID(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toCarView(&car))
}

// ByRegNumber finds cars whose plate contains the path fragment.
func (h *CarHandler) ByRegNumber(c echo.Context) error {
	return h.listBy(c, c.Param("regNumber"), h.Cars.FindByRegNumber)
}

// ByChassisNumber finds cars whose chassis number contains the path
// fragment.
func (h *CarHandler) ByChassisNumber(c echo.Context) error {
	return h.listBy(c, c.Param("chassisNumber"), h.Cars.FindByChassisNumber)
}

// ByBuyerName finds sold cars whose buyer name contains the path fragment.
func (h *CarHandler) ByBuyerName(c echo.Context) error {
	return h.listBy(c, c.Param("buyerName"), h.Cars.FindByBuyerName)
}

func (h *CarHandler) listBy(c echo.Context, fragment string, fetch func(context.Context, string) ([]model.Car, error)) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cars, err := fetch(ctx, fragment)
	if err != nil {
		return storeError(c, err)
	}
	if len(cars) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no cars found"})
	}
	return c.JSON(http.StatusOK, carViews(cars))
}

func carViews(cars []model.Car) []carView {
	views := make([]carView, 0, len(cars))
	for i := range cars {
		views = append(views, toCarView(&cars[i]))
	}
	return views
}

// normalizeStatuses uppercases and validates a status set.
func normalizeStatuses(in []string, known func(string) bool) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !known(s) {
			return nil, fmt.Errorf("unknown status %s", s)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
