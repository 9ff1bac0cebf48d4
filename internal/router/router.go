package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cbcoder/dealer-webapp/internal/config"
	"github.com/cbcoder/dealer-webapp/internal/handler"
	"github.com/cbcoder/dealer-webapp/internal/middleware"
	"github.com/cbcoder/dealer-webapp/internal/model"
	"github.com/cbcoder/dealer-webapp/internal/repository"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Admin      *handler.AdminHandler
	SuperAdmin *handler.SuperAdminHandler
	Car        *handler.CarHandler
}

// RegisterRoutes wires the whole API onto the Echo instance.
//
// The auth endpoints sit behind the Redis token bucket so credential
// guessing is throttled.  Everything after /auth passes through the
// identity middleware, which binds a principal when a valid Bearer token
// is presented and stays silent otherwise; the role gates on each group
// decide who gets in.
func RegisterRoutes(e *echo.Echo, cfg config.Config, users *repository.UserRepo, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	authGroup := e.Group("/auth", rl)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh/token", h.Auth.Refresh)

	e.Use(middleware.Authenticate(cfg.JWTSecret, users))

	anyRole := middleware.RequireRole(model.AllRoles...)
	adminRole := middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin)
	superRole := middleware.RequireRole(model.RoleSuperAdmin)
	carWrite := middleware.RequireRole(model.RoleAdmin, model.RoleSales)
	carRead := middleware.RequireRole(model.RoleAdmin, model.RoleSales, model.RoleWorkshop, model.RoleValeter)

	userGroup := e.Group("/users", anyRole)
	userGroup.PUT("/:userId", h.User.Update)

	adminGroup := e.Group("/admin", adminRole)
	adminGroup.GET("/all", h.Admin.All)
	adminGroup.GET("/get/:userId", h.Admin.Get)
	adminGroup.PUT("/update/:userId", h.Admin.Update)
	adminGroup.DELETE("/delete/:userId", h.Admin.Delete)

	superGroup := e.Group("/superadmin", superRole)
	superGroup.POST("/addAdminRole", h.SuperAdmin.AddAdminRole)
	superGroup.PUT("/revokeAdminRole/:userId", h.SuperAdmin.RevokeAdminRole)
	superGroup.POST("/createSuperAdmin", h.SuperAdmin.CreateSuperAdmin)
	superGroup.DELETE("/deleteSuperAdminRole/:userId", h.SuperAdmin.DeleteSuperAdminRole)
	superGroup.PUT("/revokeSuperAdminRole/:userId", h.SuperAdmin.RevokeSuperAdminRole)

	carGroup := e.Group("/cars")
	carGroup.POST("/create", h.Car.Create, carWrite)
	carGroup.PUT("/update-to-sold/:carId", h.Car.UpdateToSold, carWrite)
	carGroup.DELETE("/delete/:carId", h.Car.Delete, carWrite)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	carGroup.GET("/all-cars", h.Car.All, carRead, cache)
	carGroup.GET("/all-stock-cars", h.Car.AllStock, carRead, cache)
	carGroup.GET("/all-sold-cars", h.Car.AllSold, carRead, cache)
	carGroup.GET("/car-by-id/:carId", h.Car.Get, carRead, cache)
	carGroup.GET("/reg-number/:regNumber", h.Car.ByRegNumber, carRead, cache)
	carGroup.GET("/chassis-number/:chassisNumber", h.Car.ByChassisNumber, carRead, cache)
	carGroup.GET("/car-by-model/:model", h.Car.ByModel, carRead, cache)
	carGroup.GET("/car-by-buyer/:buyerName", h.Car.ByBuyerName, carRead, cache)
}
