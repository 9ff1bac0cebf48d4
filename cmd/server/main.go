package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/config"
	"github.com/cbcoder/dealer-webapp/internal/database"
	"github.com/cbcoder/dealer-webapp/internal/handler"
	"github.com/cbcoder/dealer-webapp/internal/queue"
	"github.com/cbcoder/dealer-webapp/internal/repository"
	"github.com/cbcoder/dealer-webapp/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	cars := repository.NewCarRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := roles.Seed(ctx); err != nil {
		cancel()
		log.Fatalf("seed roles: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades

	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users, roles),
		User:       handler.NewUserHandler(cfg, users),
		Admin:      handler.NewAdminHandler(cfg, users),
		SuperAdmin: handler.NewSuperAdminHandler(cfg, users),
		Car:        handler.NewCarHandler(cfg, cars, users),
	}
	router.RegisterRoutes(e, cfg, users, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
