package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"noticehub/internal/auth"
	"noticehub/internal/config"
	"noticehub/internal/db"
	"noticehub/internal/handlers"
	"noticehub/internal/migrations"
	"noticehub/internal/notice"
	"noticehub/internal/queue"
	"noticehub/internal/routes"
)

func main() {
	cfg := config.Load()

	db.InitDB()

	if err := migrations.Up(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := queue.InitQueue(cfg.RedisAddr); err != nil {
		log.Fatalf("Failed to initialize task queue: %v", err)
	}
	defer queue.Close()

	auth.InitJWT(cfg.JWTSecret)
	auth.InitSecurity()

	notifications := db.NewNotificationStore(db.DB)
	devices := db.NewDeviceStore(db.DB)
	broadcasts := db.NewBroadcastStore(db.DB)
	applications := db.NewApplicationStore(db.DB)
	directory := db.NewUserDirectory(db.DB)

	resolver := notice.NewResolver(directory)
	systemActor := notice.SystemActor(context.Background(), cfg.SystemActor, directory)
	factory := notice.NewFactory(notifications, systemActor)

	h := handlers.NewAPI(cfg, notifications, devices, broadcasts, applications, resolver, factory)

	e := echo.New()
	e.Use(middleware.Recover())

	api := e.Group("/api/v1")
	routes.SetupRoutes(api, h, applications)

	e.Logger.Fatal(e.Start(":8080"))
}
