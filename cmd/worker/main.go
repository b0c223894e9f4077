package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"noticehub/internal/broadcast"
	"noticehub/internal/channel"
	"noticehub/internal/config"
	"noticehub/internal/db"
	"noticehub/internal/notice"
	"noticehub/internal/worker"
)

func main() {
	cfg := config.Load()

	db.InitDB()

	if err := config.InitFirebase(); err != nil {
		slog.Warn("Firebase not configured, push channels will be unavailable", "error", err)
	}

	notifications := db.NewNotificationStore(db.DB)
	devices := db.NewDeviceStore(db.DB)
	broadcasts := db.NewBroadcastStore(db.DB)
	directory := db.NewUserDirectory(db.DB)

	registry := channel.NewRegistry()
	registry.Register(notice.ChannelEmail, channel.NewSMTPSender(channel.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	}))
	if fcm := config.GetMessagingClient(); fcm != nil {
		registry.Register(notice.ChannelGCM, channel.NewFCMSender(fcm, devices, notice.ChannelGCM))
		registry.Register(notice.ChannelWebPush, channel.NewFCMSender(fcm, devices, notice.ChannelWebPush))
	}

	resolver := notice.NewResolver(directory)
	systemActor := notice.SystemActor(context.Background(), cfg.SystemActor, directory)
	factory := notice.NewFactory(notifications, systemActor)
	router := notice.NewRouter(devices)
	dispatcher := notice.NewDispatcher(registry, notifications, cfg.DispatchConcurrency)
	engine := broadcast.NewEngine(resolver, factory, dispatcher, registry, broadcasts, broadcasts)

	w := worker.NewWorker(worker.Deps{
		RedisAddr:     cfg.RedisAddr,
		Engine:        engine,
		Dispatcher:    dispatcher,
		Router:        router,
		Notifications: notifications,
		Broadcasts:    broadcasts,
		Directory:     directory,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
