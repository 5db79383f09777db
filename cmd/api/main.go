package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"taskapi/internal/app"
	"taskapi/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		log.Fatalf("инициализация: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("запуск: %v", err)
	}
}
