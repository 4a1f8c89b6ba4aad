package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	service "github.com/iamrekas/geyserbench/internal"
	"github.com/iamrekas/geyserbench/internal/config"
)

func main() {
	logger := log.New(os.Stdout, "geyserbench ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// Optional .env for local runs; the environment always wins.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	app := service.NewApp(cfg, logger)

	if err := app.Run(ctx); err != nil {
		logger.Fatalf("service exited with error: %v", err)
	}
}
