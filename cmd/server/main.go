package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/stratal/graphite/internal/config"
	"github.com/stratal/graphite/internal/server"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}

	ctx := context.Background()
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize server", "err", err)
	}
	defer srv.Close(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("starting server", "port", port)
	if err := srv.SetupRouter().Run(":" + port); err != nil {
		logger.Fatal("server exited", "err", err)
	}
}
