package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/config"
	"github.com/licshop/ordermgr/internal/localstore"
	"github.com/licshop/ordermgr/internal/server"
	"github.com/licshop/ordermgr/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	persist, err := storage.New(cfg.Storage.DataDir, logger)
	if err != nil {
		logger.Fatal("Failed to open data directory", zap.Error(err))
	}

	orders := localstore.New(persist, logger)
	router := server.NewRouter(cfg, orders, logger)

	logger.Info("Starting order dev server",
		zap.String("port", cfg.Port),
		zap.String("data_dir", cfg.Storage.DataDir),
	)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
