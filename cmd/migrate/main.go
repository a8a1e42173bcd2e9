package main

import (
	"fmt"
	"os"

	"github.com/pageza/nutrisnap/backend/config"
	"github.com/pageza/nutrisnap/backend/internal/database"
	"github.com/pageza/nutrisnap/backend/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("migration failed", "error", err)
	}
	log.Info("migrations applied")
}
