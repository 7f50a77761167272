package bootstrap

import (
	"fmt"
	"log"

	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/store"
)

// initializeDatabase opens the backing store and runs migrations
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database initialized (driver: %s)", cfg.DatabaseDriver)
	return db, nil
}
