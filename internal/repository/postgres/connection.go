package postgres

import (
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/repository"
	"github.com/mkells/robot-orchestra/internal/repository/memory"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	if err := db.AutoMigrate(&domain.Match{}); err != nil {
		return nil, err
	}

	return db, nil
}

// NewRepositories wires the Postgres match store with an in-memory session
// store. Sessions are bound to live connections on this process, so they have
// no reason to outlive it.
func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Match:   NewMatchRepository(db),
		Session: memory.NewSessionRepository(),
	}
}
