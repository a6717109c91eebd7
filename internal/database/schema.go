package database

import (
	"fmt"

	"task-manager/api/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN is an in-memory SQLite database with foreign keys enforced.
const MemoryDSN = "file::memory:?_foreign_keys=on"

// AutoMigrate creates the schema from the models. Used for SQLite; Postgres
// deployments apply the embedded SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.EmailLog{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// OpenSQLiteMemory opens a private in-memory database with the schema in
// place. Each call returns an independent database.
func OpenSQLiteMemory(log zerolog.Logger) (*DatabasePool, error) {
	pool, err := NewDatabasePool(&PoolConfig{
		Driver: DriverSQLite,
		DSN:    MemoryDSN,
		// every connection to :memory: is a separate database
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     logger.Silent,
		Logger:       &log,
	})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(pool.DB); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return pool, nil
}
