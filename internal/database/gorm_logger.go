package database

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
)

// NewGormLogger routes gorm's SQL logging through zerolog.
func NewGormLogger(log zerolog.Logger, level logger.LogLevel, slow time.Duration) logger.Interface {
	if level == 0 {
		level = logger.Warn
	}
	l := log.With().Str("component", "gorm").Logger()
	return logger.New(&l, logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}
