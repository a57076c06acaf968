package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/charlesng35/softstore/pkg/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// NewGormLogger routes gorm's query log into the zap "database" module logger.
// Unique-constraint failures are expected during soft-delete resurrection, so the
// default level is silent.
func NewGormLogger(level string) gormlogger.Interface {
	return gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  parseGormLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func parseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return gormlogger.Error
	case "warn", "warning":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log := logger.WithModule("database")

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "slow sql"):
		log.Warn("slow query", zap.String("details", msg))
	case strings.Contains(lower, "error"):
		log.Error("database error", zap.String("details", msg))
	default:
		log.Debug("database query", zap.String("details", msg))
	}
}
