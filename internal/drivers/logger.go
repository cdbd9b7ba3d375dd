package drivers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"

	"github.com/shepherrrd/hybrid/internal/logging"
)

// slogWriter forwards gorm's printf-style output to the structured logger
type slogWriter struct {
	level slog.Level
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	logging.Get().Log(context.Background(), w.level, msg, "component", "gorm")
}

// NewGormLogger configures gorm's logger from a level name. Unknown names are silent.
func NewGormLogger(logLevel string) logger.Interface {
	var (
		level   logger.LogLevel
		slogLvl slog.Level
	)
	switch strings.ToLower(logLevel) {
	case "info": // shows every SQL statement
		level, slogLvl = logger.Info, slog.LevelInfo
	case "warn": // slow queries and errors
		level, slogLvl = logger.Warn, slog.LevelWarn
	case "error":
		level, slogLvl = logger.Error, slog.LevelError
	default:
		return logger.Default.LogMode(logger.Silent)
	}

	return logger.New(
		slogWriter{level: slogLvl},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
