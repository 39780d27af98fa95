// Package logging builds the application's zap logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a console logger at debug level for development and a JSON
// logger at info level otherwise. LOG_LEVEL overrides the level.
func New(env string) *zap.Logger {
	var config zap.Config
	if env == "development" || env == "dev" {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		config.EncoderConfig.TimeKey = "time"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if level, err := zap.ParseAtomicLevel(lvl); err == nil {
			config.Level = level
		}
	}

	logger, err := config.Build()
	if err != nil {
		// Fallback to a no-op logger if configuration fails
		return zap.NewNop()
	}
	return logger.With(zap.String("service", "nietladen"))
}
