// Package logging initializes the global zap logger with ECS-formatted JSON
// output, the level taken from an environment variable.
package logging

import (
	"os"
	"strings"

	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New sets up the global sugared logger. levelEnvVar names the variable
// holding the minimum level (DEVELOPMENT selects debug); an empty or unknown
// value means info. Returns the logger so callers can defer Sync.
func New(levelEnvVar string) *zap.Logger {
	level := parseLevel(os.Getenv(levelEnvVar))
	encoderConfig := ecszap.NewDefaultEncoderConfig()
	core := ecszap.NewCore(encoderConfig, os.Stdout, level)
	logger := zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return logger
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToUpper(s) {
	case "DEVELOPMENT", "DEBUG":
		return zap.DebugLevel
	case "INFO":
		return zap.InfoLevel
	case "WARN", "WARNING":
		return zap.WarnLevel
	case "ERROR":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
