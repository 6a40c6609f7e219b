// Package logging holds the logger factory shared by every package in this module.
package logging

import (
	"github.com/pion/logging"
)

var loggerFactory logging.LoggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger creates a leveled logger for scope. Levels are controlled by the
// PION_LOG_* environment variables of the default factory.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}

// Factory returns the factory backing NewLogger.
func Factory() logging.LoggerFactory {
	return loggerFactory
}
