package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// Console is a Sink that writes human-readable log lines to stderr.
type Console struct {
	logger *log.Logger
}

// NewConsole creates a console sink. With debug enabled the level drops
// to DEBUG, otherwise INFO and above are reported.
func NewConsole(debug bool) *Console {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return &Console{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		}),
	}
}

func (c *Console) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

func (c *Console) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

func (c *Console) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

func (c *Console) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}

func (c *Console) Fatal(message string, keyvals ...any) {
	c.logger.Fatal(message, keyvals...)
}
