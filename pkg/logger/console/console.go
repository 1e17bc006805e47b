package console

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// ConsoleSink writes log records to stderr via charmbracelet/log.
type ConsoleSink struct {
	logger *log.Logger
}

// Options configures a ConsoleSink.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Anything else
	// falls back to "info".
	Level string
}

// NewConsoleSink creates a stderr sink with timestamps enabled.
func NewConsoleSink(opts Options) *ConsoleSink {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           parseLevel(opts.Level),
	})
	return &ConsoleSink{
		logger: logger,
	}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Debug writes a message at DEBUG level.
func (c *ConsoleSink) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

// Info writes a message at INFO level.
func (c *ConsoleSink) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

// Warn writes a message at WARN level.
func (c *ConsoleSink) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

// Error writes a message at ERROR level.
func (c *ConsoleSink) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}

// Fatal writes a message at FATAL level and terminates the program.
func (c *ConsoleSink) Fatal(message string, keyvals ...any) {
	c.logger.Fatal(message, keyvals...)
}
