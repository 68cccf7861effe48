package logger

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// CronLogger forwards robfig/cron's internal logging into slog.
type CronLogger struct {
	log *slog.Logger
}

var _ cron.Logger = (*CronLogger)(nil)

// NewCronLogger tags every entry with the scheduler component.
func NewCronLogger(log *slog.Logger) *CronLogger {
	if log == nil {
		log = slog.Default()
	}
	return &CronLogger{log: log.With("component", "cron")}
}

// Info logs routine scheduler activity at debug level; cron is chatty.
func (c *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

// Error logs scheduler failures such as recovered job panics.
func (c *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
