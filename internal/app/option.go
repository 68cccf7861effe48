package app

import (
	"io"
	"log/slog"
)

// Option configures an Application.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) {
		a.logger = logger
	}
}

// WithDryRun prints payloads to w instead of sending them and skips every
// write to the database.
func WithDryRun(w io.Writer) Option {
	return func(a *Application) {
		a.dryRun = true
		a.preview = w
	}
}

// WithConfigPath records where the config came from so serve can watch it.
func WithConfigPath(path string) Option {
	return func(a *Application) {
		a.configPath = path
	}
}
