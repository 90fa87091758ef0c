package model

import "log/slog"

// Option configures Load.
type Option func(*Model)

// WithLogger sets the logger used while loading. Nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}
