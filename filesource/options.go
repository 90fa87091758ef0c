package filesource

import (
	"log/slog"

	"github.com/meigma/essence/mappable"
	"github.com/meigma/essence/sga"
)

// DefaultSections lists the module sections searched by OpenModule, in
// priority order.
var DefaultSections = []string{
	"data:english",
	"data:common",
	"attrib:common",
	"data:art_high",
	"data:sound_high",
}

// DefaultOpenConcurrency is the default number of archives OpenModule opens
// at once.
const DefaultOpenConcurrency = 4

// Option configures OpenModule.
type Option func(*Module)

// WithLogger sets the logger for the module and the archives it opens.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithSections replaces the sections searched, in priority order.
func WithSections(sections ...string) Option {
	return func(m *Module) {
		m.sections = sections
	}
}

// WithOpenConcurrency limits how many archives are opened at once. Values
// below 1 open them one at a time.
func WithOpenConcurrency(n int) Option {
	return func(m *Module) {
		m.concurrency = max(n, 1)
	}
}

// WithArchiveOptions passes options to every archive the module opens.
func WithArchiveOptions(opts ...sga.Option) Option {
	return func(m *Module) {
		m.archiveOpts = append(m.archiveOpts, opts...)
	}
}

// WithMappableOptions sets the options used to open loose files from
// module folders.
func WithMappableOptions(opts ...mappable.Option) Option {
	return func(m *Module) {
		m.mapOpts = opts
	}
}
