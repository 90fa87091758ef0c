package filesource

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/ini.v1"

	"github.com/meigma/essence/mappable"
	"github.com/meigma/essence/sga"
)

// Module is the layered source described by a .module file.
type Module struct {
	path     string
	agg      *Aggregate
	archives []*sga.Archive

	logger      *slog.Logger
	sections    []string
	concurrency int
	archiveOpts []sga.Option
	mapOpts     []mappable.Option
}

// log returns the logger, falling back to a discard logger if nil.
func (m *Module) log() *slog.Logger {
	if m.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.logger
}

// moduleKey is a section or key name with its numeric suffix split off.
// "archive.02", "archive:2" and "archive2" all name index 2 of "archive";
// a missing or zero suffix means index 1.
type moduleKey struct {
	name  string
	index int
}

const maxKeyDigits = 9

func parseKey(s string) moduleKey {
	s = strings.TrimSpace(s)
	end := len(s)
	for end > 0 && len(s)-end < maxKeyDigits && s[end-1] >= '0' && s[end-1] <= '9' {
		end--
	}
	index := 0
	for _, c := range s[end:] {
		index = index*10 + int(c-'0')
	}
	name := s[:end]
	if end > 0 && (s[end-1] == '.' || s[end-1] == ':') {
		name = s[:end-1]
	}
	return moduleKey{name: strings.TrimSpace(name), index: max(index, 1)}
}

type moduleSection map[moduleKey]string

var iniOptions = ini.LoadOptions{
	KeyValueDelimiters:      "=",
	IgnoreContinuation:      true,
	SkipUnrecognizableLines: true,
	AllowBooleanKeys:        true,
}

// parseModule indexes the sections and keys of a module description.
// Sections and keys that resolve to the same name and index are merged,
// later values winning.
func parseModule(data []byte) (map[moduleKey]moduleSection, error) {
	f, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, err
	}
	out := make(map[moduleKey]moduleSection)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		k := parseKey(sec.Name())
		ms, ok := out[k]
		if !ok {
			ms = make(moduleSection)
			out[k] = ms
		}
		for _, key := range sec.Keys() {
			ms[parseKey(key.Name())] = strings.TrimSpace(key.Value())
		}
	}
	return out, nil
}

// moduleEntry is a folder source or the path of an archive to open.
type moduleEntry struct {
	src     FileSource
	archive string
}

// OpenModule opens the .module file at path and layers the folders and
// archives it lists. Entries naming paths that do not exist are skipped.
// Archives are opened concurrently and searched in declared order.
func OpenModule(path string, opts ...Option) (*Module, error) {
	m := &Module{
		path:        path,
		sections:    DefaultSections,
		concurrency: DefaultOpenConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}

	data, err := os.ReadFile(path) //nolint:gosec // caller-provided path
	if err != nil {
		return nil, err
	}
	parsed, err := parseModule(data)
	if err != nil {
		return nil, fmt.Errorf("filesource: parse %s: %w", path, err)
	}

	entries := m.plan(parsed, NewDir(filepath.Dir(path), m.mapOpts...))
	archives := make([]*sga.Archive, len(entries))
	g := new(errgroup.Group)
	g.SetLimit(m.concurrency)
	for i, e := range entries {
		if e.archive == "" {
			continue
		}
		g.Go(func() error {
			aopts := append([]sga.Option{sga.WithLogger(m.logger)}, m.archiveOpts...)
			a, err := sga.OpenPath(e.archive, aopts...)
			if err != nil {
				return err
			}
			archives[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, a := range archives {
			if a != nil {
				_ = a.Close()
			}
		}
		return nil, fmt.Errorf("filesource: open module %s: %w", path, err)
	}

	m.agg = NewAggregate()
	m.agg.logger = m.logger
	for i, e := range entries {
		if a := archives[i]; a != nil {
			m.archives = append(m.archives, a)
			m.agg.Append(a)
			continue
		}
		m.agg.Append(e.src)
	}
	m.log().Info("module opened",
		"path", path,
		"source_count", m.agg.Len(),
		"archive_count", len(m.archives))
	return m, nil
}

// plan lists the sources of the module in priority order without opening
// any archives.
func (m *Module) plan(parsed map[moduleKey]moduleSection, dir *Dir) []moduleEntry {
	var entries []moduleEntry
	for _, name := range m.sections {
		for si := 1; ; si++ {
			sec, ok := parsed[moduleKey{name: name, index: si}]
			if !ok {
				break
			}
			if folder, ok := sec[moduleKey{name: "folder", index: 1}]; ok {
				if m.isDir(dir, folder) {
					entries = append(entries, moduleEntry{src: NewChRoot(dir, folder)})
				} else {
					m.log().Debug("module folder skipped", "section", name, "path", folder)
				}
			}
			for ai := 1; ; ai++ {
				archive, ok := sec[moduleKey{name: "archive", index: ai}]
				if !ok {
					break
				}
				full, err := dir.resolve(Normalize(archive) + ".sga")
				if err != nil {
					m.log().Debug("module archive skipped", "section", name, "path", archive, "error", err)
					continue
				}
				entries = append(entries, moduleEntry{archive: full})
			}
		}
	}
	return entries
}

func (m *Module) isDir(dir *Dir, path string) bool {
	full, err := dir.resolve(Normalize(path))
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.IsDir()
}

// Path returns the path of the module file.
func (m *Module) Path() string {
	return m.path
}

// Archives returns the archives opened by the module in priority order.
func (m *Module) Archives() []*sga.Archive {
	return m.archives
}

// ReadFile implements FileSource.
func (m *Module) ReadFile(path string) (mappable.File, error) {
	return m.agg.ReadFile(path)
}

// Files implements FileSource.
func (m *Module) Files(path string) ([]string, error) {
	return m.agg.Files(path)
}

// Dirs implements FileSource.
func (m *Module) Dirs(path string) ([]string, error) {
	return m.agg.Dirs(path)
}

// Close closes every archive opened by the module.
func (m *Module) Close() error {
	var errs []error
	for _, a := range m.archives {
		errs = append(errs, a.Close())
	}
	m.archives = nil
	return errors.Join(errs...)
}
