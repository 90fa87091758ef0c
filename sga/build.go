package sga

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/meigma/essence/internal/pathutil"
	"github.com/meigma/essence/internal/zlibpool"
	"github.com/meigma/essence/lookup2"
)

// BuildEntry is a file to place in a built archive.
type BuildEntry struct {
	// Path is the backslash-separated path of the file. Forward slashes are
	// converted.
	Path    string
	Data    []byte
	ModTime time.Time
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	version    Version
	compress   bool
	name       string
	entryPoint string
	entryAlias string
}

// BuildWithVersion selects the archive layout. The default is Version4.
func BuildWithVersion(v Version) BuildOption {
	return func(c *buildConfig) {
		c.version = v
	}
}

// BuildWithCompression controls whether files are deflated. Files are only
// stored deflated when that makes them smaller. Enabled by default.
func BuildWithCompression(enabled bool) BuildOption {
	return func(c *buildConfig) {
		c.compress = enabled
	}
}

// BuildWithName sets the archive name written to the file header.
func BuildWithName(name string) BuildOption {
	return func(c *buildConfig) {
		c.name = name
	}
}

// BuildWithEntryPoint sets the name and alias of the single table of
// contents record.
func BuildWithEntryPoint(name, alias string) BuildOption {
	return func(c *buildConfig) {
		c.entryPoint = name
		c.entryAlias = alias
	}
}

type buildDir struct {
	path     string
	children []string
	files    []*BuildEntry
}

// Build writes an archive containing entries to w.
//
// Directories are laid out breadth first so that the subdirectories of each
// directory, and its files, occupy contiguous runs of the tables. Names are
// sorted within each directory.
func Build(w io.Writer, entries []BuildEntry, opts ...BuildOption) error {
	cfg := buildConfig{version: Version4, compress: true, name: "data", entryPoint: "data", entryAlias: "data"}
	for _, opt := range opts {
		opt(&cfg)
	}
	l, ok := layoutFor(cfg.version)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, cfg.version)
	}

	dirs, order, err := buildTree(entries)
	if err != nil {
		return err
	}

	var (
		dirRecs  []dirRecord
		fileRecs []fileRecord
		strs     []byte
		data     bytes.Buffer
		dirIndex = make(map[string]int, len(order))
	)
	addName := func(s string) uint32 {
		off := u32(len(strs))
		strs = append(strs, s...)
		strs = append(strs, 0)
		return off
	}

	for i, p := range order {
		dirIndex[p] = i
	}
	for _, p := range order {
		d := dirs[p]
		rec := dirRecord{nameOffset: addName(d.path)}
		rec.dirs = span{first: u32(len(order)), last: u32(len(order))}
		if n := len(d.children); n > 0 {
			rec.dirs = span{first: u32(dirIndex[d.children[0]]), last: u32(dirIndex[d.children[n-1]] + 1)}
		}
		rec.files.first = u32(len(fileRecs))
		for _, e := range d.files {
			fr, err := buildFile(l, cfg, e, u32(data.Len()))
			if err != nil {
				return err
			}
			fr.rec.nameOffset = addName(pathutil.Base(normalizeBuildPath(e.Path)))
			data.Write(fr.payload)
			fileRecs = append(fileRecs, fr.rec)
			if uint64(data.Len()) > math.MaxUint32 {
				return fmt.Errorf("%w: data exceeds 4 GiB", ErrTooManyEntries)
			}
		}
		rec.files.last = u32(len(fileRecs))
		dirRecs = append(dirRecs, rec)
	}

	limit := uint64(math.MaxUint32)
	if !l.wide {
		limit = math.MaxUint16
	}
	if uint64(len(dirRecs)) > limit || uint64(len(fileRecs)) > limit {
		return fmt.Errorf("%w: %d directories and %d files", ErrTooManyEntries, len(dirRecs), len(fileRecs))
	}

	ep := EntryPoint{
		Name:     cfg.entryPoint,
		Alias:    cfg.entryAlias,
		LastDir:  u32(len(dirRecs)),
		LastFile: u32(len(fileRecs)),
	}

	// Data header: fixed fields, entry points, directories, files, strings.
	var dh dataHeader
	pos := u32(l.dataHeaderSize())
	dh.entryPoints = table{offset: pos, count: 1}
	pos += u32(l.entryPointSize)
	dh.dirs = table{offset: pos, count: u32(len(dirRecs))}
	pos += u32(len(dirRecs) * l.dirRecordSize())
	dh.files = table{offset: pos, count: u32(len(fileRecs))}
	pos += u32(len(fileRecs) * l.fileRecordSize)
	dh.strings = table{offset: pos, count: u32(len(dirRecs) + len(fileRecs))}

	body := l.appendDataHeader(nil, dh)
	body = l.appendEntryPoint(body, ep)
	for _, r := range dirRecs {
		body = l.appendDir(body, r)
	}
	for _, r := range fileRecs {
		body = l.appendFile(body, r)
	}
	body = append(body, strs...)

	header, err := buildHeader(l, cfg.name, u32(len(body)))
	if err != nil {
		return err
	}
	for _, chunk := range [][]byte{header, body, data.Bytes()} {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// u32 narrows a size that has already been checked against the format's
// limits.
func u32(n int) uint32 {
	return uint32(n) //nolint:gosec // callers check limits
}

func normalizeBuildPath(p string) string {
	return strings.Trim(strings.ReplaceAll(p, "/", `\`), `\`)
}

// buildTree groups entries by directory and returns the directories in
// breadth-first order, starting with the root "".
func buildTree(entries []BuildEntry) (map[string]*buildDir, []string, error) {
	dirs := map[string]*buildDir{"": {path: ""}}
	var ensure func(p string) *buildDir
	ensure = func(p string) *buildDir {
		if d, ok := dirs[p]; ok {
			return d
		}
		d := &buildDir{path: p}
		dirs[p] = d
		parent, _ := pathutil.Split(p)
		pd := ensure(parent)
		pd.children = append(pd.children, p)
		return d
	}

	seen := make(map[string]bool, len(entries))
	for i := range entries {
		p := normalizeBuildPath(entries[i].Path)
		if p == "" {
			return nil, nil, fmt.Errorf("sga: empty path for entry %d", i)
		}
		if seen[p] {
			return nil, nil, fmt.Errorf("sga: duplicate path %q", p)
		}
		seen[p] = true
		dir, _ := pathutil.Split(p)
		d := ensure(dir)
		d.files = append(d.files, &entries[i])
	}

	for _, d := range dirs {
		slices.Sort(d.children)
		slices.SortFunc(d.files, func(a, b *BuildEntry) int {
			return strings.Compare(normalizeBuildPath(a.Path), normalizeBuildPath(b.Path))
		})
	}

	order := []string{""}
	for i := 0; i < len(order); i++ {
		order = append(order, dirs[order[i]].children...)
	}
	return dirs, order, nil
}

type builtFile struct {
	rec     fileRecord
	payload []byte
}

func buildFile(l *layout, cfg buildConfig, e *BuildEntry, offset uint32) (builtFile, error) {
	if uint64(len(e.Data)) > math.MaxUint32 {
		return builtFile{}, fmt.Errorf("sga: %s: %w", e.Path, ErrFileTooLarge)
	}
	payload := e.Data
	if cfg.compress && len(e.Data) > 0 {
		z, err := zlibpool.Deflate(e.Data)
		if err != nil {
			return builtFile{}, fmt.Errorf("sga: deflate %s: %w", e.Path, err)
		}
		if len(z) < len(e.Data) {
			payload = z
		}
	}
	rec := fileRecord{
		dataOffset: offset,
		compressed: u32(len(payload)),
		length:     u32(len(e.Data)),
	}
	if l.hasModTime && !e.ModTime.IsZero() {
		rec.modTime = uint32(e.ModTime.Unix()) //nolint:gosec // archive timestamps are u32
	}
	if l.hasHash {
		rec.hash = lookup2.Hash(e.Data, 0)
	}
	return builtFile{rec: rec, payload: payload}, nil
}

func buildHeader(l *layout, name string, dataHeaderSize uint32) ([]byte, error) {
	h := make([]byte, l.headerSize)
	copy(h, magic)
	le.PutUint32(h[8:], l.diskVersion())

	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	encoded, err := enc.Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("sga: encode archive name: %w", err)
	}
	if len(encoded) > archiveNameSize-2 {
		encoded = encoded[:archiveNameSize-2]
	}
	copy(h[l.nameOffset:], encoded)

	dataHeaderOffset := u32(l.headerSize)
	le.PutUint32(h[l.dataHeaderSizeOffset:], dataHeaderSize)
	le.PutUint32(h[l.dataOffsetOffset:], dataHeaderOffset+dataHeaderSize)
	if l.dataHeaderPtrOffset != noField {
		le.PutUint32(h[l.dataHeaderPtrOffset:], dataHeaderOffset)
	}
	if l.platformOffset != noField {
		le.PutUint32(h[l.platformOffset:], 1)
	}
	return h, nil
}
