package sga

import (
	_ "crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding/unicode"

	"github.com/meigma/essence/arena"
	"github.com/meigma/essence/cache"
	"github.com/meigma/essence/internal/index"
	"github.com/meigma/essence/internal/pathutil"
	"github.com/meigma/essence/internal/sizing"
	"github.com/meigma/essence/internal/zlibpool"
	"github.com/meigma/essence/lookup2"
	"github.com/meigma/essence/mappable"
)

// minHeaderProbe is the number of bytes needed to read the signature and
// version of any layout.
const minHeaderProbe = 12

// maxHeaderSize is the largest file header of any layout.
const maxHeaderSize = 188

const defaultCacheNamespace = "sga"

// Archive is an open SGA archive.
type Archive struct {
	arena  *arena.Arena
	file   mappable.File
	layout *layout

	name        string
	dataOffset  uint64
	dirs        []directory
	files       []entry
	entryPoints []EntryPoint
	dirIndex    *index.Table[int]

	logger         *slog.Logger
	cache          cache.Cache
	cacheNamespace string
	group          singleflight.Group
	verifyHashes   bool
	maxFileSize    uint64
}

type directory struct {
	name  string
	dirs  span
	files span
}

type entry struct {
	name string
	rec  fileRecord
}

// EntryPoint is a table-of-contents record. Each entry point names a root of
// the directory tree and the directory and file ranges below it.
type EntryPoint struct {
	Name         string
	Alias        string
	FirstDir     uint32
	LastDir      uint32
	FirstFile    uint32
	LastFile     uint32
	FolderOffset uint32
}

// FileInfo describes a file inside an archive.
type FileInfo struct {
	// Path is the full backslash-separated path of the file.
	Path string
	// Size is the uncompressed size in bytes.
	Size uint64
	// CompressedSize is the number of bytes stored in the archive.
	CompressedSize uint64
	// Offset is the absolute offset of the stored bytes.
	Offset uint64
	// ModTime is the modification time, zero for version 2 archives.
	ModTime time.Time
	// Flags holds the raw per-file flags.
	Flags uint32
	// Hash is the stored content hash of version 6 archives.
	Hash    uint32
	HasHash bool
}

// Name returns the base name of the file.
func (fi FileInfo) Name() string {
	return pathutil.Base(fi.Path)
}

// Compressed reports whether the file is stored deflated.
func (fi FileInfo) Compressed() bool {
	return fi.Size != fi.CompressedSize
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// OpenPath opens the archive at path. The archive owns the underlying file.
func OpenPath(path string, opts ...Option) (*Archive, error) {
	f, err := mappable.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := Open(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Open parses the archive in f. On success the archive owns f and closes it
// on Close.
func Open(f mappable.File, opts ...Option) (*Archive, error) {
	a := &Archive{
		file:        f,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.load(); err != nil {
		return nil, err
	}
	if a.cacheNamespace == "" {
		a.cacheNamespace = defaultCacheNamespace
	}

	a.arena = arena.New()
	a.arena.AddCloser(f)
	a.log().Info("archive opened",
		"name", a.name,
		"version", a.layout.version.String(),
		"dir_count", len(a.dirs),
		"file_count", len(a.files))
	return a, nil
}

func (a *Archive) load() error {
	size := a.file.Size()
	if size < minHeaderProbe {
		return fmt.Errorf("%w: %d bytes", ErrFileTooSmall, size)
	}
	hm, err := a.file.Map(0, min(size, maxHeaderSize))
	if err != nil {
		return err
	}
	defer hm.Close()
	header := hm.Bytes()

	if string(header[:len(magic)]) != magic {
		return ErrNotArchive
	}
	version := le.Uint32(header[8:12])
	if version == 5 && len(header) < 184 {
		return fmt.Errorf("%w: %d bytes", ErrFileTooSmall, size)
	}
	l, ok := detectLayout(header)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if len(header) < l.headerSize {
		return fmt.Errorf("%w: %d bytes for a version %s header", ErrFileTooSmall, size, l.version)
	}
	if p := l.platform(header); p != 1 {
		return fmt.Errorf("%w: %d", ErrUnsupportedPlatform, p)
	}
	a.layout = l
	a.name = decodeName(header[l.nameOffset : l.nameOffset+archiveNameSize])
	a.dataOffset = uint64(le.Uint32(header[l.dataOffsetOffset:]))

	dhOffset := l.dataHeaderOffset(header)
	dhSize := uint64(le.Uint32(header[l.dataHeaderSizeOffset:]))
	if !sizing.Within(dhOffset, dhSize, size) {
		return fmt.Errorf("%w: data header [%d, +%d) beyond end of file", ErrCorrupt, dhOffset, dhSize)
	}
	dm, err := a.file.Map(dhOffset, dhOffset+dhSize)
	if err != nil {
		return err
	}
	defer dm.Close()
	return a.parseDataHeader(dm.Bytes())
}

func (a *Archive) parseDataHeader(dh []byte) error {
	l := a.layout
	if len(dh) < l.dataHeaderSize() {
		return fmt.Errorf("%w: data header of %d bytes", ErrCorrupt, len(dh))
	}
	h := l.decodeDataHeader(dh)
	limit := uint64(len(dh))

	check := func(what string, t table, recSize int) error {
		if !sizing.Table(uint64(t.offset), uint64(t.count), uint64(recSize), limit) {
			return fmt.Errorf("%w: %s table [%d, %d x %d) outside data header", ErrCorrupt, what, t.offset, t.count, recSize)
		}
		return nil
	}
	if err := check("directory", h.dirs, l.dirRecordSize()); err != nil {
		return err
	}
	if err := check("file", h.files, l.fileRecordSize); err != nil {
		return err
	}
	if err := check("entry point", h.entryPoints, l.entryPointSize); err != nil {
		return err
	}
	if uint64(h.strings.offset) > limit {
		return fmt.Errorf("%w: strings offset %d outside data header", ErrCorrupt, h.strings.offset)
	}
	strs := dh[h.strings.offset:]

	name := func(off uint32) (string, error) {
		if uint64(off) >= uint64(len(strs)) {
			return "", fmt.Errorf("%w: name offset %d outside string table", ErrCorrupt, off)
		}
		s := strs[off:]
		end := 0
		for end < len(s) && s[end] != 0 {
			end++
		}
		if end == len(s) {
			return "", fmt.Errorf("%w: unterminated name at offset %d", ErrCorrupt, off)
		}
		return string(s[:end]), nil
	}

	nDirs, nFiles := h.dirs.count, h.files.count
	a.files = make([]entry, nFiles)
	for i := range a.files {
		off := int(h.files.offset) + i*l.fileRecordSize
		rec := l.decodeFile(dh[off : off+l.fileRecordSize])
		n, err := name(rec.nameOffset)
		if err != nil {
			return err
		}
		a.files[i] = entry{name: n, rec: rec}
	}

	a.dirs = make([]directory, nDirs)
	a.dirIndex = index.New[int](int(nDirs))
	for i := range a.dirs {
		off := int(h.dirs.offset) + i*l.dirRecordSize()
		rec := l.decodeDir(dh[off : off+l.dirRecordSize()])
		if !validSpan(rec.dirs, nDirs) || !validSpan(rec.files, nFiles) {
			return fmt.Errorf("%w: directory %d has ranges outside the tables", ErrCorrupt, i)
		}
		n, err := name(rec.nameOffset)
		if err != nil {
			return err
		}
		a.dirs[i] = directory{name: n, dirs: rec.dirs, files: rec.files}
		a.dirIndex.Insert(n, i)
	}
	if err := a.checkTree(); err != nil {
		return err
	}

	a.entryPoints = make([]EntryPoint, h.entryPoints.count)
	for i := range a.entryPoints {
		off := int(h.entryPoints.offset) + i*l.entryPointSize
		a.entryPoints[i] = l.decodeEntryPoint(dh[off : off+l.entryPointSize])
	}
	return nil
}

// checkTree rejects directory tables that do not form a tree: every
// subdirectory must follow its parent in the table and carry the parent's
// path as a prefix.
func (a *Archive) checkTree() error {
	for i, d := range a.dirs {
		if d.dirs.len() == 0 {
			continue
		}
		if int(d.dirs.first) <= i {
			return fmt.Errorf("%w: directory %d lists directory %d as a child", ErrCorrupt, i, d.dirs.first)
		}
		for _, sub := range a.dirs[d.dirs.first:d.dirs.last] {
			if !pathutil.IsChild(sub.name, d.name) {
				return fmt.Errorf("%w: directory %q listed under %q", ErrCorrupt, sub.name, d.name)
			}
		}
	}
	return nil
}

func validSpan(s span, count uint32) bool {
	return s.first <= s.last && s.last <= count
}

func decodeName(b []byte) string {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return ""
	}
	if i := strings.IndexByte(string(out), 0); i >= 0 {
		out = out[:i]
	}
	return string(out)
}

// Name returns the archive name stored in the file header.
func (a *Archive) Name() string {
	return a.name
}

// Version returns the archive layout.
func (a *Archive) Version() Version {
	return a.layout.version
}

// EntryPoints returns the archive's table of contents.
func (a *Archive) EntryPoints() []EntryPoint {
	return a.entryPoints
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.files)
}

// Close releases the archive and its underlying file.
func (a *Archive) Close() error {
	return a.arena.Release()
}

func (a *Archive) directory(path string) (*directory, bool) {
	i, ok := a.dirIndex.Lookup(path)
	if !ok {
		return nil, false
	}
	return &a.dirs[i], true
}

// HasDir reports whether path names a directory.
func (a *Archive) HasDir(path string) bool {
	_, ok := a.directory(path)
	return ok
}

// Files returns the names of the files directly inside the directory path,
// in archive order. A missing directory yields an empty list.
func (a *Archive) Files(path string) ([]string, error) {
	d, ok := a.directory(path)
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, d.files.len())
	for _, f := range a.files[d.files.first:d.files.last] {
		names = append(names, f.name)
	}
	return names, nil
}

// Dirs returns the names of the directories directly inside the directory
// path, relative to it, in archive order. A missing directory yields an
// empty list.
func (a *Archive) Dirs(path string) ([]string, error) {
	d, ok := a.directory(path)
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, d.dirs.len())
	for _, sub := range a.dirs[d.dirs.first:d.dirs.last] {
		names = append(names, pathutil.Child(sub.name, path))
	}
	return names, nil
}

func (a *Archive) lookup(op, path string) (*entry, error) {
	dir, base := pathutil.Split(path)
	if d, ok := a.directory(dir); ok {
		for i := d.files.first; i < d.files.last; i++ {
			if a.files[i].name == base {
				return &a.files[i], nil
			}
		}
	}
	return nil, &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
}

func (a *Archive) info(path string, e *entry) FileInfo {
	fi := FileInfo{
		Path:           path,
		Size:           uint64(e.rec.length),
		CompressedSize: uint64(e.rec.compressed),
		Offset:         a.dataOffset + uint64(e.rec.dataOffset),
		Flags:          e.rec.flags,
		Hash:           e.rec.hash,
		HasHash:        a.layout.hasHash,
	}
	if a.layout.hasModTime && e.rec.modTime != 0 {
		fi.ModTime = time.Unix(int64(e.rec.modTime), 0).UTC()
	}
	return fi
}

// Stat returns information about the file at path.
func (a *Archive) Stat(path string) (FileInfo, error) {
	e, err := a.lookup("stat", path)
	if err != nil {
		return FileInfo{}, err
	}
	return a.info(path, e), nil
}

// Walk calls fn for every file in the archive, directory by directory in
// archive order. Returning fs.SkipAll from fn stops the walk without error.
func (a *Archive) Walk(fn func(path string, info FileInfo) error) error {
	for _, d := range a.dirs {
		for i := d.files.first; i < d.files.last; i++ {
			e := &a.files[i]
			p := pathutil.Join(d.name, e.name)
			if err := fn(p, a.info(p, e)); err != nil {
				if errors.Is(err, fs.SkipAll) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// ReadFile returns the contents of the file at path.
//
// Stored files are returned as a view into the archive without copying.
// Compressed files are inflated into memory. A missing file yields an
// *fs.PathError wrapping fs.ErrNotExist.
func (a *Archive) ReadFile(path string) (mappable.File, error) {
	e, err := a.lookup("read", path)
	if err != nil {
		return nil, err
	}
	offset := a.dataOffset + uint64(e.rec.dataOffset)

	if e.rec.compressed == e.rec.length {
		f, err := mappable.NewNested(a.file, offset, uint64(e.rec.length))
		if err != nil {
			return nil, &fs.PathError{Op: "read", Path: path, Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
		}
		if err := a.verifyStored(f, e); err != nil {
			return nil, &fs.PathError{Op: "read", Path: path, Err: err}
		}
		return f, nil
	}

	if a.maxFileSize > 0 && uint64(e.rec.length) > a.maxFileSize {
		return nil, &fs.PathError{Op: "read", Path: path, Err: ErrFileTooLarge}
	}
	m, err := a.mapCompressed(offset, e)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: err}
	}
	defer m.Close()
	raw := m.Bytes()

	if a.cache == nil {
		data, err := a.inflateEntry(raw, e)
		if err != nil {
			return nil, &fs.PathError{Op: "read", Path: path, Err: err}
		}
		return mappable.NewMemory(data), nil
	}

	key := a.cacheKey(raw)
	if data, ok := a.cache.Get(key); ok && len(data) == int(e.rec.length) {
		if err := a.verify(data, e); err == nil {
			a.log().Debug("readfile cache hit", "path", path)
			return mappable.NewMemory(data), nil
		}
		a.log().Warn("cached file failed verification", "path", path, "key", key)
		_ = a.cache.Delete(key) //nolint:errcheck // refetched below
	}
	a.log().Debug("readfile cache miss", "path", path)

	result, err, _ := a.group.Do(key, func() (any, error) {
		data, err := a.inflateEntry(raw, e)
		if err != nil {
			return nil, err
		}
		_ = a.cache.Put(key, data) //nolint:errcheck // caching is opportunistic
		return data, nil
	})
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: err}
	}
	return mappable.NewMemory(result.([]byte)), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// cacheKey names inflated content by the digest of its compressed bytes, so
// equal keys always inflate to equal content.
func (a *Archive) cacheKey(raw []byte) string {
	return a.cacheNamespace + ":" + digest.FromBytes(raw).String()
}

func (a *Archive) mapCompressed(offset uint64, e *entry) (*mappable.Mapping, error) {
	end := offset + uint64(e.rec.compressed)
	if end > a.file.Size() {
		return nil, fmt.Errorf("%w: file data [%d, %d) beyond end of archive", ErrCorrupt, offset, end)
	}
	return a.file.Map(offset, end)
}

func (a *Archive) inflateEntry(raw []byte, e *entry) ([]byte, error) {
	data, err := zlibpool.Inflate(raw, int(e.rec.length))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	if err := a.verify(data, e); err != nil {
		return nil, err
	}
	return data, nil
}

func (a *Archive) verifyStored(f mappable.File, e *entry) error {
	if !a.verifyHashes || !a.layout.hasHash {
		return nil
	}
	m, err := mappable.MapAll(f)
	if err != nil {
		return err
	}
	defer m.Close()
	return a.verify(m.Bytes(), e)
}

func (a *Archive) verify(data []byte, e *entry) error {
	if !a.verifyHashes || !a.layout.hasHash {
		return nil
	}
	if got := lookup2.Hash(data, 0); got != e.rec.hash {
		return fmt.Errorf("%w: got %#08x, want %#08x", ErrHashMismatch, got, e.rec.hash)
	}
	return nil
}
