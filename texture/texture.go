package texture

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meigma/essence/arena"
	"github.com/meigma/essence/chunky"
	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/internal/zlibpool"
	"github.com/meigma/essence/mappable"
)

// Kind is a texture container format.
type Kind int

// Texture container formats.
const (
	KindChunky Kind = iota + 1
	KindDDS
	KindTGA
)

func (k Kind) String() string {
	switch k {
	case KindChunky:
		return "chunky"
	case KindDDS:
		return "dds"
	case KindTGA:
		return "tga"
	default:
		return "unknown"
	}
}

const (
	minTextureSize = 32
	tgaHeaderSize  = 18
	tgaFooter      = "TRUEVISION-XFILE.\x00"
	tfmtSize       = 20
	mipHeaderSize  = 16
)

// Identify inspects the start and end of f and reports its container
// format.
func Identify(f mappable.File) (Kind, error) {
	size := f.Size()
	if size < minTextureSize {
		return 0, fmt.Errorf("%w: %d bytes is too small", ErrNotTexture, size)
	}
	head, err := f.Map(0, tgaHeaderSize)
	if err != nil {
		return 0, err
	}
	sig := head.Bytes()
	switch {
	case bytes.HasPrefix(sig, []byte(chunky.Magic[:15])):
		return KindChunky, head.Close()
	case bytes.HasPrefix(sig, []byte("DDS ")):
		return KindDDS, head.Close()
	}
	tgaPossible := sig[1] <= 1 && sig[2] <= 11 && sig[16]&7 == 0
	if err := head.Close(); err != nil {
		return 0, err
	}

	tail, err := f.Map(size-uint64(len(tgaFooter)), size)
	if err != nil {
		return 0, err
	}
	footer := string(tail.Bytes()) == tgaFooter
	if err := tail.Close(); err != nil {
		return 0, err
	}
	if footer || tgaPossible {
		return KindTGA, nil
	}
	return 0, fmt.Errorf("%w: unrecognised signature", ErrNotTexture)
}

// Mip is one level of a texture.
type Mip struct {
	Level  uint32
	Width  uint32
	Height uint32
	// Texels is the number of physical texels stored for the level.
	Texels uint32
	// Pitch is the size of one row of the level in bytes.
	Pitch uint32
	// Data is the level payload following its header.
	Data []byte
}

// Texture is a loaded texture. Mips are indexed by level.
type Texture struct {
	Width  uint32
	Height uint32
	Format Format
	Mips   []Mip

	arena *arena.Arena
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	logger *slog.Logger
}

// WithLogger sets the logger used while loading. Nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		l.logger = logger
	}
}

func (l *loader) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.New(slog.DiscardHandler)
}

// Load parses the texture in f. The texture owns f: it is closed by Close,
// or before Load returns when loading fails.
func Load(f mappable.File, opts ...Option) (*Texture, error) {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}

	kind, err := Identify(f)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	if kind != KindChunky {
		return nil, errors.Join(fmt.Errorf("%w: %s", ErrUnsupportedKind, kind), f.Close())
	}
	cf, err := chunky.Open(f)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}

	t, err := l.load(cf)
	if err != nil {
		return nil, errors.Join(err, cf.Close())
	}
	t.arena.AddCloser(cf)
	l.log().Debug("texture loaded",
		"width", t.Width,
		"height", t.Height,
		"format", t.Format.String(),
		"mips", len(t.Mips),
		"inflated_bytes", t.arena.Stats().TrivialBytes,
	)
	return t, nil
}

// LoadFrom reads path from src and loads it.
func LoadFrom(src filesource.FileSource, path string, opts ...Option) (*Texture, error) {
	f, err := src.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

type mipEntry struct {
	length     uint32
	compressed uint32
}

func (l *loader) load(cf *chunky.File) (*Texture, error) {
	txtr := cf.Root().FindFirst("FOLDTSET").FindFirst("FOLDTXTR")
	if txtr == nil {
		return nil, fmt.Errorf("%w: no FOLDTXTR chunk", ErrNotTexture)
	}
	dxtc := txtr.FindFirst("FOLDDXTCv3")
	if dxtc == nil {
		return nil, fmt.Errorf("%w: FOLDTXTR has no FOLDDXTC", ErrUnsupportedKind)
	}

	tfmt, err := dxtc.Require("DATATFMT")
	if err != nil {
		return nil, err
	}
	if tfmt.Size() < tfmtSize {
		return nil, fmt.Errorf("%w: DATATFMT is %d bytes", ErrInvalidTexture, tfmt.Size())
	}
	r := tfmt.Reader()
	t := &Texture{Width: r.Uint32(), Height: r.Uint32()}
	r.Skip(8)
	if t.Format, err = ParseFormat(r.Uint32()); err != nil {
		return nil, err
	}

	mips, err := readMipTable(dxtc)
	if err != nil {
		return nil, err
	}
	tdat, err := dxtc.Require("DATATDAT")
	if err != nil {
		return nil, err
	}

	// Only inflated levels need arena memory; stored levels alias the file.
	var capacity uint64
	for _, m := range mips {
		if m.length != m.compressed {
			capacity += uint64(m.length)
		}
	}
	if capacity > arena.MaxAllocation {
		return nil, fmt.Errorf("%w: %d bytes of mip data", ErrInvalidTexture, capacity)
	}
	if t.arena, err = arena.NewSized(int(capacity)); err != nil {
		return nil, err
	}

	t.Mips = make([]Mip, len(mips))
	seen := make([]bool, len(mips))
	r = tdat.Reader()
	for i, m := range mips {
		src := r.Bytes(int(m.compressed))
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("mip %d: %w", i, err)
		}
		if m.length != m.compressed {
			buf, err := t.arena.Alloc(int(m.length))
			if err != nil {
				return nil, err
			}
			rest, err := zlibpool.Into(buf, src)
			if err != nil {
				return nil, fmt.Errorf("mip %d: %w: %w", i, ErrDecompression, err)
			}
			if rest != 0 {
				return nil, fmt.Errorf("mip %d: %w: %d bytes of trailing input", i, ErrDecompression, rest)
			}
			src = buf
		}

		mip, err := t.parseMip(src, uint32(len(mips))) //nolint:gosec // bounded by the chunk size
		if err != nil {
			return nil, fmt.Errorf("mip %d: %w", i, err)
		}
		if seen[mip.Level] {
			return nil, fmt.Errorf("%w: mip level %d appears twice", ErrInvalidTexture, mip.Level)
		}
		seen[mip.Level] = true
		t.Mips[mip.Level] = mip
	}
	return t, nil
}

func readMipTable(dxtc *chunky.Chunk) ([]mipEntry, error) {
	tman, err := dxtc.Require("DATATMAN")
	if err != nil {
		return nil, err
	}
	r := tman.Reader()
	count := r.Uint32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: DATATMAN is too small", ErrInvalidTexture)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: DATATMAN contains no mip levels", ErrInvalidTexture)
	}
	if uint64(count)*8 > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: DATATMAN lists %d levels in %d bytes", ErrInvalidTexture, count, tman.Size())
	}
	mips := make([]mipEntry, count)
	for i := range mips {
		mips[i] = mipEntry{length: r.Uint32(), compressed: r.Uint32()}
	}
	return mips, r.Err()
}

// parseMip validates the header at the start of a level payload.
func (t *Texture) parseMip(src []byte, count uint32) (Mip, error) {
	if len(src) < mipHeaderSize {
		return Mip{}, fmt.Errorf("%w: %d byte payload has no header", ErrInvalidTexture, len(src))
	}
	r := chunky.NewReader(src)
	mip := Mip{Level: r.Uint32(), Width: r.Uint32(), Height: r.Uint32(), Texels: r.Uint32()}
	if mip.Level >= count {
		return Mip{}, fmt.Errorf("%w: level %d of %d", ErrInvalidTexture, mip.Level, count)
	}
	if want := max(t.Width>>mip.Level, 1); mip.Width != want {
		return Mip{}, fmt.Errorf("%w: level %d is %d wide, want %d", ErrInvalidTexture, mip.Level, mip.Width, want)
	}
	if want := max(t.Height>>mip.Level, 1); mip.Height != want {
		return Mip{}, fmt.Errorf("%w: level %d is %d high, want %d", ErrInvalidTexture, mip.Level, mip.Height, want)
	}
	mip.Pitch = mip.Texels / mip.Height * t.Format.Ratio
	mip.Data = src[mipHeaderSize:]
	return mip, nil
}

// Size returns the total size of the mip payloads.
func (t *Texture) Size() int {
	n := 0
	for _, m := range t.Mips {
		n += len(m.Data)
	}
	return n
}

// Close releases the texture's memory and file.
func (t *Texture) Close() error {
	return t.arena.Release()
}
