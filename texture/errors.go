package texture

import "errors"

var (
	// ErrNotTexture is returned when a file is not a recognised texture.
	ErrNotTexture = errors.New("texture: not a texture file")

	// ErrUnsupportedKind is returned for texture containers that are
	// recognised but cannot be loaded, such as DDS and TGA files or chunky
	// textures without a FOLDDXTC folder.
	ErrUnsupportedKind = errors.New("texture: unsupported texture kind")

	// ErrUnknownFormat is returned for an unknown compression code.
	ErrUnknownFormat = errors.New("texture: unknown texture format")

	// ErrInvalidTexture is returned when the mip table or a mip header is
	// inconsistent.
	ErrInvalidTexture = errors.New("texture: invalid texture")

	// ErrDecompression is returned when a mip payload fails to inflate to
	// its declared size.
	ErrDecompression = errors.New("texture: decompression failed")
)
