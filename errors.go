package essence

import (
	"errors"

	"github.com/meigma/essence/chunky"
	"github.com/meigma/essence/condition"
	"github.com/meigma/essence/sga"
)

var (
	// ErrUnknownSource is returned by Open for paths that are neither a
	// directory, an archive nor a module.
	ErrUnknownSource = errors.New("essence: unknown source type")

	// ErrSymlink is returned by Pack when it meets a symbolic link.
	ErrSymlink = errors.New("essence: symbolic links cannot be packed")
)

// Errors re-exported from sga.
var (
	// ErrNotArchive is returned when an archive signature is missing.
	ErrNotArchive = sga.ErrNotArchive

	// ErrUnsupportedVersion is returned for unknown archive versions.
	ErrUnsupportedVersion = sga.ErrUnsupportedVersion

	// ErrCorrupt is returned when archive tables are inconsistent.
	ErrCorrupt = sga.ErrCorrupt

	// ErrDecompression is returned when a file cannot be inflated.
	ErrDecompression = sga.ErrDecompression

	// ErrHashMismatch is returned when file content fails verification.
	ErrHashMismatch = sga.ErrHashMismatch

	// ErrFileTooLarge is returned when a file exceeds the size limit.
	ErrFileTooLarge = sga.ErrFileTooLarge
)

// Errors re-exported from chunky.
var (
	// ErrNotChunky is returned for files without the chunky signature.
	ErrNotChunky = chunky.ErrNotChunky

	// ErrUnexpectedEnd is returned when a read runs past a chunk.
	ErrUnexpectedEnd = chunky.ErrUnexpectedEnd

	// ErrMissingChunk is returned when a required chunk is absent.
	ErrMissingChunk = chunky.ErrMissingChunk
)

// Errors re-exported from condition.
var (
	// ErrUnboundProperty is returned for unknown model variables.
	ErrUnboundProperty = condition.ErrUnboundProperty

	// ErrInvalidValue is returned when a variable rejects a value.
	ErrInvalidValue = condition.ErrInvalidValue
)
