package sga

import "errors"

var (
	// ErrFileTooSmall is returned when a file is shorter than an archive
	// header.
	ErrFileTooSmall = errors.New("sga: file too small to be an archive")

	// ErrNotArchive is returned when the archive signature is missing.
	ErrNotArchive = errors.New("sga: not an archive")

	// ErrUnsupportedVersion is returned for archive versions other than 2, 4,
	// 5 and 6.
	ErrUnsupportedVersion = errors.New("sga: unsupported archive version")

	// ErrUnsupportedPlatform is returned when the platform field is not 1.
	ErrUnsupportedPlatform = errors.New("sga: unsupported archive platform")

	// ErrCorrupt is returned when the archive tables are inconsistent.
	ErrCorrupt = errors.New("sga: corrupt archive")

	// ErrDecompression is returned when a compressed file cannot be
	// inflated to its declared size.
	ErrDecompression = errors.New("sga: could not inflate compressed file")

	// ErrHashMismatch is returned by hash verification when file content
	// does not match the hash stored in the archive.
	ErrHashMismatch = errors.New("sga: hash mismatch")

	// ErrFileTooLarge is returned when a file exceeds the configured
	// maximum size.
	ErrFileTooLarge = errors.New("sga: file too large")

	// ErrTooManyEntries is returned by Build when a layout cannot index the
	// requested number of directories or files.
	ErrTooManyEntries = errors.New("sga: too many entries for archive version")
)
