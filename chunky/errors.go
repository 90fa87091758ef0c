package chunky

import "errors"

var (
	// ErrNotChunky is returned when a file lacks the chunky signature or its
	// header is inconsistent with the file size.
	ErrNotChunky = errors.New("chunky: not a chunky file")

	// ErrUnexpectedEnd is returned when a read runs past the end of a chunk.
	ErrUnexpectedEnd = errors.New("chunky: unexpected end of chunk")

	// ErrMissingChunk is returned when a required chunk is absent.
	ErrMissingChunk = errors.New("chunky: missing chunk")

	// ErrTooLarge is returned by the writer when an offset or length does
	// not fit the format's 32-bit fields.
	ErrTooLarge = errors.New("chunky: chunk too large")

	// ErrNoOpenChunk is returned by EndChunk when no chunk is open.
	ErrNoOpenChunk = errors.New("chunky: no open chunk")
)
