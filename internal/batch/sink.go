package batch

import "io"

// Sink receives file contents during batch processing.
type Sink interface {
	// ShouldProcess returns false if path should be skipped, for example
	// because it already exists at the destination.
	ShouldProcess(path string) bool

	// Writer returns a writer for the contents of path. The caller calls
	// Commit after a complete write and Discard after a failed one.
	Writer(path string) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Commit makes the written content visible.
	Commit() error

	// Discard aborts the write and removes any staged content.
	Discard() error
}
