// Package sga reads and writes Relic SGA archives.
//
// An archive holds a directory tree of files, each either stored or
// deflated with zlib. Five on-disk layouts are supported: version 2 (Dawn of
// War), version 4 (Company of Heroes), version 5 as used by Dawn of War II,
// the version 5 variant of early Company of Heroes 2 builds (Version45), and
// version 6.
//
// Paths inside an archive use backslash separators. Directory names are
// stored as full paths and file names are bare. Lookups are exact; callers
// that accept user paths normalize them first (see the filesource package).
//
// An Archive is safe for concurrent use once opened. Files returned by
// ReadFile must not be used after the archive is closed.
package sga
