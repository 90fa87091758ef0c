// Package mappable provides random-access views over file contents.
//
// A File exposes its size and hands out Mappings, immutable byte views of a
// requested range. Depending on the variant a mapping is backed by an OS
// memory map, a slice of an eagerly read buffer, a sub-range of a parent
// file, or an owned in-memory buffer holding decompressed data.
//
// Files and mappings are safe for concurrent reads. A Mapping must not be
// used after it is closed, and no Mapping may outlive the File it came from.
package mappable
