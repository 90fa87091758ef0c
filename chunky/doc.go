// Package chunky reads and writes Relic Chunky files.
//
// A chunky file is a tree of chunks. Every chunk has a kind ("FOLD" for
// containers, "DATA" for leaves), a four character type, a version, an
// optional name and a contents region. Folder contents are a back-to-back
// sequence of child chunks.
//
// The reader is zero-copy: a File maps the whole chunk region once and every
// Chunk is a view into that mapping. Chunks are found with small queries of
// the form "(KIND)?TYPE(vVERSION)?":
//
//	mesh := f.FindFirst("FOLDMODL").FindFirst("FOLDMESH v3")
//	for _, tex := range mesh.FindAll("DATAVAR") {
//		...
//	}
//
// FindFirst and FindAll accept a nil receiver, so lookups can be chained
// without intermediate checks.
package chunky
