// Package texture loads Relic texture files (.rgt).
//
// Only the block-compressed FOLDDXTC layout is understood. Load returns the
// texture's dimensions, its GPU format and one payload per mip level; it
// does not decode pixels. Inflated mip payloads live in an arena sized up
// front from the mip table, and stored payloads alias the mapped file, so
// both stay valid until the texture is closed.
package texture
