// Package filesource provides a uniform view over the places game data
// lives: archives, plain directories, and the layered combinations of both
// described by a .module file.
//
// Paths are backslash-separated and relative. Sources that search several
// places, such as [Aggregate] and [Module], normalize paths with
// [Normalize] before looking them up, so callers may use forward slashes
// and any letter case.
//
// A module file lists its data sources per section:
//
//	[data:common]
//	folder = Data
//	archive.01 = Archives\Common
//	archive.02 = Archives\CommonArt
//
// Sections are visited in a fixed order (see [DefaultSections]). Within a
// section the folder is searched first and then the archives in index
// order. Earlier sources take priority.
package filesource
