// Package pathutil provides path manipulation for backslash-separated
// archive and module paths.
package pathutil

import "strings"

// Separator is the path separator used inside archives.
const Separator = '\\'

// Normalize lowercases path, converts forward slashes to backslashes and
// strips a single trailing separator.
func Normalize(path string) string {
	path = strings.ToLower(path)
	path = strings.ReplaceAll(path, "/", `\`)
	return strings.TrimSuffix(path, `\`)
}

// Split splits path at its last separator. If path has no separator, dir is
// empty and file is path.
func Split(path string) (dir, file string) {
	if i := strings.LastIndexByte(path, Separator); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// Base returns the last element of path.
func Base(path string) string {
	_, file := Split(strings.TrimSuffix(path, `\`))
	return file
}

// Join joins dir and name with a separator, omitting it when dir is empty.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	if name == "" {
		return dir
	}
	return dir + `\` + name
}

// Child strips the directory prefix dir from a full path. Directory names
// inside archives are stored as full paths; their children are listed
// relative to the parent.
func Child(path, dir string) string {
	if dir == "" {
		return path
	}
	if len(path) <= len(dir) {
		return ""
	}
	return path[len(dir)+1:]
}

// IsChild reports whether path names an entry below dir, that is whether it
// is non-empty and, unless dir is the root, starts with dir and a separator
// followed by at least one more character.
func IsChild(path, dir string) bool {
	if dir == "" {
		return path != ""
	}
	return len(path) > len(dir)+1 && path[len(dir)] == Separator && strings.HasPrefix(path, dir)
}

// ToSlash converts an archive path to a slash-separated relative path.
func ToSlash(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
