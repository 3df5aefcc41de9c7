// Package filetree implements the path-addressed virtual file tree of a project.
// Records are stored flat, each tagged with its normalized parent path, and the
// hierarchy is rebuilt on demand.
package filetree

import "strings"

// Separator is the path separator of the virtual tree.
const Separator = "/"

// Normalize converts a slash-delimited path into canonical form: no leading or
// trailing separators and no empty segments. "" denotes the project root.
//
// Internal runs of separators are collapsed ("a//b" becomes "a/b") so that two
// spellings of the same folder address the same records.
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	return strings.Join(Segments(p), Separator)
}

// Segments splits a path into its non-empty segments.
// The root yields an empty slice.
func Segments(p string) []string {
	parts := strings.Split(p, Separator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// FullPath joins a normalized parent path and a leaf name.
func FullPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + Separator + name
}

// IsWithin reports whether recordPath addresses folder or anything beneath it.
// Both arguments must be normalized.
func IsWithin(recordPath, folder string) bool {
	return recordPath == folder || strings.HasPrefix(recordPath, folder+Separator)
}
