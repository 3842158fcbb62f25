// Package pathutil splits an absolute CrowFS path into successive name
// components, per spec.md §4.2.
//
// Grounded on original_source/crowfs.c's path_next_part_len/path_last_part,
// re-expressed as a Go iterator in the style disko's
// drivers/common/basedriver/driver.go uses stdlib path/path.filepath for
// path handling: CrowFS paths are bytes, not required to be valid Unicode,
// so this operates on strings without any text-encoding validation.
package pathutil

import "strings"

// Component is one name in a path, along with whether it's the final
// component.
type Component struct {
	Name   string
	IsLast bool
}

// Split breaks an absolute path into its successive name components.
//
// A leading "/" is consumed before iteration begins. A trailing "/" on the
// final component is tolerated and does not produce an extra empty
// component. Empty components (two consecutive "/"s) make the path invalid;
// Split reports ok=false in that case, and the resolver should treat this as
// a lookup failure (errors.NotFound).
//
// The root path "/" yields a single Component{Name: "", IsLast: true}: root
// has no name of its own.
func Split(path string) ([]Component, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}

	trimmed := strings.TrimSuffix(path[1:], "/")
	if trimmed == "" {
		if path != "/" {
			return nil, false
		}
		return []Component{{Name: "", IsLast: true}}, true
	}

	parts := strings.Split(trimmed, "/")
	components := make([]Component, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, false
		}
		components[i] = Component{Name: part, IsLast: i == len(parts)-1}
	}
	return components, true
}

// IsRoot reports whether path refers to the root directory.
func IsRoot(path string) bool {
	return path == "/"
}
