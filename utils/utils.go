// Package utils collects small filesystem helpers — the part of the
// teacher's grab-bag utils package that survives once the
// streaming-specific URL/slice-request helpers are gone. No other package
// in this module imports it.
package utils

import (
	"os"
)

// FileExists reports whether path exists on disk, regardless of whether it
// names a file or a directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetSubPath lists the immediate subdirectory names under path, or nil if
// path cannot be read as a directory.
func GetSubPath(path string) []string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	subPaths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			subPaths = append(subPaths, e.Name())
		}
	}
	return subPaths
}
