// Package fileutil provides file system utility functions.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches for a file with the given name in the specified directory.
// The search is case-insensitive, which is useful for game data copied from
// case-insensitive file systems.
//
// Parameters:
//   - dir: The directory to search in
//   - filename: The filename to search for (case-insensitive)
//
// Returns:
//   - string: The actual path to the file if found
//   - error: Error if the file is not found or if there's an I/O error
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/games/gta3/data", "main.scm")
//	// Will find "MAIN.SCM", "Main.scm", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	return findEntry(dir, filename, false)
}

// FindDirCaseInsensitive is FindFileCaseInsensitive for directories.
func FindDirCaseInsensitive(dir, name string) (string, error) {
	return findEntry(dir, name, true)
}

// ResolveCaseInsensitive walks parts below base, matching every directory
// and the final file name case-insensitively.
func ResolveCaseInsensitive(base string, parts ...string) (string, error) {
	if len(parts) == 0 {
		return base, nil
	}
	current := base
	for _, dir := range parts[:len(parts)-1] {
		next, err := FindDirCaseInsensitive(current, dir)
		if err != nil {
			return "", err
		}
		current = next
	}
	return FindFileCaseInsensitive(current, parts[len(parts)-1])
}

func findEntry(dir, name string, wantDir bool) (string, error) {
	// 大文字小文字を無視して比較する
	searchName := strings.ToLower(name)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() != wantDir {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", name, dir)
}
