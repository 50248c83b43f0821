// Package security holds path validation shared by anything that writes
// files to caller-supplied locations.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory rejects file paths that resolve outside
// safeDir, including escapes through ".." components and through symlinks.
// safeDir does not need to exist yet; a missing directory is compared
// lexically, since there is nothing on disk for a symlink to point through.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("resolve safe directory: %w", err)
	}

	canonicalPath, err := resolveExistingPrefix(absPath)
	if err != nil {
		return err
	}
	canonicalSafeDir, err := resolveExistingPrefix(absSafeDir)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// resolveExistingPrefix resolves symlinks in the longest existing prefix of
// path and rejoins the remaining components. A path that does not exist at
// all comes back unchanged.
func resolveExistingPrefix(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("resolve symlinks for %s: %w", path, err)
	}

	checkPath := path
	for {
		parent := filepath.Dir(checkPath)
		if parent == checkPath {
			return path, nil
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, err := filepath.Rel(parent, path)
			if err != nil {
				return "", fmt.Errorf("resolve symlinks for %s: %w", path, err)
			}
			return filepath.Join(resolved, rel), nil
		}
		checkPath = parent
	}
}
