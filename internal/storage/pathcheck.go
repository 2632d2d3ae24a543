package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/errors"
)

// ValidateExportPath validates a destination path for exporting the
// working copy. It rejects traversal sequences, non-CSV extensions, and
// symlinks, and requires the file to sit directly inside the uploads
// directory or one of cfg.AllowedPaths unless cfg.AllowUnsafePaths is
// set. The "directly inside" rule keeps intermediate directory
// components out of the trust decision.
func ValidateExportPath(path, baseDir string, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".csv" {
		return errors.NewInvalidRequest("path must have .csv extension")
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	// Symlink restrictions always apply, even in unsafe mode.
	if info, err := os.Lstat(abs); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("path must not be a symlink")
		}
	}

	if cfg != nil && cfg.AllowUnsafePaths {
		return nil
	}

	allowed := []string{UploadsDir(baseDir)}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				allowed = append(allowed, p)
			}
		}
	}

	parent := filepath.Dir(abs)
	for _, dir := range allowed {
		resolved, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if parent == resolved {
			return nil
		}
	}
	return errors.NewInvalidRequest("path must be directly inside the uploads directory or an allowed path")
}

// containsTraversal reports whether any path component is "..".
func containsTraversal(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
