// Package storage is the file collaborator for the core: it reads and
// writes CSV bytes at paths the ops layer hands it, and derives the
// original/working-copy path pair at upload time. Writes are atomic:
// either the destination is fully replaced or it is left untouched.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/loomworks/loom/internal/errors"
)

// ReadBytes reads a whole file. A missing file is a NOT_FOUND, anything
// else is INTERNAL.
func ReadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFound("file", path)
	}
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("read %s: %w", path, err))
	}
	return data, nil
}

// WriteBytes writes data to path through a temp file and rename, so a
// failed write never leaves a half-written destination behind.
func WriteBytes(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("create directory %s: %w", dir, err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		os.Remove(tempPath)
		return errors.NewInternal(fmt.Errorf("write %s: %w", tempPath, err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewInternal(fmt.Errorf("rename %s: %w", path, err))
	}
	return nil
}

// RemoveFile deletes a file, ignoring a missing one.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewInternal(err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w.\-]`)

// SanitizeFilename strips directory components from an uploaded
// filename, replaces unsafe characters, and prepends a short unique
// prefix so two uploads of the same name never collide.
func SanitizeFilename(filename string) string {
	name := filepath.Base(filename)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + "_" + name
}

// UploadsDir returns the uploads directory under the base directory.
func UploadsDir(baseDir string) string {
	return filepath.Join(baseDir, "uploads")
}

// WorkingCopyPath derives the working-copy path from an original path:
// name.csv becomes name_copy.csv alongside it.
func WorkingCopyPath(originalPath string) string {
	ext := filepath.Ext(originalPath)
	return strings.TrimSuffix(originalPath, ext) + "_copy" + ext
}

// ResolveUploadPath joins a sanitized filename with the uploads
// directory and verifies the result cannot escape it.
func ResolveUploadPath(baseDir, filename string) (string, error) {
	uploadsDir := UploadsDir(baseDir)
	target := filepath.Join(uploadsDir, filename)

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	absDir, err := filepath.Abs(uploadsDir)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if filepath.Dir(abs) != absDir {
		return "", errors.NewInvalidRequest("invalid upload file path")
	}
	return abs, nil
}
