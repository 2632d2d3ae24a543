package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// MaxUploadBytes caps the size of an uploaded CSV file.
	MaxUploadBytes int64 `json:"max_upload_bytes"`

	// AllowedExtensions lists permitted upload file extensions.
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`

	// AllowedPaths is an allowlist of directories for export operations.
	// Paths outside the base uploads directory require either being in this
	// list or AllowUnsafePaths=true. Paths should be absolute.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for export.
	// When true, any directory is allowed (but symlink checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DestructiveRevert makes revert-to-checkpoint discard every log entry
	// recorded after the target checkpoint. The default keeps the log
	// intact and only rewrites the working copy.
	DestructiveRevert bool `json:"destructive_revert,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are ignored.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxUploadBytes:    10 << 20, // 10 MB
		AllowedExtensions: []string{".csv"},
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.loom.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFile loads configuration from a specific file path, applying
// defaults for unset fields.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge overlays non-zero scalar values from overlay onto base and
// merges list values with deduplication. Returns a new Config.
func Merge(base, overlay *Config) *Config {
	if overlay == nil {
		c := *base
		return &c
	}
	out := *base

	if overlay.MaxUploadBytes > 0 {
		out.MaxUploadBytes = overlay.MaxUploadBytes
	}
	if overlay.DBMaxOpenConns > 0 {
		out.DBMaxOpenConns = overlay.DBMaxOpenConns
	}
	if overlay.DBMaxIdleConns > 0 {
		out.DBMaxIdleConns = overlay.DBMaxIdleConns
	}
	if overlay.AllowUnsafePaths {
		out.AllowUnsafePaths = true
	}
	if overlay.DestructiveRevert {
		out.DestructiveRevert = true
	}
	if len(overlay.AllowedExtensions) > 0 {
		out.AllowedExtensions = normalizeExtensions(overlay.AllowedExtensions)
	}
	out.AllowedPaths = mergeLists(base.AllowedPaths, overlay.AllowedPaths)
	out.DisabledTools = mergeLists(base.DisabledTools, overlay.DisabledTools)
	return &out
}

// AllowsExtension reports whether the (lowercased) extension is permitted.
func (c *Config) AllowsExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func mergeLists(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
