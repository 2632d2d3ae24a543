package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 10<<20)
	}
	if len(cfg.AllowedExtensions) != 1 || cfg.AllowedExtensions[0] != ".csv" {
		t.Errorf("AllowedExtensions = %v, want [.csv]", cfg.AllowedExtensions)
	}
	if cfg.DestructiveRevert {
		t.Error("DestructiveRevert should default to false")
	}
	if cfg.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should default to false")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxUploadBytes != DefaultConfig().MaxUploadBytes {
		t.Errorf("MaxUploadBytes = %d, want default", cfg.MaxUploadBytes)
	}
}

func TestLoad_OverlaysFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"max_upload_bytes": 1024,
		"destructive_revert": true,
		"allowed_paths": ["/data/exports"],
		"disabled_tools": ["project_delete"]
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("MaxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}
	if !cfg.DestructiveRevert {
		t.Error("DestructiveRevert not applied")
	}
	if len(cfg.AllowedPaths) != 1 || cfg.AllowedPaths[0] != "/data/exports" {
		t.Errorf("AllowedPaths = %v", cfg.AllowedPaths)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "project_delete" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
	// Defaults survive for unset fields.
	if len(cfg.AllowedExtensions) != 1 || cfg.AllowedExtensions[0] != ".csv" {
		t.Errorf("AllowedExtensions = %v, want default [.csv]", cfg.AllowedExtensions)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.AllowedPaths = []string{"/a"}

	overlay := &Config{
		MaxUploadBytes: 2048,
		AllowedPaths:   []string{"/a", "/b"},
	}
	out := Merge(base, overlay)

	if out.MaxUploadBytes != 2048 {
		t.Errorf("MaxUploadBytes = %d, want 2048", out.MaxUploadBytes)
	}
	// Lists merge with deduplication.
	if len(out.AllowedPaths) != 2 || out.AllowedPaths[0] != "/a" || out.AllowedPaths[1] != "/b" {
		t.Errorf("AllowedPaths = %v, want [/a /b]", out.AllowedPaths)
	}
	// Zero-value overlay fields keep the base.
	if out.MaxUploadBytes == 0 || len(out.AllowedExtensions) == 0 {
		t.Error("base values lost in merge")
	}

	// Nil overlay copies the base.
	out = Merge(base, nil)
	if out.MaxUploadBytes != base.MaxUploadBytes {
		t.Errorf("nil overlay MaxUploadBytes = %d", out.MaxUploadBytes)
	}
}

func TestMerge_NormalizesExtensions(t *testing.T) {
	out := Merge(DefaultConfig(), &Config{AllowedExtensions: []string{"CSV", ".TSV", " txt "}})

	want := []string{".csv", ".tsv", ".txt"}
	if len(out.AllowedExtensions) != len(want) {
		t.Fatalf("AllowedExtensions = %v, want %v", out.AllowedExtensions, want)
	}
	for i, ext := range want {
		if out.AllowedExtensions[i] != ext {
			t.Errorf("extension %d = %q, want %q", i, out.AllowedExtensions[i], ext)
		}
	}
}

func TestAllowsExtension(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.AllowsExtension(".csv") {
		t.Error(".csv should be allowed")
	}
	if !cfg.AllowsExtension(".CSV") {
		t.Error("extension check should be case-insensitive")
	}
	if cfg.AllowsExtension(".xlsx") {
		t.Error(".xlsx should not be allowed")
	}
	if cfg.AllowsExtension("") {
		t.Error("empty extension should not be allowed")
	}
}
