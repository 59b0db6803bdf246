package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Concurrency != Default().Concurrency {
		t.Errorf("expected default concurrency, got %d", cfg.Concurrency)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	root := t.TempDir()
	content := "concurrency: 8\npackageManager: pnpm\nignoreGlobs:\n  - \"**/tmp/**\"\n"
	if err := os.WriteFile(filepath.Join(root, fileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.Concurrency)
	}
	if cfg.PackageManager != "pnpm" {
		t.Errorf("expected pnpm, got %s", cfg.PackageManager)
	}
	if len(cfg.IgnoreGlobs) != 1 || cfg.IgnoreGlobs[0] != "**/tmp/**" {
		t.Errorf("unexpected ignore globs: %v", cfg.IgnoreGlobs)
	}
	if cfg.LogLevel != Default().LogLevel {
		t.Errorf("expected default log level to survive partial override, got %s", cfg.LogLevel)
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, fileName), []byte("concurrency: [not, a, number]"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(root); err == nil {
		t.Error("expected parse error for malformed yaml")
	}
}
