package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshharrison/shuttle/internal/manifest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan_FindsUnresolvedRelativeImport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "index.ts"), `import { widget } from "./missing";\nexport const x = 1;`)

	ws := &manifest.Workspace{Projects: map[string]*manifest.Project{
		"app": {Name: "app", AbsolutePath: root},
	}}

	result, err := Scan(ws, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Unknown) != 1 {
		t.Fatalf("expected 1 unknown dependency, got %v", result.Unknown)
	}
	if result.Unknown[0].Specifier != "./missing" {
		t.Errorf("unexpected specifier: %s", result.Unknown[0].Specifier)
	}
}

func TestScan_ResolvedImportNotReported(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "helper.ts"), "export const helper = 1;")
	writeFile(t, filepath.Join(root, "src", "index.ts"), `import { helper } from "./helper";`)

	ws := &manifest.Workspace{Projects: map[string]*manifest.Project{
		"app": {Name: "app", AbsolutePath: root},
	}}

	result, err := Scan(ws, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Unknown) != 0 {
		t.Errorf("expected no unknown dependencies, got %v", result.Unknown)
	}
}

func TestScan_SkipsVendoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "x", "index.ts"), `import y from "./nowhere";`)

	ws := &manifest.Workspace{Projects: map[string]*manifest.Project{
		"app": {Name: "app", AbsolutePath: root},
	}}

	result, err := Scan(ws, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Unknown) != 0 {
		t.Errorf("expected vendored import to be skipped, got %v", result.Unknown)
	}
}

func TestScan_FiltersGeneratorOutputs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "index.ts"), `import { api } from "./generated/api";`)

	ws := &manifest.Workspace{Projects: map[string]*manifest.Project{
		"app": {Name: "app", AbsolutePath: root},
	}}

	generated := filepath.Join(root, "src", "generated", "api")
	result, err := Scan(ws, map[string]bool{generated: true})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Unknown) != 0 {
		t.Errorf("expected generator output to be filtered, got %v", result.Unknown)
	}
}

func TestScan_IgnoresNonRelativeSpecifiers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "index.ts"), `import React from "react";`)

	ws := &manifest.Workspace{Projects: map[string]*manifest.Project{
		"app": {Name: "app", AbsolutePath: root},
	}}

	result, err := Scan(ws, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Unknown) != 0 {
		t.Errorf("expected bare specifier to be ignored, got %v", result.Unknown)
	}
}

func TestScan_TsconfigExcludeSkipsDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{"exclude": ["fixtures/**"]}`)
	writeFile(t, filepath.Join(root, "fixtures", "broken.ts"), `import { x } from "./nowhere";`)
	writeFile(t, filepath.Join(root, "src", "index.ts"), `export const y = 1;`)

	ws := &manifest.Workspace{Projects: map[string]*manifest.Project{
		"app": {Name: "app", AbsolutePath: root},
	}}

	result, err := Scan(ws, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Unknown) != 0 {
		t.Errorf("expected tsconfig-excluded directory to be skipped, got %v", result.Unknown)
	}
}

func TestTsconfigExcludeDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{"exclude": ["fixtures/**", "dist"]}`)

	dirs := tsconfigExcludeDirs(root)
	if !dirs["fixtures"] || !dirs["dist"] {
		t.Errorf("expected fixtures and dist in exclude set, got %v", dirs)
	}
}
