package pkgmanager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromField(t *testing.T) {
	cases := map[string]PackageManager{
		"pnpm@8.6.0": PNPM,
		"yarn@3.2.1": Yarn,
		"bun@1.0.0":  Bun,
		"npm@10.0.0": NPM,
		"":           Unknown,
		"garbage":    Unknown,
	}
	for field, want := range cases {
		if got := FromField(field); got != want {
			t.Errorf("FromField(%q) = %v, want %v", field, got, want)
		}
	}
}

func TestDetect_ManifestFieldWins(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "package-lock.json"), []byte("{}"), 0o644)

	if got := Detect(dir, "yarn@3.0.0"); got != Yarn {
		t.Errorf("expected manifest field to win over lockfile, got %v", got)
	}
}

func TestDetect_LockfileFallback(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "pnpm-lock.yaml"), []byte(""), 0o644)

	if got := Detect(dir, ""); got != PNPM {
		t.Errorf("expected pnpm from lockfile, got %v", got)
	}
}

func TestDetect_DefaultsToNPM(t *testing.T) {
	dir := t.TempDir()
	if got := Detect(dir, ""); got != NPM {
		t.Errorf("expected npm default, got %v", got)
	}
}

func TestRenderBuild(t *testing.T) {
	program, args := NPM.RenderBuild("widgets")
	if program != "npm" || len(args) == 0 {
		t.Errorf("unexpected npm render: %s %v", program, args)
	}

	program, args = PNPM.RenderBuild("widgets")
	if program != "pnpm" || args[0] != "--filter" {
		t.Errorf("unexpected pnpm render: %s %v", program, args)
	}
}
