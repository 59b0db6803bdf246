package main

import (
	"path/filepath"
	"testing"

	"github.com/joshharrison/shuttle/internal/generator"
)

func TestGeneratorOutputPaths_ResolvesKeyUnderRoot(t *testing.T) {
	root := "/workspace"
	specs := []*generator.Spec{
		{Key: "apps/web/src/generated", Cwd: "/workspace/apps/web", Command: "make api"},
	}

	paths := generatorOutputPaths(root, specs)

	want := filepath.Join(root, "apps/web/src/generated")
	if !paths[want] {
		t.Errorf("expected %s in output paths, got %v", want, paths)
	}
	if paths[specs[0].Cwd] {
		t.Errorf("expected cwd %s not to be used as an output path", specs[0].Cwd)
	}
}
