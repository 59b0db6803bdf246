package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/joshharrison/shuttle/internal/config"
	"github.com/joshharrison/shuttle/internal/executor"
	"github.com/joshharrison/shuttle/internal/generator"
	"github.com/joshharrison/shuttle/internal/graph"
	"github.com/joshharrison/shuttle/internal/manifest"
	"github.com/joshharrison/shuttle/internal/pkgmanager"
)

// loadedWorkspace bundles everything every subcommand needs after loading:
// the workspace, its graph, effective settings, and the generator registry.
type loadedWorkspace struct {
	ws    *manifest.Workspace
	graph *graph.DependencyGraph
	cfg   config.Config
	specs []*generator.Spec
}

// load reads the root manifest, builds the graph, loads .shuttlerc.yaml, and
// loads generator declarations — the common prefix of every subcommand.
func load(ctx context.Context) (*loadedWorkspace, error) {
	log := zerolog.Ctx(ctx)

	ws, err := manifest.Load(flagRoot)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	log.Debug().Int("projects", len(ws.Projects)).Msg("loaded workspace")

	g := graph.Build(ws)

	cfg, err := config.Load(ws.Root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}

	specs, err := generator.Load(ws)
	if err != nil {
		return nil, fmt.Errorf("load generators: %w", err)
	}

	return &loadedWorkspace{ws: ws, graph: g, cfg: cfg, specs: specs}, nil
}

// resolveIdentifiers maps each of ids to a project name per §6's
// identifier-resolution rule (exact name, then workspace-relative path,
// then /<id> suffix match). Unresolved identifiers are dropped; if every
// identifier is dropped, that is reported as an error by the caller.
func resolveIdentifiers(ws *manifest.Workspace, ids []string) (resolved []string, unresolved []string) {
	for _, id := range ids {
		if _, ok := ws.Projects[id]; ok {
			resolved = append(resolved, id)
			continue
		}
		found := ""
		for name, p := range ws.Projects {
			if p.Path == id {
				found = name
				break
			}
		}
		if found == "" {
			for name := range ws.Projects {
				if len(name) > len(id)+1 && name[len(name)-len(id)-1:] == "/"+id {
					found = name
					break
				}
			}
		}
		if found != "" {
			resolved = append(resolved, found)
		} else {
			unresolved = append(unresolved, id)
		}
	}
	return resolved, unresolved
}

// buildCommandFor returns an executor.BuildCommand backed by the detected
// package manager, per §4.7/§9: renderBuild returns a structured
// program/args pair rather than a shell string.
func buildCommandFor(lw *loadedWorkspace) executor.BuildCommand {
	pm := pkgmanager.Detect(lw.ws.Root, lw.ws.RootManifest.PackageManager)
	if field := lw.cfg.PackageManager; field != "" {
		if byField := pkgmanager.FromField(field); byField != pkgmanager.Unknown {
			pm = byField
		}
	}
	return func(project string) (string, []string) {
		return pm.RenderBuild(project)
	}
}

// generatorOutputPaths returns the set of absolute generator output paths
// that should be ignored by the watcher and filtered from scan results.
// Generators don't declare an explicit output field, so this conservatively
// treats each generator's key — resolved as a path under the workspace
// root, the same convention the registry itself uses when checking whether
// a generator's key falls inside a project (internal/generator/registry.go)
// — as its output path. The generator's cwd is where its command runs, not
// what it writes, so it isn't usable here.
func generatorOutputPaths(root string, specs []*generator.Spec) map[string]bool {
	paths := make(map[string]bool, len(specs))
	for _, s := range specs {
		paths[filepath.Join(root, s.Key)] = true
	}
	return paths
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
