// Package generator normalizes and runs the workspace's "sources" manifest
// declarations: generated-code producers that must run before the build
// executor touches the projects they feed.
//
// Grounded on the teacher's internal/bd/client.go run() for the
// exec.Command/CombinedOutput spawn shape, and on internal/cpm/cpm.go's
// topoSort for the dependency-respecting run order (a much smaller graph
// here — generators keyed by name rather than projects keyed by deps).
package generator

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/joshharrison/shuttle/internal/manifest"
)

// Load normalizes every "sources" entry across the root manifest and every
// project manifest into a sorted, deduplicated registry. Per-project
// declarations override a root declaration sharing the same key.
func Load(ws *manifest.Workspace) ([]*Spec, error) {
	byKey := make(map[string]*Spec)

	if err := normalizeInto(byKey, ws.RootManifest.Sources, "root", ws.Root); err != nil {
		return nil, fmt.Errorf("root sources: %w", err)
	}

	for _, name := range ws.SortedNames() {
		project := ws.Projects[name]
		if err := normalizeProjectInto(byKey, project); err != nil {
			return nil, fmt.Errorf("sources for %s: %w", name, err)
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	specs := make([]*Spec, 0, len(keys))
	for _, k := range keys {
		specs = append(specs, byKey[k])
	}
	return specs, nil
}

func normalizeInto(byKey map[string]*Spec, raw map[string]json.RawMessage, source, cwd string) error {
	for key, entry := range raw {
		spec, err := normalizeEntry(key, entry, source, cwd, "")
		if err != nil {
			return err
		}
		byKey[key] = spec
	}
	return nil
}

func normalizeProjectInto(byKey map[string]*Spec, project *manifest.Project) error {
	for key, entry := range project.Manifest.Sources {
		spec, err := normalizeEntry(key, entry, project.Name, project.AbsolutePath, project.Name)
		if err != nil {
			return err
		}
		byKey[key] = spec
	}
	return nil
}

// normalizeEntry classifies a single raw sources value as shorthand (a bare
// JSON string) or object, and fills in the cwd/target defaults per §4.6.
func normalizeEntry(key string, entry json.RawMessage, source, defaultCwd, defaultTarget string) (*Spec, error) {
	trimmed := strings.TrimSpace(string(entry))
	if strings.HasPrefix(trimmed, `"`) {
		var command string
		if err := json.Unmarshal(entry, &command); err != nil {
			return nil, fmt.Errorf("sources.%s: %w", key, err)
		}
		return &Spec{
			Key:     key,
			Command: command,
			Cwd:     defaultCwd,
			Target:  defaultTarget,
			Source:  source,
		}, nil
	}

	var obj rawObject
	if err := json.Unmarshal(entry, &obj); err != nil {
		return nil, fmt.Errorf("sources.%s: %w", key, err)
	}

	cwd := obj.Cwd
	if cwd == "" {
		cwd = defaultCwd
	}
	target := obj.Target
	if target == "" {
		target = defaultTarget
	}

	return &Spec{
		Key:     key,
		Command: obj.Command,
		Deps:    obj.Deps,
		Target:  target,
		Cwd:     cwd,
		Source:  source,
	}, nil
}

// resolveIdentifier applies the three-tier identifier resolution shared with
// --changed and generator.deps: exact project name, then workspace-relative
// path, then /<id> suffix match against any project name.
func resolveIdentifier(ws *manifest.Workspace, id string) (string, bool) {
	if _, ok := ws.Projects[id]; ok {
		return id, true
	}
	for name, project := range ws.Projects {
		if project.Path == id {
			return name, true
		}
	}
	suffix := "/" + id
	for name := range ws.Projects {
		if strings.HasSuffix(name, suffix) {
			return name, true
		}
	}
	return "", false
}

// Triggered filters specs to those whose deps resolve into affected, or —
// for deps-less generators — whose key (interpreted as a workspace-relative
// path) lies inside an affected project's path.
func Triggered(ws *manifest.Workspace, specs []*Spec, affected map[string]bool) []*Spec {
	var out []*Spec
	for _, spec := range specs {
		if len(spec.Deps) > 0 {
			for _, dep := range spec.Deps {
				if name, ok := resolveIdentifier(ws, dep); ok && affected[name] {
					out = append(out, spec)
					break
				}
			}
			continue
		}
		for name := range affected {
			project := ws.Projects[name]
			if project == nil {
				continue
			}
			if strings.HasPrefix(spec.Key, project.Path+"/") || spec.Key == project.Path {
				out = append(out, spec)
				break
			}
		}
	}
	return out
}

// Order sorts specs into a run order: if a generator's deps include another
// generator's target, the dependency generator runs first; ties fall back to
// the specs' index in the input slice (Load returns specs sorted by key), per the
// conservative fallback rule in §9.
func Order(specs []*Spec) []*Spec {
	targetToIndex := make(map[string]int, len(specs))
	for i, s := range specs {
		if s.Target != "" {
			targetToIndex[s.Target] = i
		}
	}

	indegree := make([]int, len(specs))
	edges := make([][]int, len(specs)) // edges[i] = indices that depend on i

	for i, s := range specs {
		for _, dep := range s.Deps {
			if j, ok := targetToIndex[dep]; ok && j != i {
				edges[j] = append(edges[j], i)
				indegree[i]++
			}
		}
	}

	visited := make([]bool, len(specs))
	var ordered []*Spec

	for len(ordered) < len(specs) {
		progressed := false
		for i, s := range specs {
			if visited[i] || indegree[i] > 0 {
				continue
			}
			visited[i] = true
			ordered = append(ordered, s)
			progressed = true
			for _, dependent := range edges[i] {
				indegree[dependent]--
			}
		}
		if !progressed {
			// A dependency cycle among generators: fall back to declaration
			// order for whatever remains rather than looping forever.
			for i, s := range specs {
				if !visited[i] {
					visited[i] = true
					ordered = append(ordered, s)
				}
			}
		}
	}

	return ordered
}

// Run executes spec's command through the shell, returning combined output.
// A failing generator is the caller's signal to short-circuit per §4.6.
func Run(spec *Spec) ([]byte, error) {
	cmd := exec.Command("sh", "-c", spec.Command)
	cmd.Dir = spec.Cwd
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("generator %s (%s): %w", spec.Key, spec.Command, err)
	}
	return out, nil
}

// RunAll runs every spec in Order, stopping at the first failure.
func RunAll(specs []*Spec) error {
	for _, spec := range Order(specs) {
		if _, err := Run(spec); err != nil {
			return err
		}
	}
	return nil
}
