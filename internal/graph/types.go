package graph

import "github.com/joshharrison/shuttle/internal/manifest"

// DependencyGraph is a directed graph of workspace projects, built from
// each project's declared dependency names. Constructed once per
// invocation and treated as immutable thereafter.
type DependencyGraph struct {
	Projects map[string]*manifest.Project
	Deps     map[string][]string // project -> projects it depends on
	RDeps    map[string][]string // project -> projects that depend on it
	Roots    []string            // projects with no dependents (rdeps empty)
	Leaves   []string            // projects with no dependencies (deps empty)
}

// HasProject reports whether name is a known workspace project.
func (g *DependencyGraph) HasProject(name string) bool {
	_, ok := g.Projects[name]
	return ok
}
