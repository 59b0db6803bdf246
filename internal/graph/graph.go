// Package graph builds the workspace dependency graph and detects cycles
// in it.
//
// Grounded on the teacher's internal/graph/graph.go: the addEdge-with-dedup
// closure, sorted-adjacency-list determinism, and three-color DFS cycle
// detector are carried over almost verbatim, generalized from beads tasks
// (Blocks/BlockedBy) to workspace projects (manifest dependency names).
// Unlike the teacher, Build never fails on a cycle — cycle detection is a
// separate, explicit step so callers like `analyze` can report cycles
// without killing the load, and DetectCycles returns every simple cycle
// found rather than the first.
package graph

import (
	"sort"

	"github.com/joshharrison/shuttle/internal/manifest"
)

// Build constructs a DependencyGraph from a loaded workspace. For every
// project, the union of its four dependency maps' keys is scanned; a key
// that names another known project becomes an edge A -> B (A depends on
// B). Keys that don't resolve to a workspace project are external
// packages and are silently ignored. Self-edges, if declared, are kept —
// the cycle detector will catch them.
func Build(ws *manifest.Workspace) *DependencyGraph {
	g := &DependencyGraph{
		Projects: ws.Projects,
		Deps:     make(map[string][]string),
		RDeps:    make(map[string][]string),
	}

	edgeSet := make(map[[2]string]bool)
	addEdge := func(from, to string) {
		key := [2]string{from, to}
		if edgeSet[key] {
			return
		}
		edgeSet[key] = true
		g.Deps[from] = append(g.Deps[from], to)
		g.RDeps[to] = append(g.RDeps[to], from)
	}

	for name, project := range ws.Projects {
		for _, depName := range project.Manifest.AllDependencyNames() {
			if _, ok := ws.Projects[depName]; ok {
				addEdge(name, depName)
			}
		}
	}

	for k := range g.Deps {
		sort.Strings(g.Deps[k])
	}
	for k := range g.RDeps {
		sort.Strings(g.RDeps[k])
	}

	for name := range ws.Projects {
		if len(g.RDeps[name]) == 0 {
			g.Roots = append(g.Roots, name)
		}
		if len(g.Deps[name]) == 0 {
			g.Leaves = append(g.Leaves, name)
		}
	}
	sort.Strings(g.Roots)
	sort.Strings(g.Leaves)

	return g
}

// DetectCycles runs a three-color DFS (white=unseen, gray=on stack,
// black=finished) over all projects in name order, and returns every
// simple cycle encountered. An empty slice means the graph is acyclic.
//
// Unlike a single-cycle detector, this keeps searching a node's remaining
// out-edges after finding one cycle through it, and continues the outer
// loop over unvisited roots, so multiple independent cycles are all
// reported in one pass.
func (g *DependencyGraph) DetectCycles() [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)
	var cycles [][]string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, next := range g.Deps[node] {
			if color[next] == gray {
				cycles = append(cycles, reconstructCycle(parent, node, next))
				continue
			}
			if color[next] == white {
				parent[next] = node
				dfs(next)
			}
		}
		color[node] = black
	}

	names := make([]string, 0, len(g.Projects))
	for name := range g.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if color[name] == white {
			dfs(name)
		}
	}

	return cycles
}

// reconstructCycle walks the parent chain from node back to child
// (the gray ancestor that closes the cycle) and returns the cycle as
// [child, ..., node, child].
func reconstructCycle(parent map[string]string, node, child string) []string {
	cycle := []string{child, node}
	cur := node
	for cur != child {
		cur = parent[cur]
		cycle = append(cycle, cur)
	}
	for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}
	return cycle
}

// ProjectCount returns the number of projects in the graph.
func (g *DependencyGraph) ProjectCount() int {
	return len(g.Projects)
}
