// Package affected computes the transitive closure of a change set over a
// dependency graph's reverse edges.
//
// Grounded on the BFS-over-successors shape of the teacher's
// internal/orchestrator/orchestrator.go cascadeSkip (queue + visited-map,
// seeded from a starting set, walked one adjacency hop at a time), redirected
// here over rdeps instead of a task's Successors list.
package affected

import "github.com/joshharrison/shuttle/internal/graph"

// Compute returns the smallest set A containing every name in seeds and
// closed under: x in A, y in rdeps[x] => y in A. The result order is not
// significant; callers that need determinism sort it themselves.
func Compute(g *graph.DependencyGraph, seeds []string) map[string]bool {
	affected := make(map[string]bool, len(seeds))
	queue := make([]string, 0, len(seeds))

	for _, s := range seeds {
		if !affected[s] {
			affected[s] = true
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, dependent := range g.RDeps[node] {
			if !affected[dependent] {
				affected[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}

	return affected
}

// Names returns the keys of an affected set as a slice, for callers that
// just need a list rather than membership testing.
func Names(affected map[string]bool) []string {
	names := make([]string, 0, len(affected))
	for name := range affected {
		names = append(names, name)
	}
	return names
}
