// Package planner computes wave-layered build plans from an affected set,
// via induced-subgraph Kahn topological layering.
//
// Grounded on the teacher's internal/cpm/cpm.go: topoSort's Kahn's-algorithm-
// with-sorted-queue shape is kept nearly verbatim (sorted initial queue,
// sorted newly-ready batch appended per round) because that's exactly what
// produces the byte-identical, deterministic wave ordering invariant 5
// requires. Dropped entirely: the ES/EF/LS/LF/slack/critical-path machinery
// in cpm.go — the Wave Planner only needs topological layers, not scheduling
// durations (see DESIGN.md).
package planner

import (
	"fmt"
	"sort"

	"github.com/joshharrison/shuttle/internal/graph"
)

// Plan restricts g's edges to the affected set, computes in-degree over
// that induced subgraph, and repeatedly peels off the zero-in-degree
// frontier as one lexicographically-sorted wave, per §4.5.
func Plan(g *graph.DependencyGraph, affected map[string]bool) (*BuildPlan, error) {
	inDegree := make(map[string]int, len(affected))
	for name := range affected {
		count := 0
		for _, dep := range g.Deps[name] {
			if affected[dep] {
				count++
			}
		}
		inDegree[name] = count
	}

	remaining := len(affected)
	plan := &BuildPlan{Affected: sortedNames(affected)}

	for remaining > 0 {
		var wave []string
		for name, deg := range inDegree {
			if deg == 0 {
				wave = append(wave, name)
			}
		}
		if len(wave) == 0 {
			return nil, fmt.Errorf("cycle in affected subgraph (%d projects unresolved)", remaining)
		}
		sort.Strings(wave)
		plan.Waves = append(plan.Waves, wave)

		for _, name := range wave {
			delete(inDegree, name)
			remaining--
			for _, dependent := range g.RDeps[name] {
				if _, stillPending := inDegree[dependent]; stillPending {
					inDegree[dependent]--
				}
			}
		}
	}

	return plan, nil
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
