package planner

// BuildPlan is the induced-subgraph wave layering for an affected set.
// Invariants: the union of Waves equals Affected; within a wave no two
// projects have an edge between them in the induced subgraph; a project in
// wave k depends only on projects in waves < k (or is a source in the
// induced subgraph). Waves are sorted lexicographically for determinism.
type BuildPlan struct {
	Affected []string   `json:"affected"`
	Waves    [][]string `json:"waves"`
}

// TotalWaves is a convenience accessor used by reporters.
func (p *BuildPlan) TotalWaves() int {
	return len(p.Waves)
}
