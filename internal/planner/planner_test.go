package planner

import (
	"testing"

	"github.com/joshharrison/shuttle/internal/graph"
	"github.com/joshharrison/shuttle/internal/manifest"
)

func fixtureGraph(deps map[string][]string) *graph.DependencyGraph {
	ws := &manifest.Workspace{Projects: make(map[string]*manifest.Project)}
	for name, names := range deps {
		depMap := make(map[string]string)
		for _, n := range names {
			depMap[n] = "*"
		}
		ws.Projects[name] = &manifest.Project{
			Name:     name,
			Manifest: manifest.Manifest{Name: name, Dependencies: depMap},
		}
	}
	return graph.Build(ws)
}

func toSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func TestPlan_Diamond(t *testing.T) {
	// a -> b, a -> c, b -> d, c -> d
	g := fixtureGraph(map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
		"d": {},
	})

	plan, err := Plan(g, toSet("a", "b", "c", "d"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if plan.TotalWaves() != 3 {
		t.Fatalf("expected 3 waves, got %d: %v", plan.TotalWaves(), plan.Waves)
	}
	if len(plan.Waves[0]) != 1 || plan.Waves[0][0] != "d" {
		t.Errorf("expected wave 0 = [d], got %v", plan.Waves[0])
	}
	if len(plan.Waves[1]) != 2 || plan.Waves[1][0] != "b" || plan.Waves[1][1] != "c" {
		t.Errorf("expected wave 1 = [b, c], got %v", plan.Waves[1])
	}
	if len(plan.Waves[2]) != 1 || plan.Waves[2][0] != "a" {
		t.Errorf("expected wave 2 = [a], got %v", plan.Waves[2])
	}
}

func TestPlan_UnaffectedExcluded(t *testing.T) {
	// c depends on a, but only b is affected
	g := fixtureGraph(map[string][]string{
		"a": {},
		"b": {},
		"c": {"a"},
	})

	plan, err := Plan(g, toSet("b"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.TotalWaves() != 1 || len(plan.Waves[0]) != 1 || plan.Waves[0][0] != "b" {
		t.Errorf("expected a single wave [b], got %v", plan.Waves)
	}
}

func TestPlan_SingleProject(t *testing.T) {
	g := fixtureGraph(map[string][]string{"x": {}})
	plan, err := Plan(g, toSet("x"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.TotalWaves() != 1 || plan.Waves[0][0] != "x" {
		t.Errorf("expected single wave [x], got %v", plan.Waves)
	}
}

func TestPlan_WaveOrderingDeterministic(t *testing.T) {
	// Independent chains; the induced wave at each step sorts lexicographically.
	g := fixtureGraph(map[string][]string{
		"zeta":  {},
		"alpha": {},
		"mid":   {},
	})

	plan, err := Plan(g, toSet("zeta", "alpha", "mid"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.TotalWaves() != 1 {
		t.Fatalf("expected 1 wave, got %d", plan.TotalWaves())
	}
	want := []string{"alpha", "mid", "zeta"}
	got := plan.Waves[0]
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("wave[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPlan_CycleInAffectedSubgraphFails(t *testing.T) {
	g := fixtureGraph(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})

	_, err := Plan(g, toSet("a", "b"))
	if err == nil {
		t.Fatal("expected an error for a cyclic affected subgraph")
	}
}

func TestPlan_AffectedFieldSorted(t *testing.T) {
	g := fixtureGraph(map[string][]string{
		"z": {}, "a": {}, "m": {},
	})
	plan, err := Plan(g, toSet("z", "a", "m"))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := []string{"a", "m", "z"}
	for i, name := range want {
		if plan.Affected[i] != name {
			t.Errorf("Affected[%d] = %s, want %s", i, plan.Affected[i], name)
		}
	}
}
