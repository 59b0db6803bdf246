package executor

import (
	"context"
	"sync"
	"testing"

	"github.com/joshharrison/shuttle/internal/manifest"
	"github.com/joshharrison/shuttle/internal/planner"
)

type recordingReporter struct {
	mu      sync.Mutex
	started []string
	done    []BuildResult
}

func (r *recordingReporter) OnStart(info BuildStepInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, info.Project)
}

func (r *recordingReporter) OnComplete(result BuildResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, result)
}

func (r *recordingReporter) OnOutput(string, string, bool) {}

func fixtureWorkspace(names ...string) *manifest.Workspace {
	ws := &manifest.Workspace{Projects: make(map[string]*manifest.Project)}
	for _, n := range names {
		ws.Projects[n] = &manifest.Project{Name: n, AbsolutePath: "/tmp"}
	}
	return ws
}

func TestRun_DryRunAllSucceed(t *testing.T) {
	ws := fixtureWorkspace("a", "b", "c")
	plan := &planner.BuildPlan{
		Affected: []string{"a", "b", "c"},
		Waves:    [][]string{{"a", "b"}, {"c"}},
	}
	reporter := &recordingReporter{}

	result := Run(context.Background(), plan, ws, Options{
		DryRun:       true,
		Reporter:     reporter,
		BuildCommand: func(string) (string, []string) { return "true", nil },
	})

	if !result.OverallSuccess {
		t.Fatalf("expected overall success, got %+v", result)
	}
	if len(result.Waves) != 2 {
		t.Fatalf("expected 2 wave results, got %d", len(result.Waves))
	}
	if len(reporter.started) != 3 || len(reporter.done) != 3 {
		t.Errorf("expected 3 starts and 3 completions, got %d/%d", len(reporter.started), len(reporter.done))
	}
	for _, r := range reporter.done {
		if !r.DryRun || !r.Success {
			t.Errorf("expected dry-run success result, got %+v", r)
		}
	}
}

func TestRun_FailureHaltsLaterWaves(t *testing.T) {
	ws := fixtureWorkspace("a", "b")
	plan := &planner.BuildPlan{
		Affected: []string{"a", "b"},
		Waves:    [][]string{{"a"}, {"b"}},
	}

	result := Run(context.Background(), plan, ws, Options{
		BuildCommand: func(project string) (string, []string) {
			return "false", nil // always exits nonzero
		},
	})

	if result.OverallSuccess {
		t.Fatal("expected overall failure")
	}
	if result.HaltedAtWave != 0 {
		t.Errorf("expected halt at wave 0, got %d", result.HaltedAtWave)
	}
	if len(result.Waves) != 1 {
		t.Errorf("expected only wave 0 to have run, got %d waves", len(result.Waves))
	}
}

func TestRun_InFlightWaveMembersFinishBeforeHalt(t *testing.T) {
	ws := fixtureWorkspace("a", "b")
	plan := &planner.BuildPlan{
		Affected: []string{"a", "b"},
		Waves:    [][]string{{"a", "b"}},
	}

	calls := make(map[string]string)
	var mu sync.Mutex

	result := Run(context.Background(), plan, ws, Options{
		BuildCommand: func(project string) (string, []string) {
			mu.Lock()
			calls[project] = "ran"
			mu.Unlock()
			if project == "a" {
				return "false", nil
			}
			return "true", nil
		},
	})

	if len(calls) != 2 {
		t.Errorf("expected both wave members to run despite one failing, got %v", calls)
	}
	if result.OverallSuccess {
		t.Error("expected overall failure")
	}
	if len(result.Waves[0].Results) != 2 {
		t.Errorf("expected 2 results recorded for the wave, got %d", len(result.Waves[0].Results))
	}
}
