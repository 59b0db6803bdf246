package orchestrate

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joshharrison/shuttle/internal/executor"
	"github.com/joshharrison/shuttle/internal/graph"
	"github.com/joshharrison/shuttle/internal/manifest"
	"github.com/joshharrison/shuttle/internal/metrics"
)

func fixtureWorkspace() (*manifest.Workspace, *graph.DependencyGraph) {
	ws := &manifest.Workspace{Projects: map[string]*manifest.Project{
		"a": {Name: "a", Manifest: manifest.Manifest{Name: "a"}},
		"b": {Name: "b", Manifest: manifest.Manifest{Name: "b", Dependencies: map[string]string{"a": "*"}}},
	}}
	return ws, graph.Build(ws)
}

func TestOrchestrator_BuildsAffectedSetOnChange(t *testing.T) {
	ws, g := fixtureWorkspace()
	outcomes := make(chan BuildOutcome, 4)

	o := New(Config{
		Workspace: ws,
		Graph:     g,
		ExecutorOptions: executor.Options{
			DryRun:       true,
			BuildCommand: func(string) (string, []string) { return "true", nil },
		},
		OnBuildComplete: func(o BuildOutcome) { outcomes <- o },
	})

	go o.Run()
	defer o.Stop()

	o.OnChange([]string{"a"})

	select {
	case outcome := <-outcomes:
		if outcome.Err != nil {
			t.Fatalf("unexpected error: %v", outcome.Err)
		}
		if outcome.Result == nil || !outcome.Result.OverallSuccess {
			t.Fatalf("expected a successful result, got %+v", outcome.Result)
		}
		if len(outcome.Plan.Affected) != 2 {
			t.Errorf("expected both a and b affected (b depends on a), got %v", outcome.Plan.Affected)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for build outcome")
	}
}

func TestOrchestrator_RecordsWaveMetrics(t *testing.T) {
	ws, g := fixtureWorkspace()
	outcomes := make(chan BuildOutcome, 4)
	m := metrics.New()

	o := New(Config{
		Workspace: ws,
		Graph:     g,
		ExecutorOptions: executor.Options{
			DryRun:       true,
			BuildCommand: func(string) (string, []string) { return "true", nil },
		},
		Metrics:         m,
		OnBuildComplete: func(o BuildOutcome) { outcomes <- o },
	})

	go o.Run()
	defer o.Stop()

	o.OnChange([]string{"a"})

	select {
	case outcome := <-outcomes:
		if outcome.Err != nil {
			t.Fatalf("unexpected error: %v", outcome.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for build outcome")
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()
	if !strings.Contains(body, "shuttle_wave_duration_seconds") {
		t.Error("expected a wave-duration observation from the watch-mode rebuild")
	}
	if !strings.Contains(body, `shuttle_builds_total{outcome="success",project="a"} 1`) {
		t.Errorf("expected a recorded build counter, got %s", body)
	}
}

func TestOrchestrator_ReportsOutcomeForBackToBackChanges(t *testing.T) {
	ws, g := fixtureWorkspace()
	outcomes := make(chan BuildOutcome, 4)

	o := New(Config{
		Workspace: ws,
		Graph:     g,
		ExecutorOptions: executor.Options{
			DryRun:       true,
			BuildCommand: func(string) (string, []string) { return "true", nil },
		},
		OnBuildComplete: func(o BuildOutcome) { outcomes <- o },
	})

	go o.Run()
	defer o.Stop()

	o.OnChange([]string{"a"})
	o.OnChange([]string{"b"})

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 1 {
		select {
		case <-outcomes:
			received++
		case <-timeout:
			t.Fatal("timed out waiting for a build outcome")
		}
	}
}
