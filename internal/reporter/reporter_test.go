package reporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/joshharrison/shuttle/internal/planner"
	"github.com/joshharrison/shuttle/internal/runstate"
)

func makePlan() *planner.BuildPlan {
	return &planner.BuildPlan{
		Affected: []string{"a", "b", "c"},
		Waves: [][]string{
			{"a", "b"},
			{"c"},
		},
	}
}

func makeState() *runstate.RunState {
	now := time.Now()
	finished := now.Add(2 * time.Minute)

	return &runstate.RunState{
		ID:          "test-run",
		StartedAt:   now,
		Status:      "running",
		CurrentWave: 1,
		TotalWaves:  2,
		Projects: map[string]*runstate.ProjectState{
			"a": {Status: runstate.StatusCompleted, Wave: 0, StartedAt: &now, FinishedAt: &finished},
			"b": {Status: runstate.StatusCompleted, Wave: 0, StartedAt: &now, FinishedAt: &finished},
			"c": {Status: runstate.StatusRunning, Wave: 1, StartedAt: &now},
		},
	}
}

func TestPrintStatus(t *testing.T) {
	plan := makePlan()
	st := makeState()
	rpt := New(plan, st)

	var buf bytes.Buffer
	rpt.PrintStatus(&buf)

	output := buf.String()

	if !strings.Contains(output, "Shuttle") {
		t.Error("expected output to contain 'Shuttle'")
	}
	if !strings.Contains(output, "WAVE 1") {
		t.Error("expected output to contain 'WAVE 1'")
	}
	if !strings.Contains(output, "WAVE 2") {
		t.Error("expected output to contain 'WAVE 2'")
	}
	if !strings.Contains(output, "a") {
		t.Error("expected output to contain project 'a'")
	}
}

func TestJSON(t *testing.T) {
	plan := makePlan()
	st := makeState()
	rpt := New(plan, st)

	data, err := rpt.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	output := string(data)
	if !strings.Contains(output, "test-run") {
		t.Error("JSON should contain run ID")
	}
	if !strings.Contains(output, "running") {
		t.Error("JSON should contain status")
	}
}

func TestSummary(t *testing.T) {
	plan := makePlan()
	st := makeState()
	st.Status = "completed"
	rpt := New(plan, st)

	summary := rpt.Summary()
	if !strings.Contains(summary, "Shuttle Run Complete") {
		t.Error("summary should contain header")
	}
	if !strings.Contains(summary, "test-run") {
		t.Error("summary should contain run ID")
	}
}

func TestSummary_WithFailures(t *testing.T) {
	plan := makePlan()
	st := makeState()
	st.Status = "failed"
	st.Projects["c"] = &runstate.ProjectState{Status: runstate.StatusFailed, Wave: 1}
	rpt := New(plan, st)

	summary := rpt.Summary()
	if !strings.Contains(summary, "Failed projects") {
		t.Error("summary should list failed projects")
	}
	if !strings.Contains(summary, "c") {
		t.Error("summary should name the failed project")
	}
}

func TestPrintSummaryReport(t *testing.T) {
	plan := makePlan()
	st := makeState()
	st.Status = "completed"
	rpt := New(plan, st)

	var buf bytes.Buffer
	report := rpt.PrintSummaryReport(&buf)

	if report != buf.String() {
		t.Error("PrintSummaryReport should return the same text it writes")
	}
	if !strings.Contains(report, "Shuttle Run Summary") {
		t.Error("expected summary header")
	}
}
