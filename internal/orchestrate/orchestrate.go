package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/joshharrison/shuttle/internal/affected"
	"github.com/joshharrison/shuttle/internal/executor"
	"github.com/joshharrison/shuttle/internal/filter"
	"github.com/joshharrison/shuttle/internal/generator"
	"github.com/joshharrison/shuttle/internal/graph"
	"github.com/joshharrison/shuttle/internal/manifest"
	"github.com/joshharrison/shuttle/internal/metrics"
	"github.com/joshharrison/shuttle/internal/planner"
	"github.com/joshharrison/shuttle/internal/runstate"
)

// BuildOutcome is reported to Config.OnBuildComplete after every actor-
// driven build cycle, successful or not.
type BuildOutcome struct {
	Changed map[string]bool
	Plan    *planner.BuildPlan
	Result  *executor.RunResult
	Err     error
}

// Config wires an Orchestrator to the rest of the pipeline.
type Config struct {
	Ctx             context.Context // logger source for runCycle; defaults to context.Background()
	Workspace       *manifest.Workspace
	Graph           *graph.DependencyGraph
	Generators      []*generator.Spec
	FilterPattern   string
	ExecutorOptions executor.Options
	StateRoot       string
	Metrics         *metrics.Metrics // nil disables per-wave/per-build recording
	OnBuildComplete func(BuildOutcome)
}

// Orchestrator is the single-goroutine actor of §4.9. Start it with Run,
// feed it batches with OnChange; it serializes all state mutation onto its
// own goroutine, so isBuilding/pending are never touched from two goroutines
// at once.
type Orchestrator struct {
	cfg   Config
	state actorState

	incoming chan []string
	done     chan buildResult
	stop     chan struct{}
}

type buildResult struct {
	changed map[string]bool
	outcome BuildOutcome
}

// New creates an Orchestrator; call Run in its own goroutine to start the
// actor loop.
func New(cfg Config) *Orchestrator {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	return &Orchestrator{
		cfg:      cfg,
		incoming: make(chan []string, 64),
		done:     make(chan buildResult, 1),
		stop:     make(chan struct{}),
	}
}

// OnChange feeds a watcher batch's project names into the actor. Safe to
// call from any goroutine (typically the watcher's own handler goroutine).
func (o *Orchestrator) OnChange(changedProjects []string) {
	select {
	case o.incoming <- changedProjects:
	case <-o.stop:
	}
}

// Stop halts the actor loop.
func (o *Orchestrator) Stop() {
	close(o.stop)
}

// BuildCount returns how many build cycles have started. Only meaningful
// after Run's goroutine has processed at least one message; callers that
// need this outside the actor goroutine should treat it as eventually
// consistent.
func (o *Orchestrator) BuildCount() int {
	return o.state.buildCount
}

// Run is the actor loop: the only place state.isBuilding/pending/buildCount
// are read or written. Blocks until Stop is called.
func (o *Orchestrator) Run() {
	for {
		select {
		case <-o.stop:
			return
		case changed := <-o.incoming:
			if toBuild, start := o.state.onChange(changed); start {
				o.launch(toBuild)
			}
		case result := <-o.done:
			if o.cfg.OnBuildComplete != nil {
				o.cfg.OnBuildComplete(result.outcome)
			}
			if toBuild, start := o.state.onBuildDone(); start {
				o.launch(toBuild)
			}
		}
	}
}

// launch runs one build cycle (steps 3-7 of §4.9) in a background goroutine
// and reports its outcome back over o.done so the actor loop can release
// isBuilding and check for coalesced follow-up work.
func (o *Orchestrator) launch(changed map[string]bool) {
	go func() {
		outcome := o.runCycle(changed)
		o.done <- buildResult{changed: changed, outcome: outcome}
	}()
}

func (o *Orchestrator) runCycle(changed map[string]bool) BuildOutcome {
	seeds := make([]string, 0, len(changed))
	for name := range changed {
		seeds = append(seeds, name)
	}

	affectedSet := affected.Compute(o.cfg.Graph, seeds)
	filtered := filter.Apply(o.cfg.Workspace, o.cfg.Graph, affectedSet, o.cfg.FilterPattern)
	if len(filtered) == 0 {
		return BuildOutcome{Changed: changed}
	}

	plan, err := planner.Plan(o.cfg.Graph, filtered)
	if err != nil {
		return BuildOutcome{Changed: changed, Err: fmt.Errorf("plan: %w", err)}
	}

	triggered := generator.Triggered(o.cfg.Workspace, o.cfg.Generators, filtered)
	if err := generator.RunAll(triggered); err != nil {
		return BuildOutcome{Changed: changed, Plan: plan, Err: fmt.Errorf("generator: %w", err)}
	}

	result := executor.Run(o.cfg.Ctx, plan, o.cfg.Workspace, o.cfg.ExecutorOptions)

	if o.cfg.Metrics != nil {
		recordWaveMetrics(o.cfg.Metrics, result)
	}

	if o.cfg.StateRoot != "" {
		if st, err := runstate.New(o.cfg.StateRoot, plan.TotalWaves()); err == nil {
			now := time.Now()
			for _, wave := range result.Waves {
				for _, r := range wave.Results {
					status := runstate.StatusCompleted
					if !r.Success {
						status = runstate.StatusFailed
					}
					finishedAt := now
					startedAt := finishedAt.Add(-r.Duration)
					st.UpdateProject(r.Project, &runstate.ProjectState{
						Status:     status,
						Wave:       r.Wave,
						ExitCode:   r.ExitCode,
						StartedAt:  &startedAt,
						FinishedAt: &finishedAt,
					})
				}
			}
			if result.OverallSuccess {
				st.SetStatus("completed")
			} else {
				st.SetStatus("failed")
			}
			st.Archive()
		}
	}

	var outcomeErr error
	if !result.OverallSuccess {
		outcomeErr = fmt.Errorf("build failed at wave %d", result.HaltedAtWave)
	}

	return BuildOutcome{Changed: changed, Plan: plan, Result: result, Err: outcomeErr}
}

// recordWaveMetrics feeds a watch-mode rebuild's per-project results into
// the build counter and wave-duration histogram, the same way cmd/shuttle's
// `build` command does for a one-shot run — a wave's duration is the
// slowest project in it, since every project in a wave runs concurrently.
func recordWaveMetrics(m *metrics.Metrics, result *executor.RunResult) {
	for _, wave := range result.Waves {
		var longest time.Duration
		for _, r := range wave.Results {
			outcome := "success"
			if !r.Success {
				outcome = "failure"
			}
			m.RecordBuild(r.Project, outcome)
			if r.Duration > longest {
				longest = r.Duration
			}
		}
		m.RecordWave(wave.Index, longest.Seconds())
	}
}
