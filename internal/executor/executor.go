// Package executor runs a wave-layered build plan under bounded concurrency,
// enforcing a hard barrier between waves.
//
// Grounded on internal/orchestrator/orchestrator.go's semaphore-based
// dispatch (acquire/defer-release around a channel of results), but
// deliberately restructured: the teacher's Run is a dynamic
// dependency-tracking scheduler that dispatches a task the instant its
// predecessors finish. This executor instead admits one wave at a time and
// blocks on every result in that wave before touching the next — the
// wave-barrier semantics this spec requires and the teacher's scheduler
// does not have.
package executor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/joshharrison/shuttle/internal/manifest"
	"github.com/joshharrison/shuttle/internal/planner"
)

const defaultConcurrency = 4

// Run executes plan's waves in order. Within a wave, all projects build
// concurrently (bounded by opts.Concurrency); the next wave is not started
// until every project in the current wave has reported completion. Any
// failure in a wave halts execution before the next wave begins; the
// in-flight members of the failing wave still run to completion.
func Run(ctx context.Context, plan *planner.BuildPlan, ws *manifest.Workspace, opts Options) *RunResult {
	log := zerolog.Ctx(ctx)

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	totalSteps := 0
	for _, wave := range plan.Waves {
		totalSteps += len(wave)
	}

	result := &RunResult{OverallSuccess: true}
	step := 0

	for waveIndex, wave := range plan.Waves {
		log.Debug().Int("wave", waveIndex).Strs("projects", wave).Msg("starting wave")
		waveResult := WaveResult{Index: waveIndex}

		sem := make(chan struct{}, concurrency)
		results := make(chan BuildResult, len(wave))
		var wg sync.WaitGroup

		for i, project := range wave {
			step++
			info := BuildStepInfo{
				Project:    project,
				Wave:       waveIndex,
				TotalWaves: len(plan.Waves),
				Step:       step,
				TotalSteps: totalSteps,
				IsParallel: len(wave) > 1,
			}
			reporter.OnStart(info)

			wg.Add(1)
			go func(project string, waveIndex int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				results <- buildOne(project, ws, waveIndex, opts, reporter)
			}(project, waveIndex)
			_ = i
		}

		wg.Wait()
		close(results)

		waveSuccess := true
		for r := range results {
			waveResult.Results = append(waveResult.Results, r)
			reporter.OnComplete(r)
			if !r.Success {
				waveSuccess = false
				log.Error().Str("project", r.Project).Int("exitCode", r.ExitCode).Msg("build failed")
			}
		}

		result.Waves = append(result.Waves, waveResult)

		if !waveSuccess {
			result.OverallSuccess = false
			result.HaltedAtWave = waveIndex
			log.Warn().Int("haltedAtWave", waveIndex).Msg("suppressing remaining waves after failure")
			return result
		}
	}

	return result
}

func buildOne(project string, ws *manifest.Workspace, waveIndex int, opts Options, reporter Reporter) BuildResult {
	start := time.Now()

	if opts.DryRun {
		return BuildResult{
			Project:  project,
			Wave:     waveIndex,
			Success:  true,
			ExitCode: 0,
			Duration: time.Since(start),
			Stdout:   fmt.Sprintf("dry-run: would build %s", project),
			DryRun:   true,
		}
	}

	program, args := opts.BuildCommand(project)

	p, ok := ws.Projects[project]
	dir := ws.Root
	if ok {
		dir = p.AbsolutePath
	}

	cmd := exec.Command(program, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &lineTee{buf: &stdout, project: project, isStderr: false, reporter: reporter}
	cmd.Stderr = &lineTee{buf: &stderr, project: project, isStderr: true, reporter: reporter}

	err := cmd.Run()
	exitCode := 0
	success := true
	if err != nil {
		success = false
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return BuildResult{
		Project:  project,
		Wave:     waveIndex,
		Success:  success,
		ExitCode: exitCode,
		Duration: time.Since(start),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}

// lineTee accumulates a child process's output into buf while forwarding
// each completed line to the reporter, matching the teacher's tee-to-
// multiwriter pattern without pulling in io.MultiWriter's all-writers-see-
// everything semantics (the reporter gets lines, buf gets raw bytes).
type lineTee struct {
	buf      *strings.Builder
	project  string
	isStderr bool
	reporter Reporter
	pending  strings.Builder
}

func (t *lineTee) Write(p []byte) (int, error) {
	t.buf.Write(p)
	for _, b := range p {
		if b == '\n' {
			t.reporter.OnOutput(t.project, t.pending.String(), t.isStderr)
			t.pending.Reset()
			continue
		}
		t.pending.WriteByte(b)
	}
	return len(p), nil
}
