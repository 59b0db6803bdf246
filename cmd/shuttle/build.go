package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joshharrison/shuttle/internal/affected"
	"github.com/joshharrison/shuttle/internal/executor"
	"github.com/joshharrison/shuttle/internal/filter"
	"github.com/joshharrison/shuttle/internal/generator"
	"github.com/joshharrison/shuttle/internal/metrics"
	"github.com/joshharrison/shuttle/internal/planner"
	"github.com/joshharrison/shuttle/internal/reporter"
	"github.com/joshharrison/shuttle/internal/runstate"
	"github.com/joshharrison/shuttle/internal/ui"
)

func buildCmd() *cobra.Command {
	var changed []string
	var filterPattern string
	var dryRun bool
	var previous bool
	var history bool
	var runID string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run generators then the wave executor for the affected set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := rootContext()
			log := zerolog.Ctx(ctx)
			lw, err := load(ctx)
			if err != nil {
				return err
			}

			if history {
				return printRunHistory(lw.ws.Root)
			}
			if runID != "" {
				return printArchivedRun(lw.ws.Root, runID)
			}
			if previous {
				return printPreviousRun(lw.ws.Root)
			}

			if len(lw.graph.DetectCycles()) > 0 {
				return fmt.Errorf("workspace graph has cycles; refusing to build")
			}

			seeds, unresolved := resolveIdentifiers(lw.ws, changed)
			if len(changed) > 0 && len(seeds) == 0 {
				return fmt.Errorf("no changed identifier resolved to a project: %v", unresolved)
			}
			if len(seeds) == 0 {
				seeds = lw.ws.SortedNames()
			}

			affectedSet := affected.Compute(lw.graph, seeds)
			affectedSet = filter.Apply(lw.ws, lw.graph, affectedSet, filterPattern)
			if len(affectedSet) == 0 {
				fmt.Println(ui.Dim("nothing affected"))
				return nil
			}

			plan, err := planner.Plan(lw.graph, affectedSet)
			if err != nil {
				return err
			}

			triggered := generator.Triggered(lw.ws, lw.specs, affectedSet)
			log.Info().Int("count", len(triggered)).Msg("running triggered generators")
			if err := generator.RunAll(triggered); err != nil {
				return fmt.Errorf("generator run: %w", err)
			}

			concurrency := lw.cfg.Concurrency
			if concurrency < 1 {
				concurrency = 1
			}

			st, err := runstate.New(lw.ws.Root, plan.TotalWaves())
			if err != nil {
				return fmt.Errorf("init run state: %w", err)
			}

			m := metrics.New()

			result := executor.Run(ctx, plan, lw.ws, executor.Options{
				Concurrency:  concurrency,
				BuildCommand: buildCommandFor(lw),
				DryRun:       dryRun,
				Reporter:     executor.NopReporter{},
			})

			recordWaveMetrics(m, result)

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
			if err := st.Archive(); err != nil {
				log.Warn().Err(err).Msg("failed to archive run state")
			}

			rep := reporter.New(plan, st)
			if flagJSON {
				data, err := rep.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				fmt.Print(rep.Summary())
			}

			if !result.OverallSuccess {
				return fmt.Errorf("build failed at wave %d", result.HaltedAtWave)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&changed, "changed", nil, "changed project identifiers; defaults to the whole workspace")
	cmd.Flags().StringVar(&filterPattern, "filter", "", "restrict the affected set to a glob path pattern or key<=value expression")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "synthesize success without spawning builds")
	cmd.Flags().BoolVar(&previous, "previous", false, "show the last recorded run's status instead of building again")
	cmd.Flags().BoolVar(&history, "history", false, "list archived run IDs instead of building")
	cmd.Flags().StringVar(&runID, "run", "", "show a detailed summary of an archived run ID (see --history) instead of building")
	return cmd
}

// recordWaveMetrics feeds an executor run's per-project results into the
// build counter and the wave-duration histogram. A wave's duration is the
// slowest project within it, since every project in a wave runs
// concurrently and the wave as a whole isn't done until the last one is.
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

// printPreviousRun implements "build --previous": print the most recently
// recorded run's status without spawning a single build, per SPEC_FULL.md
// §2.3's run-history claim. The live state file survives a run's
// completion (Archive copies it, it doesn't move it), so the last run's
// status is always whatever runstate.Load returns.
func printPreviousRun(root string) error {
	if !runstate.Exists(root) {
		return fmt.Errorf("no previous run recorded under %s", root)
	}
	st, err := runstate.Load(root)
	if err != nil {
		return fmt.Errorf("load previous run: %w", err)
	}
	rep := reporter.New(planFromState(st), st)
	rep.PrintStatus(os.Stdout)
	return nil
}

// printArchivedRun loads one archived run by ID and prints its full
// per-wave summary, including any recorded failures.
func printArchivedRun(root, id string) error {
	st, err := runstate.LoadArchived(root, id)
	if err != nil {
		return err
	}
	rep := reporter.New(planFromState(st), st)
	rep.PrintSummaryReport(os.Stdout)
	return nil
}

// printRunHistory lists archived run IDs in lexicographic ID order (not
// chronological).
func printRunHistory(root string) error {
	ids, err := runstate.History(root)
	if err != nil {
		return fmt.Errorf("read run history: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println(ui.Dim("no archived runs"))
		return nil
	}
	fmt.Println(ui.BoldCyan("archived runs:"))
	for _, id := range ids {
		fmt.Printf("  %s\n", id)
	}
	return nil
}

// planFromState reconstructs an approximate BuildPlan from a persisted
// RunState for display purposes: RunState doesn't persist the induced
// subgraph itself, only each project's recorded wave index, but that's
// enough to regroup projects into the same wave layout a Reporter expects.
func planFromState(st *runstate.RunState) *planner.BuildPlan {
	byWave := make(map[int][]string)
	names := st.SortedProjectNames()
	for _, name := range names {
		ps := st.GetProject(name)
		byWave[ps.Wave] = append(byWave[ps.Wave], name)
	}

	waves := make([][]string, st.TotalWaves)
	for i := range waves {
		wave := byWave[i]
		sort.Strings(wave)
		waves[i] = wave
	}

	return &planner.BuildPlan{Affected: names, Waves: waves}
}
