package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joshharrison/shuttle/internal/executor"
	"github.com/joshharrison/shuttle/internal/generator"
	"github.com/joshharrison/shuttle/internal/metrics"
	"github.com/joshharrison/shuttle/internal/orchestrate"
	"github.com/joshharrison/shuttle/internal/planner"
	"github.com/joshharrison/shuttle/internal/supervisor"
	"github.com/joshharrison/shuttle/internal/ui"
	"github.com/joshharrison/shuttle/internal/watcher"
)

func watchCmd() *cobra.Command {
	var filterPattern string
	var debounceMs int
	var noUI bool

	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Pre-build dependencies, start dev targets, then watch and rebuild",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := rootContext()
			log := zerolog.Ctx(ctx)
			lw, err := load(ctx)
			if err != nil {
				return err
			}

			if len(lw.graph.DetectCycles()) > 0 {
				return fmt.Errorf("workspace graph has cycles; refusing to watch")
			}

			targets, unresolved := resolveIdentifiers(lw.ws, args)
			if len(unresolved) > 0 {
				fmt.Printf("%s could not resolve targets: %v\n", ui.Yellow("warning:"), unresolved)
			}

			m := metrics.New()
			sup := supervisor.New(supervisor.NopSink{})
			sup.SetLogger(*log)

			concurrency := lw.cfg.Concurrency
			if concurrency < 1 {
				concurrency = 1
			}
			execOpts := executor.Options{
				Concurrency:  concurrency,
				BuildCommand: buildCommandFor(lw),
				Reporter:     executor.NopReporter{},
			}

			if !noUI {
				ui.PrintBanner()
			}

			if len(targets) > 0 {
				if err := preDevBuild(ctx, lw, targets, execOpts); err != nil {
					return fmt.Errorf("pre-dev build: %w", err)
				}
				for _, target := range targets {
					p := lw.ws.Projects[target]
					script, ok := p.Manifest.Scripts["dev"]
					if !ok {
						log.Warn().Str("project", target).Msg("no dev script; skipping")
						continue
					}
					if _, err := sup.Start(target, "sh", []string{"-c", script}, p.AbsolutePath); err != nil {
						return fmt.Errorf("start dev task %s: %w", target, err)
					}
					m.SetActiveDevTasks(len(sup.Tasks()))
				}
			}

			orch := orchestrate.New(orchestrate.Config{
				Ctx:             ctx,
				Workspace:       lw.ws,
				Graph:           lw.graph,
				Generators:      lw.specs,
				FilterPattern:   filterPattern,
				ExecutorOptions: execOpts,
				StateRoot:       lw.ws.Root,
				Metrics:         m,
				OnBuildComplete: func(outcome orchestrate.BuildOutcome) {
					m.RecordWatchRebuild()
					if outcome.Err != nil {
						log.Error().Err(outcome.Err).Msg("watch rebuild failed")
						return
					}
					log.Info().Strs("changed", keysOf(outcome.Changed)).Msg("watch rebuild completed")
				},
			})

			w, err := watcher.New(lw.ws, func(batch watcher.ChangeBatch) {
				orch.OnChange(batch.Projects)
			}, watcher.Options{
				DebounceWindow: time.Duration(debounceMs) * time.Millisecond,
				IgnorePatterns: lw.cfg.IgnoreGlobs,
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			for path := range generatorOutputPaths(lw.ws.Root, lw.specs) {
				w.AddIgnoreGlob(path)
			}

			watchCtx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, ui.Yellow("received interrupt, shutting down..."))
				cancel()
			}()

			go orch.Run()
			defer orch.Stop()

			if err := w.Start(watchCtx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Stop()

			<-watchCtx.Done()

			for id, shutdownErr := range sup.Shutdown() {
				if shutdownErr != nil {
					log.Warn().Err(shutdownErr).Str("task", id).Msg("failed to stop dev task")
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&filterPattern, "filter", "", "restrict rebuilds to a glob path pattern or key<=value expression")
	cmd.Flags().IntVar(&debounceMs, "debounce", 100, "debounce window in milliseconds")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "disable the colorized banner")
	return cmd
}

// preDevBuild builds the transitive dependency closure of targets
// (excluding the targets themselves), then runs the generators triggered by
// targets ∪ closure, before any dev task starts, per §4.9.
func preDevBuild(ctx context.Context, lw *loadedWorkspace, targets []string, execOpts executor.Options) error {
	closure := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		for _, dep := range lw.graph.Deps[name] {
			if !closure[dep] {
				closure[dep] = true
				visit(dep)
			}
		}
	}
	for _, t := range targets {
		visit(t)
	}
	for _, t := range targets {
		delete(closure, t)
	}

	if len(closure) > 0 {
		plan, err := planner.Plan(lw.graph, closure)
		if err != nil {
			return err
		}
		result := executor.Run(ctx, plan, lw.ws, execOpts)
		if !result.OverallSuccess {
			return fmt.Errorf("dependency build failed at wave %d", result.HaltedAtWave)
		}
	}

	all := make(map[string]bool, len(closure)+len(targets))
	for name := range closure {
		all[name] = true
	}
	for _, t := range targets {
		all[t] = true
	}
	triggered := generator.Triggered(lw.ws, lw.specs, all)
	if err := generator.RunAll(triggered); err != nil {
		return fmt.Errorf("generator run: %w", err)
	}
	return nil
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
