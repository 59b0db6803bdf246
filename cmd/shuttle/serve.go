package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joshharrison/shuttle/internal/affected"
	"github.com/joshharrison/shuttle/internal/filter"
	"github.com/joshharrison/shuttle/internal/metrics"
	"github.com/joshharrison/shuttle/internal/planner"
	"github.com/joshharrison/shuttle/internal/statusserver"
	"github.com/joshharrison/shuttle/internal/ui"
)

// serveCmd is the supplemented feature of §2.3: an optional, off-by-default
// HTTP status server exposing the last computed plan/run plus Prometheus
// metrics. It is "just another sink" — it never drives a build itself, it
// only reports the plan computed from --changed (or the whole workspace) at
// startup and sits there until shutdown.
func serveCmd() *cobra.Command {
	var port int
	var changed []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the last build plan and Prometheus metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := rootContext()
			log := zerolog.Ctx(ctx)
			lw, err := load(ctx)
			if err != nil {
				return err
			}

			seeds, unresolved := resolveIdentifiers(lw.ws, changed)
			if len(unresolved) > 0 {
				fmt.Printf("%s could not resolve: %v\n", ui.Yellow("warning:"), unresolved)
			}
			if len(seeds) == 0 {
				seeds = lw.ws.SortedNames()
			}

			affectedSet := affected.Compute(lw.graph, seeds)
			affectedSet = filter.Apply(lw.ws, lw.graph, affectedSet, "")

			var plan *planner.BuildPlan
			if len(affectedSet) > 0 {
				plan, err = planner.Plan(lw.graph, affectedSet)
				if err != nil {
					return err
				}
			}

			m := metrics.New()
			srv := statusserver.New(m)
			srv.Update(plan, nil)

			url, err := srv.Start(port)
			if err != nil {
				return fmt.Errorf("start status server: %w", err)
			}
			log.Info().Str("url", url).Msg("status server listening")
			fmt.Printf("%s %s\n", ui.BoldCyan("serving:"), url)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			fmt.Fprintln(os.Stderr, ui.Yellow("received interrupt, shutting down..."))
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 7337, "port to serve the status/metrics endpoints on")
	cmd.Flags().StringSliceVar(&changed, "changed", nil, "project identifiers to compute the served plan for; defaults to the whole workspace")
	return cmd
}
