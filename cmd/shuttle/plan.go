package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshharrison/shuttle/internal/affected"
	"github.com/joshharrison/shuttle/internal/filter"
	"github.com/joshharrison/shuttle/internal/planner"
	"github.com/joshharrison/shuttle/internal/ui"
)

func planCmd() *cobra.Command {
	var changed []string
	var filterPattern string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the affected set and wave plan for a change set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := rootContext()
			lw, err := load(ctx)
			if err != nil {
				return err
			}

			seeds, unresolved := resolveIdentifiers(lw.ws, changed)
			if len(changed) > 0 && len(seeds) == 0 {
				return fmt.Errorf("no changed identifier resolved to a project: %v", unresolved)
			}
			if len(unresolved) > 0 {
				fmt.Printf("%s could not resolve: %v\n", ui.Yellow("warning:"), unresolved)
			}

			if len(lw.graph.DetectCycles()) > 0 {
				return fmt.Errorf("workspace graph has cycles; refusing to plan")
			}

			affectedSet := affected.Compute(lw.graph, seeds)
			affectedSet = filter.Apply(lw.ws, lw.graph, affectedSet, filterPattern)

			plan, err := planner.Plan(lw.graph, affectedSet)
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(plan)
			}

			printPlan(plan)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&changed, "changed", nil, "changed project identifiers (repeatable/comma-separated)")
	cmd.Flags().StringVar(&filterPattern, "filter", "", "restrict the affected set to a glob path pattern or key<=value expression")
	return cmd
}

func printPlan(plan *planner.BuildPlan) {
	fmt.Printf("%s %d projects across %d waves\n", ui.BoldCyan("affected:"), len(plan.Affected), len(plan.Waves))
	for i, wave := range plan.Waves {
		fmt.Printf("  %s %d: %v\n", ui.BoldWhite("wave"), i+1, wave)
	}
}
