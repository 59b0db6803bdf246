package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshharrison/shuttle/internal/graph"
	"github.com/joshharrison/shuttle/internal/ui"
)

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Load the workspace, build the dependency graph, and detect cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := rootContext()
			lw, err := load(ctx)
			if err != nil {
				return err
			}

			cycles := lw.graph.DetectCycles()

			if flagJSON {
				if err := outputJSON(map[string]interface{}{
					"projectCount": lw.graph.ProjectCount(),
					"cycles":       cycles,
				}); err != nil {
					return err
				}
				if len(cycles) > 0 {
					os.Exit(1)
				}
				return nil
			}

			fmt.Printf("%s %d projects, %d dependency edges\n",
				ui.BoldCyan("workspace:"), lw.graph.ProjectCount(), countEdges(lw.graph))

			for _, name := range lw.ws.SortedNames() {
				deps := lw.graph.Deps[name]
				if len(deps) == 0 {
					fmt.Printf("  %s\n", name)
					continue
				}
				fmt.Printf("  %s -> %v\n", name, deps)
			}

			if len(cycles) == 0 {
				fmt.Println(ui.Green("no cycles detected"))
				return nil
			}

			fmt.Println(ui.Red("cycles detected:"))
			for _, cycle := range cycles {
				fmt.Printf("  %v\n", cycle)
			}
			os.Exit(1)
			return nil
		},
	}
}

func countEdges(g *graph.DependencyGraph) int {
	n := 0
	for _, deps := range g.Deps {
		n += len(deps)
	}
	return n
}
