package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshharrison/shuttle/internal/scanner"
	"github.com/joshharrison/shuttle/internal/ui"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Walk project sources and report unknown import/require specifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := rootContext()
			lw, err := load(ctx)
			if err != nil {
				return err
			}

			result, err := scanner.Scan(lw.ws, generatorOutputPaths(lw.ws.Root, lw.specs))
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			if flagJSON {
				if err := outputJSON(result); err != nil {
					return err
				}
				if len(result.Unknown) > 0 {
					os.Exit(1)
				}
				return nil
			}

			if len(lw.specs) > 0 {
				fmt.Println(ui.BoldCyan("configured generators:"))
				for _, s := range lw.specs {
					fmt.Printf("  %s  %s\n", ui.Bold(s.Key), s.Command)
				}
			}

			if len(result.Unknown) == 0 {
				fmt.Println(ui.Green("no unresolved imports"))
				return nil
			}

			fmt.Println(ui.Red("unresolved imports:"))
			for _, u := range result.Unknown {
				fmt.Printf("  %s  %s (%s)\n", ui.Bold(u.Project), u.Specifier, u.ResolvedPath)
				for _, importer := range u.ImportedBy {
					fmt.Printf("      imported by %s\n", importer)
				}
			}
			os.Exit(1)
			return nil
		},
	}
}
