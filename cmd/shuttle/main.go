// Command shuttle is the workspace-aware build orchestrator's entrypoint: a
// cobra command tree rooted here, one subcommand per file, mirroring the
// reference CLI's cmd/beadloom/main.go layout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagRoot        string
	flagJSON        bool
	flagNoColor     bool
	flagConcurrency int
	flagLogLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shuttle",
		Short: "Workspace-aware build orchestrator for a monorepo",
		Long: `Shuttle derives a dependency graph from a workspace's project manifests,
computes the work a change set implies, partitions it into concurrent
wavefronts, and drives execution under a concurrency bound. In watch mode
it observes the filesystem and supervises long-lived dev servers.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "workspace root directory")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 0, "max concurrent builds (0 = from .shuttlerc.yaml, default 4)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides SHUTTLE_LOG_LEVEL)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rootContext builds the base context every subcommand runs under, with a
// structured logger attached per §2.1: configured once here from
// --log-level/SHUTTLE_LOG_LEVEL, then threaded through context.Context so
// component packages can pull a request-scoped logger rather than calling a
// global one.
func rootContext() context.Context {
	level := flagLogLevel
	if level == "" {
		level = os.Getenv("SHUTTLE_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if !flagJSON {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).Level(parsed).With().Timestamp().Logger()

	if flagNoColor {
		color.NoColor = true
	}

	return logger.WithContext(context.Background())
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	os.Exit(1)
}
