// Package ui provides the terminal color palette and small formatting
// helpers shared by the reporter and the watch-mode status display.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders a small colored banner to stderr on startup.
func PrintBanner() {
	w := os.Stderr
	frame := color.New(color.FgCyan)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "  +----------------------+")
	brand.Fprintln(w, "  |       SHUTTLE        |")
	frame.Fprintln(w, "  +----------------------+")
	tag.Fprintf(w, "  %s workspace build orchestrator\n", Dim("→"))
	fmt.Fprintln(w)
}

// projectColors is a palette of distinct bold colors for differentiating
// projects in concurrent output.
var projectColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// projectColorIndex hashes a project name to a palette index.
func projectColorIndex(name string) int {
	var h uint32
	for _, c := range name {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(projectColors)))
}

// ProjectPrefix returns a colored [project-name] prefix string. The color
// is picked from the palette by hashing the name, so it is stable across
// runs; different projects may share a color.
func ProjectPrefix(name string) string {
	c := projectColors[projectColorIndex(name)]
	return Dim("[") + c(name) + Dim("]")
}

// StatusIcon returns a colored status icon for compact table display.
func StatusIcon(status string) string {
	switch status {
	case "completed":
		return Green("✓")
	case "running":
		return Cyan("●")
	case "failed":
		return Red("✗")
	case "skipped":
		return Yellow("⊘")
	case "cancelled":
		return Dim("⊘")
	default:
		return Dim("◌")
	}
}

// WaveStatus returns a colored wave status string.
func WaveStatus(status string) string {
	switch status {
	case "done":
		return Green("done")
	case "running":
		return BoldCyan("running")
	default:
		return Dim("blocked")
	}
}
