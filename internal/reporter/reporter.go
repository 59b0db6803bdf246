package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joshharrison/shuttle/internal/planner"
	"github.com/joshharrison/shuttle/internal/runstate"
	"github.com/joshharrison/shuttle/internal/ui"
)

// Reporter provides status display for a shuttle build run.
type Reporter struct {
	Plan      *planner.BuildPlan
	State     *runstate.RunState
	StartTime time.Time
}

// New creates a new Reporter.
func New(plan *planner.BuildPlan, st *runstate.RunState) *Reporter {
	return &Reporter{
		Plan:      plan,
		State:     st,
		StartTime: st.StartedAt,
	}
}

// PrintStatus writes a terminal-friendly status table.
func (r *Reporter) PrintStatus(w io.Writer) {
	elapsed := time.Since(r.StartTime).Truncate(time.Second)

	completed, running, failed := 0, 0, 0
	for _, name := range r.State.SortedProjectNames() {
		switch r.State.GetProject(name).Status {
		case runstate.StatusCompleted:
			completed++
		case runstate.StatusRunning:
			running++
		case runstate.StatusFailed:
			failed++
		}
	}

	currentWave := r.computeCurrentWave()
	fmt.Fprintf(w, "%s %s %d/%d — %d of %d projects complete",
		ui.BoldCyan("🚚 Shuttle"),
		ui.Bold("wave"),
		currentWave+1, r.State.TotalWaves, completed, len(r.Plan.Affected))
	if failed > 0 {
		fmt.Fprintf(w, " %s", ui.Red(fmt.Sprintf("(%d failed)", failed)))
	}
	fmt.Fprintf(w, " %s\n\n", ui.Dim(fmt.Sprintf("[%s elapsed]", elapsed)))

	for i, wave := range r.Plan.Waves {
		wStatus := r.waveStatus(i)
		fmt.Fprintf(w, "  🌊 %s %d (%s)\n", ui.BoldWhite("WAVE"), i+1, ui.WaveStatus(wStatus))

		for _, project := range wave {
			r.printProject(w, project)
		}
		fmt.Fprintln(w)
	}
}

// computeCurrentWave derives the current wave index from project states.
// Returns the index of the first wave that has incomplete projects, or the
// last wave index if every wave is done.
func (r *Reporter) computeCurrentWave() int {
	for i, wave := range r.Plan.Waves {
		for _, project := range wave {
			ps := r.State.GetProject(project)
			if ps == nil {
				return i
			}
			switch ps.Status {
			case runstate.StatusCompleted, runstate.StatusFailed, runstate.StatusSkipped:
				// terminal — keep checking
			default:
				return i
			}
		}
	}
	if len(r.Plan.Waves) > 0 {
		return len(r.Plan.Waves) - 1
	}
	return 0
}

func (r *Reporter) waveStatus(waveIndex int) string {
	wave := r.Plan.Waves[waveIndex]
	allDone := true
	anyRunning := false
	for _, project := range wave {
		ps := r.State.GetProject(project)
		if ps == nil {
			allDone = false
			continue
		}
		switch ps.Status {
		case runstate.StatusCompleted, runstate.StatusFailed, runstate.StatusSkipped:
			// terminal state
		case runstate.StatusRunning:
			anyRunning = true
			allDone = false
		default:
			allDone = false
		}
	}
	if allDone {
		return "done"
	}
	if anyRunning {
		return "running"
	}
	return "blocked"
}

func (r *Reporter) printProject(w io.Writer, project string) {
	ps := r.State.GetProject(project)

	status := "pending"
	dur := ""
	if ps != nil {
		switch ps.Status {
		case runstate.StatusCompleted:
			status = "completed"
			if ps.StartedAt != nil && ps.FinishedAt != nil {
				dur = ui.Dim(fmt.Sprintf("[%s]", ps.FinishedAt.Sub(*ps.StartedAt).Truncate(time.Second)))
			}
		case runstate.StatusRunning:
			status = "running"
			if ps.StartedAt != nil {
				dur = ui.Cyan(fmt.Sprintf("[running %s]", time.Since(*ps.StartedAt).Truncate(time.Second)))
			}
		case runstate.StatusFailed:
			status = "failed"
			if ps.StartedAt != nil && ps.FinishedAt != nil {
				dur = ui.Red(fmt.Sprintf("[failed after %s]", ps.FinishedAt.Sub(*ps.StartedAt).Truncate(time.Second)))
			}
		case runstate.StatusSkipped:
			status = "skipped"
			dur = ui.Yellow("[skipped]")
		}
	}

	fmt.Fprintf(w, "    %s %-40s  %s\n", ui.StatusIcon(status), ui.ProjectPrefix(project), dur)
}

// JSON returns machine-readable status.
func (r *Reporter) JSON() ([]byte, error) {
	type projectStatus struct {
		Project string `json:"project"`
		Status  string `json:"status"`
		Wave    int    `json:"wave"`
	}

	type output struct {
		RunID       string          `json:"runId"`
		Status      string          `json:"status"`
		CurrentWave int             `json:"currentWave"`
		TotalWaves  int             `json:"totalWaves"`
		TotalCount  int             `json:"totalProjects"`
		Elapsed     string          `json:"elapsed"`
		Projects    []projectStatus `json:"projects"`
	}

	o := output{
		RunID:       r.State.ID,
		Status:      r.State.Status,
		CurrentWave: r.computeCurrentWave(),
		TotalWaves:  r.State.TotalWaves,
		TotalCount:  len(r.Plan.Affected),
		Elapsed:     time.Since(r.StartTime).Truncate(time.Second).String(),
	}

	for i, wave := range r.Plan.Waves {
		for _, project := range wave {
			ps := projectStatus{Project: project, Wave: i, Status: "pending"}
			if s := r.State.GetProject(project); s != nil {
				ps.Status = string(s.Status)
			}
			o.Projects = append(o.Projects, ps)
		}
	}

	return json.MarshalIndent(o, "", "  ")
}

// PrintSummaryReport writes a detailed run summary to the given writer. It
// includes the plan header, per-wave breakdown with project outcomes and
// timing, and a footer with totals. The output is also returned as a string
// for reuse.
func (r *Reporter) PrintSummaryReport(w io.Writer) string {
	var b strings.Builder
	mw := io.MultiWriter(w, &b)

	elapsed := r.runDuration()

	statusText := ui.BoldGreen("completed")
	statusEmoji := "✅"
	if r.State.Status == "failed" {
		statusText = ui.BoldRed("failed")
		statusEmoji = "❌"
	}

	fmt.Fprintf(mw, "\n%s %s\n", statusEmoji, ui.BoldCyan("Shuttle Run Summary"))
	fmt.Fprintf(mw, "%s\n", ui.Cyan("══════════════════════════"))
	fmt.Fprintf(mw, "Run:       %s\n", ui.Dim(r.State.ID))
	fmt.Fprintf(mw, "Status:    %s\n", statusText)
	fmt.Fprintf(mw, "Duration:  %s\n", ui.Bold(elapsed.String()))
	fmt.Fprintf(mw, "Waves:     %d\n", r.State.TotalWaves)
	fmt.Fprintf(mw, "Projects:  %d total\n\n", len(r.Plan.Affected))

	for i, wave := range r.Plan.Waves {
		wStatus := r.waveStatus(i)
		fmt.Fprintf(mw, "  🌊 %s %d  %s  (%d projects)\n",
			ui.BoldWhite("Wave"), i+1, ui.WaveStatus(wStatus), len(wave))

		for _, project := range wave {
			r.printSummaryProject(mw, project)
		}
		fmt.Fprintln(mw)
	}

	completed, failed, skipped := 0, 0, 0
	for _, name := range r.State.SortedProjectNames() {
		switch r.State.GetProject(name).Status {
		case runstate.StatusCompleted:
			completed++
		case runstate.StatusFailed:
			failed++
		case runstate.StatusSkipped:
			skipped++
		}
	}

	fmt.Fprintf(mw, "%s\n", ui.Cyan("──────────────────────────"))
	fmt.Fprintf(mw, "Totals:  %s  %s  %s\n",
		ui.Green(fmt.Sprintf("%d completed", completed)),
		ui.Red(fmt.Sprintf("%d failed", failed)),
		ui.Yellow(fmt.Sprintf("%d skipped", skipped)))

	if failed > 0 {
		fmt.Fprintf(mw, "\n%s\n", ui.BoldRed("Failed projects:"))
		for _, name := range r.State.SortedProjectNames() {
			ps := r.State.GetProject(name)
			if ps.Status == runstate.StatusFailed {
				durStr := ""
				if ps.StartedAt != nil && ps.FinishedAt != nil {
					durStr = fmt.Sprintf(" after %s", ps.FinishedAt.Sub(*ps.StartedAt).Truncate(time.Second))
				}
				fmt.Fprintf(mw, "  %s %s%s\n", ui.Red("✗"), ui.ProjectPrefix(name), ui.Red(durStr))
			}
		}
	}

	return b.String()
}

func (r *Reporter) printSummaryProject(w io.Writer, project string) {
	ps := r.State.GetProject(project)

	status := "pending"
	durStr := ""
	if ps != nil {
		status = string(ps.Status)
		if ps.StartedAt != nil && ps.FinishedAt != nil {
			durStr = ps.FinishedAt.Sub(*ps.StartedAt).Truncate(time.Second).String()
		}
	}

	timeCol := ""
	if durStr != "" {
		timeCol = ui.Dim(fmt.Sprintf("[%s]", durStr))
	}

	fmt.Fprintf(w, "    %s %-50s  %s\n", ui.StatusIcon(status), ui.ProjectPrefix(project), timeCol)
}

// runDuration returns the total run duration. It runs to the latest recorded
// project finish time; when no project has a finish time yet, it uses
// time.Since.
func (r *Reporter) runDuration() time.Duration {
	var latest time.Time
	for _, name := range r.State.SortedProjectNames() {
		ps := r.State.GetProject(name)
		if ps.FinishedAt != nil && ps.FinishedAt.After(latest) {
			latest = *ps.FinishedAt
		}
	}
	if !latest.IsZero() {
		return latest.Sub(r.StartTime).Truncate(time.Second)
	}
	return time.Since(r.StartTime).Truncate(time.Second)
}

// Summary returns a final, compact summary string.
func (r *Reporter) Summary() string {
	var b strings.Builder
	elapsed := r.runDuration()

	completed, failed, skipped := 0, 0, 0
	for _, name := range r.State.SortedProjectNames() {
		switch r.State.GetProject(name).Status {
		case runstate.StatusCompleted:
			completed++
		case runstate.StatusFailed:
			failed++
		case runstate.StatusSkipped:
			skipped++
		}
	}

	statusText := ui.BoldGreen("completed")
	statusEmoji := "✅"
	if r.State.Status == "failed" {
		statusText = ui.BoldRed("failed")
		statusEmoji = "❌"
	}

	fmt.Fprintf(&b, "\n%s %s\n", statusEmoji, ui.BoldCyan("Shuttle Run Complete"))
	fmt.Fprintf(&b, "%s\n", ui.Cyan("═════════════════════════"))
	fmt.Fprintf(&b, "Run:       %s\n", ui.Dim(r.State.ID))
	fmt.Fprintf(&b, "Duration:  %s\n", ui.Bold(elapsed.String()))
	fmt.Fprintf(&b, "Projects:  %s, %s, %s, %d total\n",
		ui.Green(fmt.Sprintf("%d completed", completed)),
		ui.Red(fmt.Sprintf("%d failed", failed)),
		ui.Yellow(fmt.Sprintf("%d skipped", skipped)),
		len(r.Plan.Affected))
	fmt.Fprintf(&b, "Status:    %s\n", statusText)

	if failed > 0 {
		fmt.Fprintf(&b, "\n%s\n", ui.BoldRed("Failed projects:"))
		for _, name := range r.State.SortedProjectNames() {
			if r.State.GetProject(name).Status == runstate.StatusFailed {
				fmt.Fprintf(&b, "  %s %s\n", ui.Red("✗"), ui.ProjectPrefix(name))
			}
		}
	}

	return b.String()
}
