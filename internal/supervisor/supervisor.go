// Package supervisor runs long-lived child processes (dev servers,
// long-running generators) in their own process group, with prefixed
// line-buffered output forwarding, terminal-escape stripping, and
// whole-group signal delivery on shutdown.
//
// Grounded on the teacher's internal/worktree/worktree.go for the
// mutex-serialized create/remove lifecycle shape (here Start/Remove guard a
// map of running tasks instead of git worktrees), and on
// internal/orchestrator/orchestrator.go's spawnAgent for the exec.Cmd
// wiring (cmd.Dir, cmd.Env, piping stdout/stderr through a formatter before
// the real terminal). The process-group signal delivery on shutdown has no
// teacher equivalent — the teacher relies on context cancellation and lets
// exec.CommandContext kill a single child, never a whole group.
package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Supervisor owns every task it has started and serializes lifecycle
// mutations behind mu, the same way worktree.Manager serializes git
// worktree create/remove.
type Supervisor struct {
	sink Sink
	log  zerolog.Logger

	mu    sync.Mutex
	tasks map[string]*TaskRecord
	cmds  map[string]*exec.Cmd
}

// New creates a Supervisor that reports to sink. A nil sink is replaced
// with NopSink.
func New(sink Sink) *Supervisor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Supervisor{
		sink:  sink,
		log:   zerolog.Nop(),
		tasks: make(map[string]*TaskRecord),
		cmds:  make(map[string]*exec.Cmd),
	}
}

// SetLogger attaches a structured logger for task lifecycle events. Callers
// typically pass the logger pulled off their command's context.
func (s *Supervisor) SetLogger(log zerolog.Logger) {
	s.log = log
}

// Start spawns command in its own process group under cwd, tracks it as
// name, and begins forwarding its output. Returns the task's generated ID.
func (s *Supervisor) Start(name, command string, args []string, cwd string) (string, error) {
	id := uuid.NewString()

	cmd := exec.Command(command, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	record := TaskRecord{
		ID:        id,
		Name:      name,
		Command:   command,
		Args:      args,
		Cwd:       cwd,
		StartedAt: time.Now(),
	}

	forward := func(line string, isStderr bool) {
		clean := stripEscapes(line)
		fmt.Fprintf(os.Stderr, "[%s] %s\n", name, clean)
		if port := detectPort(clean); port != 0 {
			s.mu.Lock()
			if t, ok := s.tasks[id]; ok && t.Port == 0 {
				t.Port = port
				s.sink.UpdateTaskPort(id, port)
			}
			s.mu.Unlock()
		}
	}

	cmd.Stdout = &lineWriter{onLine: func(l string) { forward(l, false) }}
	cmd.Stderr = &lineWriter{onLine: func(l string) { forward(l, true) }}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start task %s: %w", name, err)
	}

	record.PID = cmd.Process.Pid
	record.Status = StatusRunning
	s.log.Info().Str("task", name).Int("pid", record.PID).Msg("dev task started")

	s.mu.Lock()
	s.tasks[id] = &record
	s.cmds[id] = cmd
	s.mu.Unlock()

	s.sink.AddTask(record)
	s.sink.UpdateTaskStatus(id, StatusRunning)

	go s.wait(id, cmd)

	return id, nil
}

func (s *Supervisor) wait(id string, cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		t.EndedAt = time.Now()
		if err != nil {
			t.Status = StatusError
		} else {
			t.Status = StatusStopped
		}
	}
	s.mu.Unlock()

	if ok {
		s.sink.UpdateTaskStatus(id, t.Status)
	}
}

// Remove forgets a task's bookkeeping without signaling it (the caller is
// expected to have already stopped it, e.g. via Shutdown).
func (s *Supervisor) Remove(id string) {
	s.mu.Lock()
	delete(s.tasks, id)
	delete(s.cmds, id)
	s.mu.Unlock()
	s.sink.RemoveTask(id)
}

// Tasks returns a snapshot of every tracked task.
func (s *Supervisor) Tasks() []TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskRecord, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}

// Shutdown delivers SIGKILL to every supervised task's process group (the
// negative PID), falling back to the task's own PID if the group signal
// fails. Per §4.10, it attempts every task regardless of earlier failures
// and reports which ones it could not kill.
func (s *Supervisor) Shutdown() map[string]error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tasks))
	pids := make(map[string]int, len(s.tasks))
	for id, t := range s.tasks {
		ids = append(ids, id)
		pids[id] = t.PID
	}
	s.mu.Unlock()

	results := make(map[string]error)
	for _, id := range ids {
		pid := pids[id]
		if pid <= 0 {
			continue
		}
		err := syscall.Kill(-pid, syscall.SIGKILL)
		if err != nil {
			err = syscall.Kill(pid, syscall.SIGKILL)
		}
		if err != nil {
			s.log.Warn().Str("task", id).Int("pid", pid).Err(err).Msg("failed to kill task")
		}
		results[id] = err
	}
	return results
}

// lineWriter buffers arbitrary Write calls and invokes onLine once per
// completed line, mirroring the teacher's stream-formatter tee shape
// without committing to a particular downstream writer.
type lineWriter struct {
	onLine  func(string)
	pending strings.Builder
}

func (w *lineWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			w.onLine(w.pending.String())
			w.pending.Reset()
			continue
		}
		w.pending.WriteByte(b)
	}
	return len(p), nil
}

// terminalClearPattern matches the escape sequences that clear a terminal
// (ESC[?J, ESC[?H, ESC c and friends) so a misbehaving dev server can't wipe
// the host UI's own output.
var terminalClearPattern = regexp.MustCompile(`\x1b(\[[0-9;?]*[A-HJKSTfc]|c)`)

func stripEscapes(line string) string {
	return terminalClearPattern.ReplaceAllString(line, "")
}

// portPattern recognizes common listening-port banners: "port 3000",
// "port: 3000", "http://localhost:3000". A bare ":3000" with neither the
// word "port" nor a URL is not recognized.
var portPattern = regexp.MustCompile(`(?i)(?:port[:\s]+|https?://[^\s:]*:)(\d{2,5})`)

func detectPort(line string) int {
	m := portPattern.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	port, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return port
}
