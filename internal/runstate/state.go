// Package runstate persists the in-progress and historical state of build
// runs to a dotfile directory at the workspace root.
//
// Grounded on the teacher's internal/state/state.go: the mutex-guarded
// struct-plus-JSON-file persistence shape, the Save-on-every-mutation
// pattern, and Clean are carried over almost unchanged. Renamed throughout:
// .beadloom -> .shuttle, SessionState -> ProjectState (keyed by project name
// instead of task ID). New: RunState.ID via google/uuid (the teacher had no
// per-run identifier) and Archive, which implements the run-history
// supplemented feature.
package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const stateDirName = ".shuttle"
const stateFileName = "state.json"
const historyDirName = "history"

// ProjectStatus mirrors the teacher's SessionStatus enum, applied to a
// project's build rather than a task's agent session.
type ProjectStatus string

const (
	StatusPending   ProjectStatus = "pending"
	StatusRunning   ProjectStatus = "running"
	StatusCompleted ProjectStatus = "completed"
	StatusFailed    ProjectStatus = "failed"
	StatusSkipped   ProjectStatus = "skipped"
)

// ProjectState is the persistent record of one project's build within a run.
type ProjectState struct {
	Status     ProjectStatus `json:"status"`
	Wave       int           `json:"wave"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
	ExitCode   int           `json:"exitCode,omitempty"`
}

// RunState is the persistent state of one shuttle build run.
type RunState struct {
	ID          string                   `json:"id"`
	StartedAt   time.Time                `json:"startedAt"`
	Status      string                   `json:"status"` // running, completed, failed, cancelled
	CurrentWave int                      `json:"currentWave"`
	TotalWaves  int                      `json:"totalWaves"`
	Projects    map[string]*ProjectState `json:"projects"`

	mu   sync.Mutex `json:"-"`
	root string     `json:"-"`
}

func stateDir(root string) string   { return filepath.Join(root, stateDirName) }
func statePath(root string) string  { return filepath.Join(stateDir(root), stateFileName) }
func historyDir(root string) string { return filepath.Join(stateDir(root), historyDirName) }

// New creates and persists a fresh RunState under root.
func New(root string, totalWaves int) (*RunState, error) {
	if err := os.MkdirAll(stateDir(root), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &RunState{
		ID:         uuid.NewString(),
		StartedAt:  time.Now(),
		Status:     "running",
		TotalWaves: totalWaves,
		Projects:   make(map[string]*ProjectState),
		root:       root,
	}
	if err := s.Save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads existing state from disk.
func Load(root string) (*RunState, error) {
	data, err := os.ReadFile(statePath(root))
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var s RunState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.root = root
	return &s, nil
}

// Exists reports whether a state file is present under root.
func Exists(root string) bool {
	_, err := os.Stat(statePath(root))
	return err == nil
}

// Save persists the current state to disk.
func (s *RunState) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(statePath(s.root), data, 0o644)
}

// SetWave updates the current wave index and saves.
func (s *RunState) SetWave(wave int) error {
	s.CurrentWave = wave
	return s.Save()
}

// SetStatus updates the overall run status and saves.
func (s *RunState) SetStatus(status string) error {
	s.Status = status
	return s.Save()
}

// UpdateProject updates a project's state and saves.
func (s *RunState) UpdateProject(name string, ps *ProjectState) error {
	s.mu.Lock()
	s.Projects[name] = ps
	s.mu.Unlock()
	return s.Save()
}

// GetProject returns the recorded state for a project, or nil.
func (s *RunState) GetProject(name string) *ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Projects[name]
}

// SortedProjectNames returns every recorded project name, sorted.
func (s *RunState) SortedProjectNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.Projects))
	for name := range s.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clean removes the live state file under root; the state directory and
// its history are left in place.
func Clean(root string) error {
	return os.Remove(statePath(root))
}

// Archive copies the current state file into the history directory under a
// name derived from the run's ID, so `shuttle build` runs accumulate a
// queryable history rather than overwriting each other in place.
func (s *RunState) Archive() error {
	if err := os.MkdirAll(historyDir(s.root), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	data, err := os.ReadFile(statePath(s.root))
	if err != nil {
		return fmt.Errorf("read state for archive: %w", err)
	}

	dest := filepath.Join(historyDir(s.root), s.ID+".json")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write archived state: %w", err)
	}
	return nil
}

// LoadArchived reads one archived run's state by its ID, as written by
// Archive. Used to inspect a specific past run (by an ID returned from
// History) without touching the live state file.
func LoadArchived(root, id string) (*RunState, error) {
	data, err := os.ReadFile(filepath.Join(historyDir(root), id+".json"))
	if err != nil {
		return nil, fmt.Errorf("read archived state %s: %w", id, err)
	}
	var s RunState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse archived state %s: %w", id, err)
	}
	s.root = root
	return &s, nil
}

// History returns the run IDs recorded under the history directory, sorted
// lexicographically by ID. Run IDs are UUIDv4 and carry no timestamp
// ordering, so this order is not chronological; each archived state's
// StartedAt field records when its run began.
func History(root string) ([]string, error) {
	entries, err := os.ReadDir(historyDir(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ids = append(ids, name[:len(name)-len(filepath.Ext(name))])
	}
	sort.Strings(ids)
	return ids, nil
}
