package watcher

import "time"

// FileOp mirrors the underlying filesystem event kind.
type FileOp int

const (
	FileOpCreate FileOp = iota
	FileOpWrite
	FileOpRemove
	FileOpRename
)

func (op FileOp) String() string {
	switch op {
	case FileOpCreate:
		return "create"
	case FileOpWrite:
		return "write"
	case FileOpRemove:
		return "remove"
	case FileOpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// FileChange is a single debounced filesystem event.
type FileChange struct {
	Path string
	Op   FileOp
	Time time.Time
}

// ChangeBatch is what a debounce window flushes: every project touched, and
// the files that touched each one. Global changes (root-config escalation)
// carry every workspace project in Projects.
type ChangeBatch struct {
	Projects       []string
	FilesByProject map[string][]string
	Global         bool
}

// ChangeHandler receives one ChangeBatch per debounce flush.
type ChangeHandler func(batch ChangeBatch)

// Options configures a Watcher.
type Options struct {
	DebounceWindow time.Duration
	IgnorePatterns []string // extra globs unioned with the base ignore list
	BufferSize     int
	Verbose        bool
}

// DefaultIgnorePatterns is the fixed base ignore list per §4.8.
var DefaultIgnorePatterns = []string{
	"**/node_modules/**",
	"**/dist/**",
	"**/.angular/**",
	"**/.nx/**",
	"**/coverage/**",
	"**/*.log",
	"**/.git/**",
	"**/tmp/**",
	"**/.cache/**",
}

func DefaultOptions() Options {
	return Options{
		DebounceWindow: 100 * time.Millisecond,
		IgnorePatterns: nil,
		BufferSize:     1000,
	}
}
