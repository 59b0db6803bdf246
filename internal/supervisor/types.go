package supervisor

import "time"

// TaskStatus is the lifecycle state of a supervised long-lived process.
type TaskStatus string

const (
	StatusRunning TaskStatus = "running"
	StatusStopped TaskStatus = "stopped"
	StatusError   TaskStatus = "error"
)

// TaskRecord describes one supervised process: a dev server or a
// long-running generator.
type TaskRecord struct {
	ID        string
	Name      string // short name used as the output prefix
	Command   string
	Args      []string
	Cwd       string
	PID       int
	Status    TaskStatus
	Port      int // first port the output scanner detected, 0 if none yet
	StartedAt time.Time
	EndedAt   time.Time // zero until the process is reaped by wait()
}

// Sink receives task lifecycle notifications, matching §4.10's
// addTask/updateTaskStatus/updateTaskPort/removeTask contract. A host UI
// implements this to render a live task list.
type Sink interface {
	AddTask(task TaskRecord)
	UpdateTaskStatus(id string, status TaskStatus)
	UpdateTaskPort(id string, port int)
	RemoveTask(id string)
}

// NopSink discards every notification.
type NopSink struct{}

func (NopSink) AddTask(TaskRecord)                {}
func (NopSink) UpdateTaskStatus(string, TaskStatus) {}
func (NopSink) UpdateTaskPort(string, int)          {}
func (NopSink) RemoveTask(string)                   {}
