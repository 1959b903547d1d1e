package progress

import (
	"fmt"
)

// State represents the lifecycle of a batch.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var allowedTransitions = map[State][]State{
	StateIdle:    {StateRunning},
	StateRunning: {StateRunning, StateCompleted, StateFailed},
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func canTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Snapshot is an immutable view of a job.
type Snapshot struct {
	RunID    string
	State    State
	Current  int
	Total    int
	Filename string
	Message  string
}

// Job is the batch state machine. It is confined to the worker goroutine.
type Job struct {
	runID    string
	state    State
	current  int
	total    int
	filename string
	message  string
}

func NewJob(runID string) *Job {
	return &Job{runID: runID, state: StateIdle}
}

func (j *Job) State() State {
	return j.state
}

// Start enters Running for a batch of total files. A batch needs at least one file.
func (j *Job) Start(total int) (Snapshot, error) {
	if total < 1 {
		return Snapshot{}, fmt.Errorf("start batch: no files to merge")
	}
	if err := j.transition(StateRunning); err != nil {
		return Snapshot{}, err
	}
	j.total = total
	return j.Snapshot(), nil
}

// Advance records that work on filename (1-based index current) is about to begin.
func (j *Job) Advance(current int, filename string) (Snapshot, error) {
	if j.state != StateRunning {
		return Snapshot{}, fmt.Errorf("advance batch: state is %s", j.state)
	}
	if current < 1 || current > j.total || current < j.current {
		return Snapshot{}, fmt.Errorf("advance batch: index %d outside 1..%d", current, j.total)
	}
	j.current = current
	j.filename = filename
	j.message = fmt.Sprintf("Processing file %d of %d: %s", current, j.total, filename)
	return j.Snapshot(), nil
}

// Complete enters Completed.
func (j *Job) Complete(message string) (Snapshot, error) {
	if err := j.transition(StateCompleted); err != nil {
		return Snapshot{}, err
	}
	j.message = message
	return j.Snapshot(), nil
}

// Fail enters Failed, recording the failing filename and message.
func (j *Job) Fail(filename, message string) (Snapshot, error) {
	if err := j.transition(StateFailed); err != nil {
		return Snapshot{}, err
	}
	j.filename = filename
	j.message = message
	return j.Snapshot(), nil
}

func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		RunID:    j.runID,
		State:    j.state,
		Current:  j.current,
		Total:    j.total,
		Filename: j.filename,
		Message:  j.message,
	}
}

func (j *Job) transition(to State) error {
	if !canTransition(j.state, to) {
		return fmt.Errorf("invalid batch transition %s -> %s", j.state, to)
	}
	j.state = to
	return nil
}
