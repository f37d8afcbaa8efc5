// Package model defines the data structures for agtx tasks, workflow statuses, and configuration.
package model

import "fmt"

// Status is a task's position in the workflow.
type Status string

const (
	StatusBacklog  Status = "backlog"
	StatusPlanning Status = "planning"
	StatusRunning  Status = "running"
	StatusReview   Status = "review"
	StatusDone     Status = "done"
)

// columns is the fixed workflow order. Index is the column position on the board.
var columns = []Status{
	StatusBacklog,
	StatusPlanning,
	StatusRunning,
	StatusReview,
	StatusDone,
}

var columnIndex = map[Status]int{
	StatusBacklog:  0,
	StatusPlanning: 1,
	StatusRunning:  2,
	StatusReview:   3,
	StatusDone:     4,
}

// Columns returns the workflow statuses in board order.
func Columns() []Status {
	out := make([]Status, len(columns))
	copy(out, columns)
	return out
}

// Successor returns the next status in forward order.
// ok is false for StatusDone (terminal) and for unknown statuses.
func Successor(s Status) (next Status, ok bool) {
	i, known := columnIndex[s]
	if !known || i+1 >= len(columns) {
		return "", false
	}
	return columns[i+1], true
}

// IsValidForward reports whether from → to advances exactly one step.
func IsValidForward(from, to Status) bool {
	next, ok := Successor(from)
	return ok && next == to
}

// IsValidResume reports whether from → to is the single sanctioned backward
// edge, review → running. Resume reuses the task's existing window and
// worktree; no other backward movement is allowed.
func IsValidResume(from, to Status) bool {
	return from == StatusReview && to == StatusRunning
}

// IsTerminal reports whether s is the terminal status.
func IsTerminal(s Status) bool {
	return s == StatusDone
}

// ParseStatus validates a status string from user input or the task store.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := columnIndex[st]; !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

func (s Status) String() string {
	return string(s)
}
