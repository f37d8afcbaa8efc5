package workflow

import (
	"fmt"

	"github.com/agtx/agtx/internal/model"
)

// Resource identifies which external resource a side effect touched.
type Resource string

const (
	ResourceWorktree Resource = "worktree"
	ResourceWindow   Resource = "window"
)

// InvalidTransitionError reports a requested edge outside the legal set.
// No side effects were attempted.
type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s → %s", e.From, e.To)
}

// ResourceCreationError reports a failed worktree or window creation.
// Earlier steps of the same edge are not rolled back; the caller may retry
// the transition once the cause is fixed.
type ResourceCreationError struct {
	Resource Resource
	Slug     string
	Err      error
}

func (e *ResourceCreationError) Error() string {
	return fmt.Sprintf("create %s for task %s: %v", e.Resource, e.Slug, e.Err)
}

func (e *ResourceCreationError) Unwrap() error { return e.Err }

// ResourceRemovalError reports a removal that failed for a reason other than
// the resource already being absent.
type ResourceRemovalError struct {
	Resource Resource
	Slug     string
	Err      error
}

func (e *ResourceRemovalError) Error() string {
	return fmt.Sprintf("remove %s for task %s: %v", e.Resource, e.Slug, e.Err)
}

func (e *ResourceRemovalError) Unwrap() error { return e.Err }

// InjectionError reports a failed command injection into a task window.
type InjectionError struct {
	Target string
	Err    error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("send keys to %s: %v", e.Target, e.Err)
}

func (e *InjectionError) Unwrap() error { return e.Err }
