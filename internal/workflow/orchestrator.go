// Package workflow couples the task state machine to the external resources
// each task owns: a git worktree and a tmux window.
//
// Every legal edge carries a fixed side-effect sequence, executed in order
// and stopping at the first failure. A failed edge never updates the task's
// status and never rolls back the steps that already ran; the sequences are
// written so re-running the same transition is safe.
package workflow

import (
	"fmt"
	"time"

	"github.com/agtx/agtx/internal/events"
	"github.com/agtx/agtx/internal/git"
	"github.com/agtx/agtx/internal/lock"
	"github.com/agtx/agtx/internal/model"
	"github.com/agtx/agtx/internal/tmux"
)

// Options configures an Orchestrator.
type Options struct {
	ProjectRoot string
	Session     string
	Agent       model.AgentConfig
	Git         git.Provider
	Tmux        tmux.Provider
	Bus         *events.Bus // optional; transitions publish lifecycle events when set
}

// Orchestrator validates requested status changes and drives the worktree
// and window side effects bound to each edge. Transitions on the same task
// are serialized via a per-slug mutex; distinct tasks run fully in parallel.
type Orchestrator struct {
	root    string
	session string
	git     git.Provider
	tmux    tmux.Provider
	cmds    *CommandBuilder
	bus     *events.Bus
	locks   *lock.MutexMap
}

func New(opts Options) (*Orchestrator, error) {
	if opts.ProjectRoot == "" {
		return nil, fmt.Errorf("project root is required")
	}
	if opts.Git == nil || opts.Tmux == nil {
		return nil, fmt.Errorf("git and tmux providers are required")
	}
	cmds, err := NewCommandBuilder(opts.Agent)
	if err != nil {
		return nil, fmt.Errorf("command builder: %w", err)
	}
	return &Orchestrator{
		root:    opts.ProjectRoot,
		session: opts.Session,
		git:     opts.Git,
		tmux:    opts.Tmux,
		cmds:    cmds,
		bus:     opts.Bus,
		locks:   lock.NewMutexMap(),
	}, nil
}

// Transition moves task to the requested status, running the side effects
// bound to that edge first. On any side-effect failure the returned task
// keeps its original status and the error identifies the failed step.
func (o *Orchestrator) Transition(task model.Task, to model.Status) (model.Task, error) {
	from := task.Status
	forward := model.IsValidForward(from, to)
	resume := model.IsValidResume(from, to)
	if !forward && !resume {
		return task, &InvalidTransitionError{From: from, To: to}
	}

	o.locks.Lock(task.Slug)
	defer o.locks.Unlock(task.Slug)

	// Resume reuses the existing window and worktree untouched; only
	// forward edges carry side effects.
	if forward {
		if err := o.applyForward(task, to); err != nil {
			return task, err
		}
	}

	task.Status = to
	task.UpdatedAt = time.Now().UTC()
	o.publish(events.EventTaskMoved, map[string]interface{}{
		"slug": task.Slug,
		"from": string(from),
		"to":   string(to),
	})
	return task, nil
}

// Delete removes the task's resources from any status. Resources that are
// already gone are treated as removed; a backlog task never had any, so no
// provider calls are made at all.
func (o *Orchestrator) Delete(task model.Task) error {
	o.locks.Lock(task.Slug)
	defer o.locks.Unlock(task.Slug)

	if task.Status != model.StatusBacklog {
		target := o.target(task.Slug)
		if err := o.tmux.KillWindow(target); err != nil {
			return &ResourceRemovalError{Resource: ResourceWindow, Slug: task.Slug, Err: err}
		}
		path := git.WorktreePath(o.root, task.Slug)
		if err := o.git.RemoveWorktree(o.root, path); err != nil {
			return &ResourceRemovalError{Resource: ResourceWorktree, Slug: task.Slug, Err: err}
		}
	}

	o.publish(events.EventTaskDeleted, map[string]interface{}{
		"slug": task.Slug,
		"from": string(task.Status),
	})
	return nil
}

// applyForward runs the side-effect sequence for the edge into dest.
func (o *Orchestrator) applyForward(task model.Task, dest model.Status) error {
	switch dest {
	case model.StatusPlanning:
		// backlog → planning: worktree, then window rooted in it, then the
		// planning command. CreateWorktree returns the existing path when a
		// prior attempt got that far, so retries skip completed steps.
		worktree, err := o.git.CreateWorktree(o.root, task.Slug)
		if err != nil {
			return &ResourceCreationError{Resource: ResourceWorktree, Slug: task.Slug, Err: err}
		}
		window := tmux.WindowName(task.Slug)
		if err := o.tmux.CreateWindow(o.session, window, worktree); err != nil {
			return &ResourceCreationError{Resource: ResourceWindow, Slug: task.Slug, Err: err}
		}
		cmd, err := o.cmds.PlanCommand(task)
		if err != nil {
			return &InjectionError{Target: o.target(task.Slug), Err: err}
		}
		if err := o.tmux.SendKeys(o.target(task.Slug), cmd); err != nil {
			return &InjectionError{Target: o.target(task.Slug), Err: err}
		}

	case model.StatusRunning:
		// planning → running: tell the agent already in the window to
		// implement its plan.
		text, err := o.cmds.ImplementCommand(task)
		if err != nil {
			return &InjectionError{Target: o.target(task.Slug), Err: err}
		}
		if err := o.tmux.SendKeys(o.target(task.Slug), text); err != nil {
			return &InjectionError{Target: o.target(task.Slug), Err: err}
		}

	case model.StatusReview:
		// running → review: window and worktree persist unchanged.

	case model.StatusDone:
		// review → done: window first, then worktree.
		if err := o.tmux.KillWindow(o.target(task.Slug)); err != nil {
			return &ResourceRemovalError{Resource: ResourceWindow, Slug: task.Slug, Err: err}
		}
		path := git.WorktreePath(o.root, task.Slug)
		if err := o.git.RemoveWorktree(o.root, path); err != nil {
			return &ResourceRemovalError{Resource: ResourceWorktree, Slug: task.Slug, Err: err}
		}
	}
	return nil
}

func (o *Orchestrator) target(slug string) string {
	return tmux.Target(o.session, tmux.WindowName(slug))
}

func (o *Orchestrator) publish(eventType events.EventType, data map[string]interface{}) {
	if o.bus != nil {
		o.bus.Publish(eventType, data)
	}
}
