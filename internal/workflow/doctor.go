package workflow

import (
	"golang.org/x/sync/errgroup"

	"github.com/agtx/agtx/internal/model"
)

// Drift describes a task whose external resources disagree with its recorded
// status. A half-completed edge (worktree present, window missing) shows up
// here; the fix is to retry the failed transition or delete the task.
type Drift struct {
	Slug           string
	Status         model.Status
	WantResources  bool
	WorktreeExists bool
	WindowExists   bool
}

// CheckDrift inspects every task's worktree and window in parallel and
// returns the tasks whose resources are out of step with their status.
// Provider existence queries never error, so the only work here is fanning
// them out and collecting the mismatches in input order.
func (o *Orchestrator) CheckDrift(tasks []model.Task) []Drift {
	results := make([]*Drift, len(tasks))

	var g errgroup.Group
	g.SetLimit(8)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			want := wantsResources(task.Status)
			worktree := o.git.WorktreeExists(o.root, task.Slug)
			window := o.tmux.WindowExists(o.target(task.Slug))
			if worktree != want || window != want {
				results[i] = &Drift{
					Slug:           task.Slug,
					Status:         task.Status,
					WantResources:  want,
					WorktreeExists: worktree,
					WindowExists:   window,
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	drifts := make([]Drift, 0)
	for _, d := range results {
		if d != nil {
			drifts = append(drifts, *d)
		}
	}
	return drifts
}

// wantsResources reports whether a status implies a live worktree and window.
func wantsResources(s model.Status) bool {
	switch s {
	case model.StatusPlanning, model.StatusRunning, model.StatusReview:
		return true
	default:
		return false
	}
}
