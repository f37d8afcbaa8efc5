package workflow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agtx/agtx/internal/git"
)

// call records one provider invocation for verification.
type call struct {
	op   string
	args []string
}

func (c call) String() string {
	return c.op + "(" + strings.Join(c.args, ", ") + ")"
}

// fakeGit is a recording worktree provider. Worktree state is tracked per
// slug so idempotent re-creation and absence-tolerant removal behave like
// the real adapter.
type fakeGit struct {
	mu       sync.Mutex
	calls    []call
	existing map[string]bool

	failCreate error
	failRemove error
}

func newFakeGit() *fakeGit {
	return &fakeGit{existing: make(map[string]bool)}
}

func (f *fakeGit) CreateWorktree(root, slug string) (string, error) {
	f.record("CreateWorktree", root, slug)
	path := git.WorktreePath(root, slug)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existing[slug] {
		return path, nil
	}
	if f.failCreate != nil {
		return "", f.failCreate
	}
	f.existing[slug] = true
	return path, nil
}

func (f *fakeGit) RemoveWorktree(root, worktreePath string) error {
	f.record("RemoveWorktree", root, worktreePath)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRemove != nil {
		return f.failRemove
	}
	for slug := range f.existing {
		if git.WorktreePath(root, slug) == worktreePath {
			delete(f.existing, slug)
		}
	}
	// Removing an absent worktree is success.
	return nil
}

func (f *fakeGit) WorktreeExists(root, slug string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[slug]
}

func (f *fakeGit) record(op string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: op, args: args})
}

func (f *fakeGit) callOps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.op
	}
	return ops
}

// fakeTmux is a recording session provider. Windows are tracked per target;
// SendKeys fails for missing windows and KillWindow treats them as success,
// matching the provider contract.
type fakeTmux struct {
	mu      sync.Mutex
	calls   []call
	windows map[string]bool

	failCreate error
	failSend   error
	failKill   error
}

func newFakeTmux() *fakeTmux {
	return &fakeTmux{windows: make(map[string]bool)}
}

func (f *fakeTmux) CreateWindow(session, window, workingDir string) error {
	f.record("CreateWindow", session, window, workingDir)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.windows[session+":"+window] = true
	return nil
}

func (f *fakeTmux) KillWindow(target string) error {
	f.record("KillWindow", target)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKill != nil {
		return f.failKill
	}
	// Absent target is success.
	delete(f.windows, target)
	return nil
}

func (f *fakeTmux) SendKeys(target, text string) error {
	f.record("SendKeys", target, text)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend != nil {
		return f.failSend
	}
	if !f.windows[target] {
		return fmt.Errorf("can't find window %s", target)
	}
	return nil
}

func (f *fakeTmux) WindowExists(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[target]
}

func (f *fakeTmux) record(op string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: op, args: args})
}

func (f *fakeTmux) callOps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.op
	}
	return ops
}
