// Package git manages per-task worktrees via the git CLI.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// worktreeDir is where task worktrees live, relative to the project root.
const worktreeDir = ".agtx/worktrees"

// branchPrefix namespaces the branch created for each task worktree.
const branchPrefix = "agtx/"

// Provider is the worktree capability consumed by the workflow orchestrator.
// CLI implements it against a real git binary; tests substitute a recording
// fake.
type Provider interface {
	// CreateWorktree creates an isolated checkout for slug and returns its
	// path. Calling it again for a slug whose worktree already exists
	// returns the existing path, so a failed transition can be retried.
	CreateWorktree(root, slug string) (string, error)
	// RemoveWorktree removes the checkout at worktreePath. Removing a
	// worktree that is already gone is success.
	RemoveWorktree(root, worktreePath string) error
	// WorktreeExists reports whether a worktree for slug is registered.
	// Returns false on any lookup failure.
	WorktreeExists(root, slug string) bool
}

// WorktreePath returns the conventional location of a task's worktree.
func WorktreePath(root, slug string) string {
	return filepath.Join(root, worktreeDir, slug)
}

// BranchName returns the branch checked out in a task's worktree.
func BranchName(slug string) string {
	return branchPrefix + slug
}

// CLI shells out to git.
type CLI struct{}

func NewCLI() *CLI {
	return &CLI{}
}

func (c *CLI) CreateWorktree(root, slug string) (string, error) {
	path := WorktreePath(root, slug)

	if c.WorktreeExists(root, slug) {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create worktrees dir: %w", err)
	}

	branch := BranchName(slug)
	err := run(root, "worktree", "add", "-b", branch, path)
	if err != nil && branchExists(root, branch) {
		// Branch survives a removed worktree. Reattach instead of -b so a
		// retried transition does not trip over its own first attempt.
		err = run(root, "worktree", "add", path, branch)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func (c *CLI) RemoveWorktree(root, worktreePath string) error {
	if _, err := os.Stat(worktreePath); os.IsNotExist(err) {
		// Already gone. Prune the stale registration if git still has one.
		_ = run(root, "worktree", "prune")
		return nil
	}
	return run(root, "worktree", "remove", "--force", worktreePath)
}

func (c *CLI) WorktreeExists(root, slug string) bool {
	out, err := output(root, "worktree", "list", "--porcelain")
	if err != nil {
		return false
	}
	want := WorktreePath(root, slug)
	for _, line := range strings.Split(out, "\n") {
		path, ok := strings.CutPrefix(line, "worktree ")
		if !ok {
			continue
		}
		if filepath.Clean(path) == filepath.Clean(want) {
			return true
		}
	}
	return false
}

func branchExists(root, branch string) bool {
	err := exec.Command("git", "-C", root, "show-ref", "--verify", "--quiet", "refs/heads/"+branch).Run()
	return err == nil
}

func run(root string, args ...string) error {
	cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func output(root string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
