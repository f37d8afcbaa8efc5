// Package tmux provides per-task window management on top of the tmux CLI.
package tmux

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// windowPrefix is the fixed naming convention for task windows. Tooling and
// tests key off it, so it never changes.
const windowPrefix = "task-"

// unsafeNameChars matches characters tmux treats specially in targets
// (`:` and `.` resolve sessions and panes), plus anything else awkward.
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Provider is the session-window capability consumed by the workflow
// orchestrator. CLI implements it against a real tmux server; tests
// substitute a recording fake.
type Provider interface {
	// CreateWindow creates a window under session rooted at workingDir,
	// starting the session first if it does not exist yet. A window that
	// already exists is left as is, so retries never stack duplicates.
	CreateWindow(session, window, workingDir string) error
	// KillWindow destroys the window at target. A target that does not
	// exist is success, so cleanup paths can always run.
	KillWindow(target string) error
	// SendKeys injects text into the window's input stream and submits it.
	// Fails if the target window does not exist.
	SendKeys(target, text string) error
	// WindowExists reports whether target resolves to a live window.
	// Returns false on any lookup failure.
	WindowExists(target string) bool
}

// WindowName derives the tmux window name for a task slug.
func WindowName(slug string) string {
	return windowPrefix + slug
}

// Target builds a session:window target specifier.
func Target(session, window string) string {
	return SanitizeName(session) + ":" + window
}

// SanitizeName replaces characters that are unsafe in tmux session names.
func SanitizeName(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "_")
	if s == "" {
		s = "agtx"
	}
	return s
}

// CLI shells out to tmux.
type CLI struct{}

func NewCLI() *CLI {
	return &CLI{}
}

func (c *CLI) CreateWindow(session, window, workingDir string) error {
	session = SanitizeName(session)
	// tmux happily stacks windows with the same name, so a retry after a
	// partial failure has to check first.
	if c.WindowExists(session + ":" + window) {
		return nil
	}
	if !sessionExists(session) {
		return run("new-session", "-d", "-s", session, "-n", window, "-c", workingDir)
	}
	return run("new-window", "-t", session+":", "-n", window, "-c", workingDir)
}

func (c *CLI) KillWindow(target string) error {
	err := run("kill-window", "-t", target)
	if err != nil && isMissingTarget(err) {
		return nil
	}
	return err
}

func (c *CLI) SendKeys(target, text string) error {
	return run("send-keys", "-t", target, text, "Enter")
}

func (c *CLI) WindowExists(target string) bool {
	session, window, ok := strings.Cut(target, ":")
	if !ok {
		return false
	}
	out, err := output("list-windows", "-t", session, "-F", "#{window_name}")
	if err != nil {
		return false
	}
	for _, name := range strings.Split(strings.TrimSpace(out), "\n") {
		if name == window {
			return true
		}
	}
	return false
}

func sessionExists(session string) bool {
	err := exec.Command("tmux", "has-session", "-t", session).Run()
	return err == nil
}

// isMissingTarget recognizes tmux's errors for targets that are already gone.
func isMissingTarget(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "can't find window") ||
		strings.Contains(msg, "can't find session") ||
		strings.Contains(msg, "no server running") ||
		strings.Contains(msg, "error connecting to") ||
		strings.Contains(msg, "session not found")
}

func run(args ...string) error {
	cmd := exec.Command("tmux", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func output(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
