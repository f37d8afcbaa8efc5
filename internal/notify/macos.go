// Package notify provides desktop notification support.
package notify

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/agtx/agtx/internal/events"
	"github.com/agtx/agtx/internal/model"
)

// Send sends a macOS notification via osascript with sound.
func Send(title, message string) error {
	title = escapeAppleScript(title)
	message = escapeAppleScript(message)

	script := fmt.Sprintf(
		`display notification %q with title %q sound name "default"`,
		message, title,
	)

	cmd := exec.Command("osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Attach notifies on the transitions a user actually waits for: a task
// reaching review (agent finished) or done. Returns a detach function.
func Attach(bus *events.Bus) func() {
	return bus.Subscribe(events.EventTaskMoved, func(e events.Event) {
		slug, _ := e.Data["slug"].(string)
		to, _ := e.Data["to"].(string)
		switch model.Status(to) {
		case model.StatusReview:
			_ = Send("agtx", fmt.Sprintf("Task %s is ready for review", slug))
		case model.StatusDone:
			_ = Send("agtx", fmt.Sprintf("Task %s is done", slug))
		}
	})
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
