package model

import (
	"fmt"
	"strings"
	"time"
)

// Task is one unit of work on the board. The slug is immutable after
// creation and keys every external resource bound to the task (worktree
// path, tmux window name, workflow lock).
type Task struct {
	Slug      string    `yaml:"slug"`
	Title     string    `yaml:"title"`
	Agent     string    `yaml:"agent"`
	Project   string    `yaml:"project"`
	Status    Status    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// NewTask creates a backlog task with a freshly generated slug.
func NewTask(title, agent, project string) (Task, error) {
	slug, err := GenerateSlug(title)
	if err != nil {
		return Task{}, fmt.Errorf("generate slug: %w", err)
	}
	now := time.Now().UTC()
	return Task{
		Slug:      slug,
		Title:     title,
		Agent:     agent,
		Project:   project,
		Status:    StatusBacklog,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the fields a task loaded from disk must carry.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Slug) == "" {
		return fmt.Errorf("task has empty slug")
	}
	if !ValidateSlug(t.Slug) {
		return fmt.Errorf("task %q: malformed slug", t.Slug)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task %q: empty title", t.Slug)
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return fmt.Errorf("task %q: %w", t.Slug, err)
	}
	return nil
}
