package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agtx/agtx/internal/store"
)

func TestRunCreatesLayout(t *testing.T) {
	root := t.TempDir()

	if err := Run(root, "myproject"); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, d := range []string{"worktrees", "logs"} {
		if _, err := os.Stat(filepath.Join(store.Dir(root), d)); err != nil {
			t.Errorf("missing %s: %v", d, err)
		}
	}
	if _, err := os.Stat(filepath.Join(store.Dir(root), ".gitignore")); err != nil {
		t.Errorf("missing .gitignore: %v", err)
	}

	cfg, err := store.LoadConfig(root)
	if err != nil {
		t.Fatalf("load generated config: %v", err)
	}
	if cfg.Project.Name != "myproject" {
		t.Errorf("project name = %q", cfg.Project.Name)
	}
	if cfg.Project.Root != root {
		t.Errorf("project root = %q, want %q", cfg.Project.Root, root)
	}
	if cfg.Agent.Command != "claude" {
		t.Errorf("agent command = %q", cfg.Agent.Command)
	}
}

func TestRunDefaultsProjectName(t *testing.T) {
	root := t.TempDir()
	if err := Run(root, ""); err != nil {
		t.Fatal(err)
	}
	cfg, err := store.LoadConfig(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Project.Name != filepath.Base(root) {
		t.Errorf("project name = %q, want %q", cfg.Project.Name, filepath.Base(root))
	}
}

func TestRunRefusesReinit(t *testing.T) {
	root := t.TempDir()
	if err := Run(root, "p"); err != nil {
		t.Fatal(err)
	}
	if err := Run(root, "p"); err == nil {
		t.Error("second init should fail")
	}
}
