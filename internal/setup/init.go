// Package setup handles agtx project initialization.
package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agtx/agtx/internal/store"
	"github.com/agtx/agtx/templates"
)

// Run initializes the .agtx/ directory structure in the given project
// directory. projectName overrides the auto-detected name (defaults to the
// directory basename if empty).
func Run(projectDir, projectName string) error {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}

	base := store.Dir(absDir)
	if _, err := os.Stat(base); err == nil {
		return fmt.Errorf("%s already exists", base)
	}

	for _, d := range []string{"worktrees", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, d), 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	// Worktrees live inside the repo; keep all agtx state out of git.
	ignorePath := filepath.Join(base, ".gitignore")
	if err := os.WriteFile(ignorePath, []byte("*\n"), 0644); err != nil {
		return fmt.Errorf("write %s: %w", ignorePath, err)
	}

	if projectName == "" {
		projectName = filepath.Base(absDir)
	}
	if err := writeConfig(absDir, projectName); err != nil {
		return err
	}
	return nil
}

// writeConfig fills the embedded config template and writes config.yaml.
func writeConfig(root, projectName string) error {
	content, err := templates.FS.ReadFile("config.yaml")
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}

	rendered := strings.NewReplacer(
		"{{PROJECT_NAME}}", projectName,
		"{{PROJECT_ROOT}}", root,
	).Replace(string(content))

	path := store.ConfigPath(root)
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
