// Package store persists the task board under <projectRoot>/.agtx/.
//
// The board lives in a single schema-versioned YAML document. Writes go
// through a temp file with re-read validation before renaming over the
// original, so a crash mid-write can never leave a torn board behind.
// An flock serializes mutations across agtx processes.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/agtx/agtx/internal/lock"
	"github.com/agtx/agtx/internal/model"
)

const (
	// DirName is the agtx state directory, relative to the project root.
	DirName = ".agtx"

	tasksFile  = "tasks.yaml"
	lockFile   = "tasks.lock"
	configFile = "config.yaml"

	CurrentSchemaVersion = 1
)

// ErrTaskNotFound is returned by Get, Update, and Remove for unknown slugs.
var ErrTaskNotFound = errors.New("task not found")

// Dir returns the agtx state directory for a project root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// TasksPath returns the board file location.
func TasksPath(root string) string {
	return filepath.Join(root, DirName, tasksFile)
}

// ConfigPath returns the config file location.
func ConfigPath(root string) string {
	return filepath.Join(root, DirName, configFile)
}

// LogsDir returns the log directory location.
func LogsDir(root string) string {
	return filepath.Join(root, DirName, "logs")
}

// document is the on-disk shape of the board.
type document struct {
	SchemaVersion int          `yaml:"schema_version"`
	Tasks         []model.Task `yaml:"tasks"`
}

// Store reads and writes the task board for one project.
type Store struct {
	root string
	fl   *lock.FileLock
}

// Open binds a store to an initialized project. It fails if .agtx/ does not
// exist yet; `agtx init` creates it.
func Open(root string) (*Store, error) {
	info, err := os.Stat(Dir(root))
	if err != nil {
		return nil, fmt.Errorf("%s not initialized (run 'agtx init'): %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", Dir(root))
	}
	return &Store{
		root: root,
		fl:   lock.NewFileLock(filepath.Join(Dir(root), lockFile)),
	}, nil
}

// Load reads every task on the board. A missing board file is an empty board.
func (s *Store) Load() ([]model.Task, error) {
	content, err := os.ReadFile(TasksPath(s.root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", TasksPath(s.root), err)
	}

	var doc document
	if err := yamlv3.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", TasksPath(s.root), err)
	}
	if doc.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported schema_version %d (max supported: %d)",
			doc.SchemaVersion, CurrentSchemaVersion)
	}
	for _, task := range doc.Tasks {
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("invalid board entry: %w", err)
		}
	}
	return doc.Tasks, nil
}

// Save atomically replaces the board with tasks.
func (s *Store) Save(tasks []model.Task) error {
	if err := s.fl.TryLock(); err != nil {
		return err
	}
	defer s.fl.Unlock()
	return s.write(tasks)
}

// Add appends a new task. The slug must be unused.
func (s *Store) Add(task model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.mutate(func(tasks []model.Task) ([]model.Task, error) {
		for _, t := range tasks {
			if t.Slug == task.Slug {
				return nil, fmt.Errorf("task %q already exists", task.Slug)
			}
		}
		return append(tasks, task), nil
	})
}

// Get looks a task up by slug.
func (s *Store) Get(slug string) (model.Task, error) {
	tasks, err := s.Load()
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range tasks {
		if t.Slug == slug {
			return t, nil
		}
	}
	return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, slug)
}

// Update replaces the stored task with the same slug.
func (s *Store) Update(task model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.mutate(func(tasks []model.Task) ([]model.Task, error) {
		for i, t := range tasks {
			if t.Slug == task.Slug {
				tasks[i] = task
				return tasks, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, task.Slug)
	})
}

// Remove deletes the task with the given slug from the board.
func (s *Store) Remove(slug string) error {
	return s.mutate(func(tasks []model.Task) ([]model.Task, error) {
		for i, t := range tasks {
			if t.Slug == slug {
				return append(tasks[:i], tasks[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, slug)
	})
}

func (s *Store) mutate(fn func([]model.Task) ([]model.Task, error)) error {
	if err := s.fl.TryLock(); err != nil {
		return err
	}
	defer s.fl.Unlock()

	tasks, err := s.Load()
	if err != nil {
		return err
	}
	tasks, err = fn(tasks)
	if err != nil {
		return err
	}
	return s.write(tasks)
}

// write performs the atomic replace: temp file, fsync, re-read validation,
// .bak of the previous board, then rename.
func (s *Store) write(tasks []model.Task) error {
	doc := document{SchemaVersion: CurrentSchemaVersion, Tasks: tasks}
	content, err := yamlv3.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	path := TasksPath(s.root)
	tmp, err := os.CreateTemp(Dir(s.root), ".agtx-tmp-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		// Clean up temp file on any failure
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Validate the written bytes actually parse before they replace the board.
	written, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("read temp file for validation: %w", err)
	}
	var check document
	if err := yamlv3.Unmarshal(written, &check); err != nil {
		return fmt.Errorf("validate temp file: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0644)
}
