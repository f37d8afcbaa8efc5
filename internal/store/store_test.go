package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agtx/agtx/internal/model"
)

func initProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(Dir(root), 0755))
	return root
}

func mustTask(t *testing.T, title string, status model.Status) model.Task {
	t.Helper()
	task, err := model.NewTask(title, "claude", "proj")
	require.NoError(t, err)
	task.Status = status
	return task
}

func TestOpenRequiresInit(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agtx init")
}

func TestLoadEmptyBoard(t *testing.T) {
	s, err := Open(initProject(t))
	require.NoError(t, err)

	tasks, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAddGetUpdateRemove(t *testing.T) {
	s, err := Open(initProject(t))
	require.NoError(t, err)

	task := mustTask(t, "My Feature", model.StatusBacklog)
	require.NoError(t, s.Add(task))

	got, err := s.Get(task.Slug)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, model.StatusBacklog, got.Status)

	got.Status = model.StatusPlanning
	require.NoError(t, s.Update(got))

	reloaded, err := s.Get(task.Slug)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlanning, reloaded.Status)

	require.NoError(t, s.Remove(task.Slug))
	_, err = s.Get(task.Slug)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAddDuplicateSlugRejected(t *testing.T) {
	s, err := Open(initProject(t))
	require.NoError(t, err)

	task := mustTask(t, "Once", model.StatusBacklog)
	require.NoError(t, s.Add(task))
	assert.Error(t, s.Add(task))
}

func TestUpdateUnknownTask(t *testing.T) {
	s, err := Open(initProject(t))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Update(mustTask(t, "Ghost", model.StatusBacklog)), ErrTaskNotFound)
	assert.ErrorIs(t, s.Remove("abc123-ghost"), ErrTaskNotFound)
}

func TestSaveCreatesBackup(t *testing.T) {
	root := initProject(t)
	s, err := Open(root)
	require.NoError(t, err)

	require.NoError(t, s.Save([]model.Task{mustTask(t, "One", model.StatusBacklog)}))
	require.NoError(t, s.Save([]model.Task{mustTask(t, "Two", model.StatusBacklog)}))

	_, err = os.Stat(TasksPath(root) + ".bak")
	assert.NoError(t, err, "second save should leave a .bak of the first board")
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	root := initProject(t)
	s, err := Open(root)
	require.NoError(t, err)

	content := "schema_version: 99\ntasks: []\n"
	require.NoError(t, os.WriteFile(TasksPath(root), []byte(content), 0644))

	_, err = s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_version")
}

func TestLoadRejectsMalformedEntry(t *testing.T) {
	root := initProject(t)
	s, err := Open(root)
	require.NoError(t, err)

	content := "schema_version: 1\ntasks:\n  - slug: \"\"\n    title: broken\n    status: backlog\n"
	require.NoError(t, os.WriteFile(TasksPath(root), []byte(content), 0644))

	_, err = s.Load()
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	root := initProject(t)
	content := "project:\n  name: myproject\nagent:\n  command: claude\n"
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte(content), 0644))

	cfg, err := LoadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "myproject", cfg.Project.Name)
	assert.Equal(t, root, cfg.Project.Root, "root defaults to the load path")
	assert.Equal(t, "myproject", cfg.Session.Name, "session defaults to project name")
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(initProject(t))
	require.Error(t, err)
}

func TestWatcherSignalsOnBoardChange(t *testing.T) {
	root := initProject(t)
	s, err := Open(root)
	require.NoError(t, err)

	w, err := NewWatcher(root, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, s.Save([]model.Task{mustTask(t, "Watched", model.StatusBacklog)}))

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("no signal after board write")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	root := initProject(t)
	s, err := Open(root)
	require.NoError(t, err)

	w, err := NewWatcher(root, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save([]model.Task{mustTask(t, "Burst", model.StatusBacklog)}))
	}

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("no signal after burst")
	}

	// The burst should not queue a trail of further signals.
	time.Sleep(150 * time.Millisecond)
	drained := 0
	for {
		select {
		case <-w.Events():
			drained++
			if drained > 1 {
				t.Fatalf("burst produced %d extra signals", drained)
			}
			continue
		default:
		}
		break
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := initProject(t)
	w, err := NewWatcher(root, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(Dir(root), "other.yaml"), []byte("x: 1\n"), 0644))

	select {
	case <-w.Events():
		t.Fatal("unrelated file triggered a signal")
	case <-time.After(200 * time.Millisecond):
	}
}
