package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/agtx/agtx/internal/board"
	"github.com/agtx/agtx/internal/events"
	"github.com/agtx/agtx/internal/git"
	"github.com/agtx/agtx/internal/model"
	"github.com/agtx/agtx/internal/notify"
	"github.com/agtx/agtx/internal/setup"
	"github.com/agtx/agtx/internal/store"
	"github.com/agtx/agtx/internal/tmux"
	"github.com/agtx/agtx/internal/workflow"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "add":
		runAdd(os.Args[2:])
	case "move":
		runMove(os.Args[2:])
	case "resume":
		runResume(os.Args[2:])
	case "delete":
		runDelete(os.Args[2:])
	case "board":
		runBoard(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "doctor":
		runDoctor(os.Args[2:])
	case "version":
		fmt.Printf("agtx %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runInit(args []string) {
	dir := "."
	name := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name":
			if i+1 >= len(args) {
				fatal("--name requires a value")
			}
			i++
			name = args[i]
		default:
			dir = args[i]
		}
	}
	if err := setup.Run(dir, name); err != nil {
		fatal("init: %v", err)
	}
	absDir, _ := filepath.Abs(dir)
	fmt.Printf("Initialized .agtx/ in %s\n", absDir)
}

func runAdd(args []string) {
	title := ""
	agent := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--agent":
			if i+1 >= len(args) {
				fatal("--agent requires a value")
			}
			i++
			agent = args[i]
		default:
			if title != "" {
				fatal("usage: agtx add <title> [--agent <command>]")
			}
			title = args[i]
		}
	}
	if title == "" {
		fatal("usage: agtx add <title> [--agent <command>]")
	}

	root, cfg, st := openProject()
	if agent == "" {
		agent = cfg.Agent.Command
	}

	task, err := model.NewTask(title, agent, cfg.Project.Name)
	if err != nil {
		fatal("create task: %v", err)
	}
	if err := st.Add(task); err != nil {
		fatal("add task: %v", err)
	}

	logEvent(root, events.EventTaskCreated, map[string]interface{}{
		"slug": task.Slug,
		"to":   string(task.Status),
	})
	fmt.Printf("Added %s (%s)\n", task.Slug, task.Status)
}

func runMove(args []string) {
	if len(args) != 1 {
		fatal("usage: agtx move <slug>")
	}
	root, cfg, st := openProject()
	task := mustGetTask(st, args[0])

	next, ok := model.Successor(task.Status)
	if !ok {
		fatal("task %s is already %s", task.Slug, task.Status)
	}
	transitionAndSave(root, cfg, st, task, next)
}

func runResume(args []string) {
	if len(args) != 1 {
		fatal("usage: agtx resume <slug>")
	}
	root, cfg, st := openProject()
	task := mustGetTask(st, args[0])
	transitionAndSave(root, cfg, st, task, model.StatusRunning)
}

func runDelete(args []string) {
	if len(args) != 1 {
		fatal("usage: agtx delete <slug>")
	}
	root, cfg, st := openProject()
	task := mustGetTask(st, args[0])

	bus, cleanup := startBus(root, cfg)
	defer cleanup()

	o := newOrchestrator(root, cfg, bus)
	if err := o.Delete(task); err != nil {
		fatal("delete %s: %v", task.Slug, err)
	}
	if err := st.Remove(task.Slug); err != nil {
		fatal("remove from board: %v", err)
	}
	fmt.Printf("Deleted %s\n", task.Slug)
}

func runBoard(args []string) {
	_, _, st := openProject()
	tasks, err := st.Load()
	if err != nil {
		fatal("load board: %v", err)
	}
	fmt.Print(board.Render(tasks))
}

func runList(args []string) {
	_, _, st := openProject()
	tasks, err := st.Load()
	if err != nil {
		fatal("load board: %v", err)
	}
	fmt.Print(board.RenderList(tasks))
}

func runWatch(args []string) {
	root, cfg, st := openProject()

	render := func() {
		tasks, err := st.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load board: %v\n", err)
			return
		}
		fmt.Print("\033[H\033[2J")
		fmt.Print(board.Render(tasks))
	}

	debounce := time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond
	w, err := store.NewWatcher(root, debounce)
	if err != nil {
		fatal("watch: %v", err)
	}
	defer w.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	render()
	for {
		select {
		case <-w.Events():
			render()
		case <-sig:
			return
		}
	}
}

func runDoctor(args []string) {
	root, cfg, st := openProject()
	tasks, err := st.Load()
	if err != nil {
		fatal("load board: %v", err)
	}

	o := newOrchestrator(root, cfg, nil)
	drifts := o.CheckDrift(tasks)
	if len(drifts) == 0 {
		fmt.Println("ok: all task resources match their status")
		return
	}

	for _, d := range drifts {
		fmt.Printf("%s (%s): worktree=%v window=%v, expected both=%v\n",
			d.Slug, d.Status, d.WorktreeExists, d.WindowExists, d.WantResources)
	}
	fmt.Printf("%d task(s) out of sync; retry the failed move or delete the task\n", len(drifts))
	os.Exit(1)
}

// transitionAndSave runs one orchestrated transition and persists the result.
func transitionAndSave(root string, cfg model.Config, st *store.Store, task model.Task, to model.Status) {
	bus, cleanup := startBus(root, cfg)
	defer cleanup()

	o := newOrchestrator(root, cfg, bus)
	updated, err := o.Transition(task, to)
	if err != nil {
		fatal("move %s: %v", task.Slug, err)
	}
	if err := st.Update(updated); err != nil {
		fatal("save task: %v", err)
	}
	fmt.Printf("%s: %s → %s\n", updated.Slug, task.Status, updated.Status)
}

func newOrchestrator(root string, cfg model.Config, bus *events.Bus) *workflow.Orchestrator {
	o, err := workflow.New(workflow.Options{
		ProjectRoot: root,
		Session:     cfg.Session.Name,
		Agent:       cfg.Agent,
		Git:         git.NewCLI(),
		Tmux:        tmux.NewCLI(),
		Bus:         bus,
	})
	if err != nil {
		fatal("orchestrator: %v", err)
	}
	return o
}

// startBus wires the audit log and desktop notifications to a fresh bus.
// The returned cleanup drains pending deliveries before closing the log.
func startBus(root string, cfg model.Config) (*events.Bus, func()) {
	bus := events.NewBus(16)

	logger, err := events.NewAuditLogger(filepath.Join(store.LogsDir(root), "events.jsonl"))
	if err == nil {
		logger.Attach(bus)
	}
	if cfg.Notify.Enabled {
		notify.Attach(bus)
	}

	return bus, func() {
		bus.Close()
		if logger != nil {
			logger.Close()
		}
	}
}

// logEvent records a one-off event without a bus round trip.
func logEvent(root string, eventType events.EventType, data map[string]interface{}) {
	logger, err := events.NewAuditLogger(filepath.Join(store.LogsDir(root), "events.jsonl"))
	if err != nil {
		return
	}
	defer logger.Close()
	_ = logger.Record(eventType, data)
}

func mustGetTask(st *store.Store, slug string) model.Task {
	task, err := st.Get(slug)
	if err != nil {
		fatal("%v", err)
	}
	return task
}

// openProject locates the enclosing initialized project and opens its store.
func openProject() (string, model.Config, *store.Store) {
	root := findProjectRoot()
	if root == "" {
		fatal(".agtx/ not found in this or any parent directory (run 'agtx init')")
	}
	cfg, err := store.LoadConfig(root)
	if err != nil {
		fatal("load config: %v", err)
	}
	st, err := store.Open(root)
	if err != nil {
		fatal("%v", err)
	}
	return root, cfg, st
}

// findProjectRoot walks up from the working directory until it finds .agtx/.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(store.Dir(dir)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `agtx %s — task workflow with per-task git worktrees and tmux windows

Usage: agtx <command> [options]

Project:
  init [dir] [--name <name>]  Initialize .agtx/ directory
  board                       Show the task board
  list                        Flat task listing for scripting
  watch                       Live board, re-rendered on changes
  doctor                      Report tasks whose resources drifted

Tasks:
  add <title> [--agent <cmd>] Add a backlog task
  move <slug>                 Advance a task one column
  resume <slug>               Send a review task back to running
  delete <slug>               Delete a task and its resources

Workflow: backlog → planning → running → review → done
  backlog → planning  creates the worktree + window and starts the agent
  planning → running  tells the agent to implement its plan
  review → done       kills the window and removes the worktree

Utilities:
  version           Show version
  help              Show this help

`, version)
}
