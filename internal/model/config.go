package model

// Config is the contents of .agtx/config.yaml.
type Config struct {
	Project Project       `yaml:"project"`
	Session SessionConfig `yaml:"session"`
	Agent   AgentConfig   `yaml:"agent"`
	Watcher WatcherConfig `yaml:"watcher"`
	Logging LoggingConfig `yaml:"logging"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// Project identifies the repository agtx manages tasks for.
type Project struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

type SessionConfig struct {
	// Name is the tmux session task windows are created under.
	// Defaults to the project name.
	Name string `yaml:"name"`
}

type AgentConfig struct {
	// Command is the agent binary launched in each task window.
	Command string `yaml:"command"`
	// ExtraArgs are appended verbatim to the launch command.
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ApplyDefaults fills zero-valued fields after loading from disk.
func (c *Config) ApplyDefaults() {
	if c.Session.Name == "" {
		c.Session.Name = c.Project.Name
	}
	if c.Agent.Command == "" {
		c.Agent.Command = "claude"
	}
	if len(c.Agent.ExtraArgs) == 0 {
		c.Agent.ExtraArgs = []string{"--dangerously-skip-permissions"}
	}
	if c.Watcher.DebounceMs <= 0 {
		c.Watcher.DebounceMs = 250
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
