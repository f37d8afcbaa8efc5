package store

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/agtx/agtx/internal/model"
)

// LoadConfig reads .agtx/config.yaml and applies defaults.
func LoadConfig(root string) (model.Config, error) {
	content, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return model.Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg model.Config
	if err := yamlv3.Unmarshal(content, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = root
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
