package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads trolley.yaml from path, expands ${VAR} and ${VAR:-default}
// references against the process environment, and decodes the result.
// The zero Config is valid; every section is optional.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
