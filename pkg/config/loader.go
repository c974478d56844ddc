package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up in the working directory
// when no --config flag is given.
const DefaultFile = "imagectl.yaml"

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	expandEnvVars(&cfg)
	cfg.SetDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadIfPresent loads the default config file when it exists; otherwise it
// returns an empty config with defaults applied, so flag-only invocations
// work without a file.
func LoadIfPresent() (*Config, error) {
	if _, err := os.Stat(DefaultFile); err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.SetDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	return Load(DefaultFile)
}

// expandEnvVars expands environment variables in string values.
func expandEnvVars(c *Config) {
	c.Root = os.ExpandEnv(c.Root)
	c.Registry = os.ExpandEnv(c.Registry)

	for i := range c.Exclude {
		c.Exclude[i] = os.ExpandEnv(c.Exclude[i])
	}
	for k, v := range c.Build.Args {
		c.Build.Args[k] = os.ExpandEnv(v)
	}
}
