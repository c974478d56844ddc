// Package config loads and validates the imagectl configuration file.
package config

// Config is the root of an imagectl.yaml file.
type Config struct {
	// Root is the repository-relative watched root. Each first-level
	// subdirectory under it is an independently buildable image unit.
	Root string `yaml:"root"`

	// Registry is an optional registry prefix for image references,
	// e.g. "ghcr.io/acme". Empty means bare local image names.
	Registry string `yaml:"registry"`

	// Exclude lists unit names that are never built even when changed.
	Exclude []string `yaml:"exclude"`

	// Build holds settings applied to every image build.
	Build BuildSettings `yaml:"build"`
}

// BuildSettings configure how matrix entries are built.
type BuildSettings struct {
	// Args are build arguments passed to every image build.
	Args map[string]string `yaml:"args"`

	// Concurrency bounds the parallel build fan-out. Zero means
	// min(4, number of entries).
	Concurrency int `yaml:"concurrency"`

	// NoCache forces full rebuilds when true.
	NoCache bool `yaml:"no_cache"`
}

// SetDefaults fills in defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Build.Args == nil {
		c.Build.Args = map[string]string{}
	}
}

// Excluded reports whether a unit name is on the exclude list.
func (c *Config) Excluded(name string) bool {
	for _, e := range c.Exclude {
		if e == name {
			return true
		}
	}
	return false
}
