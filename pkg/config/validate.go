package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/imagectl/imagectl/pkg/matrix"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation errors:\n  - " + strings.Join(msgs, "\n  - ")
}

// Validate checks the configuration for errors.
func Validate(c *Config) error {
	var errs ValidationErrors

	if c.Root != "" {
		cleaned := path.Clean(c.Root)
		if path.IsAbs(cleaned) {
			errs = append(errs, ValidationError{"root", "must be repository-relative, not absolute"})
		}
		if cleaned == "." || strings.HasPrefix(cleaned, "..") {
			errs = append(errs, ValidationError{"root", "must name a directory inside the repository"})
		}
	}

	if c.Registry != "" {
		if strings.HasSuffix(c.Registry, "/") {
			errs = append(errs, ValidationError{"registry", "must not end with '/'"})
		}
		if c.Registry != strings.ToLower(c.Registry) {
			errs = append(errs, ValidationError{"registry", "must be lowercase"})
		}
	}

	seen := make(map[string]bool)
	for i, name := range c.Exclude {
		prefix := fmt.Sprintf("exclude[%d]", i)
		if name == "" {
			errs = append(errs, ValidationError{prefix, "must not be empty"})
			continue
		}
		if !matrix.ValidBasename(name) {
			errs = append(errs, ValidationError{prefix, fmt.Sprintf("'%s' is not a valid image name segment", name)})
		}
		if seen[name] {
			errs = append(errs, ValidationError{prefix, fmt.Sprintf("duplicate exclude entry '%s'", name)})
		}
		seen[name] = true
	}

	if c.Build.Concurrency < 0 {
		errs = append(errs, ValidationError{"build.concurrency", "must be >= 0"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
