package builder

import "time"

// BuildSpec holds the settings shared by every entry in one build run.
type BuildSpec struct {
	// Registry is an optional image reference prefix, e.g. "ghcr.io/acme".
	Registry string

	// HeadSHA is the full commit hash of the head revision. It becomes the
	// immutable tag and the OCI revision label on every built image.
	HeadSHA string

	// BuildArgs are passed to every image build.
	BuildArgs map[string]string

	// NoCache forces full rebuilds.
	NoCache bool
}

// BuildResult is the outcome of building one matrix entry.
type BuildResult struct {
	Basename string
	ImageID  string
	Tags     []string
	Duration time.Duration
	Err      error
}

// Failed reports whether the entry's build failed.
func (r *BuildResult) Failed() bool { return r.Err != nil }
