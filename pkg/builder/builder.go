// Package builder builds the images named by a build matrix against the
// local Docker daemon.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imagectl/imagectl/pkg/dockerclient"
	"github.com/imagectl/imagectl/pkg/logging"
	"github.com/imagectl/imagectl/pkg/matrix"

	"github.com/Masterminds/semver/v3"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// shortSHALen is the length of the immutable commit tag.
const shortSHALen = 12

// Builder builds matrix entries.
type Builder struct {
	cli dockerclient.DockerClient
	// repoDir is the directory entry paths are relative to.
	repoDir string
	logger  *slog.Logger
}

// New creates a Builder. Entry paths resolve relative to repoDir.
func New(cli dockerclient.DockerClient, repoDir string) *Builder {
	return &Builder{
		cli:     cli,
		repoDir: repoDir,
		logger:  logging.NewDiscardLogger(),
	}
}

// SetLogger sets the logger for build progress.
func (b *Builder) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// Build builds one matrix entry: a moving latest tag, an immutable
// commit-SHA tag, and an optional semver tag from a VERSION file in the
// entry directory.
func (b *Builder) Build(ctx context.Context, entry matrix.Entry, spec BuildSpec) *BuildResult {
	start := time.Now()
	result := &BuildResult{Basename: entry.Basename}

	contextPath := filepath.Join(b.repoDir, filepath.FromSlash(entry.Path))
	info, err := os.Stat(contextPath)
	if err != nil {
		result.Err = fmt.Errorf("build context not found: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	if !info.IsDir() {
		result.Err = fmt.Errorf("build context is not a directory: %s", contextPath)
		result.Duration = time.Since(start)
		return result
	}

	dockerfile, err := findDockerfile(contextPath)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	tags, err := Tags(contextPath, entry.Basename, spec)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	labels := map[string]string{
		ocispec.AnnotationTitle:   entry.Basename,
		ocispec.AnnotationCreated: start.UTC().Format(time.RFC3339),
	}
	if spec.HeadSHA != "" {
		labels[ocispec.AnnotationRevision] = spec.HeadSHA
	}

	imageID, err := BuildImage(ctx, b.cli, contextPath, dockerfile, tags[0], spec.BuildArgs, labels, spec.NoCache, b.logger.With("unit", entry.Basename))
	if err != nil {
		result.Err = fmt.Errorf("building %s: %w", entry.Basename, err)
		result.Duration = time.Since(start)
		return result
	}

	// Apply the remaining tags the way a CI pipeline would: docker tag
	// after a single build.
	for _, tag := range tags[1:] {
		if err := b.cli.ImageTag(ctx, tags[0], tag); err != nil {
			result.Err = fmt.Errorf("tagging %s as %s: %w", entry.Basename, tag, err)
			result.Duration = time.Since(start)
			return result
		}
	}

	result.ImageID = imageID
	result.Tags = tags
	result.Duration = time.Since(start)
	return result
}

// Tags computes the tag list for an entry: moving latest first, then the
// immutable short-SHA tag, then the VERSION file semver if present.
func Tags(contextPath, basename string, spec BuildSpec) ([]string, error) {
	ref := ImageRef(spec.Registry, basename)
	tags := []string{ref + ":latest"}

	if spec.HeadSHA != "" {
		sha := spec.HeadSHA
		if len(sha) > shortSHALen {
			sha = sha[:shortSHALen]
		}
		tags = append(tags, ref+":"+sha)
	}

	versionFile := filepath.Join(contextPath, "VERSION")
	if data, err := os.ReadFile(versionFile); err == nil {
		raw := strings.TrimSpace(string(data))
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: VERSION %q is not valid semver: %w", basename, raw, err)
		}
		tags = append(tags, ref+":"+v.String())
	}

	return tags, nil
}

// ImageRef joins an optional registry prefix with the image basename.
func ImageRef(registry, basename string) string {
	if registry == "" {
		return basename
	}
	return registry + "/" + basename
}

// findDockerfile locates the recipe file inside a build context.
func findDockerfile(contextPath string) (string, error) {
	for _, name := range []string{"Dockerfile", "dockerfile", "Containerfile"} {
		if _, err := os.Stat(filepath.Join(contextPath, name)); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no Dockerfile found in %s", contextPath)
}
