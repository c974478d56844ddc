// Package dockerclient defines the narrow Docker API surface imagectl uses,
// so build logic stays testable against a mock.
package dockerclient

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// DockerClient is the subset of the Docker API needed to build and tag
// images.
type DockerClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	Close() error
}

// New creates a Docker client from the environment (DOCKER_HOST etc.) with
// API version negotiation.
func New() (DockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return cli, nil
}
