package builder

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/docker/docker/api/types"

	"github.com/imagectl/imagectl/pkg/logging"
)

// successStream is a minimal Docker build output stream: one step line and
// the aux message carrying the image ID.
const successStream = `{"stream":"Step 1/1 : FROM alpine\n"}
{"aux":{"ID":"sha256:mockimage"}}
`

// MockDockerClient is a mock implementation of dockerclient.DockerClient
// for testing. Safe for concurrent use: builds fan out across goroutines.
type MockDockerClient struct {
	mu sync.Mutex

	// BuildBody is the JSON stream returned by ImageBuild
	// (default: successStream).
	BuildBody string

	// Error injection per method
	PingError       error
	ImageBuildError error
	ImageTagError   error

	// Call tracking
	Calls []string

	// Tags requested via ImageBuild options
	BuiltTags []string
	// source->target pairs passed to ImageTag
	TaggedImages [][2]string

	// Last options passed to ImageBuild (for verifying labels, args)
	LastBuildOptions types.ImageBuildOptions
}

func (m *MockDockerClient) recordCall(name string) {
	m.Calls = append(m.Calls, name)
}

func (m *MockDockerClient) Ping(ctx context.Context) (types.Ping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Ping")
	if m.PingError != nil {
		return types.Ping{}, m.PingError
	}
	return types.Ping{APIVersion: "1.47"}, nil
}

func (m *MockDockerClient) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("ImageBuild")
	if m.ImageBuildError != nil {
		return types.ImageBuildResponse{}, m.ImageBuildError
	}
	m.BuiltTags = append(m.BuiltTags, options.Tags...)
	m.LastBuildOptions = options

	body := m.BuildBody
	if body == "" {
		body = successStream
	}
	return types.ImageBuildResponse{
		Body: io.NopCloser(strings.NewReader(body)),
	}, nil
}

func (m *MockDockerClient) ImageTag(ctx context.Context, source, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("ImageTag")
	if m.ImageTagError != nil {
		return m.ImageTagError
	}
	m.TaggedImages = append(m.TaggedImages, [2]string{source, target})
	return nil
}

func (m *MockDockerClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Close")
	return nil
}

func (m *MockDockerClient) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func newTestLogger() *slog.Logger {
	return logging.NewDiscardLogger()
}
