package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := Setup(context.Background(), "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()), "no-op shutdown should succeed")
}

func TestStartSpan_NoProvider(t *testing.T) {
	// Without a configured provider spans are no-ops but must not panic.
	ctx, finish := StartSpan(context.Background(), "scan", map[string]string{"root": "ops/docker"})
	require.NotNil(t, ctx)
	finish(errors.New("recorded"))

	nested, finishNested := StartSpan(ctx, "build", nil)
	assert.NotNil(t, nested)
	finishNested(nil)
}

func TestTracer(t *testing.T) {
	assert.NotNil(t, Tracer())
}
