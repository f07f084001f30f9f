package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residency/internal/platform/config"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{}, "residency", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), config.TracingConfig{Enabled: true, Exporter: "zipkin"}, "residency", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(5).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, Sampler(0).Description(), "TraceIDRatioBased{0.1}")
}
