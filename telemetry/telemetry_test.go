package telemetry

import (
	"testing"

	"github.com/amp-labs/autoswitch/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultEndpoint(t *testing.T) { //nolint:paralleltest
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "GKE environment detected", host: "10.0.0.1", expected: GKECollectorEndpoint},
		{name: "Non-GKE environment", host: "", expected: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv("KUBERNETES_SERVICE_HOST", test.host)

			assert.Equal(t, test.expected, DefaultEndpoint())
		})
	}
}

func TestInitializeDisabledKeepsGlobalProvider(t *testing.T) { //nolint:paralleltest
	before := otel.GetTracerProvider()

	require.NoError(t, Initialize(t.Context(), Config{Enabled: false, Endpoint: "http://localhost:4318"}))
	require.NoError(t, Initialize(t.Context(), Config{Enabled: true}))

	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, isSDK)
	assert.Equal(t, before, otel.GetTracerProvider())
	require.NoError(t, Shutdown(t.Context()))
}

func TestInitializeAndShutdown(t *testing.T) { //nolint:paralleltest
	err := Initialize(t.Context(), Config{
		Enabled:        true,
		ServiceName:    "autoswitch-test",
		ServiceVersion: "0.0.1",
		Environment:    stage.Test,
		Endpoint:       "http://127.0.0.1:4318",
	})
	require.NoError(t, err)

	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDK)

	// Nothing was recorded, so shutdown has nothing to export.
	require.NoError(t, Shutdown(t.Context()))
	require.NoError(t, Shutdown(t.Context()), "second shutdown is a no-op")
}
