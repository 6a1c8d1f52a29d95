package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	tracing, err := Setup(Config{ServiceName: "ledgerctl"})
	require.NoError(t, err)

	require.NotNil(t, tracing.Tracer())
	_, span := tracing.Tracer().Start(context.Background(), "test")
	span.End()

	assert.NoError(t, tracing.Shutdown(context.Background()))
}

func TestSetupEnabled(t *testing.T) {
	tracing, err := Setup(Config{ServiceName: "ledgerctl", Enabled: true})
	require.NoError(t, err)

	_, span := tracing.Tracer().Start(context.Background(), "test")
	span.End()

	require.NoError(t, tracing.Shutdown(context.Background()))
}
