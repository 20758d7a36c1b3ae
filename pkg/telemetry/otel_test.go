package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzahanych/jbot-advisor/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	tele, err := New(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.False(t, tele.IsEnabled())

	ctx, span := tele.StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	tele.RecordError(ctx, errors.New("ignored"), map[string]interface{}{"k": "v"})
	assert.NoError(t, tele.Shutdown(context.Background()))
}

func TestNilTelemetry(t *testing.T) {
	var tele *Telemetry
	assert.False(t, tele.IsEnabled())
	assert.NotNil(t, tele.GetTracer())
	assert.NoError(t, tele.Shutdown(context.Background()))
}
