package telemetry

import (
	"context"
	"testing"

	"github.com/servicebook/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_AllDisabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "servicebook"}, "test", nil)
	require.NoError(t, err)

	assert.Nil(t, p.tracer)
	assert.Nil(t, p.meter)
	assert.Nil(t, p.logs)
	assert.NotNil(t, p.Meter())
	assert.False(t, p.LogCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_ProfilingNeedsAddress(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{
		ServiceName:      "servicebook",
		ProfilingEnabled: true,
	}, "test", zap.NewNop())
	assert.ErrorContains(t, err, "server address")
}

func TestNilProvidersMeter(t *testing.T) {
	var p *Providers
	assert.NotNil(t, p.Meter())
}

func TestLevelCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(&levelCore{Core: inner, min: zapcore.WarnLevel}).With(zap.String("component", "test"))

	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "test", logs.All()[0].ContextMap()["component"])
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
