package event

import (
	"context"
	"testing"

	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	lowOnly := &recordingHandler{types: []string{inventory.EventTypeLowStock}}
	all := &recordingHandler{}
	bus.Subscribe(lowOnly)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(ctx, lowStock()))
	require.NoError(t, bus.Publish(ctx, inventory.NewStockReducedEvent(lowStock().VariantID, 1, nil)))

	assert.Equal(t, 1, lowOnly.count())
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{inventory.EventTypeLowStock}}
	bus.Subscribe(h, inventory.EventTypeStockAdded)

	require.NoError(t, bus.Publish(context.Background(), lowStock()))
	assert.Zero(t, h.count())
}

func TestInMemoryEventBus_ReportsFailuresAfterDeliveringToOthers(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	failing := &recordingHandler{failN: 1}
	panicking := &recordingHandler{panics: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), lowStock())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "downstream unavailable")
	assert.Contains(t, err.Error(), "handler panicked")
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	typed := &recordingHandler{types: []string{inventory.EventTypeLowStock}}
	wild := &recordingHandler{}
	bus.Subscribe(typed)
	bus.Subscribe(wild)

	bus.Unsubscribe(typed)
	bus.Unsubscribe(wild)
	require.NoError(t, bus.Publish(context.Background(), lowStock()))

	assert.Zero(t, typed.count())
	assert.Zero(t, wild.count())
	assert.Empty(t, bus.handlers)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.running.Load())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.running.Load())
}
