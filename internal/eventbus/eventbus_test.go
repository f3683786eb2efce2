package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_DeliversEvent(t *testing.T) {
	bus := New(4)
	bus.Emit(StageNGS, SubstageSingleGene, LevelInfo, "processing CYP2C19", Progress(0.5), nil)

	event := <-bus.Events()
	assert.Equal(t, StageNGS, event.Stage)
	assert.Equal(t, SubstageSingleGene, event.Substage)
	require.NotNil(t, event.Progress)
	assert.Equal(t, 0.5, *event.Progress)
}

func TestEmit_DefaultsUnknownFields(t *testing.T) {
	bus := New(2)
	bus.Emit("", "", "", "", nil, nil)

	event := <-bus.Events()
	assert.Equal(t, "unknown", event.Stage)
	assert.Equal(t, "unknown", event.Substage)
	assert.Equal(t, LevelInfo, event.Level)
	assert.Equal(t, "No message", event.Message)
}

func TestEmit_DropsOldestWhenFull(t *testing.T) {
	bus := New(2)
	bus.Emit(StageLabPrep, SubstageStart, LevelInfo, "first", nil, nil)
	bus.Emit(StageLabPrep, SubstageInit, LevelInfo, "second", nil, nil)
	bus.Emit(StageLabPrep, SubstageVariantDiscovery, LevelInfo, "third", nil, nil)

	first := <-bus.Events()
	second := <-bus.Events()
	assert.Equal(t, "second", first.Message)
	assert.Equal(t, "third", second.Message)
}
