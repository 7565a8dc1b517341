package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifiersString(t *testing.T) {
	assert.Equal(t, "none", Modifiers(0).String())
	assert.Equal(t, "shift|control", (ModShift | ModControl).String())
}

func TestEventInterfaces(t *testing.T) {
	var events = []Event{
		Resized{Window: 1}, Moved{Window: 1}, CloseRequested{Window: 1}, Destroyed{Window: 1},
		Focused{Window: 1}, KeyboardInput{Window: 1}, ModifiersChanged{Window: 1},
	}
	for _, ev := range events {
		we, ok := ev.(WindowEvent)
		if assert.True(t, ok, "%T", ev) {
			assert.Equal(t, WindowID(1), we.WindowID())
		}
	}

	_, ok := Event(User{Value: 1}).(WindowEvent)
	assert.False(t, ok)

	de, ok := Event(DeviceAdded{Device: 9}).(DeviceEvent)
	assert.True(t, ok)
	assert.Equal(t, DeviceID(9), de.DeviceID())
}

func TestLogicalKeyString(t *testing.T) {
	assert.Equal(t, "Shift", Named("Shift").String())
	assert.Equal(t, `"l"`, Character("l").String())
}
