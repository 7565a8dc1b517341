package conformance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/backend/x11backend"
	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
)

func TestRegistry(t *testing.T) {
	reg, err := Registry()
	require.NoError(t, err)
	tests := reg.Tests()
	require.Len(t, tests, len(Tests()))
	for _, tc := range tests {
		assert.NotNil(t, tc.Run, tc.Name)
		assert.NotEmpty(t, tc.Description, tc.Name)
		assert.Equal(t, strings.ToLower(tc.Name), tc.Name)
	}
}

func TestProtocolCasesRegistered(t *testing.T) {
	reg, err := Registry()
	require.NoError(t, err)
	tests, err := reg.Select([]string{"delete_window", "delete_destroys", "ping", "ping_unanswered", "wm_state"})
	require.NoError(t, err)
	assert.Len(t, tests, 5)
}

func TestX11SupportsEveryCase(t *testing.T) {
	flags := x11backend.New(x11backend.Options{}).Flags()
	for _, tc := range Tests() {
		assert.Zero(t, flags.Missing(tc.Flags), tc.Name)
	}
}

func TestModifierExpectation(t *testing.T) {
	ev := modifier(keyboard.KeyRightalt, altKey, event.Released)
	assert.Equal(t, event.Released, ev.State)
	assert.Equal(t, keyboard.LocationRight, ev.Location)
	assert.Empty(t, ev.Text)
	assert.Equal(t, altKey, ev.KeyWithoutModifiers)

	l := up(keyboard.KeyL, upperL, lowerL, "L")
	assert.Equal(t, event.Released, l.State)
	assert.Equal(t, keyboard.LocationStandard, l.Location)
}
