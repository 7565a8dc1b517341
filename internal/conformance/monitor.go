package conformance

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/runner"
)

func primaryMonitor(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	inst := t.Instance()

	monitors, err := el.Monitors()
	t.NoError(err, "list monitors")
	require.Len(t, monitors, 1)
	assert.Equal(t, 0, monitors[0].X)

	t.NoError(inst.EnableSecondMonitor(true), "enable second monitor")
	t.NoError(backend.AwaitMonitors(ctx, el, 2), "await two monitors")
	monitors, err = el.Monitors()
	t.NoError(err, "list monitors")
	primary, ok := backend.PrimaryMonitor(monitors)
	require.True(t, ok, "no primary monitor among %v", monitors)
	assert.Positive(t, primary.X, "the primary monitor is the right one")

	t.NoError(inst.EnableSecondMonitor(false), "disable second monitor")
	t.NoError(backend.AwaitMonitors(ctx, el, 1), "await one monitor")
	monitors, err = el.Monitors()
	t.NoError(err, "list monitors")
	require.Len(t, monitors, 1)
	assert.Equal(t, 0, monitors[0].X)
}

func monitorNames(t *runner.T) {
	el := newEventLoop(t)
	monitors, err := el.Monitors()
	t.NoError(err, "list monitors")
	require.NotEmpty(t, monitors)
	seen := make(map[string]bool)
	for _, m := range monitors {
		assert.NotEmpty(t, m.Name, "monitor at %d,%d", m.X, m.Y)
		assert.False(t, seen[m.Name], "duplicate monitor name %q", m.Name)
		seen[m.Name] = true
	}
}
