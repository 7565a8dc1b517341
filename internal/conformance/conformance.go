// Package conformance holds the test cases the runner executes against a
// backend. Each case drives a toolkit window through the backend's
// capability interfaces and checks what the window manager and the event
// queue observe.
package conformance

import (
	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/runner"
	"github.com/1broseidon/xconform/internal/toolkit/xtk"
)

// Tests returns every case in execution order.
func Tests() []runner.Test {
	return []runner.Test{
		{Name: "user_event", Run: userEvent,
			Description: "user events come out of the queue in the order they were sent"},
		{Name: "delete_window", Run: deleteWindow,
			Description: "deleting a window delivers a close request"},
		{Name: "delete_destroys", Run: deleteDestroys,
			Description: "deleting a window without WM_DELETE_WINDOW destroys it"},
		{Name: "destroyed", Run: destroyed,
			Description: "dropping a window delivers a destroyed event with its id"},
		{Name: "ping", Run: ping,
			Description: "a mapped window answers _NET_WM_PING"},
		{Name: "ping_unanswered", Run: pingUnanswered,
			Description: "a ping the client ignores runs into the deadline"},
		{Name: "wm_state", Flags: backend.FlagMinimized | backend.FlagVisible, Run: wmState,
			Description: "WM_STATE follows map, iconify and withdraw"},
		{Name: "minimize", Flags: backend.FlagMinimized, Run: minimize,
			Description: "minimizing and restoring through the toolkit"},
		{Name: "maximized", Flags: backend.FlagMaximized, Run: maximized,
			Description: "maximizing and restoring through the toolkit"},
		{Name: "decorations", Flags: backend.FlagDecorations, Run: decorations,
			Description: "decorations toggle and frame extents follow them"},
		{Name: "resize", Flags: backend.FlagInnerSize | backend.FlagSetInnerSize, Run: resize,
			Description: "inner size changes from either side reach both sides"},
		{Name: "outer_position", Flags: backend.FlagOuterPosition | backend.FlagSetOuterPosition, Run: outerPosition,
			Description: "frame moves from either side reach both sides"},
		{Name: "title", Flags: backend.FlagTitle, Run: title,
			Description: "titles reach the window manager"},
		{Name: "always_on_top", Flags: backend.FlagSetAlwaysOnTop, Run: alwaysOnTop,
			Description: "always-on-top toggles"},
		{Name: "size_bounds", Flags: backend.FlagSizeBounds | backend.FlagResizable, Run: sizeBounds,
			Description: "min/max size hints and the derived resizable state"},
		{Name: "attention", Flags: backend.FlagAttention, Run: attention,
			Description: "urgency hint toggles"},
		{Name: "icon", Flags: backend.FlagIcon, Run: icon,
			Description: "window icons reach the window manager"},
		{Name: "window_keyboard", Run: windowKeyboard,
			Description: "key and modifier events for plain, nested and overlapping presses and layout switches"},
		{Name: "keyboard_layouts", Run: keyboardLayouts,
			Description: "switching to and from the swapped layout remaps keys"},
		{Name: "device_events", Flags: backend.FlagDeviceAdded | backend.FlagDeviceRemoved, Run: deviceEvents,
			Description: "adding and removing a keyboard is reported"},
		{Name: "create_seat", Flags: backend.FlagCreateSeat, Run: createSeat,
			Description: "a second seat types into its own focused window"},
		{Name: "primary_monitor", Flags: backend.FlagSecondMonitor, Run: primaryMonitor,
			Description: "a second monitor appears to the right of the primary one"},
		{Name: "monitor_names", Flags: backend.FlagMonitorNames, Run: monitorNames,
			Description: "monitors carry output names"},
	}
}

// Registry returns the cases registered in order.
func Registry() (*runner.Registry, error) {
	return runner.NewRegistry(Tests()...)
}

func newEventLoop(t *runner.T) backend.EventLoop {
	el, err := t.Instance().CreateEventLoop()
	t.NoError(err, "create event loop")
	return el
}

func newWindow(t *runner.T, el backend.EventLoop, attrs xtk.Attributes) backend.Window {
	w, err := el.CreateWindow(attrs)
	t.NoError(err, "create window")
	return w
}

// mappedWindow creates a default window and waits until the window manager
// has mapped it.
func mappedWindow(t *runner.T, el backend.EventLoop) backend.Window {
	w := newWindow(t, el, xtk.DefaultAttributes())
	t.NoError(backend.Mapped(t.Context(), w, true), "await mapped")
	return w
}
