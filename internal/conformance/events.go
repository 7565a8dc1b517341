package conformance

import (
	"github.com/stretchr/testify/assert"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/runner"
)

func userEvent(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)

	el.SendEvent(event.User{Value: 1})
	ev, err := backend.UserEvent(ctx, el)
	t.NoError(err, "await first user event")
	assert.Equal(t, uint64(1), ev.Value)

	el.SendEvent(event.User{Value: 2})
	el.SendEvent(event.User{Value: 3})
	for _, want := range []uint64{2, 3} {
		ev, err := backend.UserEvent(ctx, el)
		t.NoError(err, "await user event")
		assert.Equal(t, want, ev.Value)
	}
}

func deviceEvents(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	seat := t.Instance().DefaultSeat()

	kb, err := seat.AddKeyboard()
	t.NoError(err, "add keyboard")
	added, err := backend.DeviceAdded(ctx, el)
	t.NoError(err, "await device added")
	assert.Equal(t, kb.ID(), added.Device)

	t.NoError(kb.Close(), "remove keyboard")
	removed, err := backend.DeviceRemoved(ctx, el)
	t.NoError(err, "await device removed")
	assert.Equal(t, kb.ID(), removed.Device)
}

func createSeat(t *runner.T) {
	el := newEventLoop(t)
	w1 := mappedWindow(t, el)
	w2 := mappedWindow(t, el)

	core := t.Instance().DefaultSeat()
	kb1, err := core.AddKeyboard()
	t.NoError(err, "add keyboard to default seat")
	t.Cleanup(func() { _ = kb1.Close() })

	seat, err := t.Instance().CreateSeat()
	t.NoError(err, "create seat")
	t.Cleanup(func() { _ = seat.Close() })
	kb2, err := seat.AddKeyboard()
	t.NoError(err, "add keyboard to new seat")
	t.Cleanup(func() { _ = kb2.Close() })

	t.NoError(core.Focus(w1), "focus first window")
	waitFocus(t, el, w1)
	t.NoError(seat.Focus(w2), "focus second window")

	// Each seat types into its own window.
	a, b := event.Character("a"), event.Character("b")
	pk, err := kb2.Press(keyboard.KeyA)
	t.NoError(err, "press a on the new seat")
	t.NoError(pk.Release(), "release a")
	expectInput(t, el, w2,
		down(keyboard.KeyA, a, a, "a"),
		up(keyboard.KeyA, a, a, "a"),
	)

	pk, err = kb1.Press(keyboard.KeyB)
	t.NoError(err, "press b on the default seat")
	t.NoError(pk.Release(), "release b")
	expectInput(t, el, w1,
		down(keyboard.KeyB, b, b, "b"),
		up(keyboard.KeyB, b, b, "b"),
	)
}
