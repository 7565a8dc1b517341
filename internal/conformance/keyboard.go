package conformance

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/runner"
)

var (
	lowerL   = event.Character("l")
	upperL   = event.Character("L")
	shiftKey = event.Named(keyboard.NamedShift)
	ctrlKey  = event.Named(keyboard.NamedControl)
	altKey   = event.Named(keyboard.NamedAlt)
)

func down(k keyboard.Key, logical, base event.LogicalKey, text string) event.KeyboardInput {
	return event.KeyboardInput{Physical: k, Logical: logical, Text: text, Location: k.Location(),
		State: event.Pressed, KeyWithoutModifiers: base}
}

func up(k keyboard.Key, logical, base event.LogicalKey, text string) event.KeyboardInput {
	ev := down(k, logical, base, text)
	ev.State = event.Released
	return ev
}

// modifier builds the press or release of a modifier key, which produces no
// text.
func modifier(k keyboard.Key, name event.LogicalKey, st event.State) event.KeyboardInput {
	ev := down(k, name, name, "")
	ev.State = st
	return ev
}

func mods(m event.Modifiers) event.ModifiersChanged {
	return event.ModifiersChanged{Modifiers: m}
}

// keyboardSession is a focused window with a keyboard on the default seat.
type keyboardSession struct {
	t    *runner.T
	el   backend.EventLoop
	w    backend.Window
	seat backend.Seat
	kb   backend.Keyboard
}

func newKeyboardSession(t *runner.T) *keyboardSession {
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	seat := t.Instance().DefaultSeat()
	kb, err := seat.AddKeyboard()
	t.NoError(err, "add keyboard")
	t.Cleanup(func() { _ = kb.Close() })
	t.NoError(seat.Focus(w), "focus window")
	waitFocus(t, el, w)
	return &keyboardSession{t: t, el: el, w: w, seat: seat, kb: kb}
}

func (s *keyboardSession) press(k keyboard.Key) *backend.PressedKey {
	pk, err := s.kb.Press(k)
	s.t.NoError(err, fmt.Sprintf("press %s", k))
	return pk
}

func (s *keyboardSession) release(pk *backend.PressedKey) {
	s.t.NoError(pk.Release(), fmt.Sprintf("release %s", pk.Key()))
}

func (s *keyboardSession) tap(k keyboard.Key) {
	s.release(s.press(k))
}

func (s *keyboardSession) expect(want ...event.Event) {
	expectInput(s.t, s.el, s.w, want...)
}

// nextInput pops events until a key or modifier event for w arrives.
func nextInput(t *runner.T, el backend.EventLoop, w backend.Window) event.WindowEvent {
	for {
		ev, err := el.Next(t.Context())
		t.NoError(err, "await keyboard event")
		switch ev := ev.(type) {
		case event.KeyboardInput:
			if ev.Window == w.ID() {
				return ev
			}
		case event.ModifiersChanged:
			if ev.Window == w.ID() {
				return ev
			}
		}
	}
}

// expectInput checks that the next key and modifier events for w are
// exactly want, in order. Window and device ids are not compared.
func expectInput(t *runner.T, el backend.EventLoop, w backend.Window, want ...event.Event) {
	for i, exp := range want {
		got := nextInput(t, el, w)
		switch exp := exp.(type) {
		case event.KeyboardInput:
			ki, ok := got.(event.KeyboardInput)
			require.Truef(t, ok, "event %d: want %s %s, got %#v", i, exp.Physical, exp.State, got)
			assert.Equalf(t, exp.Physical, ki.Physical, "event %d: physical key", i)
			assert.Equalf(t, exp.State, ki.State, "event %d: state", i)
			assert.Equalf(t, exp.Logical, ki.Logical, "event %d: logical key", i)
			assert.Equalf(t, exp.Text, ki.Text, "event %d: text", i)
			assert.Equalf(t, exp.Location, ki.Location, "event %d: location", i)
			assert.Equalf(t, exp.KeyWithoutModifiers, ki.KeyWithoutModifiers, "event %d: key without modifiers", i)
			assert.Falsef(t, ki.Repeat, "event %d: repeat", i)
		case event.ModifiersChanged:
			mc, ok := got.(event.ModifiersChanged)
			require.Truef(t, ok, "event %d: want modifiers %s, got %#v", i, exp.Modifiers, got)
			assert.Equalf(t, exp.Modifiers, mc.Modifiers, "event %d: modifiers", i)
		default:
			t.Fatalf("event %d: cannot expect %T", i, exp)
		}
	}
}

func windowKeyboard(t *runner.T) {
	s := newKeyboardSession(t)

	t.Logf("plain key")
	s.tap(keyboard.KeyL)
	s.expect(
		down(keyboard.KeyL, lowerL, lowerL, "l"),
		up(keyboard.KeyL, lowerL, lowerL, "l"),
	)

	t.Logf("nested shift")
	shift := s.press(keyboard.KeyLeftshift)
	s.tap(keyboard.KeyL)
	s.release(shift)
	s.expect(
		modifier(keyboard.KeyLeftshift, shiftKey, event.Pressed),
		mods(event.ModShift),
		down(keyboard.KeyL, upperL, lowerL, "L"),
		up(keyboard.KeyL, upperL, lowerL, "L"),
		modifier(keyboard.KeyLeftshift, shiftKey, event.Released),
		mods(0),
	)

	t.Logf("shift released before the key")
	shift = s.press(keyboard.KeyLeftshift)
	l := s.press(keyboard.KeyL)
	s.release(shift)
	s.release(l)
	s.expect(
		modifier(keyboard.KeyLeftshift, shiftKey, event.Pressed),
		mods(event.ModShift),
		down(keyboard.KeyL, upperL, lowerL, "L"),
		modifier(keyboard.KeyLeftshift, shiftKey, event.Released),
		mods(0),
		up(keyboard.KeyL, lowerL, lowerL, "l"),
	)

	t.Logf("right control")
	ctrl := s.press(keyboard.KeyRightctrl)
	s.tap(keyboard.KeyL)
	s.release(ctrl)
	s.expect(
		modifier(keyboard.KeyRightctrl, ctrlKey, event.Pressed),
		mods(event.ModControl),
		down(keyboard.KeyL, lowerL, lowerL, "l"),
		up(keyboard.KeyL, lowerL, lowerL, "l"),
		modifier(keyboard.KeyRightctrl, ctrlKey, event.Released),
		mods(0),
	)

	t.Logf("overlapping control and shift")
	ctrl = s.press(keyboard.KeyLeftctrl)
	shift = s.press(keyboard.KeyLeftshift)
	l = s.press(keyboard.KeyL)
	s.release(ctrl)
	s.release(l)
	s.release(shift)
	s.expect(
		modifier(keyboard.KeyLeftctrl, ctrlKey, event.Pressed),
		mods(event.ModControl),
		modifier(keyboard.KeyLeftshift, shiftKey, event.Pressed),
		mods(event.ModControl|event.ModShift),
		down(keyboard.KeyL, upperL, lowerL, "L"),
		modifier(keyboard.KeyLeftctrl, ctrlKey, event.Released),
		mods(event.ModShift),
		up(keyboard.KeyL, upperL, lowerL, "L"),
		modifier(keyboard.KeyLeftshift, shiftKey, event.Released),
		mods(0),
	)

	t.Logf("right alt")
	s.tap(keyboard.KeyRightalt)
	s.expect(
		modifier(keyboard.KeyRightalt, altKey, event.Pressed),
		mods(event.ModAlt),
		modifier(keyboard.KeyRightalt, altKey, event.Released),
		mods(0),
	)

	t.Logf("azerty")
	t.NoError(s.seat.SetLayout(keyboard.Azerty), "switch to azerty")
	s.tap(keyboard.KeyQ)
	a := event.Character("a")
	s.expect(
		down(keyboard.KeyQ, a, a, "a"),
		up(keyboard.KeyQ, a, a, "a"),
	)

	t.NoError(s.seat.SetLayout(keyboard.Qwerty), "switch back to qwerty")
	s.tap(keyboard.KeyQ)
	q := event.Character("q")
	s.expect(
		down(keyboard.KeyQ, q, q, "q"),
		up(keyboard.KeyQ, q, q, "q"),
	)
}

func keyboardLayouts(t *runner.T) {
	s := newKeyboardSession(t)
	capsLock := event.Named("CapsLock")
	escape := event.Named("Escape")

	t.NoError(s.seat.SetLayout(keyboard.QwertySwapped), "switch to swapped layout")
	// Tapped twice so the lock ends up released.
	s.tap(keyboard.KeyEsc)
	s.tap(keyboard.KeyEsc)
	s.expect(
		down(keyboard.KeyEsc, capsLock, capsLock, ""),
		up(keyboard.KeyEsc, capsLock, capsLock, ""),
		down(keyboard.KeyEsc, capsLock, capsLock, ""),
		up(keyboard.KeyEsc, capsLock, capsLock, ""),
	)

	// Right shift now sits where left shift is, but the physical location
	// still comes from the key.
	s.tap(keyboard.KeyLeftshift)
	s.expect(
		modifier(keyboard.KeyLeftshift, shiftKey, event.Pressed),
		mods(event.ModShift),
		modifier(keyboard.KeyLeftshift, shiftKey, event.Released),
		mods(0),
	)

	t.NoError(s.seat.SetLayout(keyboard.Qwerty), "switch back to qwerty")
	s.tap(keyboard.KeyEsc)
	s.expect(
		down(keyboard.KeyEsc, escape, escape, "\x1b"),
		up(keyboard.KeyEsc, escape, escape, "\x1b"),
	)
}
