package xtk

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/x11/xinput"
)

// stateGroup extracts the XKB group carried in bits 13-14 of a core event
// state.
func stateGroup(state uint16) uint8 {
	return uint8(state>>13) & 3
}

// translateKey resolves the keysym a key produces under state, and the one
// it produces with no modifiers in the same group.
func translateKey(syms [keyboard.Columns]keyboard.Keysym, state uint16) (ks, base keyboard.Keysym) {
	group := stateGroup(state)
	level := uint8(0)
	if state&xproto.ModMaskShift != 0 {
		level = 1
	}
	return keyboard.LookupColumns(syms, group, level), keyboard.LookupColumns(syms, group, 0)
}

func logicalKey(ks keyboard.Keysym) event.LogicalKey {
	if name := ks.Named(); name != "" {
		return event.Named(name)
	}
	return event.Character(ks.Text())
}

func keyText(ks keyboard.Keysym) string {
	switch ks.Named() {
	case "", "Enter", "Tab", "Backspace", "Escape", "Delete":
		return ks.Text()
	}
	return ""
}

func modifierOf(ks keyboard.Keysym) event.Modifiers {
	switch ks.Named() {
	case keyboard.NamedShift:
		return event.ModShift
	case keyboard.NamedControl:
		return event.ModControl
	case keyboard.NamedAlt:
		return event.ModAlt
	case keyboard.NamedSuper:
		return event.ModSuper
	}
	return 0
}

// keyState tracks held keys so repeats and modifier changes can be derived
// from core events, which report the state before the event.
type keyState struct {
	held map[xproto.Keycode]event.Modifiers
	mods event.Modifiers
}

func newKeyState() keyState {
	return keyState{held: make(map[xproto.Keycode]event.Modifiers)}
}

// press records kc as held. repeat is true when it already was; changed is
// true when the active modifier set changed.
func (s *keyState) press(kc xproto.Keycode, mod event.Modifiers) (repeat, changed bool) {
	_, repeat = s.held[kc]
	s.held[kc] = mod
	return repeat, s.recompute()
}

// release forgets kc and reports whether the modifier set changed.
func (s *keyState) release(kc xproto.Keycode) bool {
	delete(s.held, kc)
	return s.recompute()
}

// reset drops every held key, as on focus loss.
func (s *keyState) reset() bool {
	clear(s.held)
	return s.recompute()
}

func (s *keyState) recompute() bool {
	var mods event.Modifiers
	for _, m := range s.held {
		mods |= m
	}
	changed := mods != s.mods
	s.mods = mods
	return changed
}

// presenceEvent maps device additions and removals; enable/disable and
// control changes are not reported.
func presenceEvent(e xinput.DevicePresenceNotifyEvent) (event.Event, bool) {
	id := event.DeviceID(e.DeviceID)
	switch e.Change {
	case xinput.PresenceAdded:
		return event.DeviceAdded{Device: id}, true
	case xinput.PresenceRemoved:
		return event.DeviceRemoved{Device: id}, true
	}
	return nil, false
}
