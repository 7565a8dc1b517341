// Package event defines the normalized events the event loops queue for test
// bodies.
package event

import (
	"fmt"
	"strings"

	"github.com/1broseidon/xconform/internal/keyboard"
)

// Event is any queued event.
type Event interface {
	ImplementsEvent()
}

// WindowID identifies a toolkit window.
type WindowID uint32

// DeviceID identifies an input device.
type DeviceID uint32

// WindowEvent is an event addressed to one window.
type WindowEvent interface {
	Event
	WindowID() WindowID
}

// DeviceEvent is an event about one input device.
type DeviceEvent interface {
	Event
	DeviceID() DeviceID
}

// User is an event posted by the test body itself.
type User struct {
	Value uint64
}

// Resized reports a new inner size.
type Resized struct {
	Window        WindowID
	Width, Height int
}

// Moved reports a new outer position.
type Moved struct {
	Window WindowID
	X, Y   int
}

// CloseRequested reports that the window manager asked the window to close.
type CloseRequested struct {
	Window WindowID
}

// Destroyed reports that the window no longer exists.
type Destroyed struct {
	Window WindowID
}

// Focused reports keyboard focus changes.
type Focused struct {
	Window  WindowID
	Focused bool
}

// State of a key.
type State int

const (
	Released State = iota
	Pressed
)

func (s State) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// LogicalKey is the meaning of a key press: either a named key or the
// characters it produces.
type LogicalKey struct {
	Named string
	Char  string
}

// Character returns the logical key for a character-producing press.
func Character(s string) LogicalKey { return LogicalKey{Char: s} }

// Named returns the logical key for a named key such as "Shift".
func Named(name string) LogicalKey { return LogicalKey{Named: name} }

func (k LogicalKey) String() string {
	if k.Named != "" {
		return k.Named
	}
	return fmt.Sprintf("%q", k.Char)
}

// KeyboardInput is a key press or release delivered to a focused window.
type KeyboardInput struct {
	Window   WindowID
	Device   DeviceID
	Physical keyboard.Key
	Logical  LogicalKey
	// Text is the text the key produces; empty for modifiers and other
	// non-text keys.
	Text     string
	Location keyboard.Location
	State    State
	Repeat   bool
	// KeyWithoutModifiers is the logical key at level 1 of the active group.
	KeyWithoutModifiers LogicalKey
}

// Modifiers is the set of active modifiers.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

func (m Modifiers) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		bit  Modifiers
		name string
	}{{ModShift, "shift"}, {ModControl, "control"}, {ModAlt, "alt"}, {ModSuper, "super"}} {
		if m&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// ModifiersChanged is delivered right after the key event that changed the
// active modifier set.
type ModifiersChanged struct {
	Window    WindowID
	Modifiers Modifiers
}

// DeviceAdded reports a new input device.
type DeviceAdded struct {
	Device DeviceID
}

// DeviceRemoved reports a removed input device.
type DeviceRemoved struct {
	Device DeviceID
}

func (User) ImplementsEvent()             {}
func (Resized) ImplementsEvent()          {}
func (Moved) ImplementsEvent()            {}
func (CloseRequested) ImplementsEvent()   {}
func (Destroyed) ImplementsEvent()        {}
func (Focused) ImplementsEvent()          {}
func (KeyboardInput) ImplementsEvent()    {}
func (ModifiersChanged) ImplementsEvent() {}
func (DeviceAdded) ImplementsEvent()      {}
func (DeviceRemoved) ImplementsEvent()    {}

func (e Resized) WindowID() WindowID          { return e.Window }
func (e Moved) WindowID() WindowID            { return e.Window }
func (e CloseRequested) WindowID() WindowID   { return e.Window }
func (e Destroyed) WindowID() WindowID        { return e.Window }
func (e Focused) WindowID() WindowID          { return e.Window }
func (e KeyboardInput) WindowID() WindowID    { return e.Window }
func (e ModifiersChanged) WindowID() WindowID { return e.Window }

func (e DeviceAdded) DeviceID() DeviceID   { return e.Device }
func (e DeviceRemoved) DeviceID() DeviceID { return e.Device }
