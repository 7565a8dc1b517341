package keyboard

import (
	"fmt"

	"github.com/ThomasT75/uinput"
)

// Key is a physical key of the 104-key PC keyboard.
type Key int

const (
	KeyUnknown Key = iota
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyApostrophe
	KeyB
	KeyBackslash
	KeyBackspace
	KeyC
	KeyCapslock
	KeyComma
	KeyD
	KeyDelete
	KeyDot
	KeyDown
	KeyE
	KeyEnd
	KeyEnter
	KeyEqual
	KeyEsc
	KeyF
	KeyF1
	KeyF10
	KeyF11
	KeyF12
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyG
	KeyGrave
	KeyH
	KeyHome
	KeyI
	KeyInsert
	KeyJ
	KeyK
	KeyKp0
	KeyKp1
	KeyKp2
	KeyKp3
	KeyKp4
	KeyKp5
	KeyKp6
	KeyKp7
	KeyKp8
	KeyKp9
	KeyKpasterisk
	KeyKpdot
	KeyKpenter
	KeyKpminus
	KeyKpplus
	KeyKpslash
	KeyL
	KeyLeft
	KeyLeftalt
	KeyLeftbrace
	KeyLeftctrl
	KeyLeftmeta
	KeyLeftshift
	KeyM
	KeyMenu
	KeyMinus
	KeyN
	KeyNumlock
	KeyO
	KeyP
	KeyPagedown
	KeyPageup
	KeyPause
	KeyQ
	KeyR
	KeyRight
	KeyRightalt
	KeyRightbrace
	KeyRightctrl
	KeyRightmeta
	KeyRightshift
	KeyS
	KeyScrolllock
	KeySemicolon
	KeySlash
	KeySpace
	KeySysrq
	KeyT
	KeyTab
	KeyU
	KeyUp
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
)

// Keys lists every known key.
func Keys() []Key {
	keys := make([]Key, 0, len(evdevCodes))
	for k := Key0; k <= KeyZ; k++ {
		keys = append(keys, k)
	}
	return keys
}

var keyNames = map[Key]string{
	Key0: "Key0",
	Key1: "Key1",
	Key2: "Key2",
	Key3: "Key3",
	Key4: "Key4",
	Key5: "Key5",
	Key6: "Key6",
	Key7: "Key7",
	Key8: "Key8",
	Key9: "Key9",
	KeyA: "KeyA",
	KeyApostrophe: "KeyApostrophe",
	KeyB: "KeyB",
	KeyBackslash: "KeyBackslash",
	KeyBackspace: "KeyBackspace",
	KeyC: "KeyC",
	KeyCapslock: "KeyCapslock",
	KeyComma: "KeyComma",
	KeyD: "KeyD",
	KeyDelete: "KeyDelete",
	KeyDot: "KeyDot",
	KeyDown: "KeyDown",
	KeyE: "KeyE",
	KeyEnd: "KeyEnd",
	KeyEnter: "KeyEnter",
	KeyEqual: "KeyEqual",
	KeyEsc: "KeyEsc",
	KeyF: "KeyF",
	KeyF1: "KeyF1",
	KeyF10: "KeyF10",
	KeyF11: "KeyF11",
	KeyF12: "KeyF12",
	KeyF2: "KeyF2",
	KeyF3: "KeyF3",
	KeyF4: "KeyF4",
	KeyF5: "KeyF5",
	KeyF6: "KeyF6",
	KeyF7: "KeyF7",
	KeyF8: "KeyF8",
	KeyF9: "KeyF9",
	KeyG: "KeyG",
	KeyGrave: "KeyGrave",
	KeyH: "KeyH",
	KeyHome: "KeyHome",
	KeyI: "KeyI",
	KeyInsert: "KeyInsert",
	KeyJ: "KeyJ",
	KeyK: "KeyK",
	KeyKp0: "KeyKp0",
	KeyKp1: "KeyKp1",
	KeyKp2: "KeyKp2",
	KeyKp3: "KeyKp3",
	KeyKp4: "KeyKp4",
	KeyKp5: "KeyKp5",
	KeyKp6: "KeyKp6",
	KeyKp7: "KeyKp7",
	KeyKp8: "KeyKp8",
	KeyKp9: "KeyKp9",
	KeyKpasterisk: "KeyKpasterisk",
	KeyKpdot: "KeyKpdot",
	KeyKpenter: "KeyKpenter",
	KeyKpminus: "KeyKpminus",
	KeyKpplus: "KeyKpplus",
	KeyKpslash: "KeyKpslash",
	KeyL: "KeyL",
	KeyLeft: "KeyLeft",
	KeyLeftalt: "KeyLeftalt",
	KeyLeftbrace: "KeyLeftbrace",
	KeyLeftctrl: "KeyLeftctrl",
	KeyLeftmeta: "KeyLeftmeta",
	KeyLeftshift: "KeyLeftshift",
	KeyM: "KeyM",
	KeyMenu: "KeyMenu",
	KeyMinus: "KeyMinus",
	KeyN: "KeyN",
	KeyNumlock: "KeyNumlock",
	KeyO: "KeyO",
	KeyP: "KeyP",
	KeyPagedown: "KeyPagedown",
	KeyPageup: "KeyPageup",
	KeyPause: "KeyPause",
	KeyQ: "KeyQ",
	KeyR: "KeyR",
	KeyRight: "KeyRight",
	KeyRightalt: "KeyRightalt",
	KeyRightbrace: "KeyRightbrace",
	KeyRightctrl: "KeyRightctrl",
	KeyRightmeta: "KeyRightmeta",
	KeyRightshift: "KeyRightshift",
	KeyS: "KeyS",
	KeyScrolllock: "KeyScrolllock",
	KeySemicolon: "KeySemicolon",
	KeySlash: "KeySlash",
	KeySpace: "KeySpace",
	KeySysrq: "KeySysrq",
	KeyT: "KeyT",
	KeyTab: "KeyTab",
	KeyU: "KeyU",
	KeyUp: "KeyUp",
	KeyV: "KeyV",
	KeyW: "KeyW",
	KeyX: "KeyX",
	KeyY: "KeyY",
	KeyZ: "KeyZ",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// evdevCodes maps keys to Linux input event codes.
var evdevCodes = map[Key]uint32{
	Key0: uinput.Key0,
	Key1: uinput.Key1,
	Key2: uinput.Key2,
	Key3: uinput.Key3,
	Key4: uinput.Key4,
	Key5: uinput.Key5,
	Key6: uinput.Key6,
	Key7: uinput.Key7,
	Key8: uinput.Key8,
	Key9: uinput.Key9,
	KeyA: uinput.KeyA,
	KeyApostrophe: uinput.KeyApostrophe,
	KeyB: uinput.KeyB,
	KeyBackslash: uinput.KeyBackslash,
	KeyBackspace: uinput.KeyBackspace,
	KeyC: uinput.KeyC,
	KeyCapslock: uinput.KeyCapslock,
	KeyComma: uinput.KeyComma,
	KeyD: uinput.KeyD,
	KeyDelete: uinput.KeyDelete,
	KeyDot: uinput.KeyDot,
	KeyDown: uinput.KeyDown,
	KeyE: uinput.KeyE,
	KeyEnd: uinput.KeyEnd,
	KeyEnter: uinput.KeyEnter,
	KeyEqual: uinput.KeyEqual,
	KeyEsc: uinput.KeyEsc,
	KeyF: uinput.KeyF,
	KeyF1: uinput.KeyF1,
	KeyF10: uinput.KeyF10,
	KeyF11: uinput.KeyF11,
	KeyF12: uinput.KeyF12,
	KeyF2: uinput.KeyF2,
	KeyF3: uinput.KeyF3,
	KeyF4: uinput.KeyF4,
	KeyF5: uinput.KeyF5,
	KeyF6: uinput.KeyF6,
	KeyF7: uinput.KeyF7,
	KeyF8: uinput.KeyF8,
	KeyF9: uinput.KeyF9,
	KeyG: uinput.KeyG,
	KeyGrave: uinput.KeyGrave,
	KeyH: uinput.KeyH,
	KeyHome: uinput.KeyHome,
	KeyI: uinput.KeyI,
	KeyInsert: uinput.KeyInsert,
	KeyJ: uinput.KeyJ,
	KeyK: uinput.KeyK,
	KeyKp0: uinput.KeyKp0,
	KeyKp1: uinput.KeyKp1,
	KeyKp2: uinput.KeyKp2,
	KeyKp3: uinput.KeyKp3,
	KeyKp4: uinput.KeyKp4,
	KeyKp5: uinput.KeyKp5,
	KeyKp6: uinput.KeyKp6,
	KeyKp7: uinput.KeyKp7,
	KeyKp8: uinput.KeyKp8,
	KeyKp9: uinput.KeyKp9,
	KeyKpasterisk: uinput.KeyKpasterisk,
	KeyKpdot: uinput.KeyKpdot,
	KeyKpenter: uinput.KeyKpenter,
	KeyKpminus: uinput.KeyKpminus,
	KeyKpplus: uinput.KeyKpplus,
	KeyKpslash: uinput.KeyKpslash,
	KeyL: uinput.KeyL,
	KeyLeft: uinput.KeyLeft,
	KeyLeftalt: uinput.KeyLeftalt,
	KeyLeftbrace: uinput.KeyLeftbrace,
	KeyLeftctrl: uinput.KeyLeftctrl,
	KeyLeftmeta: uinput.KeyLeftmeta,
	KeyLeftshift: uinput.KeyLeftshift,
	KeyM: uinput.KeyM,
	KeyMenu: uinput.KeyMenu,
	KeyMinus: uinput.KeyMinus,
	KeyN: uinput.KeyN,
	KeyNumlock: uinput.KeyNumlock,
	KeyO: uinput.KeyO,
	KeyP: uinput.KeyP,
	KeyPagedown: uinput.KeyPagedown,
	KeyPageup: uinput.KeyPageup,
	KeyPause: uinput.KeyPause,
	KeyQ: uinput.KeyQ,
	KeyR: uinput.KeyR,
	KeyRight: uinput.KeyRight,
	KeyRightalt: uinput.KeyRightalt,
	KeyRightbrace: uinput.KeyRightbrace,
	KeyRightctrl: uinput.KeyRightctrl,
	KeyRightmeta: uinput.KeyRightmeta,
	KeyRightshift: uinput.KeyRightshift,
	KeyS: uinput.KeyS,
	KeyScrolllock: uinput.KeyScrolllock,
	KeySemicolon: uinput.KeySemicolon,
	KeySlash: uinput.KeySlash,
	KeySpace: uinput.KeySpace,
	KeySysrq: uinput.KeySysrq,
	KeyT: uinput.KeyT,
	KeyTab: uinput.KeyTab,
	KeyU: uinput.KeyU,
	KeyUp: uinput.KeyUp,
	KeyV: uinput.KeyV,
	KeyW: uinput.KeyW,
	KeyX: uinput.KeyX,
	KeyY: uinput.KeyY,
	KeyZ: uinput.KeyZ,
}

var keysByEvdev = func() map[uint32]Key {
	m := make(map[uint32]Key, len(evdevCodes))
	for k, code := range evdevCodes {
		m[code] = k
	}
	return m
}()

// Evdev returns the Linux input event code of k.
func (k Key) Evdev() uint32 {
	return evdevCodes[k]
}

// Keycode returns the X keycode the server assigns to k: the evdev code
// offset by 8.
func (k Key) Keycode() uint8 {
	return uint8(evdevCodes[k] + 8)
}

// FromKeycode maps an X keycode back to a key.
func FromKeycode(keycode uint8) Key {
	if keycode < 8 {
		return KeyUnknown
	}
	if k, ok := keysByEvdev[uint32(keycode)-8]; ok {
		return k
	}
	return KeyUnknown
}

// Location distinguishes keys that exist more than once on the keyboard.
type Location int

const (
	LocationStandard Location = iota
	LocationLeft
	LocationRight
	LocationNumpad
)

func (l Location) String() string {
	switch l {
	case LocationLeft:
		return "left"
	case LocationRight:
		return "right"
	case LocationNumpad:
		return "numpad"
	default:
		return "standard"
	}
}

// Location returns where k sits on the keyboard.
func (k Key) Location() Location {
	switch k {
	case KeyLeftshift, KeyLeftctrl, KeyLeftalt, KeyLeftmeta:
		return LocationLeft
	case KeyRightshift, KeyRightctrl, KeyRightalt, KeyRightmeta:
		return LocationRight
	case KeyKp0, KeyKp1, KeyKp2, KeyKp3, KeyKp4, KeyKp5, KeyKp6, KeyKp7, KeyKp8, KeyKp9,
		KeyKpasterisk, KeyKpdot, KeyKpenter, KeyKpminus, KeyKpplus, KeyKpslash, KeyNumlock:
		return LocationNumpad
	}
	return LocationStandard
}
