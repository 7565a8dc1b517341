package keyboard

import (
	"fmt"
	"strings"
)

// Layout is a keyboard layout a seat can switch to.
type Layout int

const (
	Qwerty Layout = iota
	Azerty
	// QwertySwapped is Qwerty with LeftShift/RightShift and Esc/CapsLock
	// swapped. It needs its own keymap, so switching to or from it remaps.
	QwertySwapped
)

func (l Layout) String() string {
	switch l {
	case Qwerty:
		return "qwerty"
	case Azerty:
		return "azerty"
	case QwertySwapped:
		return "qwerty-swapped"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout parses the String form of a layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qwerty", "":
		return Qwerty, nil
	case "azerty":
		return Azerty, nil
	case "qwerty-swapped", "qwerty_swapped":
		return QwertySwapped, nil
	}
	return Qwerty, fmt.Errorf("unknown keyboard layout %q", s)
}

// Group is the XKB group the layout selects within its keymap.
func (l Layout) Group() uint8 {
	if l == Azerty {
		return 1
	}
	return 0
}

// Keymap returns the keymap the layout is a group of.
func (l Layout) Keymap() Keymap {
	if l == QwertySwapped {
		return swappedKeymap
	}
	return baseKeymap
}

// RemapPolicy decides when a layout switch reloads the keymap instead of only
// changing the locked group.
type RemapPolicy string

const (
	// RemapSwappedOnly remaps on the first layout and on any transition to or
	// from QwertySwapped.
	RemapSwappedOnly RemapPolicy = "swapped-only"
	// RemapAlways remaps on every change of layout.
	RemapAlways RemapPolicy = "always"
)

// ParseRemapPolicy validates a policy name.
func ParseRemapPolicy(s string) (RemapPolicy, error) {
	switch p := RemapPolicy(strings.TrimSpace(s)); p {
	case RemapSwappedOnly, RemapAlways:
		return p, nil
	case "":
		return RemapSwappedOnly, nil
	}
	return "", fmt.Errorf("unknown remap policy %q (want %q or %q)", s, RemapSwappedOnly, RemapAlways)
}

// NeedsRemap reports whether switching from prev to next must reload the
// keymap. hasPrev is false for a device that never had a layout applied.
func (p RemapPolicy) NeedsRemap(prev Layout, hasPrev bool, next Layout) bool {
	if !hasPrev {
		return true
	}
	if prev == next {
		return false
	}
	if p == RemapAlways {
		return true
	}
	return prev == QwertySwapped || next == QwertySwapped
}

// Keymap holds four keysyms per key: group 1 levels 1 and 2, group 2 levels
// 1 and 2.
type Keymap map[Key][4]Keysym

// Columns is the number of keysyms per keycode in a Keymap.
const Columns = 4

// Lookup returns the keysym of k at group and level, falling back to group 0
// when the group is empty, as the server does.
func (m Keymap) Lookup(k Key, group uint8, level uint8) Keysym {
	syms, ok := m[k]
	if !ok {
		return NoSymbol
	}
	return LookupColumns(syms, group, level)
}

// LookupColumns picks the keysym for group and level out of one keycode's
// four columns (G1L1, G1L2, G2L1, G2L2). An empty group falls back to group
// 1 and an empty level 2 falls back to level 1.
func LookupColumns(syms [Columns]Keysym, group uint8, level uint8) Keysym {
	g := int(group % 2)
	if syms[2*g] == NoSymbol && syms[2*g+1] == NoSymbol {
		g = 0
	}
	ks := syms[2*g+int(level%2)]
	if ks == NoSymbol && level > 0 {
		ks = syms[2*g]
	}
	return ks
}

// Overlay writes the keymap over base, a core keyboard mapping with per
// keysyms per keycode starting at minKeycode, and returns a mapping with
// Columns keysyms per keycode.
func (m Keymap) Overlay(base []Keysym, per int, minKeycode, maxKeycode uint8) []Keysym {
	count := int(maxKeycode) - int(minKeycode) + 1
	out := make([]Keysym, count*Columns)
	for i := 0; i < count; i++ {
		for col := 0; col < Columns && col < per; col++ {
			if idx := i*per + col; idx < len(base) {
				out[i*Columns+col] = base[idx]
			}
		}
	}
	for k, syms := range m {
		kc := int(k.Keycode())
		if kc < int(minKeycode) || kc > int(maxKeycode) {
			continue
		}
		copy(out[(kc-int(minKeycode))*Columns:], syms[:])
	}
	return out
}

func ascii(lower, upper rune) [2]Keysym {
	return [2]Keysym{Keysym(lower), Keysym(upper)}
}

func both(g1, g2 [2]Keysym) [4]Keysym {
	return [4]Keysym{g1[0], g1[1], g2[0], g2[1]}
}

func same(ks Keysym) [4]Keysym {
	return [4]Keysym{ks, NoSymbol, ks, NoSymbol}
}

// baseKeymap carries US qwerty in group 1 and French azerty in group 2.
var baseKeymap = func() Keymap {
	m := Keymap{
		Key1:          both(ascii('1', '!'), ascii('&', '1')),
		Key2:          both(ascii('2', '@'), [2]Keysym{0xe9, '2'}),
		Key3:          both(ascii('3', '#'), ascii('"', '3')),
		Key4:          both(ascii('4', '$'), ascii('\'', '4')),
		Key5:          both(ascii('5', '%'), ascii('(', '5')),
		Key6:          both(ascii('6', '^'), ascii('-', '6')),
		Key7:          both(ascii('7', '&'), [2]Keysym{0xe8, '7'}),
		Key8:          both(ascii('8', '*'), ascii('_', '8')),
		Key9:          both(ascii('9', '('), [2]Keysym{0xe7, '9'}),
		Key0:          both(ascii('0', ')'), [2]Keysym{0xe0, '0'}),
		KeyMinus:      both(ascii('-', '_'), [2]Keysym{')', 0xb0}),
		KeyEqual:      both(ascii('=', '+'), ascii('=', '+')),
		KeyLeftbrace:  both(ascii('[', '{'), [2]Keysym{XKDeadCircumflx, XKDeadDiaeresis}),
		KeyRightbrace: both(ascii(']', '}'), [2]Keysym{'$', 0xa3}),
		KeySemicolon:  both(ascii(';', ':'), ascii('m', 'M')),
		KeyApostrophe: both(ascii('\'', '"'), [2]Keysym{0xf9, '%'}),
		KeyGrave:      both(ascii('`', '~'), [2]Keysym{0xb2, NoSymbol}),
		KeyBackslash:  both(ascii('\\', '|'), [2]Keysym{'*', 0xb5}),
		KeyComma:      both(ascii(',', '<'), ascii(';', '.')),
		KeyDot:        both(ascii('.', '>'), ascii(':', '/')),
		KeySlash:      both(ascii('/', '?'), [2]Keysym{'!', 0xa7}),
		KeySpace:      same(' '),

		KeyEsc:        same(XKEscape),
		KeyBackspace:  same(XKBackSpace),
		KeyTab:        same(XKTab),
		KeyEnter:      same(XKReturn),
		KeyLeftshift:  same(XKShiftL),
		KeyRightshift: same(XKShiftR),
		KeyLeftctrl:   same(XKControlL),
		KeyRightctrl:  same(XKControlR),
		KeyLeftalt:    same(XKAltL),
		KeyRightalt:   same(XKAltR),
		KeyLeftmeta:   same(XKSuperL),
		KeyRightmeta:  same(XKSuperR),
		KeyCapslock:   same(XKCapsLock),
		KeyNumlock:    same(XKNumLock),
		KeyScrolllock: same(XKScrollLock),
		KeyMenu:       same(XKMenu),
		KeyPause:      same(XKPause),
		KeySysrq:      same(XKPrint),
		KeyHome:       same(XKHome),
		KeyEnd:        same(XKEnd),
		KeyPageup:     same(XKPrior),
		KeyPagedown:   same(XKNext),
		KeyInsert:     same(XKInsert),
		KeyDelete:     same(XKDelete),
		KeyLeft:       same(XKLeft),
		KeyRight:      same(XKRight),
		KeyUp:         same(XKUp),
		KeyDown:       same(XKDown),

		KeyKpasterisk: same(XKKPMultiply),
		KeyKpminus:    same(XKKPSubtract),
		KeyKpplus:     same(XKKPAdd),
		KeyKpslash:    same(XKKPDivide),
		KeyKpenter:    same(XKKPEnter),
		KeyKpdot:      {XKKPDelete, XKKPDecimal, XKKPDelete, XKKPDecimal},
		KeyKp0:        {XKKPInsert, XKKP0, XKKPInsert, XKKP0},
		KeyKp1:        {XKKPEnd, XKKP0 + 1, XKKPEnd, XKKP0 + 1},
		KeyKp2:        {XKKPDown, XKKP0 + 2, XKKPDown, XKKP0 + 2},
		KeyKp3:        {XKKPNext, XKKP0 + 3, XKKPNext, XKKP0 + 3},
		KeyKp4:        {XKKPLeft, XKKP0 + 4, XKKPLeft, XKKP0 + 4},
		KeyKp5:        {XKKPBegin, XKKP0 + 5, XKKPBegin, XKKP0 + 5},
		KeyKp6:        {XKKPRight, XKKP0 + 6, XKKPRight, XKKP0 + 6},
		KeyKp7:        {XKKPHome, XKKP0 + 7, XKKPHome, XKKP0 + 7},
		KeyKp8:        {XKKPUp, XKKP0 + 8, XKKPUp, XKKP0 + 8},
		KeyKp9:        {XKKPPrior, XKKP0 + 9, XKKPPrior, XKKP0 + 9},
	}

	fkeys := []Key{KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12}
	for i, k := range fkeys {
		m[k] = same(XKF1 + Keysym(i))
	}

	// Letters; azerty swaps a/q and z/w and moves m to the semicolon key,
	// leaving the m key with comma/question mark.
	letters := map[Key]rune{
		KeyA: 'a', KeyB: 'b', KeyC: 'c', KeyD: 'd', KeyE: 'e', KeyF: 'f', KeyG: 'g',
		KeyH: 'h', KeyI: 'i', KeyJ: 'j', KeyK: 'k', KeyL: 'l', KeyM: 'm', KeyN: 'n',
		KeyO: 'o', KeyP: 'p', KeyQ: 'q', KeyR: 'r', KeyS: 's', KeyT: 't', KeyU: 'u',
		KeyV: 'v', KeyW: 'w', KeyX: 'x', KeyY: 'y', KeyZ: 'z',
	}
	azerty := map[Key][2]Keysym{
		KeyA: ascii('q', 'Q'),
		KeyQ: ascii('a', 'A'),
		KeyW: ascii('z', 'Z'),
		KeyZ: ascii('w', 'W'),
		KeyM: ascii(',', '?'),
	}
	for k, r := range letters {
		g1 := ascii(r, r-'a'+'A')
		g2, ok := azerty[k]
		if !ok {
			g2 = g1
		}
		m[k] = both(g1, g2)
	}
	return m
}()

var swappedKeymap = func() Keymap {
	m := make(Keymap, len(baseKeymap))
	for k, v := range baseKeymap {
		m[k] = v
	}
	m[KeyLeftshift], m[KeyRightshift] = baseKeymap[KeyRightshift], baseKeymap[KeyLeftshift]
	m[KeyEsc], m[KeyCapslock] = baseKeymap[KeyCapslock], baseKeymap[KeyEsc]
	return m
}()
