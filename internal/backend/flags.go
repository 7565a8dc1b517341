package backend

import (
	"math/bits"
	"strings"
)

// Flags is the set of capabilities a backend declares. Tests name the flags
// they require and are skipped on backends that lack any of them.
type Flags uint32

const (
	FlagMTSafe Flags = 1 << iota
	FlagSetAlwaysOnTop
	FlagDecorations
	FlagInnerSize
	FlagOuterPosition
	FlagTitle
	FlagMaximized
	FlagSizeBounds
	FlagAttention
	FlagX11
	FlagMinimized
	FlagVisible
	FlagResizable
	FlagTransparency
	FlagIcon
	FlagSetOuterPosition
	FlagSetInnerSize
	FlagDeviceAdded
	FlagDeviceRemoved
	FlagCreateSeat
	FlagSecondMonitor
	FlagMonitorNames
	FlagSingleThreaded
)

// NonRequirementFlags describe how a test must be run rather than what the
// backend must support. They never cause a skip.
const NonRequirementFlags = FlagSingleThreaded

var flagNames = []string{
	"mt-safe",
	"set-always-on-top",
	"decorations",
	"inner-size",
	"outer-position",
	"title",
	"maximized",
	"size-bounds",
	"attention",
	"x11",
	"minimized",
	"visible",
	"resizable",
	"transparency",
	"icon",
	"set-outer-position",
	"set-inner-size",
	"device-added",
	"device-removed",
	"create-seat",
	"second-monitor",
	"monitor-names",
	"single-threaded",
}

// Has reports whether every flag in want is set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Missing returns the flags required by a test that f lacks.
func (f Flags) Missing(required Flags) Flags {
	return required &^ NonRequirementFlags &^ f
}

// Names returns the flag names, lowest bit first.
func (f Flags) Names() []string {
	var names []string
	for f != 0 {
		bit := bits.TrailingZeros32(uint32(f))
		if bit < len(flagNames) {
			names = append(names, flagNames[bit])
		} else {
			names = append(names, "unknown")
		}
		f &^= 1 << bit
	}
	return names
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// ParseFlag returns the flag with the given name.
func ParseFlag(name string) (Flags, bool) {
	for i, n := range flagNames {
		if n == name {
			return 1 << i, true
		}
	}
	return 0, false
}
