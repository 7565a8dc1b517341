package wm

import (
	"github.com/BurntSushi/xgb/xproto"
)

// State is the ICCCM WM_STATE value of a window.
type State uint32

const (
	StateWithdrawn State = 0
	StateNormal    State = 1
	StateIconic    State = 3
)

func (s State) String() string {
	switch s {
	case StateWithdrawn:
		return "withdrawn"
	case StateNormal:
		return "normal"
	case StateIconic:
		return "iconic"
	default:
		return "unknown"
	}
}

// Protocols is the set of WM_PROTOCOLS a client advertises.
type Protocols uint8

const (
	ProtoDeleteWindow Protocols = 1 << iota
	ProtoPing
)

// Size is a width/height pair.
type Size struct {
	Width, Height int
}

// Extents are frame extents in _NET_FRAME_EXTENTS order.
type Extents struct {
	Left, Right, Top, Bottom int
}

// Icon is a decoded _NET_WM_ICON entry in ARGB.
type Icon struct {
	Width, Height int
	ARGB          []uint32
}

// Window is the window manager's record of one top-level client window.
// Records handed out by the WM are copies; only the reactor mutates the
// originals.
type Window struct {
	ID    xproto.Window
	Frame xproto.Window

	// Generation counts the notifications that touched this record.
	Generation uint64

	Mapped        bool
	State         State
	Decorations   bool
	AlwaysOnTop   bool
	MaximizedHorz bool
	MaximizedVert bool
	Urgent        bool

	// X and Y are the outer position in root coordinates. Width and Height
	// are the client's inner size.
	X, Y          int
	Width, Height int
	Border        int

	MinSize *Size
	MaxSize *Size

	WmName    *string
	NetWmName *string

	Class    string
	Instance string

	Protocols Protocols
	Icon      *Icon
	Depth     int

	// iconify is set when the WM itself unmaps the window to iconify it, so
	// the resulting UnmapNotify moves it to Iconic instead of Withdrawn.
	iconify bool
}

func newWindow(id xproto.Window) *Window {
	return &Window{ID: id, State: StateWithdrawn, Decorations: true}
}

// Title returns the title when WM_NAME and _NET_WM_NAME are both present and
// agree.
func (w *Window) Title() (string, bool) {
	if w.WmName == nil || w.NetWmName == nil || *w.WmName != *w.NetWmName {
		return "", false
	}
	return *w.WmName, true
}

// Maximized returns the maximized state; ok is false while the horizontal and
// vertical flags disagree.
func (w *Window) Maximized() (maximized bool, ok bool) {
	if w.MaximizedHorz != w.MaximizedVert {
		return false, false
	}
	return w.MaximizedHorz, true
}

// Minimized reports whether the window is iconic.
func (w *Window) Minimized() bool {
	return w.State == StateIconic
}

// Resizable is false only when min and max size are equal and both match the
// current size.
func (w *Window) Resizable() bool {
	current := Size{Width: w.Width, Height: w.Height}
	return !sizeEq(w.MaxSize, &current) || !sizeEq(w.MaxSize, w.MinSize)
}

// SupportsTransparency reports whether the window has an alpha channel.
func (w *Window) SupportsTransparency() bool {
	return w.Depth == 32
}

// InnerOffset is the position of the client inside its outer frame.
func (w *Window) InnerOffset(cfg Config) (int, int) {
	e := w.FrameExtents(cfg)
	return e.Left, e.Top
}

// FrameExtents returns the decoration allowance the WM reports for the window.
func (w *Window) FrameExtents(cfg Config) Extents {
	if !w.Decorations {
		return Extents{}
	}
	b := cfg.BorderWidth
	return Extents{Left: b, Right: b, Top: b + cfg.TitleHeight, Bottom: b}
}

func sizeEq(a, b *Size) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (w *Window) clone() Window {
	cp := *w
	return cp
}
