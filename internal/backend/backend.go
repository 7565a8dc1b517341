// Package backend defines the capability sets a windowing backend offers to
// conformance tests: instances of a display server, event loops of the
// toolkit under test, windows as the window manager sees them, and seats
// with virtual keyboards.
package backend

import (
	"context"
	"log/slog"

	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/toolkit/xtk"
)

// Backend is a windowing system the harness can run tests against.
type Backend interface {
	Name() string
	Flags() Flags
	// Instantiate starts a fresh display server. Everything the instance
	// writes goes below env.Dir.
	Instantiate(ctx context.Context, env Env) (Instance, error)
}

// Env is what the runner hands to a new instance.
type Env struct {
	// Dir is the test's output directory.
	Dir    string
	Logger *slog.Logger
}

// Instance is one running display server with its window manager.
type Instance interface {
	Backend() Backend
	// DefaultSeat returns the server's core seat. Every call returns a handle
	// to the same seat.
	DefaultSeat() Seat
	CreateSeat() (Seat, error)
	CreateEventLoop() (EventLoop, error)
	// Screenshot writes the current screen contents into the test directory.
	Screenshot(name string) error
	EnableSecondMonitor(enable bool) error
	Close() error
}

// EventLoop is one toolkit connection to the instance.
type EventLoop interface {
	// Next pops the oldest queued event. Concurrent callers race; each
	// event is received by exactly one of them.
	Next(ctx context.Context) (event.Event, error)
	// Await blocks until cond holds. cond is re-evaluated after every batch
	// of toolkit events.
	Await(ctx context.Context, cond func() bool) error
	CreateWindow(attrs xtk.Attributes) (Window, error)
	// SendEvent queues a user event behind everything already queued.
	SendEvent(ev event.User)
	Monitors() ([]Monitor, error)
	Logger() *slog.Logger
	Close() error
}

// ToolkitWindow is the toolkit side of a window: the requests an
// application makes about its own window.
type ToolkitWindow interface {
	EventID() event.WindowID
	Size() xtk.Size
	Position() (x, y int, ok bool)
	SetVisible(visible bool) error
	SetTitle(title string) error
	SetDecorations(on bool) error
	SetInnerSize(width, height int) error
	SetOuterPosition(x, y int) error
	SetMinimized(minimized bool) error
	SetMaximized(maximized bool) error
	SetAlwaysOnTop(on bool) error
	SetMinSize(size *xtk.Size) error
	SetMaxSize(size *xtk.Size) error
	SetResizable(resizable bool) error
	RequestAttention(urgent bool) error
	SetIcon(icon *xtk.Icon) error
}

// Window is a toolkit window together with the window manager's view of it.
type Window interface {
	ID() event.WindowID
	Toolkit() ToolkitWindow
	EventLoop() EventLoop
	// Properties returns the window manager's current record.
	Properties() Properties
	// Await blocks until cond holds for the window manager's record.
	Await(ctx context.Context, cond func(Properties) bool) error
	SetBackgroundColor(r, g, b uint8) error
	// Delete asks the window to close the way a user would.
	Delete() error
	FrameExtents() Extents
	SetOuterPosition(x, y int) error
	SetInnerSize(width, height int) error
	// Ping waits until the client answers a _NET_WM_PING. Only ctx bounds
	// the wait.
	Ping(ctx context.Context) error
	// WmState reads the WM_STATE property back from the server.
	WmState() (WmState, error)
	Close() error
}

// WmState is an ICCCM WM_STATE value.
type WmState uint32

const (
	WmStateWithdrawn WmState = 0
	WmStateNormal    WmState = 1
	WmStateIconic    WmState = 3
)

// Seat is a master pointer/keyboard pair.
type Seat interface {
	AddKeyboard() (Keyboard, error)
	Focus(w Window) error
	SetLayout(layout keyboard.Layout) error
	Close() error
}

// Keyboard is a virtual keyboard attached to a seat.
type Keyboard interface {
	ID() event.DeviceID
	// Press holds key down until every handle returned for it has been
	// released.
	Press(key keyboard.Key) (*PressedKey, error)
	Close() error
}

// Monitor is an active output.
type Monitor struct {
	Name          string
	X, Y          int
	Width, Height int
	Primary       bool
}

// Size is a width/height pair.
type Size struct {
	Width, Height int
}

// Extents are frame extents: left, right, top, bottom.
type Extents struct {
	Left, Right, Top, Bottom int
}

// Icon is a window icon in ARGB.
type Icon struct {
	Width, Height int
	ARGB          []uint32
}

// Properties is the window manager's record of a window. Pairs of a value
// and an ok flag report properties that can be undetermined.
type Properties struct {
	// Exists is false before the window manager has seen the window and
	// after it was destroyed.
	Exists bool

	Mapped      bool
	AlwaysOnTop bool
	Decorations bool
	Attention   bool

	X, Y          int
	Width, Height int

	MinSize *Size
	MaxSize *Size

	Title   string
	TitleOK bool

	Maximized   bool
	MaximizedOK bool
	Minimized   bool
	MinimizedOK bool
	Resizable   bool
	ResizableOK bool

	Class    string
	Instance string

	SupportsTransparency bool
	Icon                 *Icon
}

// InnerOffset is the position of the client area relative to the outer
// position.
func (e Extents) InnerOffset() (int, int) {
	return e.Left, e.Top
}
