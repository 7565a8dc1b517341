// Package xtk is the small X11 toolkit the conformance cases drive as the
// application under test. It owns its own client connection, creates and
// manipulates top-level windows through ICCCM/EWMH properties and client
// messages, and turns the X events it receives into normalized events.
package xtk

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/x11"
	"github.com/1broseidon/xconform/internal/x11/xinput"
	"github.com/1broseidon/xconform/internal/x11/xkb"
)

// Sink receives every event the toolkit produces, in order.
type Sink func(event.Event)

// App is one toolkit client connection.
type App struct {
	conn *x11.Connection
	xu   *xgbutil.XUtil
	log  *slog.Logger
	sink Sink

	// leader is an unmapped window used to wake the event loop on Close.
	leader xproto.Window

	onDispatch func()

	mu      sync.Mutex
	windows map[xproto.Window]*Window
	keys    keyState

	before, after, quit chan struct{}
	done                chan struct{}
	closeOnce           sync.Once
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithDispatchHook registers fn to run after every dispatched X event, on the
// pump goroutine.
func WithDispatchHook(fn func()) Option {
	return func(a *App) {
		a.onDispatch = fn
	}
}

// Open connects to display and starts the event pump. Events are delivered to
// sink from the pump goroutine.
func Open(display string, sink Sink, opts ...Option) (*App, error) {
	a := &App{
		log:     slog.Default(),
		sink:    sink,
		windows: make(map[xproto.Window]*Window),
		keys:    newKeyState(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("component", "xtk")

	conn, err := x11.NewConnection(display, x11.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	a.conn = conn
	a.xu = conn.XUtil

	if err := a.init(); err != nil {
		conn.Close()
		return nil, err
	}

	a.before, a.after, a.quit = xevent.MainPing(a.xu)
	go a.pump()
	return a, nil
}

func (a *App) init() error {
	c := a.conn.Conn()

	// Core key events only carry the XKB group once the client has
	// negotiated the extension.
	if err := xkb.Init(c); err != nil {
		return fmt.Errorf("xkb: %w", err)
	}
	keybind.Initialize(a.xu)

	if err := a.conn.InitRandr(); err != nil {
		return err
	}
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
	if err := a.conn.Check("RRSelectInput", randr.SelectInputChecked(c, a.conn.Root, mask)); err != nil {
		return err
	}
	if err := xinput.InitEvents(c); err != nil {
		return fmt.Errorf("xinput: %w", err)
	}
	if err := xinput.SelectDevicePresence(c, uint32(a.conn.Root)); err != nil {
		return err
	}

	// xevent has no callbacks for extension events. RandR notifications only
	// need to wake waiters, which the dispatch hook does.
	xevent.HookFun(func(_ *xgbutil.XUtil, ev interface{}) bool {
		switch e := ev.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			return false
		case xinput.DevicePresenceNotifyEvent:
			if out, ok := presenceEvent(e); ok {
				a.emit(out)
			}
			return false
		}
		return true
	}).Connect(a.xu)

	leader, err := xproto.NewWindowId(c)
	if err != nil {
		return fmt.Errorf("allocate leader window: %w", err)
	}
	err = a.conn.Check("CreateWindow", xproto.CreateWindowChecked(c,
		xproto.WindowClassCopyFromParent, leader, a.conn.Root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, xproto.WindowClassCopyFromParent,
		xproto.CwOverrideRedirect, []uint32{1}))
	if err != nil {
		return err
	}
	a.leader = leader
	return nil
}

// pump paces xevent's main loop: each before/after pair brackets the
// dispatch of exactly one event, so callbacks never run concurrently with
// each other.
func (a *App) pump() {
	defer close(a.done)
	for {
		select {
		case <-a.before:
			<-a.after
			if a.onDispatch != nil {
				a.onDispatch()
			}
		case <-a.quit:
			return
		}
	}
}

func (a *App) emit(ev event.Event) {
	if a.sink != nil {
		a.sink(ev)
	}
}

// Conn returns the toolkit's own connection.
func (a *App) Conn() *x11.Connection {
	return a.conn
}

// Monitors lists the active monitors as the toolkit sees them.
func (a *App) Monitors() ([]x11.Monitor, error) {
	return a.conn.GetMonitors()
}

func (a *App) window(id xproto.Window) *Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.windows[id]
}

// Close stops the pump and disconnects. Windows still open are destroyed by
// the server with the connection.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		xevent.Quit(a.xu)
		// A ClientMessage to our own window unblocks the pending read so the
		// loop can observe the quit flag.
		if err := a.conn.SendClientMessage(a.leader, a.leader, a.conn.Atoms.WmProtocols, xproto.EventMaskNoEvent); err != nil {
			a.log.Debug("wake event loop", "error", err)
		}
		<-a.done
		a.conn.Close()
	})
	return nil
}
