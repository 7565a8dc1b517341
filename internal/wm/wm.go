// Package wm is the minimal reparenting window manager the conformance
// harness runs inside every X server. It records, per top-level client, the
// properties tests assert on and wakes waiters whenever a batch of events
// changes anything.
package wm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/xconform/internal/notify"
	"github.com/1broseidon/xconform/internal/x11"
)

// Name is written to _NET_WM_NAME of the supporting check window.
const Name = "xconform"

// Defaults for the decoration allowance.
const (
	DefaultBorderWidth = 5
	DefaultTitleHeight = 20
)

// ErrUnknownWindow is returned for operations on windows the WM has no record
// of.
var ErrUnknownWindow = errors.New("wm: unknown window")

// ErrOtherWM is returned by Start when another client already holds
// substructure redirection on the root window.
var ErrOtherWM = errors.New("wm: another window manager is running")

// Config configures the decoration allowance reported through
// _NET_FRAME_EXTENTS.
type Config struct {
	BorderWidth int
	TitleHeight int
	Logger      *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.BorderWidth <= 0 {
		c.BorderWidth = DefaultBorderWidth
	}
	if c.TitleHeight <= 0 {
		c.TitleHeight = DefaultTitleHeight
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// WM is the window manager reactor. Record fields are only written on the
// reactor goroutine, under mu, so the reactor reads them without locking;
// everyone else takes copies. The maps are always accessed under mu.
type WM struct {
	conn  *x11.Connection
	cfg   Config
	log   *slog.Logger
	check xproto.Window

	mu      sync.Mutex
	windows map[xproto.Window]*Window
	frames  map[xproto.Window]xproto.Window // frame -> client
	pongs   map[xproto.Window]struct{}
	err     error

	changed notify.Generation
	done    chan struct{}
	cancel  context.CancelFunc
}

// Start makes conn the window manager of its screen and runs the reactor until
// ctx is cancelled, the connection closes, or a request the WM depends on is
// rejected.
func Start(ctx context.Context, conn *x11.Connection, cfg Config) (*WM, error) {
	cfg = cfg.withDefaults()
	w := &WM{
		conn:    conn,
		cfg:     cfg,
		log:     cfg.Logger.With("component", "wm"),
		windows: make(map[xproto.Window]*Window),
		frames:  make(map[xproto.Window]xproto.Window),
		pongs:   make(map[xproto.Window]struct{}),
		done:    make(chan struct{}),
	}
	if err := w.become(); err != nil {
		return nil, err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	return w, nil
}

// become selects substructure redirection on the root window and publishes the
// EWMH supporting check window.
func (w *WM) become() error {
	c := w.conn.Conn()
	mask := uint32(xproto.EventMaskSubstructureRedirect |
		xproto.EventMaskSubstructureNotify |
		xproto.EventMaskPropertyChange)
	err := w.conn.Check("ChangeWindowAttributes", xproto.ChangeWindowAttributesChecked(
		c, w.conn.Root, xproto.CwEventMask, []uint32{mask}))
	if err != nil {
		if x11.IsProtocolError(err, x11.BadAccess) {
			return ErrOtherWM
		}
		return err
	}

	check, err := xproto.NewWindowId(c)
	if err != nil {
		return fmt.Errorf("allocate check window: %w", err)
	}
	err = w.conn.Check("CreateWindow", xproto.CreateWindowChecked(c,
		xproto.WindowClassCopyFromParent, check, w.conn.Root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, xproto.WindowClassCopyFromParent,
		xproto.CwOverrideRedirect, []uint32{1}))
	if err != nil {
		return err
	}
	w.check = check

	xu := w.conn.XUtil
	if err := ewmh.SupportingWmCheckSet(xu, w.conn.Root, check); err != nil {
		return fmt.Errorf("set supporting wm check: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(xu, check, check); err != nil {
		return fmt.Errorf("set supporting wm check: %w", err)
	}
	if err := ewmh.WmNameSet(xu, check, Name); err != nil {
		return fmt.Errorf("set wm name: %w", err)
	}
	if err := ewmh.SupportedSet(xu, x11.SupportedNames()); err != nil {
		return fmt.Errorf("set supported: %w", err)
	}
	return nil
}

// eventQueue bounds how far the reader may run ahead of the reactor.
const eventQueue = 256

func (w *WM) run(ctx context.Context) {
	defer close(w.done)
	defer w.changed.Close()

	events := make(chan xgb.Event, eventQueue)
	errs := make(chan error, 1)
	go w.read(ctx, events, errs)

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			w.fail(err)
			return
		case ev := <-events:
			if err := w.batch(ev, events); err != nil {
				w.fail(err)
				return
			}
		}
	}
}

// read is the only consumer of the connection's event queue. WaitForEvent
// blocks, so it lives on its own goroutine and exits when the connection is
// closed.
func (w *WM) read(ctx context.Context, events chan<- xgb.Event, errs chan<- error) {
	c := w.conn.Conn()
	for {
		ev, xerr := c.WaitForEvent()
		if ev == nil && xerr == nil {
			errs <- x11.ErrConnectionClosed
			return
		}
		if xerr != nil {
			// Errors for unchecked requests; the window they name is usually
			// already gone.
			w.log.Debug("unchecked request failed", "error", xerr)
			continue
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// batch handles first plus everything the reader has already queued behind
// it, then bumps the global generation once if anything changed.
func (w *WM) batch(first xgb.Event, events <-chan xgb.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = perr
		}
	}()

	if drain(first, events, w.handle) {
		w.changed.Bump()
	}
	return nil
}

// drain applies handle to first and then to each queued event in arrival
// order, stopping once the queue is empty. It reports whether any call
// returned true.
func drain(first xgb.Event, events <-chan xgb.Event, handle func(xgb.Event) bool) bool {
	dirty := handle(first)
	for {
		select {
		case ev := <-events:
			if handle(ev) {
				dirty = true
			}
		default:
			return dirty
		}
	}
}

func (w *WM) fail(err error) {
	if errors.Is(err, x11.ErrConnectionClosed) {
		w.log.Debug("connection closed")
	} else {
		w.log.Error("window manager stopped", "error", err)
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

// Err returns the error that stopped the reactor, if any.
func (w *WM) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Done is closed when the reactor stops.
func (w *WM) Done() <-chan struct{} {
	return w.done
}

// Close stops the reactor. The connection is owned by the caller.
func (w *WM) Close() {
	w.cancel()
	<-w.done
}

// Config returns the effective configuration.
func (w *WM) Config() Config {
	return w.cfg
}

// Generation is bumped once per batch of events that changed any record.
func (w *WM) Generation() *notify.Generation {
	return &w.changed
}
