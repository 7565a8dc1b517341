// Package x11 wraps the X11 wire connection used by the window manager, the
// seat controller and the conformance toolkit: atom caching, checked request
// error translation, client messages, monitors and images.
package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	Screen *xproto.ScreenInfo
	Atoms  *Atoms

	display string
	log     *slog.Logger
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for swallowed teardown errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.log = l
		}
	}
}

// NewConnection connects to display (for example ":3") and interns the atom
// table. Any failure is reported as a *ConnectionError.
func NewConnection(display string, opts ...Option) (*Connection, error) {
	c := &Connection{display: display, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, &ConnectionError{Display: display, Err: err}
	}
	c.XUtil = xu
	c.Root = xu.RootWin()
	c.Screen = xu.Screen()

	atoms, err := internAtoms(xu)
	if err != nil {
		xu.Conn().Close()
		return nil, &ConnectionError{Display: display, Err: err}
	}
	c.Atoms = atoms
	return c, nil
}

// Conn returns the underlying xgb connection.
func (c *Connection) Conn() *xgb.Conn {
	return c.XUtil.Conn()
}

// Display returns the display name this connection was opened with.
func (c *Connection) Display() string {
	return c.display
}

// Logger returns the connection's logger.
func (c *Connection) Logger() *slog.Logger {
	return c.log
}

// Atom interns name, hitting the per-connection cache after the first call.
func (c *Connection) Atom(name string) (xproto.Atom, error) {
	return atom(c.XUtil, name)
}

// Check waits for a checked request and translates a server rejection into a
// *ProtocolError naming op.
func (c *Connection) Check(op string, cookie interface{ Check() error }) error {
	return Translate(op, cookie.Check())
}

// MustCheck is Check for paths where a rejected request means the window table
// is out of sync with the server. Rejections with one of the tolerated codes
// are logged and reported as false; any other rejection panics with the
// *ProtocolError.
func (c *Connection) MustCheck(op string, cookie interface{ Check() error }, tolerated ...uint8) bool {
	err := c.Check(op, cookie)
	if err == nil {
		return true
	}
	for _, code := range tolerated {
		if IsProtocolError(err, code) {
			c.log.Debug("request rejected", "op", op, "error", err)
			return false
		}
	}
	panic(err)
}

// CheckQuiet is Check for teardown paths: failures are logged and dropped.
func (c *Connection) CheckQuiet(op string, cookie interface{ Check() error }) {
	if err := c.Check(op, cookie); err != nil {
		c.log.Debug("ignoring teardown error", "op", op, "error", err)
	}
}

// Sync round-trips to the server so every request sent so far has been
// processed.
func (c *Connection) Sync() error {
	if _, err := xproto.GetInputFocus(c.Conn()).Reply(); err != nil {
		return Translate("GetInputFocus", err)
	}
	return nil
}

// Geometry returns the window's geometry relative to its parent.
func (c *Connection) Geometry(win xproto.Window) (*xproto.GetGeometryReply, error) {
	reply, err := xproto.GetGeometry(c.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, Translate("GetGeometry", err)
	}
	return reply, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

func (c *Connection) String() string {
	return fmt.Sprintf("x11(%s)", c.display)
}
