package x11backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/wm"
	"github.com/1broseidon/xconform/internal/x11"
	"github.com/1broseidon/xconform/internal/x11/xinput"
	"github.com/1broseidon/xconform/internal/x11/xkb"
	"github.com/1broseidon/xconform/internal/xserver"
)

// Instance is one private X server, its window manager and the harness
// connection used for seat and device requests.
type Instance struct {
	backend *Backend
	server  *xserver.Server
	dir     string
	log     *slog.Logger

	conn *x11.Connection
	wm   *wm.WM

	corePointer  uint16
	coreKeyboard uint16
	coreLayout   *layoutState

	mu        sync.Mutex
	loops     map[*eventLoop]struct{}
	seats     int
	closeOnce sync.Once
}

var _ backend.Instance = (*Instance)(nil)

func newInstance(b *Backend, srv *xserver.Server, dir string, log *slog.Logger) *Instance {
	return &Instance{
		backend:    b,
		server:     srv,
		dir:        dir,
		log:        log.With("display", srv.Display),
		coreLayout: &layoutState{layout: keyboard.Qwerty, applied: true},
		loops:      make(map[*eventLoop]struct{}),
	}
}

func (i *Instance) init(ctx context.Context) error {
	conn, err := x11.NewConnection(i.server.Display, x11.WithLogger(i.log))
	if err != nil {
		return err
	}
	i.conn = conn
	c := conn.Conn()

	if err := conn.FillBackground(i.backend.opts.Background); err != nil {
		return fmt.Errorf("fill background: %w", err)
	}
	if err := xkb.Init(c); err != nil {
		return fmt.Errorf("xkb: %w", err)
	}
	if err := xinput.Init(c); err != nil {
		return fmt.Errorf("xinput: %w", err)
	}
	if err := i.findCoreDevices(); err != nil {
		return err
	}

	cfg := i.backend.opts.WM
	cfg.Logger = i.log
	w, err := wm.Start(ctx, conn, cfg)
	if err != nil {
		return fmt.Errorf("start window manager: %w", err)
	}
	i.wm = w
	i.log.Info("instance ready", "core_pointer", i.corePointer, "core_keyboard", i.coreKeyboard)
	return nil
}

// findCoreDevices locates the virtual core pointer and its paired keyboard.
func (i *Instance) findCoreDevices() error {
	devices, err := xinput.QueryDevice(i.conn.Conn(), xinput.AllMasterDevices)
	if err != nil {
		return fmt.Errorf("query master devices: %w", err)
	}
	p, kb, ok := corePair(devices)
	if !ok {
		return errors.New("server has no master pointer")
	}
	i.corePointer, i.coreKeyboard = p, kb
	return nil
}

// corePair returns the first master pointer and the keyboard attached to it.
func corePair(devices []xinput.DeviceInfo) (pointer, kbd uint16, ok bool) {
	for _, d := range devices {
		if d.Use == xinput.MasterPointer {
			return d.ID, d.Attachment, true
		}
	}
	return 0, 0, false
}

func (i *Instance) Backend() backend.Backend {
	return i.backend
}

// DefaultSeat returns the core seat. Its layout is shared by every handle.
func (i *Instance) DefaultSeat() backend.Seat {
	return &seat{
		inst:     i,
		pointer:  i.corePointer,
		keyboard: i.coreKeyboard,
		layout:   i.coreLayout,
		core:     true,
	}
}

// CreateSeat adds a new master pointer/keyboard pair.
func (i *Instance) CreateSeat() (backend.Seat, error) {
	i.mu.Lock()
	i.seats++
	name := fmt.Sprintf("xconform-seat-%d", i.seats)
	i.mu.Unlock()

	c := i.conn.Conn()
	if err := xinput.ChangeHierarchy(c, xinput.AddMaster{Name: name, SendCore: true, Enable: true}); err != nil {
		return nil, fmt.Errorf("add master %s: %w", name, err)
	}
	devices, err := xinput.QueryDevice(c, xinput.AllMasterDevices)
	if err != nil {
		return nil, fmt.Errorf("query master devices: %w", err)
	}
	p, kb, ok := masterByName(devices, name+" pointer")
	if !ok {
		return nil, fmt.Errorf("master %s not found after creation", name)
	}
	i.log.Info("created seat", "seat", name, "pointer", p, "keyboard", kb)
	return &seat{
		inst:     i,
		name:     name,
		pointer:  p,
		keyboard: kb,
		layout:   &layoutState{layout: keyboard.Qwerty},
	}, nil
}

func masterByName(devices []xinput.DeviceInfo, name string) (pointer, kbd uint16, ok bool) {
	for _, d := range devices {
		if d.Use == xinput.MasterPointer && d.Name == name {
			return d.ID, d.Attachment, true
		}
	}
	return 0, 0, false
}

// CreateEventLoop connects a new toolkit client.
func (i *Instance) CreateEventLoop() (backend.EventLoop, error) {
	el, err := newEventLoop(i)
	if err != nil {
		return nil, err
	}
	i.mu.Lock()
	i.loops[el] = struct{}{}
	i.mu.Unlock()
	return el, nil
}

func (i *Instance) dropLoop(el *eventLoop) {
	i.mu.Lock()
	delete(i.loops, el)
	i.mu.Unlock()
}

// Screenshot writes the root window to screenshot-<name>.png in the test
// directory.
func (i *Instance) Screenshot(name string) error {
	img, err := i.conn.Screenshot()
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	path := filepath.Join(i.dir, fmt.Sprintf("screenshot-%s.png", name))
	if err := x11.WritePNG(path, img); err != nil {
		return err
	}
	i.log.Info("saved screenshot", "path", path)
	return nil
}

// EnableSecondMonitor connects or disconnects the companion's second output.
func (i *Instance) EnableSecondMonitor(enable bool) error {
	return i.server.Channel.EnableSecondMonitor(enable)
}

// Close tears down event loops, the window manager and the server, in that
// order. Errors are logged.
func (i *Instance) Close() error {
	i.closeOnce.Do(func() {
		i.mu.Lock()
		loops := make([]*eventLoop, 0, len(i.loops))
		for el := range i.loops {
			loops = append(loops, el)
		}
		i.mu.Unlock()
		for _, el := range loops {
			if err := el.Close(); err != nil {
				i.log.Warn("closing event loop", "error", err)
			}
		}
		if i.wm != nil {
			i.wm.Close()
		}
		var closeConn func()
		if i.conn != nil {
			closeConn = i.conn.Close
		}
		teardown(i.log, i.server.Close, closeConn)
	})
	return nil
}

// teardown kills the server, then closes the harness connection.
func teardown(log *slog.Logger, stopServer func() error, closeConn func()) {
	if err := stopServer(); err != nil {
		log.Warn("stopping X server", "error", err)
	}
	if closeConn != nil {
		closeConn()
	}
}
