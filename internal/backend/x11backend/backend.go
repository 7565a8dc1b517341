// Package x11backend runs conformance tests against a private Xorg server:
// every instance starts its own server with the injection companion loaded,
// manages it with the built-in window manager and drives the X toolkit
// against it.
package x11backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/wm"
	"github.com/1broseidon/xconform/internal/xserver"
)

// Name is the backend name used in run directories and reports.
const Name = "x11"

// DefaultBackground fills the root window so screenshots show where windows
// are not.
const DefaultBackground = 0x2e3440

// Capabilities are the flags the X11 backend declares.
const Capabilities = backend.FlagMTSafe |
	backend.FlagSetAlwaysOnTop |
	backend.FlagDecorations |
	backend.FlagInnerSize |
	backend.FlagOuterPosition |
	backend.FlagTitle |
	backend.FlagVisible |
	backend.FlagMaximized |
	backend.FlagMinimized |
	backend.FlagSizeBounds |
	backend.FlagAttention |
	backend.FlagResizable |
	backend.FlagIcon |
	backend.FlagX11 |
	backend.FlagSetOuterPosition |
	backend.FlagSetInnerSize |
	backend.FlagDeviceAdded |
	backend.FlagDeviceRemoved |
	backend.FlagCreateSeat |
	backend.FlagSecondMonitor |
	backend.FlagMonitorNames

// Options configures the backend.
type Options struct {
	// ServerPath is the Xorg binary; X_PATH still wins.
	ServerPath string
	// ModulePath is the directory holding the companion driver. It is
	// appended to the server's default module path.
	ModulePath string
	// Seat is passed to the server as -seat.
	Seat        string
	RemapPolicy keyboard.RemapPolicy
	WM          wm.Config
	Background  uint32
}

// Backend starts X11 instances.
type Backend struct {
	opts Options

	moduleOnce sync.Once
	modulePath string
	moduleErr  error
}

var _ backend.Backend = (*Backend)(nil)

// New returns an X11 backend.
func New(opts Options) *Backend {
	if opts.RemapPolicy == "" {
		opts.RemapPolicy = keyboard.RemapSwappedOnly
	}
	if opts.Background == 0 {
		opts.Background = DefaultBackground
	}
	return &Backend{opts: opts}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Flags() backend.Flags { return Capabilities }

// resolveModulePath asks the server for its default module path once and
// appends the companion's directory.
func (b *Backend) resolveModulePath(ctx context.Context) (string, error) {
	b.moduleOnce.Do(func() {
		def, err := xserver.DefaultModulePath(ctx, xserver.ResolvePath(b.opts.ServerPath))
		if err != nil {
			b.moduleErr = err
			return
		}
		b.modulePath = joinModulePath(def, b.opts.ModulePath)
	})
	return b.modulePath, b.moduleErr
}

func joinModulePath(def, extra string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{def, extra} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ",")
}

// Instantiate starts a server in env.Dir and connects the window manager.
func (b *Backend) Instantiate(ctx context.Context, env backend.Env) (backend.Instance, error) {
	log := env.Logger
	if log == nil {
		log = slog.Default()
	}
	modulePath, err := b.resolveModulePath(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve module path: %w", err)
	}
	srv, err := xserver.Start(ctx, xserver.Options{
		Path:       b.opts.ServerPath,
		ModulePath: modulePath,
		Seat:       b.opts.Seat,
		Dir:        env.Dir,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	inst := newInstance(b, srv, env.Dir, log)
	if err := inst.init(ctx); err != nil {
		inst.Close()
		return nil, err
	}
	return inst, nil
}
