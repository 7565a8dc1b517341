// Package xserver owns the private Xorg process started for every backend
// instance: configuration, fd plumbing for the injection companion and the
// display number, and kill-and-reap teardown.
package xserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/1broseidon/xconform/internal/injection"
)

const (
	// DefaultPath is the server binary used when neither X_PATH nor the
	// configuration names one.
	DefaultPath = "/usr/lib/Xorg"
	// EnvPath overrides the server binary.
	EnvPath = "X_PATH"
	// DefaultSeat keeps the private server off the host's input devices.
	DefaultSeat = "winit-seat"
	// Driver is the companion module's driver name.
	Driver = "winit"
)

// Fds as seen by the child: ExtraFiles start at 3.
const (
	childSocketFd  = 3
	childDisplayFd = 4
)

// ResolvePath returns the server binary: $X_PATH, then configured, then
// DefaultPath.
func ResolvePath(configured string) string {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	if configured != "" {
		return configured
	}
	return DefaultPath
}

// DefaultModulePath asks the server binary for its compiled-in module path,
// which it prints on stderr.
func DefaultModulePath(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, path, "-showDefaultModulePath")
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s -showDefaultModulePath: %w", path, err)
	}
	return strings.TrimSpace(stderr.String()), nil
}

// Config renders the minimal xorg.conf naming the companion driver.
func Config() string {
	return fmt.Sprintf(`Section "Device"
    Identifier  "%[1]s device"
    Driver      "%[1]s"
EndSection

Section "Screen"
    Identifier  "%[1]s screen"
    Device      "%[1]s device"
EndSection

Section "Serverlayout"
    Identifier  "%[1]s layout"
    Screen      "%[1]s screen"
EndSection
`, Driver)
}

// Options configures Start.
type Options struct {
	// Path is the server binary; see ResolvePath.
	Path string
	// ModulePath is the complete -modulepath value, including the directory
	// holding the companion module.
	ModulePath string
	// Seat is passed as -seat; DefaultSeat when empty.
	Seat string
	// Dir receives the generated configuration and the server logs.
	Dir    string
	Logger *slog.Logger
}

// Paths of the files Start writes below Options.Dir.
type Paths struct {
	Config    string
	ConfigDir string
	Log       string
	Stderr    string
}

// PathsIn returns the file layout below dir.
func PathsIn(dir string) Paths {
	return Paths{
		Config:    filepath.Join(dir, "xorg.conf"),
		ConfigDir: filepath.Join(dir, "xorg.conf.d"),
		Log:       filepath.Join(dir, "xorg.log"),
		Stderr:    filepath.Join(dir, "stderr"),
	}
}

// Args returns the server command line, excluding argv[0].
func Args(p Paths, modulePath, seat string) []string {
	if seat == "" {
		seat = DefaultSeat
	}
	return []string{
		"-config", p.Config,
		"-configdir", p.ConfigDir,
		"-modulepath", modulePath,
		"-seat", seat,
		"-logfile", p.Log,
		"-noreset",
		"-displayfd", strconv.Itoa(childDisplayFd),
	}
}

// Server is a running private X server.
type Server struct {
	// Display is the display name, for example ":3".
	Display string
	// Channel is the connection to the injection companion.
	Channel *injection.Channel

	cmd       *exec.Cmd
	log       *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// Start writes the configuration, launches the server and waits until it has
// reported its display number.
func Start(ctx context.Context, opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Dir == "" {
		return nil, errors.New("xserver: Options.Dir is required")
	}
	paths := PathsIn(opts.Dir)
	if err := os.MkdirAll(paths.ConfigDir, 0o755); err != nil {
		return nil, fmt.Errorf("create server dir: %w", err)
	}
	if err := os.WriteFile(paths.Config, []byte(Config()), 0o644); err != nil {
		return nil, fmt.Errorf("write server config: %w", err)
	}
	stderr, err := os.OpenFile(paths.Stderr, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open server stderr: %w", err)
	}
	defer stderr.Close()

	local, peer, err := injection.Socketpair()
	if err != nil {
		return nil, err
	}
	defer local.Close()
	displayR, displayW, err := os.Pipe()
	if err != nil {
		peer.Close()
		return nil, fmt.Errorf("display pipe: %w", err)
	}
	defer displayR.Close()

	path := ResolvePath(opts.Path)
	cmd := exec.Command(path, Args(paths, opts.ModulePath, opts.Seat)...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = stderr
	cmd.ExtraFiles = []*os.File{peer, displayW}
	cmd.Env = childEnv()
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGKILL}

	log.Debug("starting X server", "path", path, "args", cmd.Args[1:])
	err = cmd.Start()
	peer.Close()
	displayW.Close()
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	s := &Server{cmd: cmd, log: log}
	display, err := readDisplay(ctx, displayR)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("X server did not report a display (see %s): %w", paths.Stderr, err)
	}
	s.Display = display

	ch, err := injection.NewChannel(local, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Channel = ch
	log.Info("X server ready", "display", display, "pid", cmd.Process.Pid)
	return s, nil
}

func childEnv() []string {
	env := []string{fmt.Sprintf("%s=%d", injection.EnvSocket, childSocketFd)}
	for _, name := range []string{"HOME", "PATH"} {
		if v, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+v)
		}
	}
	return env
}

func readDisplay(ctx context.Context, r *os.File) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && line == "" {
			done <- result{err: err}
			return
		}
		done <- result{line: line}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return ParseDisplay(res.line)
	}
}

// ParseDisplay turns the number written to -displayfd into a display name.
func ParseDisplay(s string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid display number %q", strings.TrimSpace(s))
	}
	return fmt.Sprintf(":%d", n), nil
}

// Pid returns the server's process id.
func (s *Server) Pid() int {
	return s.cmd.Process.Pid
}

// Close kills the server and waits for it to be reaped. Whether the server
// had already crashed is not distinguished.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		if s.Channel != nil {
			if err := s.Channel.Close(); err != nil {
				s.log.Debug("closing injection channel", "error", err)
			}
		}
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.closeErr = fmt.Errorf("kill X server: %w", err)
		}
		if err := s.cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				s.closeErr = errors.Join(s.closeErr, fmt.Errorf("reap X server: %w", err))
			}
		}
		s.log.Debug("X server stopped", "display", s.Display)
	})
	return s.closeErr
}
