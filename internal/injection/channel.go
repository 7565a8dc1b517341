package injection

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned by operations on a closed Channel.
var ErrClosed = errors.New("injection: channel closed")

// EnvSocket names the environment variable through which the companion learns
// the fd number of its end of the channel.
const EnvSocket = "WINIT_IT_SOCKET"

// Socketpair creates a connected SOCK_SEQPACKET pair. The first file is kept
// by the harness, the second is handed to the server process.
func Socketpair() (*os.File, *os.File, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}
	return os.NewFile(uintptr(fds[0]), "injection"), os.NewFile(uintptr(fds[1]), "injection-peer"), nil
}

// Channel is the harness end of the companion socket.
//
// Requests that expect a reply hold mu for the round trip so replies cannot be
// paired with the wrong request. Fire-and-forget messages take the same lock
// so they are never interleaved into a pending round trip.
type Channel struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool
	log    *slog.Logger
}

// NewChannel wraps f, which must be a connected SOCK_SEQPACKET socket. f is
// duplicated; the caller may close it afterwards.
func NewChannel(f *os.File, log *slog.Logger) (*Channel, error) {
	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("injection: wrap socket: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Channel{conn: conn, log: log}, nil
}

func (c *Channel) sendLocked(m Message) error {
	if c.closed {
		return ErrClosed
	}
	buf, _ := m.MarshalBinary()
	if _, err := c.conn.Write(buf); err != nil {
		return fmt.Errorf("injection: send %s: %w", m.Type, err)
	}
	return nil
}

func (c *Channel) send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(m)
}

func (c *Channel) roundTrip(m Message, want MessageType) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendLocked(m); err != nil {
		return nil, err
	}
	buf := make([]byte, 64)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("injection: await %s: %w", want, err)
	}
	var reply Message
	if err := reply.UnmarshalBinary(buf[:n]); err != nil {
		return nil, err
	}
	if reply.Type != want {
		return nil, fmt.Errorf("injection: expected %s, got %s", want, reply.Type)
	}
	return buf[:n], nil
}

// CreateKeyboard asks the companion for a new virtual keyboard and returns its
// XInput device id.
func (c *Channel) CreateKeyboard() (uint32, error) {
	buf, err := c.roundTrip(Message{Type: MsgCreateKeyboard}, MsgCreateKeyboardReply)
	if err != nil {
		return 0, err
	}
	var reply Message
	_ = reply.UnmarshalBinary(buf)
	c.log.Debug("created virtual keyboard", "device", reply.A)
	return reply.A, nil
}

// KeyPress posts a hardware key-down of the evdev code key on device.
func (c *Channel) KeyPress(device, key uint32) error {
	return c.send(Message{Type: MsgKeyPress, A: device, B: key})
}

// KeyRelease posts a hardware key-up of the evdev code key on device.
func (c *Channel) KeyRelease(device, key uint32) error {
	return c.send(Message{Type: MsgKeyRelease, A: device, B: key})
}

// RemoveDevice tells the companion to delete device.
func (c *Channel) RemoveDevice(device uint32) error {
	return c.send(Message{Type: MsgRemoveDevice, A: device})
}

// EnableSecondMonitor connects or disconnects the companion's second output
// and waits until the server has processed the change.
func (c *Channel) EnableSecondMonitor(enable bool) error {
	var v uint32
	if enable {
		v = 1
	}
	_, err := c.roundTrip(Message{Type: MsgEnableSecondMonitor, A: v}, MsgEnableSecondMonitorReply)
	return err
}

// VideoInfo returns the companion's output and mode ids.
func (c *Channel) VideoInfo() (VideoInfo, error) {
	buf, err := c.roundTrip(Message{Type: MsgGetVideoInfo}, MsgGetVideoInfoReply)
	if err != nil {
		return VideoInfo{}, err
	}
	return decodeVideoInfo(buf)
}

// Close closes the harness end. It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
