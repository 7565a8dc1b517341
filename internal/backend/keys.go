package backend

import (
	"errors"
	"sync"

	"github.com/1broseidon/xconform/internal/keyboard"
)

// ErrDeviceClosed is returned when pressing keys on a closed keyboard.
var ErrDeviceClosed = errors.New("backend: device closed")

// KeySender delivers hardware key transitions for one device.
type KeySender interface {
	KeyDown(key keyboard.Key) error
	KeyUp(key keyboard.Key) error
}

// Keys tracks the held keys of one virtual keyboard. A key is sent down on
// its first Press and up when the last PressedKey for it is released.
type Keys struct {
	send KeySender

	mu     sync.Mutex
	owners map[keyboard.Key]int
	closed bool
}

// NewKeys returns a tracker sending transitions through send.
func NewKeys(send KeySender) *Keys {
	return &Keys{send: send, owners: make(map[keyboard.Key]int)}
}

// PressedKey is a held key. It can only be obtained from Keys.Press.
type PressedKey struct {
	keys *Keys
	key  keyboard.Key
	once sync.Once
}

// Press returns a handle for key, sending the key-down only if key is not
// already held.
func (k *Keys) Press(key keyboard.Key) (*PressedKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil, ErrDeviceClosed
	}
	if k.owners[key] == 0 {
		if err := k.send.KeyDown(key); err != nil {
			return nil, err
		}
	}
	k.owners[key]++
	return &PressedKey{keys: k, key: key}, nil
}

// Held reports whether key is currently down.
func (k *Keys) Held(key keyboard.Key) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.owners[key] > 0
}

// Close stops tracking. Outstanding handles release nothing afterwards.
func (k *Keys) Close() {
	k.mu.Lock()
	k.closed = true
	k.owners = make(map[keyboard.Key]int)
	k.mu.Unlock()
}

// Key returns the held key.
func (p *PressedKey) Key() keyboard.Key {
	return p.key
}

// Release drops this handle. The key goes up when the last handle for it is
// released. Releasing twice is a no-op.
func (p *PressedKey) Release() error {
	var err error
	p.once.Do(func() {
		k := p.keys
		k.mu.Lock()
		defer k.mu.Unlock()
		if k.closed || k.owners[p.key] == 0 {
			return
		}
		k.owners[p.key]--
		if k.owners[p.key] == 0 {
			delete(k.owners, p.key)
			err = k.send.KeyUp(p.key)
		}
	})
	return err
}
