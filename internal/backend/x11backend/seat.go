package x11backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/injection"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/x11/xinput"
	"github.com/1broseidon/xconform/internal/x11/xkb"
)

// layoutState is the layout of one seat and the slave keyboards attached to
// it. The core seat's state is shared by every DefaultSeat handle.
type layoutState struct {
	mu      sync.Mutex
	layout  keyboard.Layout
	applied bool
	slaves  map[uint16]struct{}
}

type seat struct {
	inst     *Instance
	name     string
	pointer  uint16
	keyboard uint16
	layout   *layoutState
	core     bool

	closeOnce sync.Once
}

var _ backend.Seat = (*seat)(nil)

// AddKeyboard creates a virtual keyboard in the companion, attaches it to
// the seat and gives it and the master the seat's layout.
func (s *seat) AddKeyboard() (backend.Keyboard, error) {
	ch := s.inst.server.Channel
	id, err := ch.CreateKeyboard()
	if err != nil {
		return nil, fmt.Errorf("create keyboard: %w", err)
	}
	dev := uint16(id)
	c := s.inst.conn.Conn()
	if err := xinput.ChangeHierarchy(c, xinput.AttachSlave{DeviceID: dev, Master: s.keyboard}); err != nil {
		if rerr := ch.RemoveDevice(id); rerr != nil {
			s.inst.log.Debug("removing unattached keyboard", "device", id, "error", rerr)
		}
		return nil, fmt.Errorf("attach keyboard %d to master %d: %w", id, s.keyboard, err)
	}

	s.layout.mu.Lock()
	layout := s.layout.layout
	if s.layout.slaves == nil {
		s.layout.slaves = make(map[uint16]struct{})
	}
	s.layout.slaves[dev] = struct{}{}
	s.layout.mu.Unlock()

	for _, d := range []uint16{dev, s.keyboard} {
		if err := s.inst.applyLayout(d, layout, keyboard.Qwerty, false); err != nil {
			return nil, err
		}
	}

	kb := &virtualKeyboard{seat: s, id: id, ch: ch}
	kb.keys = backend.NewKeys(channelKeys{ch: ch, device: id})
	s.inst.log.Info("added keyboard", "seat", s.label(), "device", id, "layout", layout)
	return kb, nil
}

// Focus gives the seat's keyboard focus to w.
func (s *seat) Focus(w backend.Window) error {
	win, ok := w.(*window)
	if !ok {
		return fmt.Errorf("focus: %T is not an X11 window", w)
	}
	s.inst.log.Info("focusing window", "seat", s.label(), "window", win.xid())
	return xinput.SetFocus(s.inst.conn.Conn(), uint32(win.xid()), s.keyboard)
}

// SetLayout switches the seat's layout. The keymap is only reloaded when the
// remap policy asks for it; the locked group is always set.
func (s *seat) SetLayout(layout keyboard.Layout) error {
	s.layout.mu.Lock()
	defer s.layout.mu.Unlock()
	prev, applied := s.layout.layout, s.layout.applied
	devices := []uint16{s.keyboard}
	for d := range s.layout.slaves {
		devices = append(devices, d)
	}
	for _, d := range devices {
		if err := s.inst.applyLayout(d, layout, prev, applied); err != nil {
			return err
		}
	}
	s.layout.layout, s.layout.applied = layout, true
	s.inst.log.Info("set layout", "seat", s.label(), "from", prev, "to", layout)
	return nil
}

// Close removes a created seat; its slaves float. The core seat stays.
func (s *seat) Close() error {
	if s.core {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		err = xinput.ChangeHierarchy(s.inst.conn.Conn(), xinput.RemoveMaster{
			DeviceID:   s.keyboard,
			ReturnMode: xinput.ReturnFloat,
		})
		if err != nil {
			s.inst.log.Warn("removing master", "seat", s.name, "error", err)
		}
	})
	return err
}

func (s *seat) label() string {
	if s.core {
		return "core"
	}
	return s.name
}

func (s *seat) forget(dev uint16) {
	s.layout.mu.Lock()
	delete(s.layout.slaves, dev)
	s.layout.mu.Unlock()
}

// applyLayout switches dev to layout.
func (i *Instance) applyLayout(dev uint16, layout, prev keyboard.Layout, hasPrev bool) error {
	c := i.conn.Conn()
	if i.backend.opts.RemapPolicy.NeedsRemap(prev, hasPrev, layout) {
		if err := i.remap(dev, layout.Keymap()); err != nil {
			return fmt.Errorf("remap device %d to %s: %w", dev, layout, err)
		}
	}
	if err := xkb.LockGroup(c, dev, layout.Group()); err != nil {
		return fmt.Errorf("lock group of device %d: %w", dev, err)
	}
	return nil
}

// remap loads km onto dev on top of the server's core mapping.
func (i *Instance) remap(dev uint16, km keyboard.Keymap) error {
	c := i.conn.Conn()
	setup := xproto.Setup(c)
	minKc, maxKc := setup.MinKeycode, setup.MaxKeycode
	reply, err := xproto.GetKeyboardMapping(c, minKc, byte(maxKc-minKc+1)).Reply()
	if err != nil {
		return fmt.Errorf("get keyboard mapping: %w", err)
	}
	base := make([]keyboard.Keysym, len(reply.Keysyms))
	for n, ks := range reply.Keysyms {
		base[n] = keyboard.Keysym(ks)
	}
	merged := km.Overlay(base, int(reply.KeysymsPerKeycode), byte(minKc), byte(maxKc))
	syms := make([]uint32, len(merged))
	for n, ks := range merged {
		syms[n] = uint32(ks)
	}
	return xinput.ChangeDeviceKeyMapping(c, dev, byte(minKc), keyboard.Columns, syms)
}

// channelKeys sends key transitions of one device through the companion.
type channelKeys struct {
	ch     *injection.Channel
	device uint32
}

func (k channelKeys) KeyDown(key keyboard.Key) error {
	return k.ch.KeyPress(k.device, key.Evdev())
}

func (k channelKeys) KeyUp(key keyboard.Key) error {
	return k.ch.KeyRelease(k.device, key.Evdev())
}

// virtualKeyboard is a companion keyboard attached to a seat.
type virtualKeyboard struct {
	seat *seat
	id   uint32
	ch   *injection.Channel
	keys *backend.Keys

	closeOnce sync.Once
}

var _ backend.Keyboard = (*virtualKeyboard)(nil)

func (k *virtualKeyboard) ID() event.DeviceID {
	return event.DeviceID(k.id)
}

func (k *virtualKeyboard) Press(key keyboard.Key) (*backend.PressedKey, error) {
	k.seat.inst.log.Debug("pressing key", "device", k.id, "key", key)
	return k.keys.Press(key)
}

// Close removes the device. Keys still held are not released first; the
// server drops their state with the device.
func (k *virtualKeyboard) Close() error {
	var err error
	k.closeOnce.Do(func() {
		k.keys.Close()
		k.seat.forget(uint16(k.id))
		err = k.ch.RemoveDevice(k.id)
		if errors.Is(err, injection.ErrClosed) {
			err = nil
		}
	})
	return err
}
