package xinput

import (
	"fmt"

	"github.com/BurntSushi/xgb"

	"github.com/1broseidon/xconform/internal/x11"
)

// XI2 hierarchy events are GenericEvents longer than 32 bytes, which xgb
// cannot read. Device presence is therefore watched through the XI 1.4
// DevicePresenceNotify event, which carries the same add/remove changes in a
// core-sized event.
const (
	opSelectExtensionEvent = 6

	// DevicePresenceNotify is the event offset from the extension's first
	// event code.
	DevicePresenceNotify = 15

	// devicePresenceClass selects presence events: device 256 is the
	// placeholder for events not bound to a device.
	devicePresenceClass = 256 << 8
)

// PresenceChange is the devchange field of a DevicePresenceNotify event.
type PresenceChange uint8

const (
	PresenceAdded PresenceChange = iota
	PresenceRemoved
	PresenceEnabled
	PresenceDisabled
	PresenceUnrecoverable
	PresenceControlChanged
)

func (p PresenceChange) String() string {
	switch p {
	case PresenceAdded:
		return "added"
	case PresenceRemoved:
		return "removed"
	case PresenceEnabled:
		return "enabled"
	case PresenceDisabled:
		return "disabled"
	case PresenceUnrecoverable:
		return "unrecoverable"
	case PresenceControlChanged:
		return "control-changed"
	default:
		return fmt.Sprintf("change(%d)", uint8(p))
	}
}

// DevicePresenceNotifyEvent reports a change in the device list.
type DevicePresenceNotifyEvent struct {
	Sequence uint16
	Time     uint32
	Change   PresenceChange
	DeviceID uint8
	Control  uint16
}

// DevicePresenceNotifyEventNew decodes a 32-byte DevicePresenceNotify event.
func DevicePresenceNotifyEventNew(buf []byte) xgb.Event {
	return DevicePresenceNotifyEvent{
		Sequence: xgb.Get16(buf[2:]),
		Time:     xgb.Get32(buf[4:]),
		Change:   PresenceChange(buf[8]),
		DeviceID: buf[9],
		Control:  xgb.Get16(buf[10:]),
	}
}

// Bytes encodes the event without its event code, which depends on the
// server.
func (e DevicePresenceNotifyEvent) Bytes() []byte {
	buf := make([]byte, 32)
	xgb.Put16(buf[2:], e.Sequence)
	xgb.Put32(buf[4:], e.Time)
	buf[8] = byte(e.Change)
	buf[9] = e.DeviceID
	xgb.Put16(buf[10:], e.Control)
	return buf
}

// SequenceId returns the sequence number of the event.
func (e DevicePresenceNotifyEvent) SequenceId() uint16 {
	return e.Sequence
}

func (e DevicePresenceNotifyEvent) String() string {
	return fmt.Sprintf("DevicePresenceNotify {Device: %d, Change: %s}", e.DeviceID, e.Change)
}

func init() {
	xgb.NewExtEventFuncs[ExtName] = map[int]xgb.NewEventFun{
		DevicePresenceNotify: DevicePresenceNotifyEventNew,
	}
}

// InitEvents enables the extension on c without announcing XI2, which is all
// a client that only watches device presence needs.
func InitEvents(c *xgb.Conn) error {
	_, err := x11.InitExtension(c, ExtName, errorNames)
	return err
}

// SelectDevicePresence asks for DevicePresenceNotify events on window.
func SelectDevicePresence(c *xgb.Conn, window uint32) error {
	cookie, err := request(c, opSelectExtensionEvent, encodeSelectExtensionEvent(window, devicePresenceClass), false)
	if err != nil {
		return err
	}
	return x11.Translate("SelectExtensionEvent", cookie.Check())
}

func encodeSelectExtensionEvent(window uint32, classes ...uint32) []byte {
	body := make([]byte, 8+4*len(classes))
	xgb.Put32(body[0:], window)
	xgb.Put16(body[4:], uint16(len(classes)))
	for i, cls := range classes {
		xgb.Put32(body[8+4*i:], cls)
	}
	return body
}
