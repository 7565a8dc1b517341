// Package xinput encodes the XInput2 requests the seat controller needs. xgb
// ships no XInputExtension binding, so the requests are assembled here and
// sent through xgb's cookie machinery like its generated extensions.
package xinput

import (
	"fmt"

	"github.com/BurntSushi/xgb"

	"github.com/1broseidon/xconform/internal/x11"
)

// ExtName is the X extension name.
const ExtName = "XInputExtension"

// Minor opcodes.
const (
	opChangeDeviceKeyMapping = 25
	opXIChangeHierarchy      = 43
	opXISetClientPointer     = 44
	opXIQueryVersion         = 47
	opXIQueryDevice          = 48
	opXISetFocus             = 49
)

// Device ids with special meaning.
const (
	AllDevices       = 0
	AllMasterDevices = 1
)

// DeviceUse is the role of a device in the hierarchy.
type DeviceUse uint16

const (
	MasterPointer  DeviceUse = 1
	MasterKeyboard DeviceUse = 2
	SlavePointer   DeviceUse = 3
	SlaveKeyboard  DeviceUse = 4
	FloatingSlave  DeviceUse = 5
)

func (u DeviceUse) String() string {
	switch u {
	case MasterPointer:
		return "master-pointer"
	case MasterKeyboard:
		return "master-keyboard"
	case SlavePointer:
		return "slave-pointer"
	case SlaveKeyboard:
		return "slave-keyboard"
	case FloatingSlave:
		return "floating-slave"
	default:
		return fmt.Sprintf("use(%d)", uint16(u))
	}
}

var errorNames = []string{"XIBadDevice", "XIBadEvent", "XIBadMode", "XIDeviceBusy", "XIBadClass"}

// Init enables the extension on c and negotiates XI 2.2.
func Init(c *xgb.Conn) error {
	if _, err := x11.InitExtension(c, ExtName, errorNames); err != nil {
		return err
	}
	major, minor, err := QueryVersion(c, 2, 2)
	if err != nil {
		return err
	}
	if major < 2 {
		return fmt.Errorf("server supports XInput %d.%d, need 2.x", major, minor)
	}
	return nil
}

func request(c *xgb.Conn, minor byte, body []byte, reply bool) (*xgb.Cookie, error) {
	major, err := x11.ExtensionOpcode(c, ExtName)
	if err != nil {
		return nil, err
	}
	buf := encodeRequest(major, minor, body)
	cookie := c.NewCookie(true, reply)
	c.NewRequest(buf, cookie)
	return cookie, nil
}

func encodeRequest(major, minor byte, body []byte) []byte {
	buf := make([]byte, 4+xgb.Pad(len(body)))
	copy(buf[4:], body)
	x11.RequestHeader(buf, major, minor)
	return buf
}

// QueryVersion announces the client's supported version and returns the
// server's.
func QueryVersion(c *xgb.Conn, major, minor uint16) (uint16, uint16, error) {
	cookie, err := request(c, opXIQueryVersion, encodeQueryVersion(major, minor), true)
	if err != nil {
		return 0, 0, err
	}
	buf, err := cookie.Reply()
	if err != nil {
		return 0, 0, x11.Translate("XIQueryVersion", err)
	}
	if len(buf) < 12 {
		return 0, 0, fmt.Errorf("XIQueryVersion: short reply")
	}
	return xgb.Get16(buf[8:]), xgb.Get16(buf[10:]), nil
}

func encodeQueryVersion(major, minor uint16) []byte {
	body := make([]byte, 4)
	xgb.Put16(body[0:], major)
	xgb.Put16(body[2:], minor)
	return body
}

// DeviceInfo describes one device from XIQueryDevice.
type DeviceInfo struct {
	ID         uint16
	Use        DeviceUse
	Attachment uint16
	Enabled    bool
	Name       string
}

// QueryDevice lists deviceID, or every master and its slaves with
// AllDevices/AllMasterDevices.
func QueryDevice(c *xgb.Conn, deviceID uint16) ([]DeviceInfo, error) {
	body := make([]byte, 4)
	xgb.Put16(body, deviceID)
	cookie, err := request(c, opXIQueryDevice, body, true)
	if err != nil {
		return nil, err
	}
	buf, err := cookie.Reply()
	if err != nil {
		return nil, x11.Translate("XIQueryDevice", err)
	}
	return decodeQueryDeviceReply(buf)
}

func decodeQueryDeviceReply(buf []byte) ([]DeviceInfo, error) {
	if len(buf) < 32 {
		return nil, fmt.Errorf("XIQueryDevice: short reply")
	}
	n := int(xgb.Get16(buf[8:]))
	off := 32
	infos := make([]DeviceInfo, 0, n)
	for i := 0; i < n; i++ {
		if off+12 > len(buf) {
			return nil, fmt.Errorf("XIQueryDevice: truncated device %d", i)
		}
		info := DeviceInfo{
			ID:         xgb.Get16(buf[off:]),
			Use:        DeviceUse(xgb.Get16(buf[off+2:])),
			Attachment: xgb.Get16(buf[off+4:]),
			Enabled:    buf[off+10] != 0,
		}
		numClasses := int(xgb.Get16(buf[off+6:]))
		nameLen := int(xgb.Get16(buf[off+8:]))
		off += 12
		if off+nameLen > len(buf) {
			return nil, fmt.Errorf("XIQueryDevice: truncated name of device %d", info.ID)
		}
		info.Name = string(buf[off : off+nameLen])
		off += xgb.Pad(nameLen)
		for j := 0; j < numClasses; j++ {
			if off+4 > len(buf) {
				return nil, fmt.Errorf("XIQueryDevice: truncated class list of device %d", info.ID)
			}
			off += int(xgb.Get16(buf[off+2:])) * 4
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// HierarchyChange is one entry of an XIChangeHierarchy request.
type HierarchyChange interface {
	encode() []byte
}

// AddMaster creates a master pointer/keyboard pair named "<Name> pointer" and
// "<Name> keyboard".
type AddMaster struct {
	Name     string
	SendCore bool
	Enable   bool
}

func (a AddMaster) encode() []byte {
	buf := make([]byte, 8+xgb.Pad(len(a.Name)))
	xgb.Put16(buf[0:], 1)
	xgb.Put16(buf[2:], uint16(len(buf)/4))
	xgb.Put16(buf[4:], uint16(len(a.Name)))
	buf[6] = boolByte(a.SendCore)
	buf[7] = boolByte(a.Enable)
	copy(buf[8:], a.Name)
	return buf
}

// Return modes for RemoveMaster.
const (
	ReturnAttachToMaster = 1
	ReturnFloat          = 2
)

// RemoveMaster removes a master device pair.
type RemoveMaster struct {
	DeviceID       uint16
	ReturnMode     uint8
	ReturnPointer  uint16
	ReturnKeyboard uint16
}

func (r RemoveMaster) encode() []byte {
	buf := make([]byte, 12)
	xgb.Put16(buf[0:], 2)
	xgb.Put16(buf[2:], 3)
	xgb.Put16(buf[4:], r.DeviceID)
	buf[6] = r.ReturnMode
	xgb.Put16(buf[8:], r.ReturnPointer)
	xgb.Put16(buf[10:], r.ReturnKeyboard)
	return buf
}

// AttachSlave attaches a slave device to a master.
type AttachSlave struct {
	DeviceID uint16
	Master   uint16
}

func (a AttachSlave) encode() []byte {
	buf := make([]byte, 8)
	xgb.Put16(buf[0:], 3)
	xgb.Put16(buf[2:], 2)
	xgb.Put16(buf[4:], a.DeviceID)
	xgb.Put16(buf[6:], a.Master)
	return buf
}

// DetachSlave floats a slave device.
type DetachSlave struct {
	DeviceID uint16
}

func (d DetachSlave) encode() []byte {
	buf := make([]byte, 8)
	xgb.Put16(buf[0:], 4)
	xgb.Put16(buf[2:], 2)
	xgb.Put16(buf[4:], d.DeviceID)
	return buf
}

// ChangeHierarchy applies changes atomically.
func ChangeHierarchy(c *xgb.Conn, changes ...HierarchyChange) error {
	cookie, err := request(c, opXIChangeHierarchy, encodeChangeHierarchy(changes), false)
	if err != nil {
		return err
	}
	return x11.Translate("XIChangeHierarchy", cookie.Check())
}

func encodeChangeHierarchy(changes []HierarchyChange) []byte {
	body := make([]byte, 4)
	body[0] = uint8(len(changes))
	for _, ch := range changes {
		body = append(body, ch.encode()...)
	}
	return body
}

// SetClientPointer makes deviceID the ClientPointer of the client owning
// window (or of the calling client when window is 0).
func SetClientPointer(c *xgb.Conn, window uint32, deviceID uint16) error {
	body := make([]byte, 8)
	xgb.Put32(body[0:], window)
	xgb.Put16(body[4:], deviceID)
	cookie, err := request(c, opXISetClientPointer, body, false)
	if err != nil {
		return err
	}
	return x11.Translate("XISetClientPointer", cookie.Check())
}

// SetFocus focuses window for the master keyboard deviceID.
func SetFocus(c *xgb.Conn, window uint32, deviceID uint16) error {
	cookie, err := request(c, opXISetFocus, encodeSetFocus(window, deviceID), false)
	if err != nil {
		return err
	}
	return x11.Translate("XISetFocus", cookie.Check())
}

func encodeSetFocus(window uint32, deviceID uint16) []byte {
	body := make([]byte, 12)
	xgb.Put32(body[0:], window)
	xgb.Put32(body[4:], 0) // CurrentTime
	xgb.Put16(body[8:], deviceID)
	return body
}

// ChangeDeviceKeyMapping replaces the keysyms of count keycodes starting at
// first on deviceID. keysyms holds perKeycode entries for each keycode.
func ChangeDeviceKeyMapping(c *xgb.Conn, deviceID uint16, first byte, perKeycode byte, keysyms []uint32) error {
	body, err := encodeChangeDeviceKeyMapping(deviceID, first, perKeycode, keysyms)
	if err != nil {
		return err
	}
	cookie, err := request(c, opChangeDeviceKeyMapping, body, false)
	if err != nil {
		return err
	}
	return x11.Translate("ChangeDeviceKeyMapping", cookie.Check())
}

func encodeChangeDeviceKeyMapping(deviceID uint16, first byte, perKeycode byte, keysyms []uint32) ([]byte, error) {
	if perKeycode == 0 || len(keysyms)%int(perKeycode) != 0 {
		return nil, fmt.Errorf("ChangeDeviceKeyMapping: %d keysyms is not a multiple of %d", len(keysyms), perKeycode)
	}
	count := len(keysyms) / int(perKeycode)
	if count > 255 || deviceID > 255 {
		return nil, fmt.Errorf("ChangeDeviceKeyMapping: device %d / %d keycodes out of range", deviceID, count)
	}
	body := make([]byte, 4+4*len(keysyms))
	body[0] = byte(deviceID)
	body[1] = first
	body[2] = perKeycode
	body[3] = byte(count)
	for i, ks := range keysyms {
		xgb.Put32(body[4+4*i:], ks)
	}
	return body, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
