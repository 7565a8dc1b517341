// Package xkb encodes the two XKEYBOARD requests the harness uses: enabling
// the extension, which makes the server report the active group in core
// event state, and locking the keyboard group of a device.
package xkb

import (
	"fmt"

	"github.com/BurntSushi/xgb"

	"github.com/1broseidon/xconform/internal/x11"
)

// ExtName is the X extension name.
const ExtName = "XKEYBOARD"

const (
	opUseExtension   = 0
	opLatchLockState = 5
)

// UseCoreKbd addresses the core keyboard as a device spec.
const UseCoreKbd = 0x100

// Init enables XKB 1.0 on c.
func Init(c *xgb.Conn) error {
	if _, err := x11.InitExtension(c, ExtName, []string{"XkbKeyboard"}); err != nil {
		return err
	}
	major, err := x11.ExtensionOpcode(c, ExtName)
	if err != nil {
		return err
	}
	cookie := c.NewCookie(true, true)
	c.NewRequest(encodeUseExtension(major, 1, 0), cookie)
	buf, err := cookie.Reply()
	if err != nil {
		return x11.Translate("XkbUseExtension", err)
	}
	if len(buf) < 2 || buf[1] == 0 {
		return fmt.Errorf("server refused XKB 1.0")
	}
	return nil
}

func encodeUseExtension(major byte, wantMajor, wantMinor uint16) []byte {
	buf := make([]byte, 8)
	xgb.Put16(buf[4:], wantMajor)
	xgb.Put16(buf[6:], wantMinor)
	x11.RequestHeader(buf, major, opUseExtension)
	return buf
}

// LockGroup sets the locked keyboard group of deviceSpec, leaving modifier
// locks and latches untouched.
func LockGroup(c *xgb.Conn, deviceSpec uint16, group uint8) error {
	major, err := x11.ExtensionOpcode(c, ExtName)
	if err != nil {
		return err
	}
	cookie := c.NewCookie(true, false)
	c.NewRequest(encodeLatchLockState(major, deviceSpec, group), cookie)
	return x11.Translate("XkbLatchLockState", cookie.Check())
}

func encodeLatchLockState(major byte, deviceSpec uint16, group uint8) []byte {
	buf := make([]byte, 16)
	xgb.Put16(buf[4:], deviceSpec)
	buf[6] = 0     // affectModLocks
	buf[7] = 0     // modLocks
	buf[8] = 1     // lockGroup
	buf[9] = group // groupLock
	buf[10] = 0    // affectModLatches
	buf[13] = 0    // latchGroup
	xgb.Put16(buf[14:], 0)
	x11.RequestHeader(buf, major, opLatchLockState)
	return buf
}
