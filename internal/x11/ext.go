package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

var ctorMu sync.Mutex

// InitExtension queries name on c, records its major opcode in c.Extensions,
// registers the event constructors listed in xgb.NewExtEventFuncs[name] from
// the extension's first event code and an error constructor for each of
// errorNames, numbered from its first error code. It mirrors the Init functions xgb generates
// for the extensions it ships.
func InitExtension(c *xgb.Conn, name string, errorNames []string) (*xproto.QueryExtensionReply, error) {
	reply, err := xproto.QueryExtension(c, uint16(len(name)), name).Reply()
	switch {
	case err != nil:
		return nil, Translate("QueryExtension", err)
	case !reply.Present:
		return nil, fmt.Errorf("no extension named %s could be found on the server", name)
	}

	c.ExtLock.Lock()
	c.Extensions[name] = reply.MajorOpcode
	c.ExtLock.Unlock()

	ctorMu.Lock()
	for n, fun := range xgb.NewExtEventFuncs[name] {
		xgb.NewEventFuncs[int(reply.FirstEvent)+n] = fun
	}
	for i, errName := range errorNames {
		code := int(reply.FirstError) + i
		if _, ok := xgb.NewErrorFuncs[code]; !ok {
			xgb.NewErrorFuncs[code] = NewExtensionErrorFun(errName)
		}
	}
	ctorMu.Unlock()
	return reply, nil
}

// ExtensionOpcode returns the major opcode recorded by InitExtension.
func ExtensionOpcode(c *xgb.Conn, name string) (byte, error) {
	c.ExtLock.RLock()
	defer c.ExtLock.RUnlock()
	op, ok := c.Extensions[name]
	if !ok {
		return 0, fmt.Errorf("extension %s has not been initialised on this connection", name)
	}
	return op, nil
}

// RequestHeader writes the 4-byte request header into buf: major opcode,
// minor opcode, length in 4-byte units.
func RequestHeader(buf []byte, major, minor byte) {
	buf[0] = major
	buf[1] = minor
	xgb.Put16(buf[2:], uint16(len(buf)/4))
}
