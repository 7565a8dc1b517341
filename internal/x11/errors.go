package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrConnectionClosed is reported by event pumps when the server connection
// goes away.
var ErrConnectionClosed = errors.New("x11: connection closed")

// ConnectionError reports that the display server could not be reached or
// initialised.
type ConnectionError struct {
	Display string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to display %s: %v", e.Display, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError is a checked request rejected by the server.
type ProtocolError struct {
	Op       string
	Code     uint8
	Name     string
	Sequence uint16
	BadValue uint32
	Major    uint8
	Minor    uint16
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s (code %d, sequence %d, bad value 0x%x, opcode %d.%d)",
		e.Op, e.Name, e.Code, e.Sequence, e.BadValue, e.Major, e.Minor)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err carries a server error with the given
// code.
func IsProtocolError(err error, code uint8) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Code == code
}

// Core protocol error codes.
const (
	BadRequest  = 1
	BadValue    = 2
	BadWindow   = 3
	BadAtom     = 5
	BadMatch    = 8
	BadDrawable = 9
	BadAccess   = 10
	BadAlloc    = 11
	BadIDChoice = 14
	BadLength   = 16
)

// Translate turns an xgb error into a *ProtocolError. Errors that are not
// server errors (connection loss, malformed replies) are wrapped with op.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		if pe.Op == "" {
			cp := *pe
			cp.Op = op
			return &cp
		}
		return pe
	}
	xerr, ok := err.(xgb.Error)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	out := &ProtocolError{
		Op:       op,
		Sequence: xerr.SequenceId(),
		BadValue: xerr.BadId(),
		Name:     xerr.Error(),
		Err:      err,
	}
	switch e := err.(type) {
	case xproto.RequestError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadRequest, "BadRequest", e.MajorOpcode, e.MinorOpcode
	case xproto.ValueError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadValue, "BadValue", e.MajorOpcode, e.MinorOpcode
	case xproto.WindowError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadWindow, "BadWindow", e.MajorOpcode, e.MinorOpcode
	case xproto.AtomError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadAtom, "BadAtom", e.MajorOpcode, e.MinorOpcode
	case xproto.MatchError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadMatch, "BadMatch", e.MajorOpcode, e.MinorOpcode
	case xproto.DrawableError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadDrawable, "BadDrawable", e.MajorOpcode, e.MinorOpcode
	case xproto.AccessError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadAccess, "BadAccess", e.MajorOpcode, e.MinorOpcode
	case xproto.AllocError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadAlloc, "BadAlloc", e.MajorOpcode, e.MinorOpcode
	case xproto.IDChoiceError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadIDChoice, "BadIDChoice", e.MajorOpcode, e.MinorOpcode
	case xproto.LengthError:
		out.Code, out.Name, out.Major, out.Minor = xproto.BadLength, "BadLength", e.MajorOpcode, e.MinorOpcode
	case ExtensionError:
		out.Code, out.Name, out.Major, out.Minor = e.Code, e.NiceName, e.MajorOpcode, e.MinorOpcode
	}
	return out
}

// ExtensionError is the generic error value for extension requests that xgb
// has no generated binding for.
type ExtensionError struct {
	Code        uint8
	Sequence    uint16
	NiceName    string
	BadValue    uint32
	MinorOpcode uint16
	MajorOpcode uint8
}

// SequenceId implements xgb.Error.
func (e ExtensionError) SequenceId() uint16 { return e.Sequence }

// BadId implements xgb.Error.
func (e ExtensionError) BadId() uint32 { return e.BadValue }

func (e ExtensionError) Error() string {
	return fmt.Sprintf("%s {Sequence: %d, BadValue: %d, MinorOpcode: %d, MajorOpcode: %d}",
		e.NiceName, e.Sequence, e.BadValue, e.MinorOpcode, e.MajorOpcode)
}

// NewExtensionErrorFun returns an xgb error constructor for an extension
// error named name.
func NewExtensionErrorFun(name string) xgb.NewErrorFun {
	return func(buf []byte) xgb.Error {
		return ExtensionError{
			Code:        buf[1],
			Sequence:    xgb.Get16(buf[2:]),
			NiceName:    name,
			BadValue:    xgb.Get32(buf[4:]),
			MinorOpcode: xgb.Get16(buf[8:]),
			MajorOpcode: buf[10],
		}
	}
}
