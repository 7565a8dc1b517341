// Package injection implements the control channel to the input-injection
// companion that runs inside the private X server. Messages are fixed-size
// records of native-endian uint32 words sent over a SOCK_SEQPACKET socket.
package injection

import (
	"encoding/binary"
	"fmt"
)

// MessageType tags every record on the channel.
type MessageType uint32

const (
	MsgNone MessageType = iota
	MsgCreateKeyboard
	MsgCreateKeyboardReply
	MsgKeyPress
	MsgKeyRelease
	MsgRemoveDevice
	MsgEnableSecondMonitor
	MsgEnableSecondMonitorReply
	MsgGetVideoInfo
	MsgGetVideoInfoReply
)

var messageTypeNames = map[MessageType]string{
	MsgNone:                     "NONE",
	MsgCreateKeyboard:           "CREATE_KEYBOARD",
	MsgCreateKeyboardReply:      "CREATE_KEYBOARD_REPLY",
	MsgKeyPress:                 "KEY_PRESS",
	MsgKeyRelease:               "KEY_RELEASE",
	MsgRemoveDevice:             "REMOVE_DEVICE",
	MsgEnableSecondMonitor:      "ENABLE_SECOND_MONITOR",
	MsgEnableSecondMonitorReply: "ENABLE_SECOND_MONITOR_REPLY",
	MsgGetVideoInfo:             "GET_VIDEO_INFO",
	MsgGetVideoInfoReply:        "GET_VIDEO_INFO_REPLY",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%d)", uint32(t))
}

// MessageSize is the size of the request union.
const MessageSize = 12

// VideoInfoSize is the size of the GET_VIDEO_INFO reply.
const VideoInfoSize = 24

// Message is the request union. A and B carry the per-type payload:
// KEY_PRESS/KEY_RELEASE {A: device, B: evdev key}, REMOVE_DEVICE {A: device},
// ENABLE_SECOND_MONITOR {A: enable}, CREATE_KEYBOARD_REPLY {A: device}.
type Message struct {
	Type MessageType
	A    uint32
	B    uint32
}

// MarshalBinary encodes m into its 12-byte wire form.
func (m Message) MarshalBinary() ([]byte, error) {
	buf := make([]byte, MessageSize)
	binary.NativeEndian.PutUint32(buf[0:], uint32(m.Type))
	binary.NativeEndian.PutUint32(buf[4:], m.A)
	binary.NativeEndian.PutUint32(buf[8:], m.B)
	return buf, nil
}

// UnmarshalBinary decodes a record. Short records are zero-extended, since
// replies such as CREATE_KEYBOARD_REPLY are only two words long.
func (m *Message) UnmarshalBinary(buf []byte) error {
	if len(buf) < 4 {
		return fmt.Errorf("injection: short message (%d bytes)", len(buf))
	}
	var words [3]uint32
	for i := range words {
		if off := 4 * i; off+4 <= len(buf) {
			words[i] = binary.NativeEndian.Uint32(buf[off:])
		}
	}
	m.Type = MessageType(words[0])
	m.A = words[1]
	m.B = words[2]
	return nil
}

// VideoInfo describes the companion's fake outputs and modes.
type VideoInfo struct {
	SecondCrtc   uint32
	SecondOutput uint32
	FirstOutput  uint32
	LargeModeID  uint32
	SmallModeID  uint32
}

func decodeVideoInfo(buf []byte) (VideoInfo, error) {
	if len(buf) < VideoInfoSize {
		return VideoInfo{}, fmt.Errorf("injection: short video info reply (%d bytes)", len(buf))
	}
	if t := MessageType(binary.NativeEndian.Uint32(buf)); t != MsgGetVideoInfoReply {
		return VideoInfo{}, fmt.Errorf("injection: expected %s, got %s", MsgGetVideoInfoReply, t)
	}
	return VideoInfo{
		SecondCrtc:   binary.NativeEndian.Uint32(buf[4:]),
		SecondOutput: binary.NativeEndian.Uint32(buf[8:]),
		FirstOutput:  binary.NativeEndian.Uint32(buf[12:]),
		LargeModeID:  binary.NativeEndian.Uint32(buf[16:]),
		SmallModeID:  binary.NativeEndian.Uint32(buf[20:]),
	}, nil
}
