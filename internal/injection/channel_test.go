package injection

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompanion answers requests the way the server-resident module does and
// records every message it receives.
type fakeCompanion struct {
	conn     net.Conn
	received chan Message
}

func newPair(t *testing.T) (*Channel, *fakeCompanion) {
	t.Helper()
	local, peer, err := Socketpair()
	require.NoError(t, err)

	ch, err := NewChannel(local, nil)
	require.NoError(t, err)
	local.Close()

	peerConn, err := net.FileConn(peer)
	require.NoError(t, err)
	peer.Close()

	fc := &fakeCompanion{conn: peerConn, received: make(chan Message, 16)}
	go fc.serve()
	t.Cleanup(func() {
		ch.Close()
		peerConn.Close()
	})
	return ch, fc
}

func (f *fakeCompanion) serve() {
	buf := make([]byte, 64)
	nextID := uint32(10)
	for {
		n, err := f.conn.Read(buf)
		if err != nil {
			close(f.received)
			return
		}
		var m Message
		if err := m.UnmarshalBinary(buf[:n]); err != nil {
			continue
		}
		f.received <- m
		switch m.Type {
		case MsgCreateKeyboard:
			reply := make([]byte, 8)
			binary.NativeEndian.PutUint32(reply[0:], uint32(MsgCreateKeyboardReply))
			binary.NativeEndian.PutUint32(reply[4:], nextID)
			nextID++
			f.conn.Write(reply)
		case MsgEnableSecondMonitor:
			reply, _ := Message{Type: MsgEnableSecondMonitorReply}.MarshalBinary()
			f.conn.Write(reply)
		case MsgGetVideoInfo:
			reply := make([]byte, VideoInfoSize)
			for i, v := range []uint32{uint32(MsgGetVideoInfoReply), 0x40, 0x41, 0x42, 0x50, 0x51} {
				binary.NativeEndian.PutUint32(reply[4*i:], v)
			}
			f.conn.Write(reply)
		}
	}
}

func TestMessageEncoding(t *testing.T) {
	buf, err := Message{Type: MsgKeyPress, A: 12, B: 38}.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buf, MessageSize)
	assert.Equal(t, uint32(MsgKeyPress), binary.NativeEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(12), binary.NativeEndian.Uint32(buf[4:]))
	assert.Equal(t, uint32(38), binary.NativeEndian.Uint32(buf[8:]))

	var m Message
	require.NoError(t, m.UnmarshalBinary(buf[:8]))
	assert.Equal(t, Message{Type: MsgKeyPress, A: 12}, m)
	assert.Error(t, m.UnmarshalBinary(buf[:2]))
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "CREATE_KEYBOARD_REPLY", MsgCreateKeyboardReply.String())
	assert.Equal(t, "MessageType(99)", MessageType(99).String())
}

func TestChannel_CreateKeyboardRoundTrip(t *testing.T) {
	ch, fc := newPair(t)

	id, err := ch.CreateKeyboard()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), id)
	assert.Equal(t, Message{Type: MsgCreateKeyboard}, <-fc.received)

	id, err = ch.CreateKeyboard()
	require.NoError(t, err)
	assert.Equal(t, uint32(11), id)
}

func TestChannel_FireAndForgetMessages(t *testing.T) {
	ch, fc := newPair(t)

	require.NoError(t, ch.KeyPress(10, 38))
	require.NoError(t, ch.KeyRelease(10, 38))
	require.NoError(t, ch.RemoveDevice(10))

	assert.Equal(t, Message{Type: MsgKeyPress, A: 10, B: 38}, <-fc.received)
	assert.Equal(t, Message{Type: MsgKeyRelease, A: 10, B: 38}, <-fc.received)
	assert.Equal(t, Message{Type: MsgRemoveDevice, A: 10}, <-fc.received)
}

func TestChannel_MonitorMessages(t *testing.T) {
	ch, fc := newPair(t)

	require.NoError(t, ch.EnableSecondMonitor(true))
	assert.Equal(t, Message{Type: MsgEnableSecondMonitor, A: 1}, <-fc.received)

	info, err := ch.VideoInfo()
	require.NoError(t, err)
	assert.Equal(t, VideoInfo{SecondCrtc: 0x40, SecondOutput: 0x41, FirstOutput: 0x42, LargeModeID: 0x50, SmallModeID: 0x51}, info)
}

func TestChannel_ClosedChannelFails(t *testing.T) {
	ch, _ := newPair(t)
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())

	assert.ErrorIs(t, ch.KeyPress(1, 2), ErrClosed)
	_, err := ch.CreateKeyboard()
	assert.ErrorIs(t, err, ErrClosed)
}
