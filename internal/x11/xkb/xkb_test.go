package xkb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeUseExtension(t *testing.T) {
	buf := encodeUseExtension(135, 1, 0)
	assert.Equal(t, []byte{135, 0, 2, 0, 1, 0, 0, 0}, buf)
}

func TestEncodeLatchLockState(t *testing.T) {
	buf := encodeLatchLockState(135, 11, 1)
	assert.Len(t, buf, 16)
	assert.Equal(t, byte(135), buf[0])
	assert.Equal(t, byte(opLatchLockState), buf[1])
	assert.Equal(t, []byte{4, 0}, buf[2:4], "length in 4-byte units")
	assert.Equal(t, []byte{11, 0}, buf[4:6], "device spec")
	assert.Equal(t, byte(1), buf[8], "lockGroup")
	assert.Equal(t, byte(1), buf[9], "groupLock")
	assert.Equal(t, byte(0), buf[13], "latchGroup")
}
