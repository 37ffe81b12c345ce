package apdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandSerialize(t *testing.T) {
	cmd := NewCommand(0x00, 0xA4, 0x04, 0x00, []byte{0x3F, 0x00})

	raw, err := cmd.Serialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xA4, 0x04, 0x00, 0x02, 0x3F, 0x00}, raw)
}

func TestCommandSerializeNoData(t *testing.T) {
	cmd := NewCommand(0x00, 0xB0, 0x00, 0x10, nil)

	raw, err := cmd.Serialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xB0, 0x00, 0x10}, raw)
}

func TestCommandSerializeWithLe(t *testing.T) {
	cmd := NewCommand(0x00, 0xB0, 0x00, 0x00, nil)
	cmd.SetLe(0x20)

	raw, err := cmd.Serialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xB0, 0x00, 0x00, 0x20}, raw)
}

func TestCommandSerializeDataTooLong(t *testing.T) {
	// 256 bytes of RSA-2048 cryptogram plus the padding indicator byte is
	// the smallest real payload that overflows a single Lc byte.
	cmd := NewCommand(0x00, 0x2A, 0x80, 0x86, make([]byte, 257))

	_, err := cmd.Serialize()
	assert.Equal(t, ErrDataTooLong, err)

	cmd = NewCommand(0x00, 0x2A, 0x80, 0x86, make([]byte, 255))
	raw, err := cmd.Serialize()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), raw[4])
	assert.Len(t, raw, 5+255)
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte{0xDE, 0xAD, 0x90, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, resp.Data)
	assert.Equal(t, uint8(0x90), resp.Sw1)
	assert.Equal(t, uint8(0x00), resp.Sw2)
	assert.Equal(t, SwOK, resp.Sw)
	assert.True(t, resp.IsOK())
}

func TestParseResponseTooShort(t *testing.T) {
	_, err := ParseResponse([]byte{0x90})
	assert.Equal(t, ErrBadRawResponse, err)
}

func TestResponseCheckSw(t *testing.T) {
	resp, err := ParseResponse([]byte{0x6A, 0x82})
	require.NoError(t, err)

	assert.NoError(t, resp.CheckSw(SwOK, SwFileNotFound))

	err = resp.CheckSw(SwOK)
	require.Error(t, err)
	assert.Equal(t, SwFileNotFound, err.(*WrongStatusError).Sw)
}
