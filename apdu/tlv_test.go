package apdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTLV(t *testing.T) {
	buf := []byte{0x5A, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}

	off, length, err := FindTLV(buf, 0x5A)
	require.NoError(t, err)
	assert.Equal(t, 2, off)
	assert.Equal(t, 4, length)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, buf[off:off+length])
}

func TestFindTLVSkipsRecords(t *testing.T) {
	buf := []byte{
		0x42, 0x01, 0xAA,
		0x5A, 0x02, 0x12, 0x34,
		0x5A, 0x01, 0x56, // only the first occurrence is returned
	}

	off, length, err := FindTLV(buf, 0x5A)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, buf[off:off+length])
}

func TestFindTLVExtendedLength(t *testing.T) {
	value := make([]byte, 0x0123)
	for i := range value {
		value[i] = byte(i)
	}

	buf := append([]byte{0x7F, 0xFF, 0x01, 0x23}, value...)

	off, length, err := FindTLV(buf, 0x7F)
	require.NoError(t, err)
	assert.Equal(t, 4, off)
	assert.Equal(t, 0x0123, length)
	assert.Equal(t, value, buf[off:off+length])
}

func TestFindTLVSkipsExtendedLengthRecords(t *testing.T) {
	long := make([]byte, 0x0100)
	buf := append([]byte{0x42, 0xFF, 0x01, 0x00}, long...)
	buf = append(buf, 0x5A, 0x01, 0x99)

	off, length, err := FindTLV(buf, 0x5A)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x99}, buf[off:off+length])
}

func TestFindTLVNotFound(t *testing.T) {
	buf := []byte{0x42, 0x01, 0xAA, 0x43, 0x02, 0xBB, 0xCC}

	_, _, err := FindTLV(buf, 0x5A)
	assert.IsType(t, &TagNotFoundError{}, err)

	_, _, err = FindTLV([]byte{}, 0x5A)
	assert.IsType(t, &TagNotFoundError{}, err)
}

func TestFindTLVTruncated(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"lone tag byte", []byte{0x42}},
		{"skip past end", []byte{0x42, 0x05, 0xAA, 0x5A, 0x01, 0x99}},
		{"extended length header cut off", []byte{0x42, 0xFF, 0x01}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := FindTLV(test.buf, 0x5A)
			assert.Equal(t, ErrBufferTooShort, err)
		})
	}
}

func TestFindTLVMatchDoesNotCheckFit(t *testing.T) {
	// A matching record reports its declared length even when the value is
	// truncated; the caller decides what to do with it.
	buf := []byte{0x5A, 0x0D, 0x01, 0x02, 0x03}

	off, length, err := FindTLV(buf, 0x5A)
	require.NoError(t, err)
	assert.Equal(t, 2, off)
	assert.Equal(t, 13, length)

	_, err = FindValue(buf, 0x5A)
	assert.Equal(t, ErrBufferTooShort, err)
}

func TestFindValue(t *testing.T) {
	buf := []byte{0x42, 0x01, 0xAA, 0x5A, 0x03, 0x01, 0x02, 0x03}

	v, err := FindValue(buf, 0x5A)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, v)
}

func TestFindTLVZeroLengthRecord(t *testing.T) {
	buf := []byte{0x42, 0x00, 0x5A, 0x01, 0x77}

	off, length, err := FindTLV(buf, 0x5A)
	require.NoError(t, err)
	assert.Equal(t, 1, length)
	assert.Equal(t, []byte{0x77}, buf[off:off+length])
}
