package cardd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardd/types"
)

func TestFindICCSN(t *testing.T) {
	serial, err := findICCSN([]byte{0x5A, 0x04, 0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)
	assert.Equal(t, "DEADBEEF", serial)
}

func TestFindICCSNSkipsOtherRecords(t *testing.T) {
	buf := []byte{
		0x42, 0x02, 0xAA, 0xBB,
		0x5A, 0x03, 0x01, 0x02, 0x03,
	}
	serial, err := findICCSN(buf)
	require.NoError(t, err)
	assert.Equal(t, "010203", serial)
}

func TestFindICCSNTestcardWorkaround(t *testing.T) {
	// Declared 13 byte serial, 12 bytes present: accepted with the length
	// clipped.
	buf := append([]byte{0x5A, 0x0D}, make([]byte, 12)...)
	serial, err := findICCSN(buf)
	require.NoError(t, err)
	assert.Equal(t, "000000000000000000000000", serial)
}

func TestFindICCSNOverrun(t *testing.T) {
	// Any other mismatch between declared and present length fails.
	for _, buf := range [][]byte{
		append([]byte{0x5A, 0x0D}, make([]byte, 11)...),
		append([]byte{0x5A, 0x0C}, make([]byte, 11)...),
		{0x5A, 0x05, 0x01},
	} {
		_, err := findICCSN(buf)
		assert.True(t, errors.Is(err, types.ErrBadStructure), "buf %X: got %v", buf, err)
	}
}

func TestFindICCSNEmptyRecord(t *testing.T) {
	_, err := findICCSN([]byte{0x5A, 0x00})
	assert.True(t, errors.Is(err, types.ErrBadStructure), "got %v", err)
}

func TestFindICCSNMissing(t *testing.T) {
	_, err := findICCSN([]byte{0x42, 0x02, 0xAA, 0xBB})
	assert.True(t, errors.Is(err, types.ErrBadStructure), "got %v", err)
}

func TestApplySerialQuirks(t *testing.T) {
	tests := []struct {
		name        string
		serial      string
		standardApp bool
		appSerial   string
		want        string
	}{
		{
			name:   "plain serial unchanged",
			serial: "DEADBEEF",
			want:   "DEADBEEF",
		},
		{
			name:        "placeholder replaced by application serial",
			serial:      "D27600000000000000000000",
			standardApp: true,
			appSerial:   "ABC123",
			want:        "FF0100ABC123",
		},
		{
			name:   "placeholder kept without standard application",
			serial: "D27600000000000000000000",
			want:   "D27600000000000000000000",
		},
		{
			name:   "reserved prefix escaped",
			serial: "FF112233",
			want:   "FF0000FF112233",
		},
		{
			name:        "reserved prefix escaped with standard application",
			serial:      "FF112233",
			standardApp: true,
			appSerial:   "ABC123",
			want:        "FF0000FF112233",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applySerialQuirks(tt.serial, tt.standardApp, tt.appSerial)
			assert.Equal(t, tt.want, got)
		})
	}
}
