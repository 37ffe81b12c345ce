package p15

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardd/types"
)

func TestParseTokenInfo(t *testing.T) {
	data := tlvHex(t,
		"30", "16",
		"0201", "00", // version
		"0404", "DEADBEEF", // serialNumber
		"0C04", "41434D45", // manufacturerID "ACME"
		"8005", "4D794B6579", // label "MyKey"
	)

	ti, err := parseTokenInfo(data)
	require.NoError(t, err)
	assert.Equal(t, "DEADBEEF", ti.serial)
	assert.Equal(t, "ACME", ti.manufacturer)
	assert.Equal(t, "MyKey", ti.label)
}

func TestParseTokenInfoMinimal(t *testing.T) {
	ti, err := parseTokenInfo(tlvHex(t, "30", "06", "0404", "00112233"))
	require.NoError(t, err)
	assert.Equal(t, "00112233", ti.serial)
	assert.Empty(t, ti.label)
}

func TestParseTokenInfoNoSerial(t *testing.T) {
	_, err := parseTokenInfo(tlvHex(t, "30", "03", "0201", "00"))
	assert.True(t, errors.Is(err, types.ErrBadStructure), "got %v", err)
}

func TestParseTokenInfoNotASequence(t *testing.T) {
	_, err := parseTokenInfo(tlvHex(t, "0404", "00112233"))
	assert.True(t, errors.Is(err, types.ErrBadStructure), "got %v", err)
}
