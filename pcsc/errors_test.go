package pcsc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ebfe/scard"
	"github.com/stretchr/testify/assert"

	"cardd/types"
)

func TestMapErrorNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
}

func TestMapErrorKnownCodes(t *testing.T) {
	tests := []struct {
		in   scard.Error
		want error
	}{
		{scard.ErrNoSmartcard, types.ErrCardNotPresent},
		{scard.ErrNoReadersAvailable, types.ErrCardNotPresent},
		{scard.ErrRemovedCard, types.ErrCardRemoved},
		{scard.ErrResetCard, types.ErrCardRemoved},
		{scard.ErrUnknownCard, types.ErrInvalidCard},
		{scard.ErrUnresponsiveCard, types.ErrInvalidCard},
		{scard.ErrNoMemory, types.ErrOutOfMemory},
		{scard.ErrUnsupportedFeature, types.ErrUnsupportedOperation},
	}

	for _, test := range tests {
		err := MapError(test.in)
		assert.True(t, errors.Is(err, test.want), "%v should map to %v, got %v", test.in, test.want, err)
	}
}

func TestMapErrorDefaultsToCardError(t *testing.T) {
	assert.True(t, errors.Is(MapError(scard.ErrInvalidHandle), types.ErrCard))
	assert.True(t, errors.Is(MapError(errors.New("something else")), types.ErrCard))
}

func TestMapErrorPassesMappedErrorsThrough(t *testing.T) {
	wrapped := fmt.Errorf("%w: details", types.ErrCardNotPresent)
	assert.Equal(t, wrapped, MapError(wrapped))
	assert.Equal(t, types.ErrNoMoreKeys, MapError(types.ErrNoMoreKeys))
}

func TestMapStatus(t *testing.T) {
	assert.NoError(t, MapStatus(0x9000))
	assert.True(t, errors.Is(MapStatus(0x6A82), types.ErrApplicationNotFound))
	assert.True(t, errors.Is(MapStatus(0x6D00), types.ErrUnsupportedOperation))
	assert.True(t, errors.Is(MapStatus(0x6F00), types.ErrCard))
	assert.True(t, errors.Is(MapStatus(0x6982), types.ErrCard))
}

func TestParseFileInfo(t *testing.T) {
	// FCI template: transparent working EF, 18 bytes.
	fci := []byte{0x6F, 0x07, 0x80, 0x02, 0x00, 0x12, 0x82, 0x01, 0x01}

	info, err := parseFileInfo(fci)
	assert.NoError(t, err)
	assert.Equal(t, 0x12, info.Size)
	assert.True(t, info.Transparent)
}

func TestParseFileInfoRecordFile(t *testing.T) {
	// Descriptor 0x02: linear fixed EF, not transparent.
	fci := []byte{0x62, 0x07, 0x81, 0x02, 0x01, 0x00, 0x82, 0x01, 0x02}

	info, err := parseFileInfo(fci)
	assert.NoError(t, err)
	assert.Equal(t, 0x100, info.Size)
	assert.False(t, info.Transparent)
}

func TestParseFileInfoMalformed(t *testing.T) {
	_, err := parseFileInfo(nil)
	assert.True(t, errors.Is(err, types.ErrCard))

	_, err = parseFileInfo([]byte{0x42, 0x01, 0x00})
	assert.True(t, errors.Is(err, types.ErrCard))
}
