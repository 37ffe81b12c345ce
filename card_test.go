package cardd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"cardd/types"
)

// fakeBackend records which operations reach the driver. It implements
// signing but not deciphering.
type fakeBackend struct {
	enumCalls int
	released  bool
}

func (f *fakeBackend) EnumKeypairs(idx int) (*types.Keypair, error) {
	f.enumCalls++
	if idx > 0 {
		return nil, types.ErrNoMoreKeys
	}
	return &types.Keypair{ID: "3F005015.45"}, nil
}

func (f *fakeBackend) ReadCert(id string) ([]byte, error) {
	return []byte{0x30, 0x00}, nil
}

func (f *fakeBackend) Sign(id string, algo types.HashAlgo, prompt types.PinPromptFunc, digest []byte) ([]byte, error) {
	return []byte{0x01}, nil
}

func (f *fakeBackend) Release() {
	f.released = true
}

func pinPrompt(string) ([]byte, error) { return []byte("123456"), nil }

func TestOperationsRequireBinding(t *testing.T) {
	c := &Card{}

	_, err := c.EnumKeypairs(0)
	assert.True(t, errors.Is(err, types.ErrNotInitialized), "got %v", err)

	_, err = c.ReadCert("3F005015.45")
	assert.True(t, errors.Is(err, types.ErrNotInitialized), "got %v", err)

	_, err = c.Sign("3F005015.45", types.HashSHA256, pinPrompt, make([]byte, 32))
	assert.True(t, errors.Is(err, types.ErrNotInitialized), "got %v", err)

	_, err = c.Decipher("3F005015.45", pinPrompt, []byte{0x01})
	assert.True(t, errors.Is(err, types.ErrNotInitialized), "got %v", err)
}

func TestEnumKeypairsNegativeIndex(t *testing.T) {
	fb := &fakeBackend{}
	c := &Card{backend: fb}

	_, err := c.EnumKeypairs(-1)
	assert.True(t, errors.Is(err, types.ErrInvalidIndex), "got %v", err)
	assert.Zero(t, fb.enumCalls, "a bad index must not reach the driver")
}

func TestArgumentChecksPrecedeDispatch(t *testing.T) {
	c := &Card{backend: &fakeBackend{}}

	_, err := c.ReadCert("")
	assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)

	_, err = c.Sign("", types.HashSHA256, pinPrompt, make([]byte, 32))
	assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)

	_, err = c.Sign("3F005015.45", types.HashSHA256, nil, make([]byte, 32))
	assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)

	_, err = c.Sign("3F005015.45", types.HashSHA256, pinPrompt, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)

	_, err = c.Decipher("3F005015.45", pinPrompt, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)
}

func TestDispatchForwardsToDriver(t *testing.T) {
	c := &Card{backend: &fakeBackend{}}

	kp, err := c.EnumKeypairs(0)
	assert.NoError(t, err)
	assert.Equal(t, "3F005015.45", kp.ID)

	cert, err := c.ReadCert("3F005015.45")
	assert.NoError(t, err)
	assert.NotEmpty(t, cert)

	sig, err := c.Sign("3F005015.45", types.HashSHA256, pinPrompt, make([]byte, 32))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x01}, sig)
}

func TestDecipherUnsupportedByDriver(t *testing.T) {
	// fakeBackend implements Sign but not Decipher, like the fallback
	// driver.
	c := &Card{backend: &fakeBackend{}}

	_, err := c.Decipher("3F005015.45", pinPrompt, []byte{0x01})
	assert.True(t, errors.Is(err, types.ErrUnsupportedOperation), "got %v", err)
}

func TestBindIsIdempotent(t *testing.T) {
	// A session with a bound driver must keep it across further bind
	// calls. The session has no card connection, so any re-attempt would
	// fail loudly instead of passing this test.
	fb := &fakeBackend{}
	c := &Card{backend: fb}

	c.bind()
	assert.Same(t, fb, c.backend)
	assert.False(t, fb.released)

	kp, err := c.EnumKeypairs(0)
	assert.NoError(t, err)
	assert.Equal(t, "3F005015.45", kp.ID)
	assert.Equal(t, 1, fb.enumCalls)
}

func TestCloseReleasesDriver(t *testing.T) {
	fb := &fakeBackend{}
	c := &Card{backend: fb}

	c.Close()
	assert.True(t, fb.released)
	assert.Nil(t, c.backend)

	// Closing again, or closing a nil session, must not panic.
	c.Close()
	(*Card)(nil).Close()
}

func TestSerialRequiresOpenSession(t *testing.T) {
	c := &Card{}

	_, err := c.Serial()
	assert.True(t, errors.Is(err, types.ErrInvalidArgument), "got %v", err)
}
