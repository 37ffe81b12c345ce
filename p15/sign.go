package p15

import (
	"fmt"

	"cardd/apdu"
	"cardd/pcsc"
	"cardd/types"
)

const (
	insVerify = uint8(0x20)
	insMSE    = uint8(0x22)
	insPSO    = uint8(0x2A)
)

// digestInfoPrefix maps a hash algorithm to the DER prefix that turns a raw
// digest into a DigestInfo structure, as required for PKCS#1 v1.5
// signatures.
var digestInfoPrefix = map[types.HashAlgo][]byte{
	types.HashSHA1: {
		0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2B, 0x0E, 0x03, 0x02,
		0x1A, 0x05, 0x00, 0x04, 0x14,
	},
	types.HashRIPEMD160: {
		0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2B, 0x24, 0x03, 0x02,
		0x01, 0x05, 0x00, 0x04, 0x14,
	},
	types.HashSHA256: {
		0x30, 0x31, 0x30, 0x0D, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
		0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
	},
	types.HashSHA384: {
		0x30, 0x41, 0x30, 0x0D, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
		0x65, 0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30,
	},
	types.HashSHA512: {
		0x30, 0x51, 0x30, 0x0D, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
		0x65, 0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40,
	},
}

var digestLen = map[types.HashAlgo]int{
	types.HashSHA1:      20,
	types.HashRIPEMD160: 20,
	types.HashSHA256:    32,
	types.HashSHA384:    48,
	types.HashSHA512:    64,
}

// buildDigestInfo validates the digest length for the algorithm and prepends
// the DigestInfo prefix. HashNone passes the input through for callers that
// provide a complete DigestInfo themselves.
func buildDigestInfo(algo types.HashAlgo, digest []byte) ([]byte, error) {
	if algo == types.HashNone {
		return digest, nil
	}
	prefix, ok := digestInfoPrefix[algo]
	if !ok {
		return nil, fmt.Errorf("%w: hash algorithm %s", types.ErrUnsupportedOperation, algo)
	}
	if len(digest) != digestLen[algo] {
		return nil, fmt.Errorf("%w: %s digest must be %d bytes, got %d",
			types.ErrInvalidArgument, algo, digestLen[algo], len(digest))
	}
	return append(append([]byte{}, prefix...), digest...), nil
}

// Sign creates a signature over the given digest with the named key. The
// cardholder PIN is collected through the prompt callback and verified on
// the card before the key is armed for signing.
func (a *App) Sign(id string, algo types.HashAlgo, prompt types.PinPromptFunc, digest []byte) ([]byte, error) {
	key, err := a.lookup(id)
	if err != nil {
		return nil, err
	}

	input, err := buildDigestInfo(algo, digest)
	if err != nil {
		return nil, err
	}

	if err := a.verifyPIN(key, prompt); err != nil {
		return nil, err
	}

	// MSE:SET for digital signature, naming the key by its reference.
	mse := apdu.NewCommand(0x00, insMSE, 0x41, 0xB6, []byte{0x84, 0x01, key.keyRef})
	resp, err := a.t.Send(mse)
	if err != nil {
		return nil, err
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, fmt.Errorf("selecting key %X for signing: %w", key.id, pcsc.MapStatus(resp.Sw))
	}

	pso := apdu.NewCommand(0x00, insPSO, 0x9E, 0x9A, input)
	pso.SetLe(0)
	resp, err = a.t.Send(pso)
	if err != nil {
		return nil, err
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, fmt.Errorf("signing with key %X: %w", key.id, pcsc.MapStatus(resp.Sw))
	}

	return resp.Data, nil
}

// Decipher decrypts a cryptogram with the named key. As with Sign, the PIN
// is verified first; the ciphertext is sent with a leading zero padding
// indicator byte.
func (a *App) Decipher(id string, prompt types.PinPromptFunc, ciphertext []byte) ([]byte, error) {
	key, err := a.lookup(id)
	if err != nil {
		return nil, err
	}

	if err := a.verifyPIN(key, prompt); err != nil {
		return nil, err
	}

	mse := apdu.NewCommand(0x00, insMSE, 0x41, 0xB8, []byte{0x84, 0x01, key.keyRef})
	resp, err := a.t.Send(mse)
	if err != nil {
		return nil, err
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, fmt.Errorf("selecting key %X for decipher: %w", key.id, pcsc.MapStatus(resp.Sw))
	}

	input := append([]byte{0x00}, ciphertext...)
	pso := apdu.NewCommand(0x00, insPSO, 0x80, 0x86, input)
	pso.SetLe(0)
	resp, err = a.t.Send(pso)
	if err != nil {
		return nil, err
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, fmt.Errorf("deciphering with key %X: %w", key.id, pcsc.MapStatus(resp.Sw))
	}

	return resp.Data, nil
}

// pinReference is the cardholder PIN reference used for VERIFY. Profiles
// that need another reference are not handled.
const pinReference = uint8(0x01)

func (a *App) verifyPIN(key *keypairInfo, prompt types.PinPromptFunc) error {
	if prompt == nil {
		return fmt.Errorf("%w: no PIN callback", types.ErrInvalidArgument)
	}

	what := key.label
	if what == "" {
		what = fmt.Sprintf("key %X", key.id)
	}
	pin, err := prompt(fmt.Sprintf("PIN for %s", what))
	if err != nil {
		return err
	}
	if len(pin) == 0 {
		return fmt.Errorf("%w: empty PIN", types.ErrInvalidArgument)
	}

	verify := apdu.NewCommand(0x00, insVerify, 0x00, pinReference, pin)
	resp, err := a.t.Send(verify)
	if err != nil {
		return err
	}
	if resp.Sw == apdu.SwSecurityNotSatisfied || resp.Sw&0xFFF0 == 0x63C0 {
		return fmt.Errorf("%w: PIN verification failed", types.ErrCard)
	}
	if resp.Sw == apdu.SwAuthMethodBlocked {
		return fmt.Errorf("%w: PIN is blocked", types.ErrCard)
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return pcsc.MapStatus(resp.Sw)
	}

	return nil
}
