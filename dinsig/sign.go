package dinsig

import (
	"fmt"

	"cardd/apdu"
	"cardd/pcsc"
	"cardd/types"
)

// digestInfoPrefix holds the DER prefixes for the digests the profile
// permits. DIN SIG cards predate the SHA-2 family.
var digestInfoPrefix = map[types.HashAlgo][]byte{
	types.HashSHA1: {
		0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2B, 0x0E, 0x03, 0x02,
		0x1A, 0x05, 0x00, 0x04, 0x14,
	},
	types.HashRIPEMD160: {
		0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2B, 0x24, 0x03, 0x02,
		0x01, 0x05, 0x00, 0x04, 0x14,
	},
}

// Sign creates a signature over a 20 byte digest with the card's signing
// key. Digest algorithms outside the profile are rejected.
func (a *App) Sign(id string, algo types.HashAlgo, prompt types.PinPromptFunc, digest []byte) ([]byte, error) {
	if id != keyID {
		return nil, fmt.Errorf("%w: unknown key identifier %q", types.ErrInvalidArgument, id)
	}
	if prompt == nil {
		return nil, fmt.Errorf("%w: no PIN callback", types.ErrInvalidArgument)
	}

	input := digest
	if algo != types.HashNone {
		prefix, ok := digestInfoPrefix[algo]
		if !ok {
			return nil, fmt.Errorf("%w: hash algorithm %s", types.ErrUnsupportedOperation, algo)
		}
		if len(digest) != 20 {
			return nil, fmt.Errorf("%w: %s digest must be 20 bytes, got %d",
				types.ErrInvalidArgument, algo, len(digest))
		}
		input = append(append([]byte{}, prefix...), digest...)
	}

	pin, err := prompt("Signature PIN")
	if err != nil {
		return nil, err
	}
	if len(pin) == 0 {
		return nil, fmt.Errorf("%w: empty PIN", types.ErrInvalidArgument)
	}

	verify := apdu.NewCommand(0x00, insVerify, 0x00, pinReference, pin)
	resp, err := a.t.Send(verify)
	if err != nil {
		return nil, err
	}
	if resp.Sw == apdu.SwSecurityNotSatisfied || resp.Sw&0xFFF0 == 0x63C0 {
		return nil, fmt.Errorf("%w: PIN verification failed", types.ErrCard)
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, pcsc.MapStatus(resp.Sw)
	}

	mse := apdu.NewCommand(0x00, insMSE, 0x41, 0xB6, []byte{0x84, 0x01, keyReference})
	resp, err = a.t.Send(mse)
	if err != nil {
		return nil, err
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, fmt.Errorf("selecting signing key: %w", pcsc.MapStatus(resp.Sw))
	}

	pso := apdu.NewCommand(0x00, insPSO, 0x9E, 0x9A, input)
	pso.SetLe(0)
	resp, err = a.t.Send(pso)
	if err != nil {
		return nil, err
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, fmt.Errorf("signing: %w", pcsc.MapStatus(resp.Sw))
	}

	return resp.Data, nil
}
