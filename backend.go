package cardd

import (
	"cardd/types"
)

// backend is what every card application driver provides.
type backend interface {
	EnumKeypairs(idx int) (*types.Keypair, error)
	ReadCert(id string) ([]byte, error)
	Release()
}

// signer and decipherer are the optional driver capabilities. A driver that
// does not implement one simply lacks the method; callers get
// types.ErrUnsupportedOperation.
type signer interface {
	Sign(id string, algo types.HashAlgo, prompt types.PinPromptFunc, digest []byte) ([]byte, error)
}

type decipherer interface {
	Decipher(id string, prompt types.PinPromptFunc, ciphertext []byte) ([]byte, error)
}
