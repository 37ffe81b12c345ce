package types

import "cardd/apdu"

// Channel is an interface with a Send method to send apdu commands and receive apdu responses.
type Channel interface {
	Send(*apdu.Command) (*apdu.Response, error)
}

// KeygripLen is the size of a key fingerprint.
const KeygripLen = 20

// Keypair describes one keypair found on a card during enumeration. ID is a
// card-specific identifier for the key and may be empty.
type Keypair struct {
	Keygrip [KeygripLen]byte
	ID      string
}

// PinPromptFunc asks the user for a PIN. The prompt describes which PIN is
// requested. Implementations may block on user input; the returned secret is
// owned by the caller.
type PinPromptFunc func(prompt string) ([]byte, error)

// HashAlgo identifies the hash function a to-be-signed digest was computed
// with.
type HashAlgo int

const (
	HashNone HashAlgo = iota
	HashSHA1
	HashSHA256
	HashSHA384
	HashSHA512
	HashRIPEMD160
)

func (h HashAlgo) String() string {
	switch h {
	case HashNone:
		return "none"
	case HashSHA1:
		return "sha1"
	case HashSHA256:
		return "sha256"
	case HashSHA384:
		return "sha384"
	case HashSHA512:
		return "sha512"
	case HashRIPEMD160:
		return "rmd160"
	default:
		return "unknown"
	}
}
