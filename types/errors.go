package types

import "errors"

// The card error taxonomy. Every error surfaced by a public card operation
// wraps exactly one of these sentinels; raw transport codes never escape the
// transport layer.
var (
	// ErrInvalidArgument means a caller-supplied value or buffer is missing
	// or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidIndex means a negative enumeration index.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrNotInitialized means an operation was attempted before the card
	// backend was bound.
	ErrNotInitialized = errors.New("card not initialized")

	// ErrUnsupportedOperation means the bound backend has no implementation
	// for the requested operation.
	ErrUnsupportedOperation = errors.New("operation not supported")

	// ErrCardNotPresent means no card was detected in the reader.
	ErrCardNotPresent = errors.New("card not present")

	// ErrCardRemoved means the card was removed during the session.
	ErrCardRemoved = errors.New("card removed")

	// ErrInvalidCard means the card is not usable by any known backend.
	ErrInvalidCard = errors.New("invalid card")

	// ErrCard is the generic transport or application failure.
	ErrCard = errors.New("card error")

	// ErrBadStructure means malformed TLV data or an out-of-range declared
	// length in card identity data.
	ErrBadStructure = errors.New("invalid structure")

	// ErrOutOfMemory is the mapping target of the transport's no-memory code.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrMissingCertificate means a private key exists without an
	// accompanying certificate. Enumeration may continue past it.
	ErrMissingCertificate = errors.New("missing certificate")

	// ErrNoMoreKeys is the distinguished end of keypair enumeration.
	ErrNoMoreKeys = errors.New("no more keypairs")

	// ErrApplicationNotFound means no structured application was found on
	// the card. During backend binding this selects the fallback backend.
	ErrApplicationNotFound = errors.New("application not found")
)
