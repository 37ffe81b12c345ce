package pcsc

import (
	"errors"
	"fmt"

	"github.com/ebfe/scard"

	"cardd/apdu"
	"cardd/types"
)

// MapError translates a PC/SC error into the card error taxonomy. The mapping
// is total: nil stays nil, already-mapped errors pass through unchanged and
// any code without an explicit mapping becomes a generic card error.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range []error{
		types.ErrInvalidArgument,
		types.ErrInvalidIndex,
		types.ErrNotInitialized,
		types.ErrUnsupportedOperation,
		types.ErrCardNotPresent,
		types.ErrCardRemoved,
		types.ErrInvalidCard,
		types.ErrCard,
		types.ErrBadStructure,
		types.ErrOutOfMemory,
		types.ErrMissingCertificate,
		types.ErrNoMoreKeys,
		types.ErrApplicationNotFound,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}

	var scErr scard.Error
	if !errors.As(err, &scErr) {
		return fmt.Errorf("%w: %v", types.ErrCard, err)
	}

	switch scErr {
	case scard.ErrUnsupportedFeature:
		return fmt.Errorf("%w: %v", types.ErrUnsupportedOperation, scErr)
	case scard.ErrNoMemory:
		return fmt.Errorf("%w: %v", types.ErrOutOfMemory, scErr)
	case scard.ErrNoSmartcard, scard.ErrNoReadersAvailable:
		return fmt.Errorf("%w: %v", types.ErrCardNotPresent, scErr)
	case scard.ErrRemovedCard, scard.ErrResetCard:
		return fmt.Errorf("%w: %v", types.ErrCardRemoved, scErr)
	case scard.ErrUnknownCard, scard.ErrUnsupportedCard,
		scard.ErrUnresponsiveCard, scard.ErrUnpoweredCard:
		return fmt.Errorf("%w: %v", types.ErrInvalidCard, scErr)
	default:
		return fmt.Errorf("%w: %v", types.ErrCard, scErr)
	}
}

// MapStatus translates an application status word into the taxonomy. Like
// MapError the mapping is total; unlisted status words become generic card
// errors.
func MapStatus(sw uint16) error {
	switch sw {
	case apdu.SwOK:
		return nil
	case apdu.SwFileNotFound, apdu.SwRecordNotFound, apdu.SwReferenceNotFound:
		return fmt.Errorf("%w: status %#.4x", types.ErrApplicationNotFound, sw)
	case apdu.SwInsNotSupported, apdu.SwClaNotSupported:
		return fmt.Errorf("%w: status %#.4x", types.ErrUnsupportedOperation, sw)
	case apdu.SwIncorrectParams, apdu.SwWrongLength:
		return fmt.Errorf("%w: status %#.4x", types.ErrInvalidCard, sw)
	default:
		return fmt.Errorf("%w: status %#.4x", types.ErrCard, sw)
	}
}
