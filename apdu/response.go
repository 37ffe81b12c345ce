package apdu

import (
	"errors"
	"fmt"
)

// ErrBadRawResponse is returned by ParseResponse when the raw data is shorter
// than the two mandatory status bytes.
var ErrBadRawResponse = errors.New("response data must be at least 2 bytes")

// Status word constants shared by all ISO 7816 card applications.
const (
	SwOK                   = uint16(0x9000)
	SwFileNotFound         = uint16(0x6A82)
	SwRecordNotFound       = uint16(0x6A83)
	SwWrongLength          = uint16(0x6700)
	SwSecurityNotSatisfied = uint16(0x6982)
	SwAuthMethodBlocked    = uint16(0x6983)
	SwConditionsNotMet     = uint16(0x6985)
	SwIncorrectParams      = uint16(0x6A80)
	SwReferenceNotFound    = uint16(0x6A88)
	SwInsNotSupported      = uint16(0x6D00)
	SwClaNotSupported      = uint16(0x6E00)
	Sw1ResponseAvailable   = uint8(0x61)
	Sw1WrongExpectedLength = uint8(0x6C)
)

// Response represents a card response with its data and the SW1/SW2 status words.
type Response struct {
	Data []byte
	Sw1  uint8
	Sw2  uint8
	Sw   uint16
}

// WrongStatusError is returned when a response status word differs from the
// expected one.
type WrongStatusError struct {
	Sw uint16
}

func (e *WrongStatusError) Error() string {
	return fmt.Sprintf("unexpected response status: %#.4x", e.Sw)
}

// ParseResponse parses a raw response deserializing the data and the status words.
func ParseResponse(data []byte) (*Response, error) {
	if len(data) < 2 {
		return nil, ErrBadRawResponse
	}

	return &Response{
		Data: data[0 : len(data)-2],
		Sw1:  data[len(data)-2],
		Sw2:  data[len(data)-1],
		Sw:   (uint16(data[len(data)-2]) << 8) | uint16(data[len(data)-1]),
	}, nil
}

// IsOK returns true if the response status word is 0x9000.
func (r *Response) IsOK() bool {
	return r.Sw == SwOK
}

// CheckSw returns a WrongStatusError unless the response status word matches
// one of the given values.
func (r *Response) CheckSw(sws ...uint16) error {
	for _, sw := range sws {
		if r.Sw == sw {
			return nil
		}
	}

	return &WrongStatusError{Sw: r.Sw}
}
