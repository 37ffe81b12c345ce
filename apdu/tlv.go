package apdu

import (
	"errors"
	"fmt"
)

// TagNotFoundError is an error returned if a tag is not found in a TLV sequence.
type TagNotFoundError struct {
	tag uint8
}

// Error implements the error interface
func (e *TagNotFoundError) Error() string {
	return fmt.Sprintf("tag %x not found", e.tag)
}

// ErrBufferTooShort is returned when a TLV length field points past the end of
// the buffer. The data comes straight from the card, so a truncated or
// malformed record must stop the scan instead of reading out of bounds.
var ErrBufferTooShort = errors.New("tlv: buffer too short")

// FindTLV scans a sequence of simple-TLV records and returns the offset and
// declared length of the value of the first record matching tag.
//
// Records are encoded as tag(1) length(1) value(length). A length byte of
// 0xFF announces a 2-byte big-endian extended length immediately following.
// The declared length of a matching record is returned as-is, even when it
// exceeds the remaining buffer; checking that the value actually fits is the
// caller's job. Skipping a non-matching record past the end of the buffer
// fails with ErrBufferTooShort.
func FindTLV(buf []byte, tag uint8) (offset int, length int, err error) {
	off := 0
	n := len(buf)

	for {
		if n == 0 {
			return 0, 0, &TagNotFoundError{tag}
		}
		if n < 2 {
			return 0, 0, ErrBufferTooShort
		}

		t := buf[off]
		length = int(buf[off+1])
		off += 2
		n -= 2

		if length == 0xFF {
			if n < 2 {
				return 0, 0, ErrBufferTooShort
			}
			length = int(buf[off])<<8 | int(buf[off+1])
			off += 2
			n -= 2
		}

		if t == tag {
			return off, length, nil
		}

		if length > n {
			return 0, 0, ErrBufferTooShort
		}

		off += length
		n -= length
	}
}

// FindValue returns the value of the first simple-TLV record matching tag. It
// fails with ErrBufferTooShort when the declared length does not fit in the
// buffer.
func FindValue(buf []byte, tag uint8) ([]byte, error) {
	off, length, err := FindTLV(buf, tag)
	if err != nil {
		return nil, err
	}

	if length > len(buf)-off {
		return nil, ErrBufferTooShort
	}

	return buf[off : off+length], nil
}
