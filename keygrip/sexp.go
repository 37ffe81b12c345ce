package keygrip

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Canonical S-expressions: atoms are "<decimal length>:<bytes>", lists are
// parenthesized sequences of atoms and lists. The encoding is untrusted
// input, so every length is checked against the remaining buffer before any
// byte is read.

var errBadSexp = errors.New("keygrip: malformed canonical S-expression")

// maxLengthDigits bounds the decimal length prefix of an atom. Key material
// never comes close to 10^8 bytes.
const maxLengthDigits = 8

type sexp struct {
	atom  []byte
	items []*sexp
}

func (s *sexp) isAtom() bool {
	return s.atom != nil
}

// parseSexp reads one complete canonical S-expression covering the whole
// buffer. The walk is iterative; nesting depth costs stack entries on the
// explicit stack, never Go stack frames.
func parseSexp(data []byte) (*sexp, error) {
	if len(data) == 0 || data[0] != '(' {
		return nil, errBadSexp
	}

	var stack []*sexp
	i := 0

	for i < len(data) {
		switch c := data[i]; {
		case c == '(':
			stack = append(stack, &sexp{})
			i++
		case c == ')':
			if len(stack) == 0 {
				return nil, errBadSexp
			}
			done := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++

			if len(stack) == 0 {
				if i != len(data) {
					return nil, fmt.Errorf("%w: trailing data", errBadSexp)
				}
				return done, nil
			}
			parent := stack[len(stack)-1]
			parent.items = append(parent.items, done)
		case c >= '0' && c <= '9':
			if len(stack) == 0 {
				return nil, errBadSexp
			}

			colon := bytes.IndexByte(data[i:], ':')
			if colon <= 0 || colon > maxLengthDigits {
				return nil, errBadSexp
			}
			n, err := strconv.Atoi(string(data[i : i+colon]))
			if err != nil {
				return nil, errBadSexp
			}
			i += colon + 1
			if n > len(data)-i {
				return nil, fmt.Errorf("%w: atom length past end of buffer", errBadSexp)
			}

			parent := stack[len(stack)-1]
			parent.items = append(parent.items, &sexp{atom: data[i : i+n]})
			i += n
		default:
			return nil, errBadSexp
		}
	}

	return nil, fmt.Errorf("%w: unterminated list", errBadSexp)
}

// param returns the value of the named parameter in a key parameter list,
// e.g. n in (rsa (n <bytes>) (e <bytes>)).
func (s *sexp) param(name string) []byte {
	for _, item := range s.items {
		if item.isAtom() || len(item.items) < 2 {
			continue
		}
		if item.items[0].isAtom() && string(item.items[0].atom) == name {
			if item.items[1].isAtom() {
				return item.items[1].atom
			}
		}
	}
	return nil
}

// sexpBuilder writes canonical S-expressions.
type sexpBuilder struct {
	buf bytes.Buffer
}

func (b *sexpBuilder) open() {
	b.buf.WriteByte('(')
}

func (b *sexpBuilder) close() {
	b.buf.WriteByte(')')
}

func (b *sexpBuilder) atom(v []byte) {
	b.buf.WriteString(strconv.Itoa(len(v)))
	b.buf.WriteByte(':')
	b.buf.Write(v)
}

func (b *sexpBuilder) bytes() []byte {
	return b.buf.Bytes()
}
