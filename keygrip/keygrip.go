// Package keygrip derives fixed-size key fingerprints from certificate
// public keys. The grip depends only on the key material, not on the
// certificate encoding around it, so it stays stable across re-issued
// certificates for the same key.
package keygrip

import (
	"crypto/sha1"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Size is the length of a keygrip in bytes.
const Size = sha1.Size

var (
	// ErrNoPublicKey is returned when the certificate carries no usable
	// public key.
	ErrNoPublicKey = errors.New("keygrip: no public key")

	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidECPublicKey   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidEd25519       = asn1.ObjectIdentifier{1, 3, 101, 112}
)

// FromSexp parses a public key given as a canonical S-expression and returns
// its keygrip. The grip hashes the key parameters that identify the key:
// the modulus for RSA, the public point for ECC, and the domain parameters
// plus public value for DSA-style keys.
func FromSexp(data []byte) ([Size]byte, error) {
	var grip [Size]byte

	if len(data) == 0 {
		return grip, ErrNoPublicKey
	}

	root, err := parseSexp(data)
	if err != nil {
		return grip, err
	}

	if len(root.items) < 2 || !root.items[0].isAtom() {
		return grip, errBadSexp
	}
	switch string(root.items[0].atom) {
	case "public-key", "private-key":
	default:
		return grip, fmt.Errorf("%w: not a key expression", errBadSexp)
	}

	key := root.items[1]
	if key.isAtom() || len(key.items) < 2 || !key.items[0].isAtom() {
		return grip, errBadSexp
	}

	h := sha1.New()
	switch algo := string(key.items[0].atom); algo {
	case "rsa", "openpgp-rsa", "oid.1.2.840.113549.1.1.1":
		n := key.param("n")
		if n == nil {
			return grip, fmt.Errorf("%w: rsa key without modulus", errBadSexp)
		}
		h.Write(trimLeadingZeros(n))
	case "dsa", "elg", "elgamal":
		for _, name := range []string{"p", "q", "g", "y"} {
			v := key.param(name)
			if v == nil && name == "q" {
				continue // Elgamal has no q
			}
			if v == nil {
				return grip, fmt.Errorf("%w: %s key without parameter %s", errBadSexp, algo, name)
			}
			h.Write(trimLeadingZeros(v))
		}
	case "ecc", "ecdsa", "ecdh", "eddsa":
		q := key.param("q")
		if q == nil {
			return grip, fmt.Errorf("%w: ecc key without point", errBadSexp)
		}
		h.Write(q)
	default:
		return grip, fmt.Errorf("keygrip: unknown key algorithm %q", algo)
	}

	copy(grip[:], h.Sum(nil))
	return grip, nil
}

// FromSubjectPublicKeyInfo computes the keygrip of a DER-encoded
// SubjectPublicKeyInfo, the form in which certificates carry their key. The
// key is re-encoded as a canonical S-expression and gripped through FromSexp
// so both entry points agree byte for byte.
func FromSubjectPublicKeyInfo(spki []byte) ([Size]byte, error) {
	var grip [Size]byte

	sexp, err := spkiToSexp(spki)
	if err != nil {
		return grip, err
	}

	return FromSexp(sexp)
}

func spkiToSexp(spki []byte) ([]byte, error) {
	var (
		input   = cryptobyte.String(spki)
		spkiSeq cryptobyte.String
		algSeq  cryptobyte.String
		oid     asn1.ObjectIdentifier
		keyBits asn1.BitString
	)

	if !input.ReadASN1(&spkiSeq, cryptobyte_asn1.SEQUENCE) ||
		!spkiSeq.ReadASN1(&algSeq, cryptobyte_asn1.SEQUENCE) ||
		!algSeq.ReadASN1ObjectIdentifier(&oid) ||
		!spkiSeq.ReadASN1BitString(&keyBits) {
		return nil, ErrNoPublicKey
	}

	keyBytes := keyBits.RightAlign()

	var b sexpBuilder
	b.open()
	b.atom([]byte("public-key"))
	b.open()

	switch {
	case oid.Equal(oidRSAEncryption):
		var (
			keySeq cryptobyte.String
			n, e   big.Int
		)
		key := cryptobyte.String(keyBytes)
		if !key.ReadASN1(&keySeq, cryptobyte_asn1.SEQUENCE) ||
			!keySeq.ReadASN1Integer(&n) ||
			!keySeq.ReadASN1Integer(&e) {
			return nil, ErrNoPublicKey
		}
		b.atom([]byte("rsa"))
		b.open()
		b.atom([]byte("n"))
		b.atom(n.Bytes())
		b.close()
		b.open()
		b.atom([]byte("e"))
		b.atom(e.Bytes())
		b.close()
	case oid.Equal(oidECPublicKey), oid.Equal(oidEd25519):
		if len(keyBytes) == 0 {
			return nil, ErrNoPublicKey
		}
		b.atom([]byte("ecc"))
		b.open()
		b.atom([]byte("q"))
		b.atom(keyBytes)
		b.close()
	default:
		return nil, fmt.Errorf("keygrip: unknown public key algorithm %v", oid)
	}

	b.close()
	b.close()

	return b.bytes(), nil
}

func trimLeadingZeros(v []byte) []byte {
	for len(v) > 1 && v[0] == 0 {
		v = v[1:]
	}
	return v
}
