// Package dinsig drives signature cards following the DIN V 66291-1
// profile. These cards have no self-describing directories: a single
// signing key with its certificate at a fixed location, no decipher
// capability, and SHA-1 class digests only. The driver serves as the
// fallback when a card carries no recognizable application.
package dinsig

import (
	"crypto/x509"
	"fmt"

	"github.com/sirupsen/logrus"

	"cardd/keygrip"
	"cardd/pcsc"
	"cardd/types"
)

var log = logrus.WithField("package", "cardd/dinsig")

const (
	insVerify = uint8(0x20)
	insMSE    = uint8(0x22)
	insPSO    = uint8(0x2A)

	// References fixed by the profile: the signature PIN and the
	// signature key.
	pinReference = uint8(0x81)
	keyReference = uint8(0x84)

	maxCertSize = 32768
)

// certPath is where the profile stores the signing certificate.
var certPath = []byte{0x3F, 0x00, 0xC0, 0x00}

// keyID names the card's only keypair in the same path-dot-reference form
// the other drivers use.
const keyID = "3F00C000.81"

// Transport is the card access the driver needs.
type Transport interface {
	types.Channel
	SelectPath(path []byte) (*pcsc.FileInfo, error)
	ReadBinary(offset uint16, n int) ([]byte, error)
}

// App is a bound DIN SIG card. Binding itself is unconditional; whether the
// card really follows the profile only shows when the fixed paths are
// touched.
type App struct {
	t Transport
}

func Bind(t Transport) *App {
	log.Debug("falling back to the DIN SIG profile")
	return &App{t: t}
}

// EnumKeypairs returns the card's single keypair at index 0 and
// types.ErrNoMoreKeys beyond it. A card where the certificate file cannot
// be read reports types.ErrMissingCertificate.
func (a *App) EnumKeypairs(idx int) (*types.Keypair, error) {
	if idx > 0 {
		return nil, types.ErrNoMoreKeys
	}

	der, err := a.readCert()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMissingCertificate, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: bad signing certificate: %v", types.ErrInvalidCard, err)
	}

	grip, err := keygrip.FromSubjectPublicKeyInfo(cert.RawSubjectPublicKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidCard, err)
	}

	return &types.Keypair{Keygrip: grip, ID: keyID}, nil
}

// ReadCert returns the DER-encoded signing certificate for the card's only
// key identifier.
func (a *App) ReadCert(id string) ([]byte, error) {
	if id != keyID {
		return nil, fmt.Errorf("%w: unknown key identifier %q", types.ErrInvalidArgument, id)
	}
	return a.readCert()
}

func (a *App) readCert() ([]byte, error) {
	fi, err := a.t.SelectPath(certPath)
	if err != nil {
		return nil, err
	}
	if !fi.Transparent || fi.Size == 0 || fi.Size > maxCertSize {
		return nil, fmt.Errorf("%w: unsupported certificate file (size %d)", types.ErrCard, fi.Size)
	}
	return a.t.ReadBinary(0, fi.Size)
}

// Release is a no-op; the driver keeps no card state.
func (a *App) Release() {}
