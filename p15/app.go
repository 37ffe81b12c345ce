// Package p15 drives cards carrying a PKCS#15 application: a structured
// on-card filesystem that describes its own keys and certificates through
// directory files. It implements the full card capability set including
// decipher.
package p15

import (
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"cardd/apdu"
	"cardd/keygrip"
	"cardd/pcsc"
	"cardd/types"
)

var log = logrus.WithField("package", "cardd/p15")

// aid is the registered PKCS#15 application identifier ("PKCS-15").
var aid = []byte{0xA0, 0x00, 0x00, 0x00, 0x63, 0x50, 0x4B, 0x43, 0x53, 0x2D, 0x31, 0x35}

var (
	appPath       = []byte{0x3F, 0x00, 0x50, 0x15}
	odfPath       = []byte{0x3F, 0x00, 0x50, 0x15, 0x50, 0x31}
	tokenInfoPath = []byte{0x3F, 0x00, 0x50, 0x15, 0x50, 0x32}
)

// maxFileSize caps how much of any directory or certificate file is read.
const maxFileSize = 32768

const insSelect = uint8(0xA4)

// Transport is the card access the driver needs: a raw command channel plus
// file selection and transparent reads.
type Transport interface {
	types.Channel
	SelectPath(path []byte) (*pcsc.FileInfo, error)
	ReadBinary(offset uint16, n int) ([]byte, error)
}

// keypairInfo is one private key described by the key directory, joined with
// its certificate entry when one exists.
type keypairInfo struct {
	id       []byte
	label    string
	keyRef   uint8
	certPath []byte
}

// App is a bound PKCS#15 application.
type App struct {
	t     Transport
	token *tokenInfo
	keys  []keypairInfo
}

// Bind selects the PKCS#15 application on the card and reads its token
// information and key/certificate directories. A card without the
// application fails with types.ErrApplicationNotFound so the caller can fall
// back to another driver; any other failure is a real error.
func Bind(t Transport) (*App, error) {
	sel := apdu.NewCommand(0x00, insSelect, 0x04, 0x00, aid)
	sel.SetLe(0)

	resp, err := t.Send(sel)
	if err != nil {
		return nil, err
	}
	if resp.Sw == apdu.SwFileNotFound {
		return nil, fmt.Errorf("%w: no PKCS#15 application", types.ErrApplicationNotFound)
	}
	if err := resp.CheckSw(apdu.SwOK); err != nil {
		return nil, pcsc.MapStatus(resp.Sw)
	}

	app := &App{t: t}

	raw, err := readFile(t, tokenInfoPath)
	if err != nil {
		return nil, err
	}
	if app.token, err = parseTokenInfo(raw); err != nil {
		return nil, err
	}

	if err := app.readDirectories(); err != nil {
		return nil, err
	}

	log.Debugf("bound PKCS#15 application, serial %s, %d keys", app.token.serial, len(app.keys))
	return app, nil
}

func (a *App) readDirectories() error {
	raw, err := readFile(a.t, odfPath)
	if err != nil {
		return err
	}

	odf, err := parseODF(raw)
	if err != nil {
		return err
	}

	var keys []keypairInfo
	if odf.privateKeys != nil {
		raw, err := readFile(a.t, a.absPath(odf.privateKeys))
		if err != nil {
			return err
		}
		if keys, err = parsePrKDF(raw); err != nil {
			return err
		}
	}

	if odf.certificates != nil {
		raw, err := readFile(a.t, a.absPath(odf.certificates))
		if err != nil {
			return err
		}
		certs, err := parseCDF(raw)
		if err != nil {
			return err
		}
		for i := range keys {
			for _, c := range certs {
				if string(c.id) == string(keys[i].id) {
					keys[i].certPath = a.absPath(c.path)
					break
				}
			}
		}
	}

	a.keys = keys
	return nil
}

// absPath resolves a path from a directory file against the application DF.
// Directory entries may store a path relative to DF(PKCS15) or a full path
// from the MF.
func (a *App) absPath(path []byte) []byte {
	if len(path) >= 2 && path[0] == 0x3F && path[1] == 0x00 {
		return path
	}
	return append(append([]byte{}, appPath...), path...)
}

// TokenSerial returns the serial number recorded in the token information
// file.
func (a *App) TokenSerial() string {
	if a.token == nil {
		return ""
	}
	return a.token.serial
}

// EnumKeypairs returns the keypair at the given position. The end of the
// listing is reported as types.ErrNoMoreKeys; a key without a matching
// certificate reports types.ErrMissingCertificate and enumeration may
// continue with the next index.
func (a *App) EnumKeypairs(idx int) (*types.Keypair, error) {
	if idx >= len(a.keys) {
		return nil, types.ErrNoMoreKeys
	}

	key := a.keys[idx]
	if key.certPath == nil {
		return nil, fmt.Errorf("%w: key %X has no certificate", types.ErrMissingCertificate, key.id)
	}

	der, err := readFile(a.t, key.certPath)
	if err != nil {
		return nil, err
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: bad certificate for key %X: %v", types.ErrCard, key.id, err)
	}

	grip, err := keygrip.FromSubjectPublicKeyInfo(cert.RawSubjectPublicKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCard, err)
	}

	return &types.Keypair{
		Keygrip: grip,
		ID:      a.keyID(key),
	}, nil
}

// keyID renders the identifier callers pass back to ReadCert, Sign and
// Decipher: the hex application path, a dot, and the hex key id.
func (a *App) keyID(key keypairInfo) string {
	return fmt.Sprintf("%X.%X", appPath, key.id)
}

// ReadCert returns the DER-encoded certificate identified by id.
func (a *App) ReadCert(id string) ([]byte, error) {
	key, err := a.lookup(id)
	if err != nil {
		return nil, err
	}
	if key.certPath == nil {
		return nil, fmt.Errorf("%w: key %X has no certificate", types.ErrMissingCertificate, key.id)
	}

	return readFile(a.t, key.certPath)
}

// Release drops the parsed application state. The card itself holds no
// binding state to undo.
func (a *App) Release() {
	a.keys = nil
	a.token = nil
}

// lookup resolves a "<hex path>.<hex key id>" identifier to a directory
// entry.
func (a *App) lookup(id string) (*keypairInfo, error) {
	dot := strings.IndexByte(id, '.')
	if dot <= 0 || dot == len(id)-1 {
		return nil, fmt.Errorf("%w: bad key identifier %q", types.ErrInvalidArgument, id)
	}

	path, err := hex.DecodeString(id[:dot])
	if err != nil || len(path)%2 != 0 {
		return nil, fmt.Errorf("%w: bad key identifier %q", types.ErrInvalidArgument, id)
	}
	keyID, err := hex.DecodeString(id[dot+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: bad key identifier %q", types.ErrInvalidArgument, id)
	}

	if string(path) != string(appPath) {
		return nil, fmt.Errorf("%w: unknown application path in %q", types.ErrInvalidArgument, id)
	}

	for i := range a.keys {
		if string(a.keys[i].id) == string(keyID) {
			return &a.keys[i], nil
		}
	}

	return nil, fmt.Errorf("%w: no key %q", types.ErrCard, id)
}

// readFile selects a transparent file and reads it whole.
func readFile(t Transport, path []byte) ([]byte, error) {
	fi, err := t.SelectPath(path)
	if err != nil {
		return nil, err
	}
	if !fi.Transparent || fi.Size == 0 || fi.Size > maxFileSize {
		return nil, fmt.Errorf("%w: unsupported file %X (size %d)", types.ErrCard, path, fi.Size)
	}

	return t.ReadBinary(0, fi.Size)
}
