// Package cardd exposes a smartcard holding signing keys as a small,
// uniform API: list the keypairs, read their certificates, sign and
// decipher. The card application in use is detected when the serial number
// is first read, so callers never deal with driver differences.
package cardd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"cardd/dinsig"
	"cardd/p15"
	"cardd/pcsc"
	"cardd/types"
)

var log = logrus.WithField("package", "cardd")

// clientID names this process to the PC/SC stack.
const clientID = "cardd"

// Options control how a card session is opened.
type Options struct {
	// Reader is the index of the reader to use.
	Reader int
	// Verbose enables result logging for every card operation.
	Verbose bool
	// Debug additionally logs raw APDU traffic.
	Debug bool
}

// Card is an open session with a single card, meant for use from one
// goroutine at a time. It holds an exclusive reader lock for its whole
// lifetime.
type Card struct {
	ctx    *pcsc.Context
	card   *pcsc.Card
	opts   Options
	locked bool

	// backend is set lazily by the first Serial call. p15app is non-nil
	// when the standard application bound, nil on the fallback.
	backend backend
	p15app  *p15.App
}

// Open establishes the PC/SC context, connects to the card in the selected
// reader and takes the reader lock. On any failure the partially built
// session is torn down before the error is returned.
func Open(opts Options) (*Card, error) {
	ctx, err := pcsc.Establish(clientID, pcsc.Options{
		Reader:  opts.Reader,
		Verbose: opts.Verbose,
		Debug:   opts.Debug,
	})
	if err != nil {
		return nil, err
	}

	c := &Card{ctx: ctx, opts: opts}

	readers, err := ctx.Readers()
	if err != nil {
		c.Close()
		return nil, err
	}
	if opts.Reader < 0 || opts.Reader >= len(readers) {
		c.Close()
		log.Errorf("reader %d not available, %d readers present", opts.Reader, len(readers))
		return nil, fmt.Errorf("%w: reader %d not available", types.ErrCard, opts.Reader)
	}
	reader := readers[opts.Reader]

	present, err := ctx.CardPresent(reader)
	if err != nil {
		c.Close()
		return nil, err
	}
	if !present {
		c.Close()
		return nil, fmt.Errorf("%w: no card in reader %q", types.ErrCardNotPresent, reader)
	}

	card, err := ctx.Connect(reader)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.card = card

	if err := card.Lock(); err != nil {
		c.Close()
		return nil, err
	}
	c.locked = true

	if opts.Verbose {
		log.Infof("connected to card in reader %q", reader)
	}

	return c, nil
}

// Close releases the session: driver state, reader lock, card connection
// and PC/SC context, in that order. Teardown is best effort and Close may
// be called on a partially opened or already closed session.
func (c *Card) Close() {
	if c == nil {
		return
	}
	if c.backend != nil {
		c.backend.Release()
		c.backend = nil
		c.p15app = nil
	}
	if c.card != nil {
		if c.locked {
			if err := c.card.Unlock(); err != nil {
				log.WithError(err).Debug("releasing reader lock failed")
			}
			c.locked = false
		}
		if err := c.card.Disconnect(); err != nil {
			log.WithError(err).Debug("disconnecting card failed")
		}
		c.card = nil
	}
	if c.ctx != nil {
		if err := c.ctx.Release(); err != nil {
			log.WithError(err).Debug("releasing context failed")
		}
		c.ctx = nil
	}
}

// bind attaches a driver to the card: the PKCS#15 application when the card
// has one, the DIN SIG fallback otherwise. Binding happens at most once per
// session.
func (c *Card) bind() {
	if c.backend != nil {
		return
	}

	app, err := p15.Bind(c.card)
	if err == nil {
		c.backend = app
		c.p15app = app
		return
	}
	if !errors.Is(err, types.ErrApplicationNotFound) {
		log.WithError(err).Error("binding the card application failed")
	}

	c.backend = dinsig.Bind(c.card)
}

// EnumKeypairs returns the keypair at the given position, or
// types.ErrNoMoreKeys past the last one. A keypair whose certificate is
// absent reports types.ErrMissingCertificate; enumeration may continue with
// the next index.
func (c *Card) EnumKeypairs(idx int) (*types.Keypair, error) {
	if idx < 0 {
		return nil, types.ErrInvalidIndex
	}
	if c.backend == nil {
		return nil, types.ErrNotInitialized
	}

	kp, err := c.backend.EnumKeypairs(idx)
	c.trace("enum_keypairs", err)
	return kp, err
}

// ReadCert returns the DER-encoded certificate identified by id.
func (c *Card) ReadCert(id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty certificate id", types.ErrInvalidArgument)
	}
	if c.backend == nil {
		return nil, types.ErrNotInitialized
	}

	cert, err := c.backend.ReadCert(id)
	c.trace("read_cert", err)
	return cert, err
}

// Sign creates a signature over digest with the named key. The PIN is
// collected through the prompt callback when the card asks for it.
func (c *Card) Sign(keyID string, algo types.HashAlgo, prompt types.PinPromptFunc, digest []byte) ([]byte, error) {
	if keyID == "" || prompt == nil || len(digest) == 0 {
		return nil, types.ErrInvalidArgument
	}
	if c.backend == nil {
		return nil, types.ErrNotInitialized
	}

	s, ok := c.backend.(signer)
	if !ok {
		return nil, types.ErrUnsupportedOperation
	}

	sig, err := s.Sign(keyID, algo, prompt, digest)
	c.trace("sign", err)
	return sig, err
}

// Decipher decrypts ciphertext with the named key.
func (c *Card) Decipher(keyID string, prompt types.PinPromptFunc, ciphertext []byte) ([]byte, error) {
	if keyID == "" || prompt == nil || len(ciphertext) == 0 {
		return nil, types.ErrInvalidArgument
	}
	if c.backend == nil {
		return nil, types.ErrNotInitialized
	}

	d, ok := c.backend.(decipherer)
	if !ok {
		return nil, types.ErrUnsupportedOperation
	}

	out, err := d.Decipher(keyID, prompt, ciphertext)
	c.trace("decipher", err)
	return out, err
}

func (c *Card) trace(op string, err error) {
	if !c.opts.Verbose {
		return
	}
	if err != nil {
		log.Infof("operation %s: %v", op, err)
		return
	}
	log.Infof("operation %s: ok", op)
}
