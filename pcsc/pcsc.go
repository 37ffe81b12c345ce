// Package pcsc talks to a smartcard reader through the PC/SC stack. It owns
// the reader context, card connection and card lock, and exposes the card as
// an apdu channel.
package pcsc

import (
	"time"

	"github.com/ebfe/scard"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "cardd/pcsc")

// Options carries the session settings handed down at context establishment.
// Verbosity and debug are explicit here instead of being read from process
// globals.
type Options struct {
	Reader  int
	Verbose bool
	Debug   bool
}

// Context wraps an established PC/SC context.
type Context struct {
	ctx    *scard.Context
	client string
	opts   Options
}

// Establish acquires a PC/SC context on behalf of the named client.
func Establish(client string, opts Options) (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, MapError(err)
	}

	if opts.Debug {
		log.WithField("client", client).Debug("PC/SC context established")
	}

	return &Context{ctx: ctx, client: client, opts: opts}, nil
}

// Options returns the settings the context was established with.
func (c *Context) Options() Options {
	return c.opts
}

// Readers lists the configured card readers.
func (c *Context) Readers() ([]string, error) {
	readers, err := c.ctx.ListReaders()
	if err != nil {
		return nil, MapError(err)
	}
	return readers, nil
}

// CardPresent reports whether a card is present in the given reader.
func (c *Context) CardPresent(reader string) (bool, error) {
	rs := []scard.ReaderState{
		{Reader: reader, CurrentState: scard.StateUnaware},
	}

	if err := c.ctx.GetStatusChange(rs, 100*time.Millisecond); err != nil {
		return false, MapError(err)
	}

	return rs[0].EventState&scard.StatePresent != 0, nil
}

// Connect opens an exclusive connection to the card in the given reader.
func (c *Context) Connect(reader string) (*Card, error) {
	card, err := c.ctx.Connect(reader, scard.ShareExclusive, scard.ProtocolAny)
	if err != nil {
		return nil, MapError(err)
	}

	return &Card{card: card, opts: c.opts}, nil
}

// Release frees the PC/SC context. Best effort; the error is informational.
func (c *Context) Release() error {
	if c.ctx == nil {
		return nil
	}
	err := c.ctx.Release()
	c.ctx = nil
	return MapError(err)
}
