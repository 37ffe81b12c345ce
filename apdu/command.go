package apdu

import (
	"bytes"
	"errors"
)

// ErrDataTooLong is returned by Serialize when the command data does not fit
// in a short APDU's single Lc byte.
var ErrDataTooLong = errors.New("command data exceeds 255 bytes")

// Command struct represent the data sent as an APDU command with CLA, Ins, P1, P2, Data, and Le.
type Command struct {
	Cla  uint8
	Ins  uint8
	P1   uint8
	P2   uint8
	Data []byte

	requiresLe bool
	le         uint8
}

// NewCommand returns a new apdu Command.
func NewCommand(cla, ins, p1, p2 uint8, data []byte) *Command {
	return &Command{
		Cla:        cla,
		Ins:        ins,
		P1:         p1,
		P2:         p2,
		Data:       data,
		requiresLe: false,
	}
}

// SetLe sets the expected response length. Le is only serialized when set.
func (c *Command) SetLe(le uint8) {
	c.requiresLe = true
	c.le = le
}

// Le returns the expected response length and whether it has been set.
func (c *Command) Le() (bool, uint8) {
	return c.requiresLe, c.le
}

// Serialize serializes the command to a raw APDU. Only short APDUs are
// produced; data longer than one Lc byte can declare fails with
// ErrDataTooLong instead of truncating the declared length.
func (c *Command) Serialize() ([]byte, error) {
	if len(c.Data) > 0xFF {
		return nil, ErrDataTooLong
	}

	buf := new(bytes.Buffer)

	if err := buf.WriteByte(c.Cla); err != nil {
		return nil, err
	}
	if err := buf.WriteByte(c.Ins); err != nil {
		return nil, err
	}
	if err := buf.WriteByte(c.P1); err != nil {
		return nil, err
	}
	if err := buf.WriteByte(c.P2); err != nil {
		return nil, err
	}

	if len(c.Data) > 0 {
		if err := buf.WriteByte(uint8(len(c.Data))); err != nil {
			return nil, err
		}
		if _, err := buf.Write(c.Data); err != nil {
			return nil, err
		}
	}

	if c.requiresLe {
		if err := buf.WriteByte(c.le); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
