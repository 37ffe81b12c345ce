package pcsc

import (
	"encoding/hex"
	"fmt"

	"github.com/ebfe/scard"

	"cardd/apdu"
	"cardd/types"
)

const (
	insSelect      = uint8(0xA4)
	insReadBinary  = uint8(0xB0)
	insGetResponse = uint8(0xC0)

	readBinaryChunk = 0xFF
)

// Card is an exclusively owned card connection. It implements types.Channel
// and takes care of the T=0 transport quirks (61xx response chaining and 6Cxx
// length correction) so callers only see whole responses.
type Card struct {
	card *scard.Card
	opts Options
}

// Lock takes the card transaction lock. The lock is held until Unlock and
// serializes card access at the hardware level.
func (c *Card) Lock() error {
	return MapError(c.card.BeginTransaction())
}

// Unlock releases the card transaction lock.
func (c *Card) Unlock() error {
	return MapError(c.card.EndTransaction(scard.LeaveCard))
}

// Disconnect resets and releases the card connection.
func (c *Card) Disconnect() error {
	return MapError(c.card.Disconnect(scard.ResetCard))
}

// Send transmits a command and returns the parsed response. Responses split
// by the card (SW1=61) are fetched with GET RESPONSE and concatenated; a
// wrong-length report (SW1=6C) retransmits with the length the card asks for.
func (c *Card) Send(cmd *apdu.Command) (*apdu.Response, error) {
	raw, err := cmd.Serialize()
	if err != nil {
		return nil, err
	}

	if c.opts.Debug {
		log.WithField("apdu", hex.EncodeToString(raw)).Debug("send")
	}

	rawResp, err := c.card.Transmit(raw)
	if err != nil {
		return nil, MapError(err)
	}

	resp, err := apdu.ParseResponse(rawResp)
	if err != nil {
		return nil, err
	}

	if c.opts.Debug {
		log.WithFields(map[string]interface{}{
			"sw":   fmt.Sprintf("%#.4x", resp.Sw),
			"data": hex.EncodeToString(resp.Data),
		}).Debug("recv")
	}

	switch resp.Sw1 {
	case apdu.Sw1ResponseAvailable:
		getResp := apdu.NewCommand(cmd.Cla, insGetResponse, 0, 0, nil)
		getResp.SetLe(resp.Sw2)

		next, err := c.Send(getResp)
		if err != nil {
			return nil, err
		}

		next.Data = append(resp.Data, next.Data...)
		return next, nil
	case apdu.Sw1WrongExpectedLength:
		retry := *cmd
		retry.SetLe(resp.Sw2)
		return c.Send(&retry)
	}

	return resp, nil
}

// SelectPath walks a file path of 2-byte identifiers, selecting each level in
// turn, and returns the file control information of the final file.
func (c *Card) SelectPath(path []byte) (*FileInfo, error) {
	if len(path) == 0 || len(path)%2 != 0 {
		return nil, types.ErrInvalidArgument
	}

	var resp *apdu.Response
	for i := 0; i < len(path); i += 2 {
		cmd := apdu.NewCommand(0x00, insSelect, 0x00, 0x00, path[i:i+2])
		cmd.SetLe(0)

		var err error
		resp, err = c.Send(cmd)
		if err != nil {
			return nil, err
		}
		if resp.Sw == apdu.SwFileNotFound {
			return nil, fmt.Errorf("%w: no file %x", types.ErrCard, path[i:i+2])
		}
		if err := resp.CheckSw(apdu.SwOK); err != nil {
			return nil, MapStatus(resp.Sw)
		}
	}

	return parseFileInfo(resp.Data)
}

// ReadBinary reads n bytes of a transparent file starting at offset.
func (c *Card) ReadBinary(offset uint16, n int) ([]byte, error) {
	out := make([]byte, 0, n)

	for len(out) < n {
		chunk := n - len(out)
		if chunk > readBinaryChunk {
			chunk = readBinaryChunk
		}

		off := offset + uint16(len(out))
		cmd := apdu.NewCommand(0x00, insReadBinary, uint8(off>>8), uint8(off), nil)
		cmd.SetLe(uint8(chunk))

		resp, err := c.Send(cmd)
		if err != nil {
			return nil, err
		}
		if err := resp.CheckSw(apdu.SwOK); err != nil {
			return nil, MapStatus(resp.Sw)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("%w: short read at offset %d", types.ErrCard, off)
		}

		out = append(out, resp.Data...)
	}

	return out[:n], nil
}
