package cardd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"cardd/apdu"
	"cardd/types"
)

// gdoPath is EF(GDO), the global data objects file holding the ICC serial
// number.
var gdoPath = []byte{0x3F, 0x00, 0x2F, 0x02}

// iccsnTag marks the ICC serial number record inside EF(GDO).
const iccsnTag = uint8(0x5A)

// maxGDOSize bounds how large an EF(GDO) is accepted. The file holds a
// handful of small records; anything bigger is not a GDO.
const maxGDOSize = 255

// placeholderSerial is the unpersonalized serial some card profiles ship
// with. It is useless as an identifier, so when the standard application is
// bound its token serial is substituted.
const placeholderSerial = "D27600000000000000000000"

const (
	// syntheticPrefix marks serials taken from the application instead of
	// the GDO.
	syntheticPrefix = "FF0100"
	// reservedPrefix is prepended to card serials that collide with the
	// reserved FF namespace.
	reservedPrefix = "FF0000"
)

// Serial reads the card's serial number from EF(GDO) and returns it as an
// uppercase hex string. The first call also binds the card application
// driver; the serial is the only operation that works on a session before
// binding.
func (c *Card) Serial() (string, error) {
	if c.card == nil {
		return "", fmt.Errorf("%w: session not open", types.ErrInvalidArgument)
	}

	c.bind()

	fi, err := c.card.SelectPath(gdoPath)
	if err != nil {
		log.WithError(err).Error("no EF(GDO) on this card")
		return "", err
	}
	if !fi.Transparent {
		return "", fmt.Errorf("%w: EF(GDO) is not a transparent file", types.ErrCard)
	}
	if fi.Size == 0 || fi.Size > maxGDOSize {
		return "", fmt.Errorf("%w: unsupported size of EF(GDO) (%d)", types.ErrCard, fi.Size)
	}

	buf, err := c.card.ReadBinary(0, fi.Size)
	if err != nil {
		return "", err
	}

	serial, err := findICCSN(buf)
	if err != nil {
		log.WithError(err).Error("invalid structure of EF(GDO)")
		return "", err
	}

	var appSerial string
	if c.p15app != nil {
		appSerial = c.p15app.TokenSerial()
	}
	serial = applySerialQuirks(serial, c.p15app != nil, appSerial)

	if c.opts.Verbose {
		log.Infof("card serial %s", serial)
	}
	return serial, nil
}

// findICCSN extracts the ICC serial number from an EF(GDO) body and renders
// it as uppercase hex.
//
// Some widely deployed test cards declare the ICCSN record one byte longer
// than the file. That exact off-by-one (a declared 13 byte serial with 12
// bytes present) is accepted with the length clipped; every other overrun
// is a structural error.
func findICCSN(buf []byte) (string, error) {
	off, n, err := apdu.FindTLV(buf, iccsnTag)
	if err != nil {
		return "", fmt.Errorf("%w: no ICCSN record: %v", types.ErrBadStructure, err)
	}

	if rest := len(buf) - off; n > rest {
		if n == 0x0D && rest+1 == n {
			log.Debug("enabling broken testcard workaround")
			n--
		} else {
			return "", fmt.Errorf("%w: ICCSN record too long for the file", types.ErrBadStructure)
		}
	}
	if n == 0 {
		return "", fmt.Errorf("%w: empty ICCSN record", types.ErrBadStructure)
	}

	return strings.ToUpper(hex.EncodeToString(buf[off : off+n])), nil
}

// applySerialQuirks canonicalizes a raw serial. With the standard
// application bound, the unpersonalized placeholder serial is replaced by
// the application's token serial under the synthetic prefix. Independently,
// a genuine card serial that already starts with FF is moved out of the
// reserved namespace. At most one rewrite applies.
func applySerialQuirks(serial string, standardApp bool, appSerial string) string {
	if standardApp && serial == placeholderSerial {
		return syntheticPrefix + appSerial
	}
	if strings.HasPrefix(serial, "FF") {
		return reservedPrefix + serial
	}
	return serial
}
