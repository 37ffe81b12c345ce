package p15

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"cardd/types"
)

// tokenInfo carries the subset of EF(TokenInfo) the daemon uses.
type tokenInfo struct {
	serial       string
	manufacturer string
	label        string
}

// parseTokenInfo extracts the serial number and labels from an EF(TokenInfo)
// body. The serial number is mandatory; everything else is optional and a
// record that lacks it is rejected as structurally invalid.
func parseTokenInfo(data []byte) (*tokenInfo, error) {
	tlvs, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad TokenInfo encoding: %v", types.ErrBadStructure, err)
	}

	seq := findTag(tlvs, "30")
	if seq == nil {
		return nil, fmt.Errorf("%w: TokenInfo is not a sequence", types.ErrBadStructure)
	}

	ti := &tokenInfo{}
	for i := range seq.TLVs {
		f := &seq.TLVs[i]
		switch strings.ToUpper(f.Tag) {
		case "04":
			if ti.serial == "" {
				ti.serial = strings.ToUpper(hex.EncodeToString(f.Value))
			}
		case "0C":
			if ti.manufacturer == "" {
				ti.manufacturer = string(f.Value)
			}
		case "80":
			if ti.label == "" {
				ti.label = string(f.Value)
			}
		}
	}

	if ti.serial == "" {
		return nil, fmt.Errorf("%w: TokenInfo without a serial number", types.ErrBadStructure)
	}

	return ti, nil
}

// findTag returns the first field with the given tag, or nil. Tags are
// compared case insensitively, matching however the decoder renders them.
func findTag(tlvs []bertlv.TLV, tag string) *bertlv.TLV {
	for i := range tlvs {
		if strings.EqualFold(tlvs[i].Tag, tag) {
			return &tlvs[i]
		}
	}
	return nil
}
