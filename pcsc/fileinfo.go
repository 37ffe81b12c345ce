package pcsc

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"cardd/types"
)

// File control information tags returned by SELECT.
const (
	fciTemplateTag   = "6F"
	fcpTemplateTag   = "62"
	fciFileSizeTag   = "80"
	fciTotalSizeTag  = "81"
	fciDescriptorTag = "82"
)

// FileInfo is the decoded file control information of a selected file.
type FileInfo struct {
	Size        int
	Transparent bool
}

// parseFileInfo decodes the FCI template a card returns on SELECT. Cards
// answer with either an FCI (6F) or FCP (62) template; both carry the file
// descriptor and size the same way.
func parseFileInfo(data []byte) (*FileInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file control information", types.ErrCard)
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad file control information: %v", types.ErrCard, err)
	}

	var tmpl *bertlv.TLV
	for i := range packets {
		if strings.EqualFold(packets[i].Tag, fciTemplateTag) || strings.EqualFold(packets[i].Tag, fcpTemplateTag) {
			tmpl = &packets[i]
			break
		}
	}
	if tmpl == nil {
		return nil, fmt.Errorf("%w: no file control template", types.ErrCard)
	}

	info := &FileInfo{}
	for _, p := range tmpl.TLVs {
		switch strings.ToUpper(p.Tag) {
		case fciFileSizeTag, fciTotalSizeTag:
			if info.Size == 0 {
				for _, b := range p.Value {
					info.Size = info.Size<<8 | int(b)
				}
			}
		case fciDescriptorTag:
			// Descriptor byte 0x01 is a transparent working EF.
			if len(p.Value) > 0 && p.Value[0]&0xBF == 0x01 {
				info.Transparent = true
			}
		}
	}

	return info, nil
}
