package p15

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"cardd/types"
)

// odf holds the directory file paths named by EF(ODF). Only the object
// classes the daemon reads are kept.
type odf struct {
	privateKeys  []byte
	certificates []byte
}

// certEntry joins a certificate directory record's key id with the path of
// the certificate file it points at.
type certEntry struct {
	id   []byte
	path []byte
}

// parseODF extracts the PrKDF and CDF paths from an EF(ODF) body. Each ODF
// entry is a context-tagged reference wrapping a path sequence; classes the
// daemon does not use are skipped.
func parseODF(data []byte) (*odf, error) {
	tlvs, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ODF encoding: %v", types.ErrBadStructure, err)
	}

	d := &odf{}
	for i := range tlvs {
		var dst *[]byte
		switch strings.ToUpper(tlvs[i].Tag) {
		case "A0": // privateKeys
			dst = &d.privateKeys
		case "A4": // certificates
			dst = &d.certificates
		default:
			continue
		}
		if *dst != nil {
			continue
		}
		if p := entryPath(&tlvs[i]); p != nil {
			*dst = p
		}
	}

	return d, nil
}

// entryPath digs the file path out of a directory reference: the first
// octet string under the entry's path sequence. ODF entries carry the path
// directly, certificate attributes wrap it in one more sequence, so the
// search descends.
func entryPath(entry *bertlv.TLV) []byte {
	seq := findTag(entry.TLVs, "30")
	if seq == nil {
		return nil
	}
	p := findDeep(seq.TLVs, "04")
	if p == nil || len(p.Value) == 0 {
		return nil
	}
	return p.Value
}

// findDeep returns the first field with the given tag, searching depth
// first.
func findDeep(tlvs []bertlv.TLV, tag string) *bertlv.TLV {
	for i := range tlvs {
		if strings.EqualFold(tlvs[i].Tag, tag) {
			return &tlvs[i]
		}
		if f := findDeep(tlvs[i].TLVs, tag); f != nil {
			return f
		}
	}
	return nil
}

// parsePrKDF reads the private key directory. Each record is a sequence of
// common object attributes (label), common key attributes (id, key
// reference) and class attributes. Records without a key id are skipped
// rather than failing the whole directory; cards in the field get these
// files wrong in creative ways.
func parsePrKDF(data []byte) ([]keypairInfo, error) {
	tlvs, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad private key directory: %v", types.ErrBadStructure, err)
	}

	var keys []keypairInfo
	for i := range tlvs {
		rec := &tlvs[i]
		if !strings.EqualFold(rec.Tag, "30") || len(rec.TLVs) < 2 {
			continue
		}

		var key keypairInfo

		// commonObjectAttributes
		if coa := rec.TLVs[0]; strings.EqualFold(coa.Tag, "30") {
			if l := findTag(coa.TLVs, "0C"); l != nil {
				key.label = string(l.Value)
			}
		}

		// commonKeyAttributes: the id is the first octet string, the key
		// reference the last integer.
		cka := findTag(rec.TLVs[1:], "30")
		if cka == nil {
			continue
		}
		if id := findTag(cka.TLVs, "04"); id != nil && len(id.Value) > 0 {
			key.id = id.Value
		} else {
			continue
		}
		for j := range cka.TLVs {
			f := &cka.TLVs[j]
			if strings.EqualFold(f.Tag, "02") && len(f.Value) == 1 {
				key.keyRef = f.Value[0]
			}
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// parseCDF reads the certificate directory and returns the id/path pairs it
// describes. The certificate path sits inside the class attribute block, a
// context tag wrapping the certificate object value.
func parseCDF(data []byte) ([]certEntry, error) {
	tlvs, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad certificate directory: %v", types.ErrBadStructure, err)
	}

	var certs []certEntry
	for i := range tlvs {
		rec := &tlvs[i]
		if !strings.EqualFold(rec.Tag, "30") || len(rec.TLVs) < 2 {
			continue
		}

		cca := findTag(rec.TLVs[1:], "30")
		if cca == nil {
			continue
		}
		id := findTag(cca.TLVs, "04")
		if id == nil || len(id.Value) == 0 {
			continue
		}

		attrs := findTag(rec.TLVs, "A1")
		if attrs == nil {
			continue
		}
		path := entryPath(attrs)
		if path == nil {
			continue
		}

		certs = append(certs, certEntry{id: id.Value, path: path})
	}

	return certs, nil
}
