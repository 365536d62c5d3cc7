package rdata

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Option is one EDNS(0) option (RFC 6891 §6.1.2), e.g. NSID (code 3).
type Option struct {
	Code uint16
	Data []byte
}

// OPT holds the RDATA of the EDNS pseudo-RR: an ordered list of options.
// The OPT RR's class/TTL fields (payload size, extended RCODE, version,
// flags) are not part of RDATA and are owned by the wire codec.
type OPT struct {
	Options []Option
}

func decodeOPT(b []byte) (RR, error) {
	var opts []Option
	i := 0
	for i < len(b) {
		if i+4 > len(b) {
			return nil, fmt.Errorf("rdata: truncated EDNS option header")
		}
		code := binary.BigEndian.Uint16(b[i : i+2])
		length := int(binary.BigEndian.Uint16(b[i+2 : i+4]))
		if i+4+length > len(b) {
			return nil, fmt.Errorf("rdata: EDNS option data exceeds rdlength")
		}
		data := append([]byte(nil), b[i+4:i+4+length]...)
		opts = append(opts, Option{Code: code, Data: data})
		i += 4 + length
	}
	return &OPT{Options: opts}, nil
}

func (r *OPT) Type() Type { return TypeOPT }
func (r *OPT) encode(buf *bytes.Buffer) error {
	for _, o := range r.Options {
		binary.Write(buf, binary.BigEndian, o.Code)
		binary.Write(buf, binary.BigEndian, uint16(len(o.Data)))
		buf.Write(o.Data)
	}
	return nil
}
func (r *OPT) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf) }
func (r *OPT) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf) }
func (r *OPT) String() string                          { return fmt.Sprintf("; EDNS: %d option(s)", len(r.Options)) }
func (r *OPT) Clone() RR {
	opts := make([]Option, len(r.Options))
	for i, o := range r.Options {
		opts[i] = Option{Code: o.Code, Data: append([]byte(nil), o.Data...)}
	}
	return &OPT{Options: opts}
}

// NSID option code (RFC 5001).
const OptCodeNSID = 3
