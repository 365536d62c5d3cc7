package rdata

import (
	"bytes"
	"strings"
)

// Unknown is the RFC 3597 fallback for any record type this package does
// not model explicitly. It carries the raw RDATA opaquely, round-trips it
// byte for byte, and renders the generic "\# <len> <hex>" zone-text form.
// The masterfile-lite loader accepts an out-of-model type written in that
// form; the YAML loader rejects out-of-model types.
type Unknown struct {
	RRType Type
	Raw    []byte
}

func decodeUnknown(t Type, b []byte) (RR, error) {
	return &Unknown{RRType: t, Raw: append([]byte(nil), b...)}, nil
}

func (r *Unknown) Type() Type                          { return r.RRType }
func (r *Unknown) EncodeWire(buf *bytes.Buffer) error      { buf.Write(r.Raw); return nil }
func (r *Unknown) EncodeCanonical(buf *bytes.Buffer) error { buf.Write(r.Raw); return nil }
func (r *Unknown) String() string {
	var b strings.Builder
	b.WriteString("\\# ")
	b.WriteString(itoa(len(r.Raw)))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(hexEncode(r.Raw)))
	return b.String()
}
func (r *Unknown) Clone() RR {
	return &Unknown{RRType: r.RRType, Raw: append([]byte(nil), r.Raw...)}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}
