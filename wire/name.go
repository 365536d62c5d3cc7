package wire

import (
	"bytes"

	"github.com/zoneauth/zoneauth/dname"
)

// compressionTable maps a name's canonical (case-folded) wire form to the
// byte offset in the message where it was first written, for longest-
// suffix-match compression of owner and question names. Embedded names
// inside RDATA never consult this table — the rdata package always writes
// those uncompressed, per the wire codec's compression-suppression rule.
type compressionTable map[string]int

func canonKey(n dname.Name) string { return string(n.CanonicalWire()) }

// labelChain returns n and each non-root ancestor, most specific first.
func labelChain(n dname.Name) []dname.Name {
	var chain []dname.Name
	cur := n
	for !cur.IsRoot() {
		chain = append(chain, cur)
		cur = cur.Parent()
	}
	return chain
}

// writeName appends n to buf, compressing against table when compress is
// true. A suffix is only recorded (and only referenced by a pointer) when
// its offset is small enough to fit the 14-bit pointer field.
func writeName(buf *bytes.Buffer, n dname.Name, table compressionTable, compress bool) {
	if !compress || table == nil {
		buf.Write(n.Wire())
		return
	}
	chain := labelChain(n)
	matchIdx := -1
	for i, s := range chain {
		if _, ok := table[canonKey(s)]; ok {
			matchIdx = i
			break
		}
	}
	limit := len(chain)
	if matchIdx >= 0 {
		limit = matchIdx
	}
	for i := 0; i < limit; i++ {
		s := chain[i]
		pos := buf.Len()
		if pos < 0x4000 {
			table[canonKey(s)] = pos
		}
		label := s.Label(0)
		buf.WriteByte(byte(len(label)))
		buf.Write(label)
	}
	if matchIdx >= 0 {
		off := table[canonKey(chain[matchIdx])]
		buf.WriteByte(0xC0 | byte(off>>8))
		buf.WriteByte(byte(off))
	} else {
		buf.WriteByte(0)
	}
}
