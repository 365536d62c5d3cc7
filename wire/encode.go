package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

func writeRR(buf *bytes.Buffer, table compressionTable, owner dname.Name, class rrset.Class, ttl uint32, rtype rdata.Type, rr rdata.RR) {
	var rdbuf bytes.Buffer
	rr.EncodeWire(&rdbuf) // RDATA never compresses embedded names, so it's safe to render independently.

	writeName(buf, owner, table, true)
	binary.Write(buf, binary.BigEndian, uint16(rtype))
	binary.Write(buf, binary.BigEndian, uint16(class))
	binary.Write(buf, binary.BigEndian, ttl)
	binary.Write(buf, binary.BigEndian, uint16(rdbuf.Len()))
	buf.Write(rdbuf.Bytes())
}

func writeSection(buf *bytes.Buffer, table compressionTable, sets []*rrset.RRset) {
	for _, s := range sets {
		for _, rr := range s.RRs {
			writeRR(buf, table, s.Owner, s.Class, s.TTL, s.Type, rr)
		}
		for _, sig := range s.RRSIGs {
			writeRR(buf, table, s.Owner, s.Class, s.TTL, rdata.TypeRRSIG, sig)
		}
	}
}

// optTTL packs the extended RCODE, version and DO bit into the OPT
// pseudo-RR's TTL field, per RFC 6891 §6.1.3.
func optTTL(e *EDNS) uint32 {
	ttl := uint32(e.ExtendedRcode)<<24 | uint32(e.Version)<<16
	if e.DO {
		ttl |= 0x00008000
	}
	return ttl
}

func optRecord(e *EDNS) *rdata.OPT {
	var opts []rdata.Option
	if e.NSID != nil {
		opts = append(opts, rdata.Option{Code: rdata.OptCodeNSID, Data: e.NSID})
	}
	return &rdata.OPT{Options: opts}
}

func headerFlags(m *Message, truncated bool) uint16 {
	var f uint16
	if m.Response {
		f |= flagQR
	}
	f |= uint16(m.Opcode&0xF) << 11
	if m.Authoritative {
		f |= flagAA
	}
	if truncated {
		f |= flagTC
	}
	if m.RecursionDesired {
		f |= flagRD
	}
	if m.RecursionAvailable {
		f |= flagRA
	}
	if m.AuthenticData {
		f |= flagAD
	}
	if m.CheckingDisabled {
		f |= flagCD
	}
	f |= m.Rcode & 0xF
	return f
}

// buildMessage renders the full wire form using the given section
// contents (which may be a truncated subset of m's own sections) and an
// explicit truncated flag for the header's TC bit.
func buildMessage(m *Message, truncated bool, answer, authority, additional []*rrset.RRset) []byte {
	var buf bytes.Buffer
	table := make(compressionTable)

	var hdr [headerLen]byte
	binary.BigEndian.PutUint16(hdr[0:2], m.ID)
	binary.BigEndian.PutUint16(hdr[2:4], headerFlags(m, truncated))
	binary.BigEndian.PutUint16(hdr[4:6], 1)
	binary.BigEndian.PutUint16(hdr[6:8], uint16(countRecords(answer)))
	binary.BigEndian.PutUint16(hdr[8:10], uint16(countRecords(authority)))

	arcount := countRecords(additional)
	if m.EDNS != nil {
		arcount++
	}
	binary.BigEndian.PutUint16(hdr[10:12], uint16(arcount))
	buf.Write(hdr[:])

	writeName(&buf, m.Question.Name, table, true)
	binary.Write(&buf, binary.BigEndian, uint16(m.Question.Type))
	binary.Write(&buf, binary.BigEndian, uint16(m.Question.Class))

	writeSection(&buf, table, answer)
	writeSection(&buf, table, authority)
	writeSection(&buf, table, additional)
	if m.EDNS != nil {
		e := *m.EDNS
		e.ExtendedRcode = uint8(m.Rcode >> 4)
		writeRR(&buf, table, dname.Root, rrset.Class(e.UDPSize), optTTL(&e), rdata.TypeOPT, optRecord(&e))
	}

	return buf.Bytes()
}

// Encode renders m, applying UDP truncation when isUDP is set and the
// rendered message would exceed udpMaxSize: additional records are
// dropped first, then authority, then answer, in that priority order,
// always preserving the question and the (possibly empty) OPT record,
// with TC=1 set on any truncated result (§4.1).
func Encode(m *Message, isUDP bool, udpMaxSize int) []byte {
	full := buildMessage(m, false, m.Answer, m.Authority, m.Additional)
	if !isUDP || udpMaxSize <= 0 || len(full) <= udpMaxSize {
		return full
	}
	if attempt := buildMessage(m, true, m.Answer, m.Authority, nil); len(attempt) <= udpMaxSize {
		return attempt
	}
	if attempt := buildMessage(m, true, m.Answer, nil, nil); len(attempt) <= udpMaxSize {
		return attempt
	}
	return buildMessage(m, true, nil, nil, nil)
}
