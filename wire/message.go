// Package wire implements the DNS message codec: header framing, name
// compression over owner and question names (suppressed inside RDATA,
// which the rdata package already writes uncompressed), EDNS(0) OPT
// handling, and the truncation behavior a UDP responder needs.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

// Opcode values (RFC 1035 §4.1.1); this server only answers QUERY.
const (
	OpcodeQuery = 0
)

// RCODE values this implementation produces. Extended values beyond 15
// travel in EDNS.ExtendedRcode (RFC 6891 §6.1.3); Rcode here always holds
// the full logical code, split across the header/OPT boundary at Encode
// time and recombined by Decode.
const (
	RcodeNoError  = 0
	RcodeFormErr  = 1
	RcodeServFail = 2
	RcodeNXDomain = 3
	RcodeNotImp   = 4
	RcodeRefused  = 5
)

// Question is the single entry of the question section this server
// expects (qdcount is always 1 for a well-formed query it will answer).
type Question struct {
	Name  dname.Name
	Type  rdata.Type
	Class rrset.Class
}

// EDNS carries the OPT pseudo-RR's fields once parsed out of the
// additional section, or the server's own outgoing EDNS parameters.
type EDNS struct {
	UDPSize        uint16
	ExtendedRcode  uint8 // high 8 bits of the 12-bit RCODE
	Version        uint8
	DO             bool
	NSID           []byte // nil unless the option was present/requested
}

// Message is the in-memory form of a DNS message, built or consumed by
// the responder. Each section holds RRsets rather than bare records: a
// section's wire record count is the sum of each RRset's member count
// (including any attached RRSIGs).
type Message struct {
	ID                 uint16
	Response           bool
	Opcode             uint8
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	AuthenticData      bool
	CheckingDisabled   bool
	Rcode              uint16

	Question Question

	Answer     []*rrset.RRset
	Authority  []*rrset.RRset
	Additional []*rrset.RRset

	EDNS *EDNS // nil if the query carried no OPT and the response emits none
}

const headerLen = 12

// flag bit positions within the 16-bit flags word.
const (
	flagQR = 1 << 15
	flagAA = 1 << 10
	flagTC = 1 << 9
	flagRD = 1 << 8
	flagRA = 1 << 7
	flagAD = 1 << 5
	flagCD = 1 << 4
)

func countRecords(sets []*rrset.RRset) int {
	n := 0
	for _, s := range sets {
		n += len(s.RRs) + len(s.RRSIGs)
	}
	return n
}

// Decode parses a complete query message from buf.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < headerLen {
		return nil, &dname.FormatError{Reason: "message shorter than header"}
	}
	m := &Message{}
	m.ID = binary.BigEndian.Uint16(buf[0:2])
	flags := binary.BigEndian.Uint16(buf[2:4])
	m.Response = flags&flagQR != 0
	m.Opcode = uint8((flags >> 11) & 0xF)
	m.Authoritative = flags&flagAA != 0
	m.Truncated = flags&flagTC != 0
	m.RecursionDesired = flags&flagRD != 0
	m.RecursionAvailable = flags&flagRA != 0
	m.AuthenticData = flags&flagAD != 0
	m.CheckingDisabled = flags&flagCD != 0
	m.Rcode = uint16(flags & 0xF)

	qdcount := binary.BigEndian.Uint16(buf[4:6])
	ancount := binary.BigEndian.Uint16(buf[6:8])
	nscount := binary.BigEndian.Uint16(buf[8:10])
	arcount := binary.BigEndian.Uint16(buf[10:12])

	if qdcount != 1 {
		return nil, &dname.FormatError{Reason: fmt.Sprintf("qdcount must be 1, got %d", qdcount)}
	}

	pos := headerLen
	name, pos, err := dname.ReadName(buf, pos)
	if err != nil {
		return nil, err
	}
	if pos+4 > len(buf) {
		return nil, &dname.FormatError{Reason: "question truncated"}
	}
	m.Question = Question{
		Name:  name,
		Type:  rdata.Type(binary.BigEndian.Uint16(buf[pos : pos+2])),
		Class: rrset.Class(binary.BigEndian.Uint16(buf[pos+2 : pos+4])),
	}
	pos += 4

	for i := 0; i < int(ancount); i++ {
		_, _, p, err := readRR(buf, pos)
		if err != nil {
			return nil, err
		}
		pos = p
	}
	for i := 0; i < int(nscount); i++ {
		_, _, p, err := readRR(buf, pos)
		if err != nil {
			return nil, err
		}
		pos = p
	}
	for i := 0; i < int(arcount); i++ {
		owner, rr, p, err := readRR(buf, pos)
		if err != nil {
			return nil, err
		}
		if opt, ok := rr.record.(*rdata.OPT); ok && rr.rtype == rdata.TypeOPT {
			if !owner.IsRoot() {
				return nil, &dname.FormatError{Reason: "OPT owner must be the root name"}
			}
			m.EDNS = ednsFromOPT(opt, rr)
		}
		pos = p
	}
	if m.EDNS != nil {
		m.Rcode |= uint16(m.EDNS.ExtendedRcode) << 4
	}
	return m, nil
}

// decodedRR is an intermediate record used only while parsing: the
// responder never sees raw records, only RRsets assembled by the zone
// and signer packages, so Decode only needs this shape to recognize OPT.
type decodedRR struct {
	rtype rdata.Type
	class uint16
	ttl   uint32
	record rdata.RR
}

func readRR(buf []byte, pos int) (dname.Name, decodedRR, int, error) {
	owner, pos, err := dname.ReadName(buf, pos)
	if err != nil {
		return dname.Name{}, decodedRR{}, 0, err
	}
	if pos+10 > len(buf) {
		return dname.Name{}, decodedRR{}, 0, &dname.FormatError{Reason: "RR header truncated"}
	}
	rtype := rdata.Type(binary.BigEndian.Uint16(buf[pos : pos+2]))
	class := binary.BigEndian.Uint16(buf[pos+2 : pos+4])
	ttl := binary.BigEndian.Uint32(buf[pos+4 : pos+8])
	rdlen := int(binary.BigEndian.Uint16(buf[pos+8 : pos+10]))
	pos += 10
	if pos+rdlen > len(buf) {
		return dname.Name{}, decodedRR{}, 0, &dname.FormatError{Reason: "rdlength exceeds remaining buffer"}
	}
	rr, err := rdata.Decode(rtype, buf, pos, rdlen)
	if err != nil {
		return dname.Name{}, decodedRR{}, 0, err
	}
	pos += rdlen
	return owner, decodedRR{rtype: rtype, class: class, ttl: ttl, record: rr}, pos, nil
}

func ednsFromOPT(opt *rdata.OPT, rr decodedRR) *EDNS {
	e := &EDNS{
		UDPSize:       rr.class,
		ExtendedRcode: uint8(rr.ttl >> 24),
		Version:       uint8(rr.ttl >> 16),
		DO:            rr.ttl&0x00008000 != 0,
	}
	for _, o := range opt.Options {
		if o.Code == rdata.OptCodeNSID {
			e.NSID = o.Data
		}
	}
	return e
}
