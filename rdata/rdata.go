// Package rdata implements the typed RDATA variants of the zone engine: one
// Go type per record type, each able to render its generic wire form, its
// DNSSEC canonical form (used as signing input), and its zone-text form.
//
// Embedded domain names in SOA, NS, MX, CNAME, DNAME, RRSIG and NSEC are
// never compressed, in the wire form or the canonical form — only
// lowercased for the latter — per the wire codec's compression-suppression
// rule. No RDATA variant in this package ever participates in owner-name
// compression, which is scoped entirely to the message-level codec.
package rdata

import (
	"bytes"
	"fmt"

	"github.com/zoneauth/zoneauth/dname"
)

// Type is a DNS RR type code.
type Type uint16

const (
	TypeA          Type = 1
	TypeNS         Type = 2
	TypeCNAME      Type = 5
	TypeSOA        Type = 6
	TypeMX         Type = 15
	TypeTXT        Type = 16
	TypeAAAA       Type = 28
	TypeDNAME      Type = 39
	TypeOPT        Type = 41
	TypeDS         Type = 43
	TypeRRSIG      Type = 46
	TypeNSEC       Type = 47
	TypeDNSKEY     Type = 48
	TypeNSEC3      Type = 50
	TypeNSEC3PARAM Type = 51
	TypeSPF        Type = 99
	TypeCAA        Type = 257
)

var typeNames = map[Type]string{
	TypeA: "A", TypeNS: "NS", TypeCNAME: "CNAME", TypeSOA: "SOA", TypeMX: "MX",
	TypeTXT: "TXT", TypeAAAA: "AAAA", TypeDNAME: "DNAME", TypeOPT: "OPT",
	TypeDS: "DS", TypeRRSIG: "RRSIG", TypeNSEC: "NSEC", TypeDNSKEY: "DNSKEY",
	TypeNSEC3: "NSEC3", TypeNSEC3PARAM: "NSEC3PARAM", TypeSPF: "SPF", TypeCAA: "CAA",
}

var nameTypes = map[string]Type{}

func init() {
	for t, s := range typeNames {
		nameTypes[s] = t
	}
}

// String renders the mnemonic for a type, or TYPE<n> for anything unknown
// to this package (handled generically by the Unknown variant).
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// ParseType maps a zone-text mnemonic (or TYPE<n>) back to a Type.
func ParseType(s string) (Type, bool) {
	if t, ok := nameTypes[s]; ok {
		return t, true
	}
	var n uint16
	if _, err := fmt.Sscanf(s, "TYPE%d", &n); err == nil {
		return Type(n), true
	}
	return 0, false
}

// RR is one RDATA payload: a single member of an RRset.
type RR interface {
	Type() Type
	// EncodeWire appends the generic wire-format RDATA (embedded names
	// uncompressed, original case preserved).
	EncodeWire(buf *bytes.Buffer) error
	// EncodeCanonical appends the DNSSEC canonical RDATA (embedded names
	// uncompressed and lowercased; all other fields identical to the wire
	// form).
	EncodeCanonical(buf *bytes.Buffer) error
	// String renders the zone-text form of the RDATA only (no owner, TTL,
	// class or type fields).
	String() string
	Clone() RR
}

// Decode parses rdlen bytes of RDATA for rrType starting at msg[off]. msg is
// the whole message buffer so that error reporting (and any compression
// pointer present in a non-conformant input) has full context, even though
// this package's own encoders never emit compressed embedded names.
func Decode(rrType Type, msg []byte, off, rdlen int) (RR, error) {
	if off+rdlen > len(msg) {
		return nil, fmt.Errorf("rdata: rdlength %d exceeds remaining buffer", rdlen)
	}
	rdata := msg[off : off+rdlen]
	switch rrType {
	case TypeA:
		return decodeA(rdata)
	case TypeAAAA:
		return decodeAAAA(rdata)
	case TypeNS:
		return decodeNS(msg, off, rdlen)
	case TypeCNAME:
		return decodeCNAME(msg, off, rdlen)
	case TypeDNAME:
		return decodeDNAME(msg, off, rdlen)
	case TypeMX:
		return decodeMX(msg, off, rdlen)
	case TypeSOA:
		return decodeSOA(msg, off, rdlen)
	case TypeTXT:
		return decodeTXT(rdata, false)
	case TypeSPF:
		return decodeTXT(rdata, true)
	case TypeCAA:
		return decodeCAA(rdata)
	case TypeRRSIG:
		return decodeRRSIG(msg, off, rdlen)
	case TypeDS:
		return decodeDS(rdata)
	case TypeDNSKEY:
		return decodeDNSKEY(rdata)
	case TypeNSEC:
		return decodeNSEC(msg, off, rdlen)
	case TypeNSEC3:
		return decodeNSEC3(rdata)
	case TypeNSEC3PARAM:
		return decodeNSEC3PARAM(rdata)
	case TypeOPT:
		return decodeOPT(rdata)
	default:
		return decodeUnknown(rrType, rdata)
	}
}

func encodeNameField(buf *bytes.Buffer, n dname.Name, canonical bool) {
	if canonical {
		buf.Write(n.Canonical().Wire())
	} else {
		buf.Write(n.Wire())
	}
}
