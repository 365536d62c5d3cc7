package rdata

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/zoneauth/zoneauth/dname"
)

// ---- RRSIG ----

type RRSIG struct {
	TypeCovered Type
	Algorithm   uint8
	Labels      uint8
	OriginalTTL uint32
	Expiration  uint32
	Inception   uint32
	KeyTag      uint16
	SignerName  dname.Name
	Signature   []byte
}

func decodeRRSIG(msg []byte, off, rdlen int) (RR, error) {
	if rdlen < 18 {
		return nil, fmt.Errorf("rdata: RRSIG rdlength too short")
	}
	end := off + rdlen
	r := &RRSIG{
		TypeCovered: Type(binary.BigEndian.Uint16(msg[off : off+2])),
		Algorithm:   msg[off+2],
		Labels:      msg[off+3],
		OriginalTTL: binary.BigEndian.Uint32(msg[off+4 : off+8]),
		Expiration:  binary.BigEndian.Uint32(msg[off+8 : off+12]),
		Inception:   binary.BigEndian.Uint32(msg[off+12 : off+16]),
		KeyTag:      binary.BigEndian.Uint16(msg[off+16 : off+18]),
	}
	name, pos, err := dname.ReadName(msg, off+18)
	if err != nil {
		return nil, err
	}
	if pos > end {
		return nil, fmt.Errorf("rdata: RRSIG signer name exceeds rdlength")
	}
	r.SignerName = name
	r.Signature = append([]byte(nil), msg[pos:end]...)
	return r, nil
}

func (r *RRSIG) Type() Type { return TypeRRSIG }
func (r *RRSIG) encode(buf *bytes.Buffer, canonical bool) error {
	binary.Write(buf, binary.BigEndian, uint16(r.TypeCovered))
	buf.WriteByte(r.Algorithm)
	buf.WriteByte(r.Labels)
	binary.Write(buf, binary.BigEndian, r.OriginalTTL)
	binary.Write(buf, binary.BigEndian, r.Expiration)
	binary.Write(buf, binary.BigEndian, r.Inception)
	binary.Write(buf, binary.BigEndian, r.KeyTag)
	encodeNameField(buf, r.SignerName, canonical)
	buf.Write(r.Signature)
	return nil
}
func (r *RRSIG) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf, false) }
func (r *RRSIG) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf, true) }

// SignedDataPrefix returns everything preceding the signature field, the
// "RDATA minus signature" prefix that RFC 4034 §3.1.8.1 prepends to the
// RRset octet stream before computing a signature. SignerName is written in
// canonical (lowercased) wire form.
func (r *RRSIG) SignedDataPrefix() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint16(r.TypeCovered))
	buf.WriteByte(r.Algorithm)
	buf.WriteByte(r.Labels)
	binary.Write(&buf, binary.BigEndian, r.OriginalTTL)
	binary.Write(&buf, binary.BigEndian, r.Expiration)
	binary.Write(&buf, binary.BigEndian, r.Inception)
	binary.Write(&buf, binary.BigEndian, r.KeyTag)
	buf.Write(r.SignerName.Canonical().Wire())
	return buf.Bytes()
}

func (r *RRSIG) String() string {
	return fmt.Sprintf("%s %d %d %d %d %d %d %s %s",
		r.TypeCovered, r.Algorithm, r.Labels, r.OriginalTTL, r.Expiration, r.Inception,
		r.KeyTag, r.SignerName, base64.StdEncoding.EncodeToString(r.Signature))
}
func (r *RRSIG) Clone() RR {
	c := *r
	c.Signature = append([]byte(nil), r.Signature...)
	return &c
}

// ---- DS ----

type DS struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     []byte
}

func decodeDS(b []byte) (RR, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("rdata: DS rdlength too short")
	}
	return &DS{
		KeyTag:     binary.BigEndian.Uint16(b[0:2]),
		Algorithm:  b[2],
		DigestType: b[3],
		Digest:     append([]byte(nil), b[4:]...),
	}, nil
}

func (r *DS) Type() Type { return TypeDS }
func (r *DS) encode(buf *bytes.Buffer) error {
	binary.Write(buf, binary.BigEndian, r.KeyTag)
	buf.WriteByte(r.Algorithm)
	buf.WriteByte(r.DigestType)
	buf.Write(r.Digest)
	return nil
}
func (r *DS) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf) }
func (r *DS) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf) }
func (r *DS) String() string {
	return fmt.Sprintf("%d %d %d %s", r.KeyTag, r.Algorithm, r.DigestType, strings.ToUpper(hexEncode(r.Digest)))
}
func (r *DS) Clone() RR {
	c := *r
	c.Digest = append([]byte(nil), r.Digest...)
	return &c
}

// ---- DNSKEY ----

type DNSKEY struct {
	Flags     uint16
	Protocol  uint8
	Algorithm uint8
	PublicKey []byte
}

// KSKFlag and ZSKFlag are the two flag values in scope; SEP bit (0x0001) is
// set on the KSK.
const (
	ZSKFlag = 256
	KSKFlag = 257
)

func decodeDNSKEY(b []byte) (RR, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("rdata: DNSKEY rdlength too short")
	}
	return &DNSKEY{
		Flags:     binary.BigEndian.Uint16(b[0:2]),
		Protocol:  b[2],
		Algorithm: b[3],
		PublicKey: append([]byte(nil), b[4:]...),
	}, nil
}

func (r *DNSKEY) Type() Type { return TypeDNSKEY }
func (r *DNSKEY) encode(buf *bytes.Buffer) error {
	binary.Write(buf, binary.BigEndian, r.Flags)
	buf.WriteByte(r.Protocol)
	buf.WriteByte(r.Algorithm)
	buf.Write(r.PublicKey)
	return nil
}
func (r *DNSKEY) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf) }
func (r *DNSKEY) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf) }
func (r *DNSKEY) String() string {
	return fmt.Sprintf("%d 3 %d %s", r.Flags, r.Algorithm, base64.StdEncoding.EncodeToString(r.PublicKey))
}
func (r *DNSKEY) Clone() RR {
	c := *r
	c.PublicKey = append([]byte(nil), r.PublicKey...)
	return &c
}

// KeyTag computes the RFC 4034 Appendix B key tag. Algorithm 1 (RSA/MD5)
// uses the documented special case of taking the most significant 16 bits
// of the least significant 24 bits of the public key (its third- and
// second-to-last octets); every other algorithm uses the
// folded-sum-of-octet-pairs formula over the full wire RDATA.
func (r *DNSKEY) KeyTag() uint16 {
	if r.Algorithm == 1 {
		n := len(r.PublicKey)
		if n < 3 {
			return 0
		}
		return uint16(r.PublicKey[n-3])<<8 | uint16(r.PublicKey[n-2])
	}
	var buf bytes.Buffer
	r.encode(&buf)
	b := buf.Bytes()
	var ac uint32
	for i, c := range b {
		if i&1 == 0 {
			ac += uint32(c) << 8
		} else {
			ac += uint32(c)
		}
	}
	ac += (ac >> 16) & 0xFFFF
	return uint16(ac & 0xFFFF)
}

// ---- NSEC ----

type NSEC struct {
	Next  dname.Name
	Types []Type
}

func decodeNSEC(msg []byte, off, rdlen int) (RR, error) {
	end := off + rdlen
	next, pos, err := dname.ReadName(msg, off)
	if err != nil {
		return nil, err
	}
	types, err := DecodeTypeBitmap(msg[pos:end])
	if err != nil {
		return nil, err
	}
	return &NSEC{Next: next, Types: types}, nil
}

func (r *NSEC) Type() Type { return TypeNSEC }
func (r *NSEC) encode(buf *bytes.Buffer, canonical bool) error {
	encodeNameField(buf, r.Next, canonical)
	buf.Write(EncodeTypeBitmap(r.Types))
	return nil
}
func (r *NSEC) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf, false) }
func (r *NSEC) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf, true) }
func (r *NSEC) String() string {
	parts := make([]string, len(r.Types))
	for i, t := range r.Types {
		parts[i] = t.String()
	}
	return r.Next.String() + " " + strings.Join(parts, " ")
}
func (r *NSEC) Clone() RR {
	return &NSEC{Next: r.Next, Types: append([]Type(nil), r.Types...)}
}

// ---- NSEC3 ----

const (
	NSEC3OptOut = 0x01
)

type NSEC3 struct {
	HashAlgorithm uint8
	Flags         uint8
	Iterations    uint16
	Salt          []byte
	NextHashed    []byte
	Types         []Type
}

func decodeNSEC3(b []byte) (RR, error) {
	if len(b) < 5 {
		return nil, fmt.Errorf("rdata: NSEC3 rdlength too short")
	}
	algo, flags := b[0], b[1]
	iter := binary.BigEndian.Uint16(b[2:4])
	saltLen := int(b[4])
	i := 5
	if i+saltLen > len(b) {
		return nil, fmt.Errorf("rdata: NSEC3 salt exceeds rdlength")
	}
	salt := append([]byte(nil), b[i:i+saltLen]...)
	i += saltLen
	if i >= len(b) {
		return nil, fmt.Errorf("rdata: NSEC3 missing hash length")
	}
	hashLen := int(b[i])
	i++
	if i+hashLen > len(b) {
		return nil, fmt.Errorf("rdata: NSEC3 next-hashed exceeds rdlength")
	}
	next := append([]byte(nil), b[i:i+hashLen]...)
	i += hashLen
	types, err := DecodeTypeBitmap(b[i:])
	if err != nil {
		return nil, err
	}
	return &NSEC3{HashAlgorithm: algo, Flags: flags, Iterations: iter, Salt: salt, NextHashed: next, Types: types}, nil
}

func (r *NSEC3) Type() Type { return TypeNSEC3 }
func (r *NSEC3) encode(buf *bytes.Buffer) error {
	buf.WriteByte(r.HashAlgorithm)
	buf.WriteByte(r.Flags)
	binary.Write(buf, binary.BigEndian, r.Iterations)
	buf.WriteByte(byte(len(r.Salt)))
	buf.Write(r.Salt)
	buf.WriteByte(byte(len(r.NextHashed)))
	buf.Write(r.NextHashed)
	buf.Write(EncodeTypeBitmap(r.Types))
	return nil
}
func (r *NSEC3) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf) }
func (r *NSEC3) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf) }
func (r *NSEC3) String() string {
	salt := "-"
	if len(r.Salt) > 0 {
		salt = strings.ToUpper(hexEncode(r.Salt))
	}
	parts := make([]string, len(r.Types))
	for i, t := range r.Types {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%d %d %d %s %s %s", r.HashAlgorithm, r.Flags, r.Iterations, salt,
		EncodeBase32Hex(r.NextHashed), strings.Join(parts, " "))
}
func (r *NSEC3) Clone() RR {
	c := *r
	c.Salt = append([]byte(nil), r.Salt...)
	c.NextHashed = append([]byte(nil), r.NextHashed...)
	c.Types = append([]Type(nil), r.Types...)
	return &c
}

// ---- NSEC3PARAM ----

type NSEC3PARAM struct {
	HashAlgorithm uint8
	Flags         uint8
	Iterations    uint16
	Salt          []byte
}

func decodeNSEC3PARAM(b []byte) (RR, error) {
	if len(b) < 5 {
		return nil, fmt.Errorf("rdata: NSEC3PARAM rdlength too short")
	}
	saltLen := int(b[4])
	if 5+saltLen != len(b) {
		return nil, fmt.Errorf("rdata: NSEC3PARAM salt length mismatch")
	}
	return &NSEC3PARAM{
		HashAlgorithm: b[0],
		Flags:         b[1],
		Iterations:    binary.BigEndian.Uint16(b[2:4]),
		Salt:          append([]byte(nil), b[5:]...),
	}, nil
}

func (r *NSEC3PARAM) Type() Type { return TypeNSEC3PARAM }
func (r *NSEC3PARAM) encode(buf *bytes.Buffer) error {
	buf.WriteByte(r.HashAlgorithm)
	buf.WriteByte(r.Flags)
	binary.Write(buf, binary.BigEndian, r.Iterations)
	buf.WriteByte(byte(len(r.Salt)))
	buf.Write(r.Salt)
	return nil
}
func (r *NSEC3PARAM) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf) }
func (r *NSEC3PARAM) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf) }
func (r *NSEC3PARAM) String() string {
	salt := "-"
	if len(r.Salt) > 0 {
		salt = strings.ToUpper(hexEncode(r.Salt))
	}
	return fmt.Sprintf("%d %d %d %s", r.HashAlgorithm, r.Flags, r.Iterations, salt)
}
func (r *NSEC3PARAM) Clone() RR {
	c := *r
	c.Salt = append([]byte(nil), r.Salt...)
	return &c
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xF]
	}
	return string(out)
}

func hexParseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	return byte(v), err
}
