package rdata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/zoneauth/zoneauth/dname"
)

// ---- A ----

type A struct{ Addr net.IP }

func decodeA(b []byte) (RR, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("rdata: A rdlength must be 4, got %d", len(b))
	}
	ip := make(net.IP, 4)
	copy(ip, b)
	return &A{Addr: ip}, nil
}

func (r *A) Type() Type { return TypeA }
func (r *A) EncodeWire(buf *bytes.Buffer) error {
	v4 := r.Addr.To4()
	if v4 == nil {
		return fmt.Errorf("rdata: A address %s is not IPv4", r.Addr)
	}
	buf.Write(v4)
	return nil
}
func (r *A) EncodeCanonical(buf *bytes.Buffer) error { return r.EncodeWire(buf) }
func (r *A) String() string                          { return r.Addr.To4().String() }
func (r *A) Clone() RR {
	ip := make(net.IP, len(r.Addr))
	copy(ip, r.Addr)
	return &A{Addr: ip}
}

// ---- AAAA ----

type AAAA struct{ Addr net.IP }

func decodeAAAA(b []byte) (RR, error) {
	if len(b) != 16 {
		return nil, fmt.Errorf("rdata: AAAA rdlength must be 16, got %d", len(b))
	}
	ip := make(net.IP, 16)
	copy(ip, b)
	return &AAAA{Addr: ip}, nil
}

func (r *AAAA) Type() Type { return TypeAAAA }
func (r *AAAA) EncodeWire(buf *bytes.Buffer) error {
	v6 := r.Addr.To16()
	if v6 == nil {
		return fmt.Errorf("rdata: AAAA address %s invalid", r.Addr)
	}
	buf.Write(v6)
	return nil
}
func (r *AAAA) EncodeCanonical(buf *bytes.Buffer) error { return r.EncodeWire(buf) }
func (r *AAAA) String() string                          { return r.Addr.To16().String() }
func (r *AAAA) Clone() RR {
	ip := make(net.IP, len(r.Addr))
	copy(ip, r.Addr)
	return &AAAA{Addr: ip}
}

// ---- NS ----

type NS struct{ Target dname.Name }

func decodeNS(msg []byte, off, rdlen int) (RR, error) {
	n, end, err := dname.ReadName(msg, off)
	if err != nil {
		return nil, err
	}
	if end != off+rdlen {
		return nil, fmt.Errorf("rdata: NS target does not consume full rdlength")
	}
	return &NS{Target: n}, nil
}

func (r *NS) Type() Type { return TypeNS }
func (r *NS) EncodeWire(buf *bytes.Buffer) error {
	encodeNameField(buf, r.Target, false)
	return nil
}
func (r *NS) EncodeCanonical(buf *bytes.Buffer) error {
	encodeNameField(buf, r.Target, true)
	return nil
}
func (r *NS) String() string { return r.Target.String() }
func (r *NS) Clone() RR      { return &NS{Target: r.Target} }

// ---- CNAME ----

type CNAME struct{ Target dname.Name }

func decodeCNAME(msg []byte, off, rdlen int) (RR, error) {
	n, end, err := dname.ReadName(msg, off)
	if err != nil {
		return nil, err
	}
	if end != off+rdlen {
		return nil, fmt.Errorf("rdata: CNAME target does not consume full rdlength")
	}
	return &CNAME{Target: n}, nil
}

func (r *CNAME) Type() Type { return TypeCNAME }
func (r *CNAME) EncodeWire(buf *bytes.Buffer) error {
	encodeNameField(buf, r.Target, false)
	return nil
}
func (r *CNAME) EncodeCanonical(buf *bytes.Buffer) error {
	encodeNameField(buf, r.Target, true)
	return nil
}
func (r *CNAME) String() string { return r.Target.String() }
func (r *CNAME) Clone() RR      { return &CNAME{Target: r.Target} }

// ---- DNAME ----

type DNAME struct{ Target dname.Name }

func decodeDNAME(msg []byte, off, rdlen int) (RR, error) {
	n, end, err := dname.ReadName(msg, off)
	if err != nil {
		return nil, err
	}
	if end != off+rdlen {
		return nil, fmt.Errorf("rdata: DNAME target does not consume full rdlength")
	}
	return &DNAME{Target: n}, nil
}

func (r *DNAME) Type() Type { return TypeDNAME }
func (r *DNAME) EncodeWire(buf *bytes.Buffer) error {
	encodeNameField(buf, r.Target, false)
	return nil
}
func (r *DNAME) EncodeCanonical(buf *bytes.Buffer) error {
	encodeNameField(buf, r.Target, true)
	return nil
}
func (r *DNAME) String() string { return r.Target.String() }
func (r *DNAME) Clone() RR      { return &DNAME{Target: r.Target} }

// ---- MX ----

type MX struct {
	Preference uint16
	Exchange   dname.Name
}

func decodeMX(msg []byte, off, rdlen int) (RR, error) {
	if rdlen < 3 {
		return nil, fmt.Errorf("rdata: MX rdlength too short")
	}
	pref := binary.BigEndian.Uint16(msg[off : off+2])
	n, end, err := dname.ReadName(msg, off+2)
	if err != nil {
		return nil, err
	}
	if end != off+rdlen {
		return nil, fmt.Errorf("rdata: MX exchange does not consume full rdlength")
	}
	return &MX{Preference: pref, Exchange: n}, nil
}

func (r *MX) Type() Type { return TypeMX }
func (r *MX) EncodeWire(buf *bytes.Buffer) error {
	binary.Write(buf, binary.BigEndian, r.Preference)
	encodeNameField(buf, r.Exchange, false)
	return nil
}
func (r *MX) EncodeCanonical(buf *bytes.Buffer) error {
	binary.Write(buf, binary.BigEndian, r.Preference)
	encodeNameField(buf, r.Exchange, true)
	return nil
}
func (r *MX) String() string { return fmt.Sprintf("%d %s", r.Preference, r.Exchange.String()) }
func (r *MX) Clone() RR      { return &MX{Preference: r.Preference, Exchange: r.Exchange} }

// ---- SOA ----

type SOA struct {
	MName   dname.Name
	RName   dname.Name
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func decodeSOA(msg []byte, off, rdlen int) (RR, error) {
	end := off + rdlen
	mname, pos, err := dname.ReadName(msg, off)
	if err != nil {
		return nil, err
	}
	rname, pos, err := dname.ReadName(msg, pos)
	if err != nil {
		return nil, err
	}
	if pos+20 != end {
		return nil, fmt.Errorf("rdata: SOA rdlength mismatch")
	}
	s := &SOA{
		MName:   mname,
		RName:   rname,
		Serial:  binary.BigEndian.Uint32(msg[pos : pos+4]),
		Refresh: binary.BigEndian.Uint32(msg[pos+4 : pos+8]),
		Retry:   binary.BigEndian.Uint32(msg[pos+8 : pos+12]),
		Expire:  binary.BigEndian.Uint32(msg[pos+12 : pos+16]),
		Minimum: binary.BigEndian.Uint32(msg[pos+16 : pos+20]),
	}
	return s, nil
}

func (r *SOA) Type() Type { return TypeSOA }
func (r *SOA) encode(buf *bytes.Buffer, canonical bool) error {
	encodeNameField(buf, r.MName, canonical)
	encodeNameField(buf, r.RName, canonical)
	for _, v := range []uint32{r.Serial, r.Refresh, r.Retry, r.Expire, r.Minimum} {
		binary.Write(buf, binary.BigEndian, v)
	}
	return nil
}
func (r *SOA) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf, false) }
func (r *SOA) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf, true) }
func (r *SOA) String() string {
	return fmt.Sprintf("%s %s %d %d %d %d %d", r.MName, r.RName, r.Serial, r.Refresh, r.Retry, r.Expire, r.Minimum)
}
func (r *SOA) Clone() RR {
	c := *r
	return &c
}

// ---- TXT / SPF (identical character-string-list wire format) ----

type TXT struct {
	Strings [][]byte
	isSPF   bool
}

func decodeTXT(b []byte, isSPF bool) (RR, error) {
	var strs [][]byte
	i := 0
	for i < len(b) {
		n := int(b[i])
		if i+1+n > len(b) {
			return nil, fmt.Errorf("rdata: TXT character-string exceeds rdlength")
		}
		s := make([]byte, n)
		copy(s, b[i+1:i+1+n])
		strs = append(strs, s)
		i += 1 + n
	}
	return &TXT{Strings: strs, isSPF: isSPF}, nil
}

func (r *TXT) Type() Type {
	if r.isSPF {
		return TypeSPF
	}
	return TypeTXT
}
func (r *TXT) encode(buf *bytes.Buffer) error {
	for _, s := range r.Strings {
		if len(s) > 255 {
			return fmt.Errorf("rdata: TXT character-string exceeds 255 bytes")
		}
		buf.WriteByte(byte(len(s)))
		buf.Write(s)
	}
	return nil
}
func (r *TXT) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf) }
func (r *TXT) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf) }
func (r *TXT) String() string {
	parts := make([]string, len(r.Strings))
	for i, s := range r.Strings {
		parts[i] = quoteTXT(s)
	}
	return strings.Join(parts, " ")
}
func (r *TXT) Clone() RR {
	strs := make([][]byte, len(r.Strings))
	for i, s := range r.Strings {
		strs[i] = append([]byte(nil), s...)
	}
	return &TXT{Strings: strs, isSPF: r.isSPF}
}

func quoteTXT(s []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

// ---- CAA ----

type CAA struct {
	Flag  uint8
	Tag   string
	Value string
}

func decodeCAA(b []byte) (RR, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("rdata: CAA rdlength too short")
	}
	flag := b[0]
	taglen := int(b[1])
	if 2+taglen > len(b) {
		return nil, fmt.Errorf("rdata: CAA tag length exceeds rdlength")
	}
	tag := string(b[2 : 2+taglen])
	value := string(b[2+taglen:])
	return &CAA{Flag: flag, Tag: tag, Value: value}, nil
}

func (r *CAA) Type() Type { return TypeCAA }
func (r *CAA) encode(buf *bytes.Buffer) error {
	if len(r.Tag) > 255 {
		return fmt.Errorf("rdata: CAA tag exceeds 255 bytes")
	}
	buf.WriteByte(r.Flag)
	buf.WriteByte(byte(len(r.Tag)))
	buf.WriteString(r.Tag)
	buf.WriteString(r.Value)
	return nil
}
func (r *CAA) EncodeWire(buf *bytes.Buffer) error      { return r.encode(buf) }
func (r *CAA) EncodeCanonical(buf *bytes.Buffer) error { return r.encode(buf) }
func (r *CAA) String() string {
	return strconv.Itoa(int(r.Flag)) + " " + r.Tag + " \"" + r.Value + "\""
}
func (r *CAA) Clone() RR { c := *r; return &c }
