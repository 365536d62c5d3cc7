package wire

import (
	"net"
	"testing"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

func TestEncodeDecodeQueryRoundTrip(t *testing.T) {
	q := &Message{
		ID:               0x1234,
		Opcode:           OpcodeQuery,
		RecursionDesired: true,
		Question: Question{
			Name:  dname.MustParse("www.example.com"),
			Type:  rdata.TypeA,
			Class: rrset.ClassIN,
		},
		EDNS: &EDNS{UDPSize: 4096, DO: true},
	}
	buf := Encode(q, false, 0)

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != q.ID {
		t.Errorf("ID = %#x, want %#x", got.ID, q.ID)
	}
	if !got.Question.Name.Equal(q.Question.Name) {
		t.Errorf("question name = %s, want %s", got.Question.Name, q.Question.Name)
	}
	if got.Question.Type != rdata.TypeA {
		t.Errorf("question type = %s, want A", got.Question.Type)
	}
	if got.EDNS == nil || !got.EDNS.DO {
		t.Errorf("expected DO bit to survive round trip")
	}
	if got.EDNS.UDPSize != 4096 {
		t.Errorf("UDPSize = %d, want 4096", got.EDNS.UDPSize)
	}
}

func TestEncodeCompressesRepeatedSuffix(t *testing.T) {
	apex := dname.MustParse("example.com")
	uncompressed := &Message{
		Response:      true,
		Authoritative: true,
		Question:      Question{Name: dname.MustParse("www.example.com"), Type: rdata.TypeA, Class: rrset.ClassIN},
	}
	a, _ := rrset.New(dname.MustParse("www.example.com"), rdata.TypeA, 300, &rdata.A{Addr: net.ParseIP("192.0.2.1").To4()})
	ns1, _ := rrset.New(apex, rdata.TypeNS, 3600, &rdata.NS{Target: dname.MustParse("ns1.example.com")})
	ns2, _ := rrset.New(apex, rdata.TypeNS, 3600, &rdata.NS{Target: dname.MustParse("ns2.example.com")})
	uncompressed.Answer = []*rrset.RRset{a}
	uncompressed.Authority = []*rrset.RRset{ns1, ns2}

	buf := Encode(uncompressed, false, 0)

	// Both NS owner names repeat "example.com" verbatim; a correctly
	// compressing encoder produces a message smaller than the same message
	// with every owner and question name written out in full.
	www := len(dname.MustParse("www.example.com").Wire())
	naiveBound := headerLen + 4 + www + (www + 10 + 4) +
		2*(len(apex.Wire())+10+len(dname.MustParse("ns1.example.com").Wire()))
	if len(buf) >= naiveBound {
		t.Errorf("encoded length %d did not benefit from name compression (bound %d)", len(buf), naiveBound)
	}
}

func TestEncodeSetsTruncationWhenOverBudget(t *testing.T) {
	apex := dname.MustParse("example.com")
	m := &Message{
		Response:      true,
		Authoritative: true,
		Question:      Question{Name: apex, Type: rdata.TypeTXT, Class: rrset.ClassIN},
	}
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'a'
	}
	s, _ := rrset.New(apex, rdata.TypeTXT, 300, &rdata.TXT{Strings: [][]byte{big}})
	for i := 0; i < 5; i++ {
		m.Answer = append(m.Answer, s)
	}

	buf := Encode(m, true, 512)
	if len(buf) > 512 {
		t.Fatalf("encoded response exceeds UDP budget: %d bytes", len(buf))
	}
	flags := uint16(buf[2])<<8 | uint16(buf[3])
	if flags&flagTC == 0 {
		t.Errorf("expected TC bit set when truncating")
	}
}
