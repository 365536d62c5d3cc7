package responder

import (
	"net"
	"testing"

	"github.com/zoneauth/zoneauth/denial"
	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/signer"
	"github.com/zoneauth/zoneauth/wire"
	"github.com/zoneauth/zoneauth/zone"
)

func buildSignedZone(t *testing.T) (*zone.Zone, *signer.Signer, denial.Chain) {
	t.Helper()
	apex := dname.MustParse("example.com")
	z := zone.New(apex)

	add := func(owner string, typ rdata.Type, ttl uint32, rrs ...rdata.RR) {
		s, err := rrset.New(dname.MustParse(owner), typ, ttl, rrs...)
		if err != nil {
			t.Fatal(err)
		}
		if err := z.AddRRset(s); err != nil {
			t.Fatal(err)
		}
	}

	add("example.com", rdata.TypeSOA, 3600, &rdata.SOA{
		MName: dname.MustParse("ns1.example.com"), RName: dname.MustParse("hostmaster.example.com"),
		Serial: 1, Refresh: 3600, Retry: 900, Expire: 604800, Minimum: 300,
	})
	add("example.com", rdata.TypeNS, 3600, &rdata.NS{Target: dname.MustParse("ns1.example.com")})
	add("ns1.example.com", rdata.TypeA, 3600, &rdata.A{Addr: net.ParseIP("192.0.2.53").To4()})
	add("www.example.com", rdata.TypeA, 300, &rdata.A{Addr: net.ParseIP("192.0.2.1").To4()})
	add("alias.example.com", rdata.TypeCNAME, 300, &rdata.CNAME{Target: dname.MustParse("www.example.com")})
	add("*.wild.example.com", rdata.TypeA, 300, &rdata.A{Addr: net.ParseIP("192.0.2.9").To4()})

	add("sub.example.com", rdata.TypeNS, 3600, &rdata.NS{Target: dname.MustParse("ns2.sub.example.com")})
	add("ns2.sub.example.com", rdata.TypeA, 3600, &rdata.A{Addr: net.ParseIP("192.0.2.54").To4()})

	if err := z.Finalize(); err != nil {
		t.Fatal(err)
	}

	ksk, err := signer.GenerateKey(signer.AlgECDSAP256SHA256, signer.KSKFlag)
	if err != nil {
		t.Fatal(err)
	}
	zsk, err := signer.GenerateKey(signer.AlgECDSAP256SHA256, signer.ZSKFlag)
	if err != nil {
		t.Fatal(err)
	}
	add("example.com", rdata.TypeDNSKEY, 3600, ksk.DNSKEY, zsk.DNSKEY)

	z.Signed = true
	z.Denial = zone.DenialNSEC3
	z.NSEC3 = zone.NSEC3Params{HashAlgorithm: zone.NSEC3HashSHA1, Iterations: 1, Salt: []byte{0xAB, 0xCD}}
	chain := denial.BuildNSEC3(z)

	sig := signer.New(apex, ksk, zsk, signer.DefaultPolicy)
	return z, sig, chain
}

func query(name string, qtype rdata.Type, do bool) *wire.Message {
	m := &wire.Message{
		Opcode:           wire.OpcodeQuery,
		RecursionDesired: true,
		Question:         wire.Question{Name: dname.MustParse(name), Type: qtype, Class: rrset.ClassIN},
	}
	if do {
		m.EDNS = &wire.EDNS{UDPSize: 4096, DO: true}
	}
	return m
}

func TestHandlePositiveAnswerUnsigned(t *testing.T) {
	z, sig, chain := buildSignedZone(t)
	resp := Handle(z, sig, chain, query("www.example.com", rdata.TypeA, false))

	if resp.Rcode != wire.RcodeNoError || !resp.Authoritative {
		t.Fatalf("rcode=%d aa=%v", resp.Rcode, resp.Authoritative)
	}
	if len(resp.Answer) != 1 || len(resp.Answer[0].RRSIGs) != 0 {
		t.Fatalf("expected one unsigned answer RRset, got %+v", resp.Answer)
	}
}

func TestHandlePositiveAnswerSigned(t *testing.T) {
	z, sig, chain := buildSignedZone(t)
	resp := Handle(z, sig, chain, query("www.example.com", rdata.TypeA, true))

	if len(resp.Answer) != 1 || len(resp.Answer[0].RRSIGs) != 1 {
		t.Fatalf("expected one signed answer RRset, got %+v", resp.Answer)
	}
	if resp.EDNS == nil || resp.EDNS.UDPSize == 0 {
		t.Fatalf("expected EDNS echoed in response, got %+v", resp.EDNS)
	}
}

func TestHandleReferral(t *testing.T) {
	z, sig, chain := buildSignedZone(t)
	resp := Handle(z, sig, chain, query("host.sub.example.com", rdata.TypeA, false))

	if resp.Rcode != wire.RcodeNoError || resp.Authoritative {
		t.Fatalf("expected non-authoritative NOERROR referral, got rcode=%d aa=%v", resp.Rcode, resp.Authoritative)
	}
	if len(resp.Authority) != 1 || resp.Authority[0].Type != rdata.TypeNS {
		t.Fatalf("expected one NS RRset in authority, got %+v", resp.Authority)
	}
	if len(resp.Additional) != 1 || resp.Additional[0].Owner.String() != "ns2.sub.example.com." {
		t.Fatalf("expected glue for ns2.sub.example.com, got %+v", resp.Additional)
	}
}

func TestHandleCNAMEChain(t *testing.T) {
	z, sig, chain := buildSignedZone(t)
	resp := Handle(z, sig, chain, query("alias.example.com", rdata.TypeA, false))

	if len(resp.Answer) != 2 {
		t.Fatalf("expected CNAME + A in answer, got %d RRsets", len(resp.Answer))
	}
	if resp.Answer[0].Type != rdata.TypeCNAME || resp.Answer[1].Type != rdata.TypeA {
		t.Fatalf("unexpected answer order: %+v", resp.Answer)
	}
}

func TestHandleWildcardExpansion(t *testing.T) {
	z, sig, chain := buildSignedZone(t)
	resp := Handle(z, sig, chain, query("anything.wild.example.com", rdata.TypeA, true))

	if resp.Rcode != wire.RcodeNoError || len(resp.Answer) != 1 {
		t.Fatalf("expected a synthesized positive answer, got rcode=%d answer=%+v", resp.Rcode, resp.Answer)
	}
	if resp.Answer[0].Owner.String() != "anything.wild.example.com." {
		t.Fatalf("expected answer owner rewritten to qname, got %s", resp.Answer[0].Owner)
	}
	if len(resp.Authority) == 0 {
		t.Fatal("expected a next-closer nonexistence proof in authority")
	}
}

func TestHandleNXDomainSigned(t *testing.T) {
	z, sig, chain := buildSignedZone(t)
	resp := Handle(z, sig, chain, query("nonexistent.example.com", rdata.TypeA, true))

	if resp.Rcode != wire.RcodeNXDomain {
		t.Fatalf("expected NXDOMAIN, got %d", resp.Rcode)
	}
	foundSOA, foundNSEC3 := false, false
	for _, s := range resp.Authority {
		switch s.Type {
		case rdata.TypeSOA:
			foundSOA = true
			if len(s.RRSIGs) != 1 {
				t.Errorf("expected signed negative SOA")
			}
		case rdata.TypeNSEC3:
			foundNSEC3 = true
		}
	}
	if !foundSOA || !foundNSEC3 {
		t.Fatalf("expected SOA and NSEC3 in authority, got %+v", resp.Authority)
	}
}

func TestHandleOutOfZoneRefused(t *testing.T) {
	z, sig, chain := buildSignedZone(t)
	resp := Handle(z, sig, chain, query("www.other.org", rdata.TypeA, false))

	if resp.Rcode != wire.RcodeRefused {
		t.Fatalf("expected REFUSED, got %d", resp.Rcode)
	}
}
