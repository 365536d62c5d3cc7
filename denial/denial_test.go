package denial

import (
	"net"
	"testing"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/zone"
)

func buildTestZone(t *testing.T) *zone.Zone {
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
	add("www.example.com", rdata.TypeA, 300, &rdata.A{Addr: net.ParseIP("192.0.2.1").To4()})
	add("mail.example.com", rdata.TypeA, 300, &rdata.A{Addr: net.ParseIP("192.0.2.2").To4()})

	if err := z.Finalize(); err != nil {
		t.Fatal(err)
	}
	return z
}

func TestNSECChainCoversEveryGap(t *testing.T) {
	z := buildTestZone(t)
	c := BuildNSEC(z)

	missing := dname.MustParse("nonexistent.example.com")
	cover := c.Covering(missing)
	if cover == nil {
		t.Fatal("expected a covering NSEC")
	}
	nsec := cover.RRs[0].(*rdata.NSEC)
	if dname.Compare(cover.Owner, missing) >= 0 {
		t.Errorf("covering NSEC owner %s should sort before %s", cover.Owner, missing)
	}
	if dname.Compare(missing, nsec.Next) >= 0 {
		t.Errorf("missing name %s should sort before next owner %s", missing, nsec.Next)
	}
}

func TestNSECMatchingExact(t *testing.T) {
	z := buildTestZone(t)
	c := BuildNSEC(z)

	s, ok := c.Matching(dname.MustParse("www.example.com"))
	if !ok {
		t.Fatal("expected a matching NSEC at www.example.com")
	}
	nsec := s.RRs[0].(*rdata.NSEC)
	found := false
	for _, ty := range nsec.Types {
		if ty == rdata.TypeA {
			found = true
		}
	}
	if !found {
		t.Errorf("expected A in bitmap, got %v", nsec.Types)
	}
}

func TestNSEC3ChainOrderedByHash(t *testing.T) {
	z := buildTestZone(t)
	z.Denial = zone.DenialNSEC3
	z.NSEC3 = zone.NSEC3Params{HashAlgorithm: zone.NSEC3HashSHA1, Iterations: 1, Salt: []byte{0xAA}}
	c := BuildNSEC3(z)

	if len(c.hashes) != len(z.Owners()) {
		t.Fatalf("expected one NSEC3 per owner, got %d for %d owners", len(c.hashes), len(z.Owners()))
	}
	for i := 1; i < len(c.hashes); i++ {
		if string(c.hashes[i-1]) >= string(c.hashes[i]) {
			t.Errorf("hash chain not strictly increasing at index %d", i)
		}
	}

	apex := z.Apex
	if _, ok := c.Matching(apex); !ok {
		t.Errorf("expected apex to be a chain member")
	}
}

func TestNSEC3CoveringWraps(t *testing.T) {
	z := buildTestZone(t)
	z.NSEC3 = zone.NSEC3Params{HashAlgorithm: zone.NSEC3HashSHA1, Iterations: 0, Salt: nil}
	c := BuildNSEC3(z)

	missing := dname.MustParse("ghost.example.com")
	s := c.Covering(missing)
	if s == nil {
		t.Fatal("expected a covering NSEC3 record")
	}
}
