package zone

import (
	"strings"
	"testing"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
)

const testMasterfile = `
example.com. 3600 IN SOA ns1.example.com. hostmaster.example.com. 1 7200 3600 1209600 300
example.com. 3600 IN NS ns1.example.com.
ns1.example.com. 3600 IN A 192.0.2.1
www.example.com. 300 IN A 192.168.0.101
www.example.com. 300 IN A 192.168.0.102
sub.example.com. 3600 IN NS ns1.sub.example.com.
ns1.sub.example.com. 3600 IN A 10.0.0.1
*.example.com. 300 IN TXT "hi"
a.example.com. 300 IN CNAME b.example.com.
b.example.com. 300 IN A 1.2.3.4
`

func loadTestZone(t *testing.T) *Zone {
	t.Helper()
	apex := dname.MustParse("example.com")
	z, err := LoadMasterfile(strings.NewReader(testMasterfile), apex)
	if err != nil {
		t.Fatalf("LoadMasterfile: %v", err)
	}
	return z
}

func TestLoadMasterfileExactMatch(t *testing.T) {
	z := loadTestZone(t)
	node, ok := z.Node(dname.MustParse("www.example.com"))
	if !ok {
		t.Fatal("expected www.example.com to exist")
	}
	set, ok := node.Get(rdata.TypeA)
	if !ok || len(set.RRs) != 2 {
		t.Fatalf("expected 2 A records, got %+v", set)
	}
}

func TestDelegationCut(t *testing.T) {
	z := loadTestZone(t)
	qname := dname.MustParse("x.sub.example.com")
	cut, node, ok := z.DelegationCut(qname)
	if !ok {
		t.Fatal("expected a delegation cut")
	}
	if want := "sub.example.com."; cut.String() != want {
		t.Errorf("cut = %s, want %s", cut, want)
	}
	if !node.IsDelegation() {
		t.Errorf("expected delegation node")
	}
}

func TestClosestEncloserForMissingName(t *testing.T) {
	z := loadTestZone(t)
	qname := dname.MustParse("missing.example.com")
	encloser, _, nc, hasNC := z.ClosestEncloser(qname)
	if want := "example.com."; encloser.String() != want {
		t.Errorf("encloser = %s, want %s", encloser, want)
	}
	if !hasNC || nc.String() != "missing.example.com." {
		t.Errorf("next closer = %v (has=%v), want missing.example.com.", nc, hasNC)
	}
}

func TestWildcardLookup(t *testing.T) {
	z := loadTestZone(t)
	encloser := dname.MustParse("example.com")
	node, wname, ok := z.Wildcard(encloser)
	if !ok {
		t.Fatal("expected wildcard node")
	}
	if want := "*.example.com."; wname.String() != want {
		t.Errorf("wname = %s, want %s", wname, want)
	}
	if !node.HasType(rdata.TypeTXT) {
		t.Errorf("expected TXT at wildcard")
	}
}

func TestCNAMESingletonInvariant(t *testing.T) {
	bad := `
example.com. 3600 IN SOA ns1.example.com. hostmaster.example.com. 1 7200 3600 1209600 300
example.com. 3600 IN NS ns1.example.com.
a.example.com. 300 IN CNAME b.example.com.
a.example.com. 300 IN A 1.2.3.4
`
	_, err := LoadMasterfile(strings.NewReader(bad), dname.MustParse("example.com"))
	if err == nil {
		t.Fatal("expected CNAME-coexistence error")
	}
}

func TestApexCNAMEForbidden(t *testing.T) {
	bad := `
example.com. 3600 IN SOA ns1.example.com. hostmaster.example.com. 1 7200 3600 1209600 300
example.com. 3600 IN NS ns1.example.com.
example.com. 3600 IN CNAME other.example.com.
`
	_, err := LoadMasterfile(strings.NewReader(bad), dname.MustParse("example.com"))
	if err == nil {
		t.Fatal("expected apex CNAME to be rejected")
	}
}
