package signer

import (
	"net"
	"testing"
	"time"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

func TestSignAndVerifyECDSA(t *testing.T) {
	zsk, err := GenerateKey(AlgECDSAP256SHA256, ZSKFlag)
	if err != nil {
		t.Fatal(err)
	}
	s := New(dname.MustParse("example.com"), nil, zsk, DefaultPolicy)

	owner := dname.MustParse("www.example.com")
	set, _ := rrset.New(owner, rdata.TypeA, 300, &rdata.A{Addr: mustIP("192.0.2.1")})

	sig, err := s.Sign(set)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if sig.Labels != 3 {
		t.Errorf("Labels = %d, want 3", sig.Labels)
	}
	if !WithinValidityPeriod(sig.Inception, sig.Expiration, time.Now().UTC()) {
		t.Errorf("freshly minted signature should be within its validity period")
	}
	if err := Verify(sig, set, zsk.DNSKEY); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestSignAndVerifyRSA(t *testing.T) {
	zsk, err := GenerateKey(AlgRSASHA256, ZSKFlag)
	if err != nil {
		t.Fatal(err)
	}
	s := New(dname.MustParse("example.com"), nil, zsk, DefaultPolicy)
	owner := dname.MustParse("example.com")
	set, _ := rrset.New(owner, rdata.TypeTXT, 300, &rdata.TXT{Strings: [][]byte{[]byte("hi")}})

	sig, err := s.Sign(set)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := Verify(sig, set, zsk.DNSKEY); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestMissingKeyIsReported(t *testing.T) {
	s := New(dname.MustParse("example.com"), nil, nil, DefaultPolicy)
	set, _ := rrset.New(dname.MustParse("example.com"), rdata.TypeDNSKEY, 300)
	set.RRs = append(set.RRs, &rdata.DNSKEY{Flags: ZSKFlag, Protocol: 3, Algorithm: AlgECDSAP256SHA256, PublicKey: make([]byte, 64)})
	_, err := s.Sign(set)
	if _, ok := err.(*ErrNoKey); !ok {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}
}

func TestSignerCacheReusesValidSignature(t *testing.T) {
	zsk, _ := GenerateKey(AlgECDSAP256SHA256, ZSKFlag)
	s := New(dname.MustParse("example.com"), nil, zsk, DefaultPolicy)
	set, _ := rrset.New(dname.MustParse("www.example.com"), rdata.TypeA, 300, &rdata.A{Addr: mustIP("192.0.2.1")})

	sig1, err := s.Sign(set)
	if err != nil {
		t.Fatal(err)
	}
	sig2, err := s.Sign(set)
	if err != nil {
		t.Fatal(err)
	}
	if string(sig1.Signature) != string(sig2.Signature) {
		t.Errorf("expected cached signature to be reused")
	}
}

func mustIP(s string) net.IP {
	ip := net.ParseIP(s).To4()
	if ip == nil {
		panic("bad ip: " + s)
	}
	return ip
}
