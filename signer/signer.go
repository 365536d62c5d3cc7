package signer

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

func ellipticP256() elliptic.Curve { return elliptic.P256() }

// Policy configures signature validity windows; §4.3 leaves the exact
// numbers to the implementer with a defensible default.
type Policy struct {
	InceptionOffset  time.Duration // default -1h
	ValidityDuration time.Duration // default 14 * 24h
}

// DefaultPolicy matches §4.3's stated defaults.
var DefaultPolicy = Policy{InceptionOffset: -time.Hour, ValidityDuration: 14 * 24 * time.Hour}

// Signer holds a zone's KSK and ZSK and produces RRSIGs on request. It is
// safe for concurrent use by many request-handling goroutines: the key
// material is read-only after construction, and the per-RRset signature
// cache is backed by a concurrent-map so lazy signing under load never
// needs the caller to hold a lock.
type Signer struct {
	KSK        *Key
	ZSK        *Key
	SignerName dname.Name
	Policy     Policy
	cache      cmap.ConcurrentMap[string, *rdata.RRSIG]
	now        func() time.Time // overridable for tests
}

// New constructs a Signer over an existing KSK/ZSK pair.
func New(signerName dname.Name, ksk, zsk *Key, policy Policy) *Signer {
	return &Signer{
		KSK: ksk, ZSK: zsk, SignerName: signerName, Policy: policy,
		cache: cmap.New[*rdata.RRSIG](),
		now:   time.Now,
	}
}

// ErrNoKey is returned when the required key (KSK for DNSKEY, ZSK for
// everything else) is absent.
type ErrNoKey struct{ Reason string }

func (e *ErrNoKey) Error() string { return "signer: " + e.Reason }

// keyFor picks the KSK for DNSKEY RRsets at the apex and the ZSK for
// everything else, per §4.3.
func (s *Signer) keyFor(t rdata.Type) (*Key, error) {
	if t == rdata.TypeDNSKEY {
		if s.KSK == nil {
			return nil, &ErrNoKey{"no KSK configured to sign DNSKEY RRset"}
		}
		return s.KSK, nil
	}
	if s.ZSK == nil {
		return nil, &ErrNoKey{"no ZSK configured"}
	}
	return s.ZSK, nil
}

// cacheKey identifies a signable RRset by owner, type, TTL and the
// canonical RDATA of its members, so a changed RRset (after a reload, or
// the apex SOA served with its negative TTL) never reuses a signature made
// over other data; it intentionally excludes the current time so a cached
// signature is reused for the remainder of its validity window rather than
// recomputed per request.
func cacheKey(s *rrset.RRset) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%x/%d/%d", s.Owner.CanonicalWire(), s.Type, s.TTL)
	for _, rr := range s.CanonicalOrder() {
		fmt.Fprintf(&b, "/%x", encodeRDATA(rr))
	}
	return b.String()
}

// Sign computes (or returns a cached, still-valid) RRSIG covering s.
func (signer *Signer) Sign(s *rrset.RRset) (*rdata.RRSIG, error) {
	if !s.Signable() {
		return nil, fmt.Errorf("signer: cannot sign empty RRset %s %s", s.Owner, s.Type)
	}
	key, err := signer.keyFor(s.Type)
	if err != nil {
		return nil, err
	}

	ck := cacheKey(s)
	if cached, ok := signer.cache.Get(ck); ok {
		if WithinValidityPeriod(cached.Inception, cached.Expiration, signer.now().UTC()) {
			return cached, nil
		}
	}

	now := signer.now().UTC()
	inception := uint32(now.Add(signer.Policy.InceptionOffset).Unix())
	expiration := uint32(now.Add(signer.Policy.ValidityDuration).Unix())

	labels := labelCount(s.Owner)

	sig := &rdata.RRSIG{
		TypeCovered: s.Type,
		Algorithm:   key.Algorithm,
		Labels:      labels,
		OriginalTTL: s.TTL,
		Expiration:  expiration,
		Inception:   inception,
		KeyTag:      key.KeyTag(),
		SignerName:  signer.SignerName,
	}

	data := canonicalSignInput(sig, s)
	signature, err := signWithKey(key, data)
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}
	sig.Signature = signature

	signer.cache.Set(ck, sig)
	return sig, nil
}

// labelCount is the RRSIG Labels field: the number of labels in the owner
// name excluding the root, with a wildcard owner's "*" counted as one
// label like any other (§4.3).
func labelCount(owner dname.Name) uint8 {
	return uint8(owner.NumLabels())
}

// canonicalSignInput builds the full octet stream RFC 4034 §3.1.8.1
// specifies: the RRSIG RDATA minus the signature, followed by each member
// of the RRset in canonical order, each prefixed with its own
// canonical-owner/type/class/ttl/rdlength header.
func canonicalSignInput(sig *rdata.RRSIG, s *rrset.RRset) []byte {
	out := append([]byte(nil), sig.SignedDataPrefix()...)
	canonOwner := s.Owner.Canonical().Wire()
	for _, rr := range s.CanonicalOrder() {
		var rrdata []byte
		rrdata = encodeRDATA(rr)

		out = append(out, canonOwner...)
		out = append(out, byte(s.Type>>8), byte(s.Type))
		out = append(out, byte(s.Class>>8), byte(s.Class))
		var ttlBuf [4]byte
		binary.BigEndian.PutUint32(ttlBuf[:], s.TTL)
		out = append(out, ttlBuf[:]...)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(rrdata)))
		out = append(out, lenBuf[:]...)
		out = append(out, rrdata...)
	}
	return out
}

func encodeRDATA(rr rdata.RR) []byte {
	var buf bytes.Buffer
	rr.EncodeCanonical(&buf)
	return buf.Bytes()
}

// WithinValidityPeriod checks inception <= now < expiration using 32-bit
// serial-number arithmetic (RFC 1982) so the comparison is correct across
// the 2038 epoch wraparound.
func WithinValidityPeriod(inception, expiration uint32, now time.Time) bool {
	n := uint32(now.Unix())
	return serialLE(inception, n) && serialLT(n, expiration)
}

func serialLE(a, b uint32) bool { return a == b || serialLT(a, b) }
func serialLT(a, b uint32) bool {
	return int32(a-b) < 0
}

func signWithKey(k *Key, data []byte) ([]byte, error) {
	switch k.Algorithm {
	case AlgRSASHA256:
		h := sha256.Sum256(data)
		priv, ok := k.Private.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key material does not match algorithm RSASHA256")
		}
		return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, h[:])
	case AlgECDSAP256SHA256:
		h := sha256.Sum256(data)
		priv, ok := k.Private.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key material does not match algorithm ECDSAP256SHA256")
		}
		r, s, err := ecdsa.Sign(rand.Reader, priv, h[:])
		if err != nil {
			return nil, err
		}
		return append(fillBytes(r, 32), fillBytes(s, 32)...), nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %d", k.Algorithm)
	}
}

func fillBytes(n *big.Int, size int) []byte {
	return n.FillBytes(make([]byte, size))
}

// Verify checks an RRSIG against the RRset it covers, used by tests
// (invariant 3: "For every RRSIG emitted, verification against the
// published DNSKEY succeeds within its validity window").
func Verify(sig *rdata.RRSIG, s *rrset.RRset, key *rdata.DNSKEY) error {
	data := canonicalSignInput(sig, s)
	switch key.Algorithm {
	case AlgRSASHA256:
		pub, err := rsaPublicKeyFrom(key.PublicKey)
		if err != nil {
			return err
		}
		h := sha256.Sum256(data)
		return rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], sig.Signature)
	case AlgECDSAP256SHA256:
		pub, err := ecdsaPublicKeyFrom(key.PublicKey)
		if err != nil {
			return err
		}
		if len(sig.Signature) != 64 {
			return fmt.Errorf("signer: malformed ECDSA signature length %d", len(sig.Signature))
		}
		r := new(big.Int).SetBytes(sig.Signature[:32])
		ss := new(big.Int).SetBytes(sig.Signature[32:])
		h := sha256.Sum256(data)
		if !ecdsa.Verify(pub, h[:], r, ss) {
			return fmt.Errorf("signer: ECDSA signature verification failed")
		}
		return nil
	default:
		return fmt.Errorf("signer: unsupported verification algorithm %d", key.Algorithm)
	}
}

func rsaPublicKeyFrom(b []byte) (*rsa.PublicKey, error) {
	if len(b) < 3 {
		return nil, fmt.Errorf("signer: truncated RSA public key")
	}
	expLen := int(b[0])
	off := 1
	if expLen == 0 {
		if len(b) < 3 {
			return nil, fmt.Errorf("signer: truncated RSA extended exponent length")
		}
		expLen = int(b[1])<<8 | int(b[2])
		off = 3
	}
	if off+expLen > len(b) {
		return nil, fmt.Errorf("signer: RSA exponent exceeds key length")
	}
	e := new(big.Int).SetBytes(b[off : off+expLen])
	n := new(big.Int).SetBytes(b[off+expLen:])
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func ecdsaPublicKeyFrom(b []byte) (*ecdsa.PublicKey, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("signer: ECDSA P-256 public key must be 64 bytes")
	}
	x := new(big.Int).SetBytes(b[:32])
	y := new(big.Int).SetBytes(b[32:])
	return &ecdsa.PublicKey{Curve: ellipticP256(), X: x, Y: y}, nil
}
