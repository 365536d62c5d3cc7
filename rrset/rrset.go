// Package rrset implements the RRset and zone Node types: a group of
// same-(owner,type,class) records sharing one TTL, and the per-owner
// container that maps type to RRset.
package rrset

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/twotwotwo/sorts"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
)

// Class is always IN in this implementation's scope.
type Class uint16

const ClassIN Class = 1

// RRset groups RDATA payloads sharing one owner, class, type and TTL.
type RRset struct {
	Owner  dname.Name
	Class  Class
	Type   rdata.Type
	TTL    uint32
	RRs    []rdata.RR
	RRSIGs []*rdata.RRSIG // attached lazily or at load time by the signer
}

// New builds an RRset, enforcing the CNAME-singleton invariant.
func New(owner dname.Name, t rdata.Type, ttl uint32, rrs ...rdata.RR) (*RRset, error) {
	if t == rdata.TypeCNAME && len(rrs) > 1 {
		return nil, fmt.Errorf("rrset: CNAME RRset at %s must contain exactly one record", owner)
	}
	return &RRset{Owner: owner, Class: ClassIN, Type: t, TTL: ttl, RRs: rrs}, nil
}

// Add appends a member, re-checking the CNAME invariant.
func (s *RRset) Add(rr rdata.RR) error {
	if s.Type == rdata.TypeCNAME && len(s.RRs) >= 1 {
		return fmt.Errorf("rrset: CNAME RRset at %s must contain exactly one record", s.Owner)
	}
	s.RRs = append(s.RRs, rr)
	return nil
}

// canonicalRDATA returns the canonical-form wire bytes of each member,
// used both for the byte-lexicographic sort order and as direct signing
// input.
func (s *RRset) canonicalRDATA() [][]byte {
	out := make([][]byte, len(s.RRs))
	for i, rr := range s.RRs {
		var buf bytes.Buffer
		rr.EncodeCanonical(&buf)
		out[i] = buf.Bytes()
	}
	return out
}

// sortKeys pairs each member with its canonical encoding and its original
// index, so sort.Sort / sorts.Sort can reorder RRs and canon together.
type sortKeys struct {
	rrs   []rdata.RR
	canon [][]byte
}

func (k *sortKeys) Len() int      { return len(k.rrs) }
func (k *sortKeys) Swap(i, j int) { k.rrs[i], k.rrs[j] = k.rrs[j], k.rrs[i]; k.canon[i], k.canon[j] = k.canon[j], k.canon[i] }
func (k *sortKeys) Less(i, j int) bool {
	return bytes.Compare(k.canon[i], k.canon[j]) < 0
}

// Key implements sorts.Interface (twotwotwo/sorts), which sorts by a radix
// key extracted per element — for byte-lexicographic canonical RDATA this
// is simply the canonical encoding itself.
func (k *sortKeys) Key(i int) []byte { return k.canon[i] }

// CanonicalOrder returns the members sorted into the byte-lexicographic
// order over canonical RDATA mandated for signing (RFC 4034 §6.3). The
// original RRset is left untouched; this is used by the signer so that
// re-signing is deterministic without mutating zone state.
func (s *RRset) CanonicalOrder() []rdata.RR {
	if len(s.RRs) <= 1 {
		out := make([]rdata.RR, len(s.RRs))
		copy(out, s.RRs)
		return out
	}
	keys := &sortKeys{rrs: append([]rdata.RR(nil), s.RRs...), canon: s.canonicalRDATA()}
	// twotwotwo/sorts.Sort uses a byte-radix quicksort hybrid that's
	// substantially faster than sort.Sort for the byte-slice keys
	// produced by canonical RDATA; for very small sets (the common case
	// for a single owner's RRset) fall back to stdlib sort to avoid its
	// setup overhead.
	if len(keys.rrs) > 16 {
		sorts.Sort(keys)
	} else {
		sort.Sort(keys)
	}
	return keys.rrs
}

// Signable reports whether at least one member exists; an empty RRset
// cannot be meaningfully signed.
func (s *RRset) Signable() bool { return len(s.RRs) > 0 }

// Clone deep-copies the RRset (members and attached signatures), used when
// a wildcard or DNAME match needs an owner-rewritten copy.
func (s *RRset) Clone() *RRset {
	rrs := make([]rdata.RR, len(s.RRs))
	for i, rr := range s.RRs {
		rrs[i] = rr.Clone()
	}
	var sigs []*rdata.RRSIG
	for _, sig := range s.RRSIGs {
		c := sig.Clone().(*rdata.RRSIG)
		sigs = append(sigs, c)
	}
	return &RRset{Owner: s.Owner, Class: s.Class, Type: s.Type, TTL: s.TTL, RRs: rrs, RRSIGs: sigs}
}

// WithOwner returns a clone with Owner replaced, used for wildcard
// expansion (owner rewritten to qname) without mutating the wildcard's
// stored RRset.
func (s *RRset) WithOwner(owner dname.Name) *RRset {
	c := s.Clone()
	c.Owner = owner
	return c
}
