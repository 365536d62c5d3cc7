package denial

import (
	"bytes"
	"sort"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/signer"
	"github.com/zoneauth/zoneauth/zone"
)

// NSEC3Chain is the RFC 5155 hashed denial chain: one NSEC3 record per
// existing (non-glue) owner name, ordered by raw hash bytes rather than
// name order, with an opt-out carve-out for insecure delegations.
type NSEC3Chain struct {
	params  zone.NSEC3Params
	hashes  [][]byte // sorted ascending, the chain's iteration order
	records map[string]*rrset.RRset
}

// iteratedHash computes RFC 5155 §5's IH(salt, name, iterations): one SHA-1
// pass over the canonical wire name concatenated with salt, then
// `iterations` additional passes over (previous digest || salt).
func iteratedHash(name dname.Name, p zone.NSEC3Params) []byte {
	h := signer.SHA1(append(append([]byte(nil), name.CanonicalWire()...), p.Salt...))
	for i := uint16(0); i < p.Iterations; i++ {
		h = signer.SHA1(append(append([]byte(nil), h...), p.Salt...))
	}
	return h
}

// BuildNSEC3 constructs the hashed chain over z's current owner set. Names
// strictly below a delegation cut (glue) are excluded, and when the zone's
// NSEC3 parameters set opt-out, insecure delegations (NS present, no DS) are
// excluded too, per RFC 5155 §7.1.
func BuildNSEC3(z *zone.Zone) *NSEC3Chain {
	p := z.NSEC3
	owners := z.Owners()

	type entry struct {
		hash  []byte
		types []rdata.Type
	}
	var entries []entry
	for _, name := range owners {
		if cut, _, ok := z.DelegationCut(name); ok && !cut.Equal(name) {
			continue // glue below a delegation is not a denial-chain member
		}
		node, _ := z.Node(name)
		isApex := name.Equal(z.Apex)
		if p.OptOut && node.IsDelegation() && !isApex {
			if _, hasDS := node.Get(rdata.TypeDS); !hasDS {
				continue // insecure delegation, opted out of the chain
			}
		}
		types := append([]rdata.Type(nil), node.Types()...)
		if isApex || !node.IsDelegation() {
			types = append(types, rdata.TypeRRSIG)
		}
		types = append(types, rdata.TypeNSEC3)
		entries = append(entries, entry{hash: iteratedHash(name, p), types: types})
	}

	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].hash, entries[j].hash) < 0 })

	c := &NSEC3Chain{params: p, records: make(map[string]*rrset.RRset, len(entries))}
	negTTL := z.NegativeTTL()
	for i, e := range entries {
		next := entries[(i+1)%len(entries)].hash
		n3 := &rdata.NSEC3{
			HashAlgorithm: p.HashAlgorithm,
			Iterations:    p.Iterations,
			Salt:          p.Salt,
			NextHashed:    next,
			Types:         e.types,
		}
		if p.OptOut {
			n3.Flags |= rdata.NSEC3OptOut
		}
		owner, err := dname.Concat(dname.MustParse(rdata.EncodeBase32Hex(e.hash)), z.Apex)
		if err != nil {
			continue
		}
		set, _ := rrset.New(owner, rdata.TypeNSEC3, negTTL, n3)
		c.hashes = append(c.hashes, e.hash)
		c.records[string(e.hash)] = set
	}
	return c
}

// Matching returns the NSEC3 RRset whose owner hashes to name, if that
// name's hash is a member of the chain (it may not be, if it was excluded
// by opt-out or is glue).
func (c *NSEC3Chain) Matching(name dname.Name) (*rrset.RRset, bool) {
	h := iteratedHash(name, c.params)
	s, ok := c.records[string(h)]
	return s, ok
}

// Covering returns the NSEC3 RRset whose hash range [owner, next) contains
// name's hash, wrapping cyclically like the NSEC chain's Covering.
func (c *NSEC3Chain) Covering(name dname.Name) *rrset.RRset {
	h := iteratedHash(name, c.params)
	idx := sort.Search(len(c.hashes), func(i int) bool { return bytes.Compare(c.hashes[i], h) > 0 })
	pred := (idx - 1 + len(c.hashes)) % len(c.hashes)
	return c.records[string(c.hashes[pred])]
}

// NXDOMAIN assembles the three-record RFC 5155 §7.2.2 proof: an NSEC3
// covering qname, one matching the closest encloser, and one covering the
// next-closer name.
func (c *NSEC3Chain) NXDOMAIN(qname, closestEncloser, nextCloser dname.Name) []*rrset.RRset {
	var out []*rrset.RRset
	out = append(out, c.Covering(qname))
	if s, ok := c.Matching(closestEncloser); ok {
		out = append(out, s)
	}
	out = append(out, c.Covering(nextCloser))
	return out
}

// NODATA returns the NSEC3 matching the query name exactly, or nil if the
// name isn't a chain member (opted-out delegation, or the query landed on
// an empty non-terminal the chain also covers only by range).
func (c *NSEC3Chain) NODATA(qname dname.Name) []*rrset.RRset {
	if s, ok := c.Matching(qname); ok {
		return []*rrset.RRset{s}
	}
	return nil
}

// ClosestEncloserProof returns the matching-encloser plus covering-next-
// closer pair used both as a NODATA fallback (empty non-terminal) and as
// half of wildcard proofs.
func (c *NSEC3Chain) ClosestEncloserProof(encloser, nextCloser dname.Name) []*rrset.RRset {
	var out []*rrset.RRset
	if s, ok := c.Matching(encloser); ok {
		out = append(out, s)
	}
	out = append(out, c.Covering(nextCloser))
	return out
}

// WildcardNonexistence proves the next-closer name has no literal match,
// licensing wildcard synthesis from the closest encloser.
func (c *NSEC3Chain) WildcardNonexistence(nextCloser dname.Name) []*rrset.RRset {
	return []*rrset.RRset{c.Covering(nextCloser)}
}
