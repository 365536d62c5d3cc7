// Package denial implements authenticated denial of existence: the NSEC
// chain (canonical successor linking) and the NSEC3 hashed chain (RFC
// 5155), plus the proof-assembly helpers the responder calls for NODATA,
// NXDOMAIN and wildcard-expansion answers. Both chains are built once, at
// zone load, and are immutable afterward like the rest of the zone.
package denial

import (
	"sort"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/zone"
)

// NSECChain links every existing owner name to its canonical successor,
// wrapping from the last name back to the apex.
type NSECChain struct {
	order   []dname.Name
	records map[string]*rrset.RRset
}

func canonKey(n dname.Name) string { return string(n.CanonicalWire()) }

// BuildNSEC constructs the chain from z's current (immutable) owner set.
// The bitmap at each name lists the RRtypes present there plus NSEC and
// RRSIG, per §4.4's simplified rule (applied uniformly, including at
// delegation points — this implementation does not special-case the
// RFC 4035 "unsigned delegation" bitmap carve-out).
func BuildNSEC(z *zone.Zone) *NSECChain {
	owners := z.Owners()
	c := &NSECChain{order: owners, records: make(map[string]*rrset.RRset, len(owners))}
	for i, name := range owners {
		node, _ := z.Node(name)
		next := owners[(i+1)%len(owners)]
		types := append(append([]rdata.Type(nil), node.Types()...), rdata.TypeNSEC, rdata.TypeRRSIG)
		nsec := &rdata.NSEC{Next: next, Types: types}
		set, _ := rrset.New(name, rdata.TypeNSEC, z.NegativeTTL(), nsec)
		c.records[canonKey(name)] = set
	}
	return c
}

// Matching returns the NSEC RRset owned exactly at name, if any.
func (c *NSECChain) Matching(name dname.Name) (*rrset.RRset, bool) {
	s, ok := c.records[canonKey(name)]
	return s, ok
}

// Covering returns the NSEC RRset whose owner P satisfies P < name < P.Next
// in canonical order, wrapping cyclically — it always succeeds on a
// non-empty chain, since the chain is a cycle over every existing name
// (invariant 4).
func (c *NSECChain) Covering(name dname.Name) *rrset.RRset {
	idx := sort.Search(len(c.order), func(i int) bool {
		return dname.Compare(c.order[i], name) > 0
	})
	pred := (idx - 1 + len(c.order)) % len(c.order)
	return c.records[canonKey(c.order[pred])]
}

// NXDOMAIN returns the two NSEC RRsets proving qname does not exist: one
// covering qname itself, one covering the nonexistent wildcard directly
// under the closest encloser. nextCloser is accepted only so NSECChain and
// NSEC3Chain share one interface; the NSEC proof never needs it. Duplicate
// RRsets (the common case where both proofs land on the same covering
// NSEC) are not deduplicated here; the responder is responsible for not
// emitting the same RRset twice.
func (c *NSECChain) NXDOMAIN(qname, closestEncloser, nextCloser dname.Name) []*rrset.RRset {
	wildcard, err := dname.Concat(dname.MustParse("*"), closestEncloser)
	if err != nil {
		return []*rrset.RRset{c.Covering(qname)}
	}
	return []*rrset.RRset{c.Covering(qname), c.Covering(wildcard)}
}

// ClosestEncloserProof returns the NSEC matching encloser, mirroring
// NSEC3Chain's fallback for empty non-terminal NODATA; nextCloser is
// unused since an NSEC match always exists at any name in the chain.
func (c *NSECChain) ClosestEncloserProof(encloser, nextCloser dname.Name) []*rrset.RRset {
	if s, ok := c.Matching(encloser); ok {
		return []*rrset.RRset{s}
	}
	return nil
}

// NODATA returns the NSEC RRset at the exact query name (the bitmap proves
// qtype is absent there; the caller already knows the node exists since a
// NODATA classification requires an exact match or empty non-terminal).
func (c *NSECChain) NODATA(qname dname.Name) []*rrset.RRset {
	if s, ok := c.Matching(qname); ok {
		return []*rrset.RRset{s}
	}
	return nil
}

// WildcardNonexistence proves that the next-closer name (one label below
// the closest encloser, on the path to the original qname) does not exist
// as a literal name, which is what licenses wildcard synthesis.
func (c *NSECChain) WildcardNonexistence(nextCloser dname.Name) []*rrset.RRset {
	return []*rrset.RRset{c.Covering(nextCloser)}
}
