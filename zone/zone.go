// Package zone implements the signed zone tree: an ordered collection of
// nodes under an apex, exact and closest-encloser lookup, and the two
// textual loaders (masterfile-lite and YAML) that build it. The tree is
// built once at load time and is immutable thereafter — concurrent readers
// never need to lock it.
package zone

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

// Algorithm identifiers relevant to NSEC3 hashing (RFC 5155 §2).
const NSEC3HashSHA1 uint8 = 1

// DenialMode selects the authenticated-denial mechanism for the zone.
type DenialMode int

const (
	DenialNone DenialMode = iota
	DenialNSEC
	DenialNSEC3
)

// NSEC3Params carries the salt/iteration/hash-algorithm triple published in
// NSEC3PARAM and used to build the hashed chain.
type NSEC3Params struct {
	HashAlgorithm uint8
	Iterations    uint16
	Salt          []byte
	OptOut        bool
}

// Zone is the immutable, loaded representation of one apex's data.
type Zone struct {
	Apex       dname.Name
	MinTTL     uint32
	SOA        *rdata.SOA
	Signed     bool
	Denial     DenialMode
	NSEC3      NSEC3Params
	soaTTL     uint32
	nodes      map[string]*rrset.Node
	order      []dname.Name // canonical order of every existing owner (incl. empty non-terminals)
}

func canonKey(n dname.Name) string { return string(n.CanonicalWire()) }

// New builds an empty zone rooted at apex.
func New(apex dname.Name) *Zone {
	return &Zone{
		Apex:  apex,
		nodes: make(map[string]*rrset.Node),
	}
}

// ensureNode returns the node for name, creating an empty placeholder (and
// recording it in canonical order) if it doesn't exist yet.
func (z *Zone) ensureNode(name dname.Name) *rrset.Node {
	k := canonKey(name)
	if n, ok := z.nodes[k]; ok {
		return n
	}
	n := rrset.NewNode()
	z.nodes[k] = n
	z.order = append(z.order, name)
	return n
}

// AddRRset inserts an RRset at its owner, materializing empty non-terminal
// ancestors up to and including the apex so closest-encloser search
// and NSEC chain construction see them as existing names.
func (z *Zone) AddRRset(s *rrset.RRset) error {
	if !s.Owner.IsSubdomainOf(z.Apex) {
		return fmt.Errorf("zone: owner %s is not in zone %s", s.Owner, z.Apex)
	}
	node := z.ensureNode(s.Owner)
	if existing, ok := node.Get(s.Type); ok {
		if existing.TTL != s.TTL {
			return fmt.Errorf("zone: %s %s: TTL mismatch within RRset (%d vs %d)", s.Owner, s.Type, existing.TTL, s.TTL)
		}
		if s.Type == rdata.TypeCNAME || s.Type == rdata.TypeSOA {
			return fmt.Errorf("zone: %s %s: duplicate singleton record", s.Owner, s.Type)
		}
		for _, rr := range s.RRs {
			var nb bytes.Buffer
			rr.EncodeCanonical(&nb)
			for _, old := range existing.RRs {
				var ob bytes.Buffer
				old.EncodeCanonical(&ob)
				if bytes.Equal(nb.Bytes(), ob.Bytes()) {
					return fmt.Errorf("zone: %s %s: duplicate record %s", s.Owner, s.Type, rr)
				}
			}
		}
		existing.RRs = append(existing.RRs, s.RRs...)
	} else {
		node.Set(s)
	}
	for anc := s.Owner; !anc.Equal(z.Apex); {
		anc = anc.Parent()
		z.ensureNode(anc)
		if anc.Equal(z.Apex) {
			break
		}
	}
	return nil
}

// Finalize sorts the owner order canonically and caches the apex SOA. Call
// once after all RRsets have been added.
func (z *Zone) Finalize() error {
	sort.Slice(z.order, func(i, j int) bool { return dname.Compare(z.order[i], z.order[j]) < 0 })
	apexNode, ok := z.Node(z.Apex)
	if !ok {
		return fmt.Errorf("zone: no data at apex %s", z.Apex)
	}
	soaSet, ok := apexNode.Get(rdata.TypeSOA)
	if !ok || len(soaSet.RRs) != 1 {
		return fmt.Errorf("zone: apex %s must carry exactly one SOA record", z.Apex)
	}
	soa, ok := soaSet.RRs[0].(*rdata.SOA)
	if !ok {
		return fmt.Errorf("zone: apex SOA RDATA has unexpected type")
	}
	z.SOA = soa
	z.MinTTL = soa.Minimum
	z.soaTTL = soaSet.TTL
	if _, ok := apexNode.Get(rdata.TypeNS); !ok {
		return fmt.Errorf("zone: apex %s must carry an NS RRset", z.Apex)
	}
	return nil
}

// Node returns the node at the exact name, if it exists in the tree
// (occupied or empty non-terminal).
func (z *Zone) Node(name dname.Name) (*rrset.Node, bool) {
	n, ok := z.nodes[canonKey(name)]
	return n, ok
}

// NegativeTTL is min(SOA.minimum, SOA RRset TTL), used as the TTL for
// negative-answer SOA and denial records (§4.2).
func (z *Zone) NegativeTTL() uint32 {
	if z.SOA.Minimum < z.soaTTL {
		return z.SOA.Minimum
	}
	return z.soaTTL
}

// Owners returns every existing owner name in DNSSEC canonical order,
// including empty non-terminals. Callers must not mutate the slice.
func (z *Zone) Owners() []dname.Name { return z.order }

// ClosestEncloser walks upward from qname (including qname itself) to find
// the deepest existing ancestor. It returns that name, its node, and the
// "next closer" name: the single label immediately below the encloser on
// the path to qname (undefined, zero value, when qname itself is the
// encloser).
func (z *Zone) ClosestEncloser(qname dname.Name) (encloser dname.Name, node *rrset.Node, nextCloser dname.Name, hasNextCloser bool) {
	cur := qname
	var prev dname.Name
	havePrev := false
	for {
		if n, ok := z.Node(cur); ok {
			return cur, n, prev, havePrev
		}
		if cur.Equal(z.Apex) || cur.IsRoot() {
			// Apex always exists (enforced at Finalize); unreachable in
			// practice, but guards against infinite loop on a malformed
			// caller-supplied qname that never reaches the apex.
			return cur, nil, prev, havePrev
		}
		prev = cur
		havePrev = true
		cur = cur.Parent()
	}
}

// DelegationCut returns the nearest ancestor-or-self of qname (excluding
// the apex) that carries an NS RRset, i.e. the point at which the zone
// delegates authority away. Per the lookup tie-break, a delegation cut
// takes priority over any data that might exist strictly below it.
func (z *Zone) DelegationCut(qname dname.Name) (cut dname.Name, node *rrset.Node, ok bool) {
	cur := qname
	for !cur.Equal(z.Apex) {
		if n, exists := z.Node(cur); exists && n.IsDelegation() {
			return cur, n, true
		}
		cur = cur.Parent()
	}
	return dname.Name{}, nil, false
}

// Wildcard looks up "*.encloser" beneath the given closest encloser.
func (z *Zone) Wildcard(encloser dname.Name) (*rrset.Node, dname.Name, bool) {
	star, err := dname.Parse("*")
	if err != nil {
		return nil, dname.Name{}, false
	}
	wname, err := dname.Concat(star, encloser)
	if err != nil {
		return nil, dname.Name{}, false
	}
	n, ok := z.Node(wname)
	return n, wname, ok
}

// InZone reports whether qname is equal to or below the apex.
func (z *Zone) InZone(qname dname.Name) bool { return qname.IsSubdomainOf(z.Apex) }
