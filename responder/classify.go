// Package responder implements the query-classification state machine
// (§4.2) and the message-assembly pipeline (§4.6) that ties the wire
// codec, zone tree, signer and denial engine together.
package responder

import (
	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/wire"
	"github.com/zoneauth/zoneauth/zone"
)

// DenialKind names which authenticated-denial proof a Result still needs
// attached, once the caller has decided whether DO is set and the zone is
// signed.
type DenialKind int

const (
	DenialNone DenialKind = iota
	DenialNXDomain
	DenialNoData
	DenialWildcard
)

// DenialRequest carries the names a Chain needs to assemble the right
// proof; unused fields are left zero for a given Kind.
type DenialRequest struct {
	Kind            DenialKind
	QName           dname.Name // NoData: the name the proof is anchored at
	ClosestEncloser dname.Name // NXDomain, Wildcard
	NextCloser      dname.Name // NXDomain, Wildcard
}

// Result is the classification outcome: a response skeleton missing only
// RRSIGs, denial proofs and glue, which Handle fills in.
type Result struct {
	Rcode         uint16
	Authoritative bool
	Referral      bool
	Answer        []*rrset.RRset
	Authority     []*rrset.RRset
	Denial        DenialRequest
}

const maxChainLength = 16

func canonKey(n dname.Name) string { return string(n.CanonicalWire()) }

// Resolve runs the §4.2 classification algorithm to completion, chasing
// CNAME and DNAME indirection within this zone and stopping the chain the
// moment it would leave the zone or exceed maxChainLength hops.
func Resolve(z *zone.Zone, qname dname.Name, qtype rdata.Type) *Result {
	if !z.InZone(qname) {
		return &Result{Rcode: wire.RcodeRefused}
	}

	var answer []*rrset.RRset
	visited := make(map[string]bool)
	cur := qname

	for hop := 0; ; hop++ {
		if hop > maxChainLength {
			return &Result{Rcode: wire.RcodeServFail, Authoritative: true, Answer: answer}
		}
		key := canonKey(cur)
		if visited[key] {
			return &Result{Rcode: wire.RcodeServFail, Authoritative: true, Answer: answer}
		}
		visited[key] = true

		encloser, node, nextCloser, _ := z.ClosestEncloser(cur)
		exact := encloser.Equal(cur)

		// A delegation point is a referral whether cur is exactly the cut
		// (and not asking for DS, which the parent answers directly) or
		// strictly below it (DelegationCut finds the nearest cut above cur
		// even when glue or other nodes exist between the two, since
		// everything under the cut lives in the child zone).
		if cut, cutNode, ok := z.DelegationCut(cur); ok {
			if cut.Equal(cur) && qtype == rdata.TypeDS {
				if ds, ok := cutNode.Get(rdata.TypeDS); ok {
					answer = append(answer, ds)
					return &Result{Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer}
				}
				return &Result{
					Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer,
					Denial: DenialRequest{Kind: DenialNoData, QName: cur},
				}
			}
			nsSet, _ := cutNode.Get(rdata.TypeNS)
			return &Result{
				Rcode: wire.RcodeNoError, Authoritative: false, Referral: true,
				Answer: answer, Authority: []*rrset.RRset{nsSet},
			}
		}

		if exact {
			if set, ok := node.Get(qtype); ok {
				answer = append(answer, set)
				return &Result{Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer}
			}
			if cname, ok := node.Get(rdata.TypeCNAME); ok && qtype != rdata.TypeCNAME {
				answer = append(answer, cname)
				target := cname.RRs[0].(*rdata.CNAME).Target
				if !z.InZone(target) {
					return &Result{Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer}
				}
				cur = target
				continue
			}
			return &Result{
				Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer,
				Denial: DenialRequest{Kind: DenialNoData, QName: cur},
			}
		}

		if dn, dnOwner, ok := findDNAME(z, cur); ok {
			target := dn.RRs[0].(*rdata.DNAME).Target
			newName, err := dname.WithSuffixReplaced(cur, dnOwner, target)
			if err != nil {
				return &Result{Rcode: wire.RcodeServFail, Authoritative: true, Answer: answer}
			}
			answer = append(answer, dn)
			cname, _ := rrset.New(cur, rdata.TypeCNAME, dn.TTL, &rdata.CNAME{Target: newName})
			answer = append(answer, cname)
			if !z.InZone(newName) {
				return &Result{Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer}
			}
			cur = newName
			continue
		}

		if wnode, _, ok := z.Wildcard(encloser); ok {
			if set, ok := wnode.Get(qtype); ok {
				answer = append(answer, set.WithOwner(cur))
				return &Result{
					Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer,
					Denial: DenialRequest{Kind: DenialWildcard, ClosestEncloser: encloser, NextCloser: nextCloser},
				}
			}
			return &Result{
				Rcode: wire.RcodeNoError, Authoritative: true, Answer: answer,
				Denial: DenialRequest{Kind: DenialNoData, QName: cur},
			}
		}

		return &Result{
			Rcode: wire.RcodeNXDomain, Authoritative: true, Answer: answer,
			Denial: DenialRequest{Kind: DenialNXDomain, ClosestEncloser: encloser, NextCloser: nextCloser, QName: cur},
		}
	}
}

// findDNAME walks from cur's parent up to and including the apex looking
// for a DNAME RRset, returning the nearest one found.
func findDNAME(z *zone.Zone, cur dname.Name) (*rrset.RRset, dname.Name, bool) {
	anc := cur
	for {
		if anc.Equal(z.Apex) {
			if n, ok := z.Node(anc); ok {
				if d, ok := n.Get(rdata.TypeDNAME); ok {
					return d, anc, true
				}
			}
			return nil, dname.Name{}, false
		}
		anc = anc.Parent()
		if n, ok := z.Node(anc); ok {
			if d, ok := n.Get(rdata.TypeDNAME); ok {
				return d, anc, true
			}
		}
	}
}
