package denial

import (
	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rrset"
)

// Chain is the denial-proof interface the responder consults; NSECChain
// and NSEC3Chain both satisfy it, so the responder never needs to know
// which authenticated-denial mode a signed zone uses.
type Chain interface {
	NXDOMAIN(qname, closestEncloser, nextCloser dname.Name) []*rrset.RRset
	NODATA(qname dname.Name) []*rrset.RRset
	WildcardNonexistence(nextCloser dname.Name) []*rrset.RRset
	ClosestEncloserProof(encloser, nextCloser dname.Name) []*rrset.RRset
}

var (
	_ Chain = (*NSECChain)(nil)
	_ Chain = (*NSEC3Chain)(nil)
)
