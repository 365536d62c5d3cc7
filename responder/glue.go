package responder

import (
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/zone"
)

// glueFor scans every NS RRset in sections for targets that fall inside z
// and returns their A/AAAA RRsets, deduplicated by target name (§4.6 step
// 5: "glue for NS targets in answer/authority that fall within the zone").
func glueFor(z *zone.Zone, sections ...[]*rrset.RRset) []*rrset.RRset {
	var out []*rrset.RRset
	seen := make(map[string]bool)
	for _, sec := range sections {
		for _, set := range sec {
			if set == nil || set.Type != rdata.TypeNS {
				continue
			}
			for _, rr := range set.RRs {
				ns, ok := rr.(*rdata.NS)
				if !ok || !z.InZone(ns.Target) {
					continue
				}
				key := canonKey(ns.Target)
				if seen[key] {
					continue
				}
				seen[key] = true
				node, ok := z.Node(ns.Target)
				if !ok {
					continue
				}
				if a, ok := node.Get(rdata.TypeA); ok {
					out = append(out, a)
				}
				if aaaa, ok := node.Get(rdata.TypeAAAA); ok {
					out = append(out, aaaa)
				}
			}
		}
	}
	return out
}
