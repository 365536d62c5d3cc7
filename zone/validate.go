package zone

import (
	"fmt"
	"strings"

	"github.com/zoneauth/zoneauth/rdata"
)

// ConfigError reports a load-time zone defect, naming the offending owner
// (and, for the textual loaders, the source line) so an operator can find
// it quickly — mirrors the teacher's accumulate-then-report validation
// style rather than failing on the first defect found.
type ConfigError struct {
	Owner  string
	Line   int // 0 when not applicable (e.g. YAML-sourced or tree-wide checks)
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("zone: line %d: %s: %s", e.Line, e.Owner, e.Reason)
	}
	return fmt.Sprintf("zone: %s: %s", e.Owner, e.Reason)
}

// Validate runs every load-time structural invariant from §4.5 and returns
// the full list of violations found (not just the first).
func (z *Zone) Validate() []error {
	var errs []error

	apexNode, ok := z.Node(z.Apex)
	if !ok {
		return []error{&ConfigError{Owner: z.Apex.String(), Reason: "zone has no apex node"}}
	}
	if _, ok := apexNode.Get(rdata.TypeSOA); !ok {
		errs = append(errs, &ConfigError{Owner: z.Apex.String(), Reason: "missing apex SOA"})
	}
	if _, ok := apexNode.Get(rdata.TypeNS); !ok {
		errs = append(errs, &ConfigError{Owner: z.Apex.String(), Reason: "missing apex NS"})
	}
	if apexNode.HasCNAME() {
		errs = append(errs, &ConfigError{Owner: z.Apex.String(), Reason: "CNAME forbidden at zone apex"})
	}

	for _, name := range z.order {
		node, _ := z.Node(name)
		if node.HasCNAME() && len(node.RRtypes) > 1 {
			errs = append(errs, &ConfigError{Owner: name.String(), Reason: "CNAME must not coexist with other data"})
		}
		// Wildcards must be a single leftmost label; a name like
		// "*.*.example.com" or "sub*.example.com" is not a valid
		// wildcard owner.
		for i := 0; i < name.NumLabels(); i++ {
			if l := string(name.Label(i)); strings.Contains(l, "*") && (i > 0 || l != "*") {
				errs = append(errs, &ConfigError{Owner: name.String(), Reason: "malformed wildcard owner"})
				break
			}
		}
		for t, rrs := range node.RRtypes {
			if t == rdata.TypeCNAME && len(rrs.RRs) != 1 {
				errs = append(errs, &ConfigError{Owner: name.String(), Reason: "CNAME RRset must contain exactly one record"})
			}
		}
	}
	return errs
}
