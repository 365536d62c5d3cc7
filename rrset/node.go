package rrset

import "github.com/zoneauth/zoneauth/rdata"

// Node holds every RRset present at one owner name. A node is empty
// (present only as an ancestor placeholder / empty non-terminal), occupied
// (carries at least one RRset), or a delegation point (carries NS but is
// not the zone apex — that classification is made by the zone package,
// which knows where the apex is).
type Node struct {
	RRtypes map[rdata.Type]*RRset
}

// NewNode returns an empty node.
func NewNode() *Node {
	return &Node{RRtypes: make(map[rdata.Type]*RRset)}
}

// Get returns the RRset for t, if present.
func (n *Node) Get(t rdata.Type) (*RRset, bool) {
	s, ok := n.RRtypes[t]
	return s, ok
}

// Set stores (or replaces) the RRset for its own type.
func (n *Node) Set(s *RRset) {
	n.RRtypes[s.Type] = s
}

// HasType reports whether t is present.
func (n *Node) HasType(t rdata.Type) bool {
	_, ok := n.RRtypes[t]
	return ok
}

// Types returns every RRtype present at this node, unordered.
func (n *Node) Types() []rdata.Type {
	out := make([]rdata.Type, 0, len(n.RRtypes))
	for t := range n.RRtypes {
		out = append(out, t)
	}
	return out
}

// IsEmpty reports whether the node carries no data (an empty non-terminal,
// kept only because a descendant exists).
func (n *Node) IsEmpty() bool { return len(n.RRtypes) == 0 }

// IsDelegation reports whether the node carries an NS RRset (the zone
// package additionally excludes the apex before treating this as a real
// delegation point).
func (n *Node) IsDelegation() bool { return n.HasType(rdata.TypeNS) }

// HasCNAME reports whether the node carries a CNAME RRset.
func (n *Node) HasCNAME() bool { return n.HasType(rdata.TypeCNAME) }
