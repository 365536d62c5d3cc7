package responder

import (
	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/denial"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
	"github.com/zoneauth/zoneauth/signer"
	"github.com/zoneauth/zoneauth/wire"
	"github.com/zoneauth/zoneauth/zone"
)

// defaultUDPSize is offered back to a client that set OPT but left UDP
// payload size at 0; any non-zero size the client sent is echoed as is.
const defaultUDPSize = 1232

// Handle runs one query through classification (§4.2), attaches RRSIGs and
// denial proofs when the query sets DO on a signed zone, and populates
// glue (§4.6). It does not apply truncation or serialize the result —
// that is wire.Encode's job once the caller knows which transport it's
// answering on.
func Handle(z *zone.Zone, sig *signer.Signer, chain denial.Chain, req *wire.Message) *wire.Message {
	resp := &wire.Message{
		ID:               req.ID,
		Response:         true,
		Opcode:           req.Opcode,
		RecursionDesired: req.RecursionDesired,
		Question:         req.Question,
	}

	if req.Response || req.Opcode != wire.OpcodeQuery {
		resp.Rcode = wire.RcodeNotImp
		return resp
	}

	var doBit bool
	if req.EDNS != nil {
		doBit = req.EDNS.DO
		udpSize := req.EDNS.UDPSize
		if udpSize == 0 {
			udpSize = defaultUDPSize
		}
		resp.EDNS = &wire.EDNS{UDPSize: udpSize, NSID: req.EDNS.NSID}
	}

	signing := z.Signed && sig != nil && doBit

	result := Resolve(z, req.Question.Name, req.Question.Type)
	resp.Rcode = result.Rcode
	resp.Authoritative = result.Authoritative
	resp.Answer = result.Answer

	if signing {
		resp.Answer = signEach(sig, resp.Answer)
	}

	if result.Referral {
		resp.Authority = result.Authority
		resp.Additional = glueFor(z, resp.Authority)
		return resp
	}

	switch result.Denial.Kind {
	case DenialNXDomain, DenialNoData:
		neg := negativeSOA(z)
		authority := []*rrset.RRset{neg}
		if signing {
			authority = signEach(sig, authority)
			authority = append(authority, signEach(sig, proofFor(chain, result.Denial))...)
		}
		resp.Authority = authority
	case DenialWildcard:
		if signing {
			resp.Authority = signEach(sig, chain.WildcardNonexistence(result.Denial.NextCloser))
		}
	}

	resp.Additional = glueFor(z, resp.Answer, resp.Authority)
	return resp
}

// HandleRaw decodes a complete query, runs Handle and serializes the
// response, returning ok=false when the input was too malformed to answer
// at all (§7: drop silently rather than guess at an ID/question to echo).
func HandleRaw(z *zone.Zone, sig *signer.Signer, chain denial.Chain, buf []byte, isUDP bool, udpMaxSize int) ([]byte, bool) {
	req, err := wire.Decode(buf)
	if err != nil {
		if len(buf) < 2 {
			return nil, false
		}
		return formatErrorReply(buf), true
	}
	resp := Handle(z, sig, chain, req)
	return wire.Encode(resp, isUDP, udpMaxSize), true
}

// formatErrorReply builds a minimal FORMERR response echoing the ID of a
// message too malformed to fully decode, and its question when the
// question name, type and class still parse; otherwise the question
// written is the root name with type and class 0.
func formatErrorReply(buf []byte) []byte {
	resp := &wire.Message{
		ID:       uint16(buf[0])<<8 | uint16(buf[1]),
		Response: true,
		Rcode:    wire.RcodeFormErr,
	}
	if name, pos, err := dname.ReadName(buf, 12); err == nil && pos+4 <= len(buf) {
		resp.Question = wire.Question{
			Name:  name,
			Type:  rdata.Type(uint16(buf[pos])<<8 | uint16(buf[pos+1])),
			Class: rrset.Class(uint16(buf[pos+2])<<8 | uint16(buf[pos+3])),
		}
	}
	return wire.Encode(resp, true, 0)
}

func signEach(sig *signer.Signer, sets []*rrset.RRset) []*rrset.RRset {
	out := make([]*rrset.RRset, 0, len(sets))
	for _, s := range sets {
		if s == nil || !s.Signable() {
			out = append(out, s)
			continue
		}
		rr, err := sig.Sign(s)
		if err != nil {
			// Missing or unusable key for this RRset's type: the RRset
			// is emitted without an RRSIG and the RCODE chosen by
			// classification is left unchanged; the error is neither
			// returned to the caller nor logged.
			out = append(out, s)
			continue
		}
		c := s.Clone()
		c.RRSIGs = append(c.RRSIGs, rr)
		out = append(out, c)
	}
	return out
}

func negativeSOA(z *zone.Zone) *rrset.RRset {
	apexNode, _ := z.Node(z.Apex)
	soaSet, _ := apexNode.Get(rdata.TypeSOA)
	neg := soaSet.Clone()
	neg.TTL = z.NegativeTTL()
	return neg
}

func proofFor(chain denial.Chain, req DenialRequest) []*rrset.RRset {
	switch req.Kind {
	case DenialNXDomain:
		return chain.NXDOMAIN(req.QName, req.ClosestEncloser, req.NextCloser)
	case DenialNoData:
		if proof := chain.NODATA(req.QName); proof != nil {
			return proof
		}
		return chain.ClosestEncloserProof(req.QName, dname.Name{})
	default:
		return nil
	}
}
