package zone

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
)

// ParseRDATA builds a typed RDATA value from zone-text tokens (as produced
// by splitting a masterfile-lite line on whitespace, or by flattening a
// YAML record map into the same positional order). origin resolves any
// relative name token.
func ParseRDATA(t rdata.Type, tokens []string, origin dname.Name) (rdata.RR, error) {
	switch t {
	case rdata.TypeA:
		if len(tokens) != 1 {
			return nil, fmt.Errorf("A requires 1 field, got %d", len(tokens))
		}
		ip := net.ParseIP(tokens[0]).To4()
		if ip == nil {
			return nil, fmt.Errorf("invalid IPv4 address %q", tokens[0])
		}
		return &rdata.A{Addr: ip}, nil

	case rdata.TypeAAAA:
		if len(tokens) != 1 {
			return nil, fmt.Errorf("AAAA requires 1 field, got %d", len(tokens))
		}
		ip := net.ParseIP(tokens[0]).To16()
		if ip == nil {
			return nil, fmt.Errorf("invalid IPv6 address %q", tokens[0])
		}
		return &rdata.AAAA{Addr: ip}, nil

	case rdata.TypeNS:
		n, err := resolveName(tokens, origin)
		if err != nil {
			return nil, err
		}
		return &rdata.NS{Target: n}, nil

	case rdata.TypeCNAME:
		n, err := resolveName(tokens, origin)
		if err != nil {
			return nil, err
		}
		return &rdata.CNAME{Target: n}, nil

	case rdata.TypeDNAME:
		n, err := resolveName(tokens, origin)
		if err != nil {
			return nil, err
		}
		return &rdata.DNAME{Target: n}, nil

	case rdata.TypeMX:
		if len(tokens) != 2 {
			return nil, fmt.Errorf("MX requires 2 fields, got %d", len(tokens))
		}
		pref, err := parseUint16(tokens[0])
		if err != nil {
			return nil, err
		}
		n, err := resolveRelative(tokens[1], origin)
		if err != nil {
			return nil, err
		}
		return &rdata.MX{Preference: pref, Exchange: n}, nil

	case rdata.TypeSOA:
		if len(tokens) != 7 {
			return nil, fmt.Errorf("SOA requires 7 fields, got %d", len(tokens))
		}
		mname, err := resolveRelative(tokens[0], origin)
		if err != nil {
			return nil, err
		}
		rname, err := resolveRelative(tokens[1], origin)
		if err != nil {
			return nil, err
		}
		nums := make([]uint32, 5)
		for i := 0; i < 5; i++ {
			v, err := parseUint32(tokens[2+i])
			if err != nil {
				return nil, err
			}
			nums[i] = v
		}
		return &rdata.SOA{MName: mname, RName: rname, Serial: nums[0], Refresh: nums[1], Retry: nums[2], Expire: nums[3], Minimum: nums[4]}, nil

	case rdata.TypeTXT, rdata.TypeSPF:
		strs, err := parseCharacterStrings(tokens)
		if err != nil {
			return nil, err
		}
		return &rdata.TXT{Strings: strs}, nil

	case rdata.TypeCAA:
		if len(tokens) != 3 {
			return nil, fmt.Errorf("CAA requires 3 fields, got %d", len(tokens))
		}
		flag, err := strconv.ParseUint(tokens[0], 10, 8)
		if err != nil {
			return nil, err
		}
		value := strings.Trim(tokens[2], "\"")
		return &rdata.CAA{Flag: uint8(flag), Tag: tokens[1], Value: value}, nil

	case rdata.TypeDS:
		if len(tokens) != 4 {
			return nil, fmt.Errorf("DS requires 4 fields, got %d", len(tokens))
		}
		keytag, err := parseUint16(tokens[0])
		if err != nil {
			return nil, err
		}
		algo, err := strconv.ParseUint(tokens[1], 10, 8)
		if err != nil {
			return nil, err
		}
		digestType, err := strconv.ParseUint(tokens[2], 10, 8)
		if err != nil {
			return nil, err
		}
		digest, err := hex.DecodeString(tokens[3])
		if err != nil {
			return nil, fmt.Errorf("invalid DS digest: %w", err)
		}
		return &rdata.DS{KeyTag: keytag, Algorithm: uint8(algo), DigestType: uint8(digestType), Digest: digest}, nil

	case rdata.TypeDNSKEY:
		if len(tokens) != 4 {
			return nil, fmt.Errorf("DNSKEY requires 4 fields, got %d", len(tokens))
		}
		flags, err := parseUint16(tokens[0])
		if err != nil {
			return nil, err
		}
		proto, err := strconv.ParseUint(tokens[1], 10, 8)
		if err != nil {
			return nil, err
		}
		algo, err := strconv.ParseUint(tokens[2], 10, 8)
		if err != nil {
			return nil, err
		}
		key, err := base64.StdEncoding.DecodeString(tokens[3])
		if err != nil {
			return nil, fmt.Errorf("invalid DNSKEY public key: %w", err)
		}
		return &rdata.DNSKEY{Flags: flags, Protocol: uint8(proto), Algorithm: uint8(algo), PublicKey: key}, nil

	case rdata.TypeNSEC3PARAM:
		if len(tokens) != 4 {
			return nil, fmt.Errorf("NSEC3PARAM requires 4 fields, got %d", len(tokens))
		}
		algo, err := strconv.ParseUint(tokens[0], 10, 8)
		if err != nil {
			return nil, err
		}
		flags, err := strconv.ParseUint(tokens[1], 10, 8)
		if err != nil {
			return nil, err
		}
		iter, err := parseUint16(tokens[2])
		if err != nil {
			return nil, err
		}
		salt, err := parseSalt(tokens[3])
		if err != nil {
			return nil, err
		}
		return &rdata.NSEC3PARAM{HashAlgorithm: uint8(algo), Flags: uint8(flags), Iterations: iter, Salt: salt}, nil

	default:
		if len(tokens) >= 2 && tokens[0] == `\#` {
			n, err := strconv.Atoi(tokens[1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid RFC 3597 RDATA length %q", tokens[1])
			}
			raw, err := hex.DecodeString(strings.Join(tokens[2:], ""))
			if err != nil {
				return nil, fmt.Errorf("invalid RFC 3597 RDATA hex: %v", err)
			}
			if len(raw) != n {
				return nil, fmt.Errorf("RFC 3597 RDATA length %d does not match %d data octets", n, len(raw))
			}
			return &rdata.Unknown{RRType: t, Raw: raw}, nil
		}
		return nil, fmt.Errorf("zone: record type %s is not supported by the textual loaders; use RFC 3597 generic form", t)
	}
}

func parseSalt(s string) ([]byte, error) {
	if s == "-" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func parseCharacterStrings(tokens []string) ([][]byte, error) {
	joined := strings.Join(tokens, " ")
	var out [][]byte
	i := 0
	for i < len(joined) {
		for i < len(joined) && joined[i] == ' ' {
			i++
		}
		if i >= len(joined) {
			break
		}
		if joined[i] != '"' {
			return nil, fmt.Errorf("TXT/SPF strings must be quoted")
		}
		i++
		var cur []byte
		for i < len(joined) && joined[i] != '"' {
			if joined[i] == '\\' && i+1 < len(joined) {
				i++
			}
			cur = append(cur, joined[i])
			i++
		}
		if i >= len(joined) {
			return nil, fmt.Errorf("unterminated TXT/SPF string")
		}
		i++ // closing quote
		out = append(out, cur)
	}
	return out, nil
}

func resolveRelative(tok string, origin dname.Name) (dname.Name, error) {
	if tok == "@" {
		return origin, nil
	}
	n, err := dname.Parse(tok)
	if err != nil {
		return dname.Name{}, err
	}
	if strings.HasSuffix(tok, ".") {
		return n, nil
	}
	return dname.Concat(n, origin)
}

func resolveName(tokens []string, origin dname.Name) (dname.Name, error) {
	if len(tokens) != 1 {
		return dname.Name{}, fmt.Errorf("expected exactly one name field, got %d", len(tokens))
	}
	return resolveRelative(tokens[0], origin)
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	return uint16(v), err
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
