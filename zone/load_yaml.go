package zone

import (
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

// yamlRRset mirrors §4.5's YAML form: a sequence of RRset objects, each
// with owner/ttl/type and a list of typed record bodies whose fields are
// named by role (so SOA reads naturally as mname/rname/serial/... instead
// of a positional token list).
type yamlRRset struct {
	Owner  string           `yaml:"owner"`
	TTL    uint32           `yaml:"ttl"`
	Type   string           `yaml:"type"`
	Record []map[string]any `yaml:"record"`
}

// LoadYAML parses the YAML zone form into a Zone.
func LoadYAML(r io.Reader, apex dname.Name) (*Zone, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zone: reading YAML: %w", err)
	}
	var entries []yamlRRset
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &ConfigError{Owner: "<yaml>", Reason: err.Error()}
	}

	z := New(apex)
	for idx, e := range entries {
		path := fmt.Sprintf("[%d] owner=%q type=%s", idx, e.Owner, e.Type)
		owner, err := resolveRelative(e.Owner, apex)
		if err != nil {
			return nil, &ConfigError{Owner: path, Reason: err.Error()}
		}
		rrType, ok := rdata.ParseType(e.Type)
		if !ok {
			return nil, &ConfigError{Owner: path, Reason: "unknown record type " + e.Type}
		}
		set, err := rrset.New(owner, rrType, e.TTL)
		if err != nil {
			return nil, &ConfigError{Owner: path, Reason: err.Error()}
		}
		for _, rec := range e.Record {
			rr, err := yamlRecordToRDATA(rrType, rec, apex)
			if err != nil {
				return nil, &ConfigError{Owner: path, Reason: err.Error()}
			}
			if err := set.Add(rr); err != nil {
				return nil, &ConfigError{Owner: path, Reason: err.Error()}
			}
		}
		if err := z.AddRRset(set); err != nil {
			return nil, &ConfigError{Owner: path, Reason: err.Error()}
		}
	}
	if err := z.Finalize(); err != nil {
		return nil, err
	}
	if errs := z.Validate(); len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	return z, nil
}

func yamlRecordToRDATA(t rdata.Type, rec map[string]any, origin dname.Name) (rdata.RR, error) {
	str := func(key string) string {
		v, _ := rec[key].(string)
		return v
	}
	num := func(key string) uint64 {
		switch v := rec[key].(type) {
		case int:
			return uint64(v)
		case int64:
			return uint64(v)
		case uint64:
			return v
		case string:
			n, _ := strconv.ParseUint(v, 10, 64)
			return n
		}
		return 0
	}

	switch t {
	case rdata.TypeA:
		return ParseRDATA(t, []string{str("address")}, origin)
	case rdata.TypeAAAA:
		return ParseRDATA(t, []string{str("address")}, origin)
	case rdata.TypeNS:
		return ParseRDATA(t, []string{str("nsdname")}, origin)
	case rdata.TypeCNAME:
		return ParseRDATA(t, []string{str("cname")}, origin)
	case rdata.TypeDNAME:
		return ParseRDATA(t, []string{str("target")}, origin)
	case rdata.TypeMX:
		return ParseRDATA(t, []string{fmt.Sprint(num("preference")), str("exchange")}, origin)
	case rdata.TypeSOA:
		return ParseRDATA(t, []string{
			str("mname"), str("rname"),
			fmt.Sprint(num("serial")), fmt.Sprint(num("refresh")),
			fmt.Sprint(num("retry")), fmt.Sprint(num("expire")), fmt.Sprint(num("minimum")),
		}, origin)
	case rdata.TypeTXT, rdata.TypeSPF:
		return &rdata.TXT{Strings: [][]byte{[]byte(str("text"))}}, nil
	case rdata.TypeCAA:
		return ParseRDATA(t, []string{fmt.Sprint(num("flag")), str("tag"), str("value")}, origin)
	case rdata.TypeDS:
		return ParseRDATA(t, []string{
			fmt.Sprint(num("key_tag")), fmt.Sprint(num("algorithm")),
			fmt.Sprint(num("digest_type")), str("digest"),
		}, origin)
	case rdata.TypeDNSKEY:
		return ParseRDATA(t, []string{
			fmt.Sprint(num("flags")), fmt.Sprint(num("protocol")),
			fmt.Sprint(num("algorithm")), str("public_key"),
		}, origin)
	case rdata.TypeNSEC3PARAM:
		return ParseRDATA(t, []string{
			fmt.Sprint(num("hash_algorithm")), fmt.Sprint(num("flags")),
			fmt.Sprint(num("iterations")), str("salt"),
		}, origin)
	default:
		return nil, fmt.Errorf("zone: YAML loader does not support record type %s", t)
	}
}
