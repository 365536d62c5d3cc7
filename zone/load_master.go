package zone

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zoneauth/zoneauth/dname"
	"github.com/zoneauth/zoneauth/rdata"
	"github.com/zoneauth/zoneauth/rrset"
)

// LoadMasterfile parses the one-line-per-record masterfile-lite format
// described in §4.5: "<owner> <ttl> IN <type> <rdata...>", comments from
// ';' to end of line, relative owners expanded against apex. $ORIGIN,
// $TTL, parenthesized multi-line records and "@" expansion of the bare
// apex token are intentionally unsupported (§9 Open Questions) with one
// exception: "@" as an owner or RDATA name token is accepted and resolved
// to apex, since it costs nothing and is ubiquitous in hand-written zone
// data.
func LoadMasterfile(r io.Reader, apex dname.Name) (*Zone, error) {
	z := New(apex)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: "expected at least owner, ttl, class, type"}
		}
		owner, err := resolveRelative(fields[0], apex)
		if err != nil {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: err.Error()}
		}
		ttl, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: "invalid TTL: " + err.Error()}
		}
		if !strings.EqualFold(fields[2], "IN") {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: "only class IN is supported"}
		}
		rrType, ok := rdata.ParseType(strings.ToUpper(fields[3]))
		if !ok {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: "unknown record type " + fields[3]}
		}
		rr, err := ParseRDATA(rrType, fields[4:], apex)
		if err != nil {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: err.Error()}
		}
		set, err := rrset.New(owner, rrType, uint32(ttl))
		if err != nil {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: err.Error()}
		}
		set.RRs = []rdata.RR{rr}
		if err := z.AddRRset(set); err != nil {
			return nil, &ConfigError{Line: lineNo, Owner: fields[0], Reason: err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("zone: reading masterfile: %w", err)
	}
	if err := z.Finalize(); err != nil {
		return nil, err
	}
	if errs := z.Validate(); len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	return z, nil
}

func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

func joinErrors(errs []error) error {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return fmt.Errorf("zone: %d validation error(s):\n%s", len(errs), strings.Join(parts, "\n"))
}
