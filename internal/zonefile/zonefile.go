// Package zonefile renders and parses RFC 1035 master-file text for zone
// export and import.
package zonefile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miekg/dns"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/storage"
)

// Render serializes a zone and its recordsets as master-file text. The
// SOA recordset is emitted first, then NS, then everything else sorted by
// name and type. Records marked for deletion are skipped.
func Render(zone *storage.Zone, sets []storage.RecordSet) string {
	ordered := make([]storage.RecordSet, len(sets))
	copy(ordered, sets)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := typeRank(ordered[i].Type), typeRank(ordered[j].Type)
		if ri != rj {
			return ri < rj
		}
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].Type < ordered[j].Type
	})

	var b strings.Builder
	fmt.Fprintf(&b, "$ORIGIN %s\n", zone.Name)
	fmt.Fprintf(&b, "$TTL %d\n", zone.TTL)
	for _, rs := range ordered {
		ttl := zone.TTL
		if rs.TTL != nil {
			ttl = *rs.TTL
		}
		for _, rec := range rs.Records {
			if rec.Action == storage.ActionDelete {
				continue
			}
			fmt.Fprintf(&b, "%s %d IN %s %s\n", rs.Name, ttl, rs.Type, rec.Data)
		}
	}
	return b.String()
}

func typeRank(t string) int {
	switch t {
	case "SOA":
		return 0
	case "NS":
		return 1
	default:
		return 2
	}
}

// Parsed is the outcome of reading master-file text.
type Parsed struct {
	// Name is the zone name taken from the SOA owner.
	Name string
	// Email is the SOA RNAME converted back to mailbox form.
	Email string
	TTL   int
	// Sets excludes the SOA recordset and the apex NS recordset; both are
	// regenerated on import.
	Sets []ParsedRecordSet
}

type ParsedRecordSet struct {
	Name    string
	Type    string
	TTL     int
	Records []string
}

// Parse reads master-file text. Exactly one SOA record is required; its
// owner names the zone.
func Parse(text string) (*Parsed, error) {
	zp := dns.NewZoneParser(strings.NewReader(text), "", "import")
	zp.SetDefaultTTL(3600)

	var soa *dns.SOA
	var rrs []dns.RR
	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		if s, isSOA := rr.(*dns.SOA); isSOA {
			if soa != nil {
				return nil, errs.New(errs.KindValidation, "zonefile contains more than one SOA record")
			}
			soa = s
			continue
		}
		rrs = append(rrs, rr)
	}
	if err := zp.Err(); err != nil {
		return nil, errs.New(errs.KindValidation, "unparsable zonefile: %v", err)
	}
	if soa == nil {
		return nil, errs.New(errs.KindValidation, "zonefile has no SOA record")
	}

	out := &Parsed{
		Name:  soa.Hdr.Name,
		Email: rnameToEmail(soa.Mbox),
		TTL:   int(soa.Hdr.Ttl),
	}

	grouped := map[string]*ParsedRecordSet{}
	var order []string
	for _, rr := range rrs {
		hdr := rr.Header()
		name := hdr.Name
		rtype := dns.TypeToString[hdr.Rrtype]
		// The apex NS set is pool-managed and regenerated on import.
		if rtype == "NS" && strings.EqualFold(name, out.Name) {
			continue
		}
		key := name + "/" + rtype
		rs, ok := grouped[key]
		if !ok {
			rs = &ParsedRecordSet{Name: name, Type: rtype, TTL: int(hdr.Ttl)}
			grouped[key] = rs
			order = append(order, key)
		}
		rs.Records = append(rs.Records, rdata(rr))
	}
	for _, key := range order {
		out.Sets = append(out.Sets, *grouped[key])
	}
	return out, nil
}

// rdata extracts the presentation-format record data without the owner,
// TTL, class and type prefix.
func rdata(rr dns.RR) string {
	return strings.TrimSpace(strings.TrimPrefix(rr.String(), rr.Header().String()))
}

// rnameToEmail converts an SOA RNAME back to a mailbox: the first
// unescaped dot becomes an @.
func rnameToEmail(rname string) string {
	rname = strings.TrimSuffix(rname, ".")
	for i := 0; i < len(rname); i++ {
		if rname[i] == '.' && (i == 0 || rname[i-1] != '\\') {
			return rname[:i] + "@" + rname[i+1:]
		}
	}
	return rname
}
