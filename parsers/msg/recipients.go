// recipients.go extracts recipients from their sub-storages and
// reconciles their classes against the display-To and display-Cc
// summary fields.

package msg

import (
	"regexp"
	"strings"

	"github.com/ekayaprod/mailto/parsers/cfb"
)

var (
	reAngleAddr = regexp.MustCompile(`<([^<>\s]+@[^<>\s]+)>`)
	reBareAddr  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// readRecipient assembles one recipient from the property streams of
// its sub-storage. The explicit SMTP address property wins over the
// generic address property; either is accepted only when it contains
// an "@".
func (d *decoder) readRecipient(ids []int) Recipient {
	rec := Recipient{Class: ClassTo}
	var smtp, generic string
	for _, id := range ids {
		e := d.r.Entry(uint32(id))
		if e == nil || e.Kind != cfb.KindStream {
			continue
		}
		pid, tag, ok := parseStreamName(e.Name)
		if !ok {
			continue
		}
		raw := d.r.ReadStream(e)
		switch pid {
		case PropRecipientType:
			if c := int32Value(raw); c >= ClassTo && c <= ClassBcc {
				rec.Class = c
			}
		case PropDisplayName:
			rec.Name = decodeString(raw, tag, d.opt)
		case PropSMTPAddress:
			smtp = decodeString(raw, tag, d.opt)
		case PropEmailAddress:
			generic = decodeString(raw, tag, d.opt)
		}
	}
	switch {
	case strings.Contains(smtp, "@"):
		rec.Email = smtp
	case strings.Contains(generic, "@"):
		rec.Email = generic
	}
	return rec
}

// reconcile checks each recipient's address against the legacy
// display-To and display-Cc summary fields and reassigns its class on
// a match. The sub-storage class property is often missing or stale;
// the summary fields are what the sending client actually rendered.
// Unmatched recipients keep the class they were read with.
func reconcile(recs []Recipient, displayTo, displayCc string) {
	to := addressCounts(displayTo)
	cc := addressCounts(displayCc)
	for i := range recs {
		addr := strings.ToLower(recs[i].Email)
		if addr == "" {
			continue
		}
		switch {
		case cc[addr] > 0:
			recs[i].Class = ClassCc
			cc[addr]--
		case to[addr] > 0:
			recs[i].Class = ClassTo
			to[addr]--
		}
	}
}

// addressCounts parses a semicolon or comma delimited display field
// into a count per lowercase address. Counting gives duplicate
// addresses multiplicity during reconciliation instead of folding them
// into one bucket.
func addressCounts(field string) map[string]int {
	counts := make(map[string]int)
	for _, part := range splitDisplayField(field) {
		if addr := extractAddress(part); addr != "" {
			counts[strings.ToLower(addr)]++
		}
	}
	return counts
}

func splitDisplayField(field string) []string {
	return strings.FieldsFunc(field, func(r rune) bool {
		return r == ';' || r == ','
	})
}

// extractAddress pulls the address out of one display-field entry,
// preferring an explicit "Name <addr>" form over a bare match.
func extractAddress(part string) string {
	if m := reAngleAddr.FindStringSubmatch(part); m != nil {
		return m[1]
	}
	return reBareAddr.FindString(part)
}
