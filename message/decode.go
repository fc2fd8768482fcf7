// decode.go picks the container path for a buffer and funnels both
// paths into one Record.

package message

import (
	"github.com/ekayaprod/mailto/parsers/cfb"
	"github.com/ekayaprod/mailto/parsers/eml"
	"github.com/ekayaprod/mailto/parsers/msg"
	"github.com/ekayaprod/mailto/textutil"
)

// Options passes the property-decoding thresholds through to the
// compound path.
type Options = msg.Options

// Decode turns a raw container buffer into a Record. It is total:
// "no data found" comes back as empty fields, never as an error.
func Decode(data []byte) Record {
	return DecodeWithOptions(data, msg.DefaultOptions())
}

// DecodeWithOptions is Decode with explicit heuristic thresholds.
func DecodeWithOptions(data []byte, opt Options) Record {
	if len(data) < cfb.MinSize || !cfb.Matches(data) {
		return mimeRecord(data)
	}
	m, err := msg.DecodeWithOptions(data, opt)
	if err != nil {
		return mimeRecord(data)
	}
	rec := fromCompound(m)

	// Hybrid and malformed containers sometimes embed MIME text
	// without a valid body stream; recover what the binary path
	// could not.
	if rec.Subject == "" || rec.Body == "" {
		fallback := eml.Parse(data)
		if rec.Subject == "" {
			rec.Subject = fallback.Subject
		}
		if rec.Body == "" {
			rec.Body = textutil.NormalizeText(fallback.Body)
		}
	}
	return rec
}

func fromCompound(m *msg.Message) Record {
	rec := Record{
		Subject:  m.Subject,
		Body:     textutil.NormalizeText(m.Body),
		BodyHTML: m.BodyHTML,
		Date:     m.Date,
		Source:   SourceCompound,
	}
	for _, r := range m.Recipients {
		rec.Recipients = append(rec.Recipients, Recipient{
			Name:  r.Name,
			Email: r.Email,
			Type:  RecipientType(r.Class),
		})
	}
	return rec
}

func mimeRecord(data []byte) Record {
	m := eml.Parse(data)
	rec := Record{
		Subject: m.Subject,
		Body:    textutil.NormalizeText(m.Body),
		Source:  SourceMIME,
	}
	rec.Recipients = appendAddresses(rec.Recipients, m.To, To)
	rec.Recipients = appendAddresses(rec.Recipients, m.Cc, Cc)
	rec.Recipients = appendAddresses(rec.Recipients, m.Bcc, Bcc)
	return rec
}

func appendAddresses(recs []Recipient, addrs []eml.Address, t RecipientType) []Recipient {
	for _, a := range addrs {
		recs = append(recs, Recipient{Name: a.Name, Email: a.Email, Type: t})
	}
	return recs
}
