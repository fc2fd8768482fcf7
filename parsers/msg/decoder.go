// decoder.go drives a full message decode: directory scan, recipient
// sub-storages, message-level properties, body selection.

package msg

import (
	"strings"

	"github.com/ekayaprod/mailto/parsers/cfb"
	"github.com/ekayaprod/mailto/textutil"
)

// Options tunes the string-decoding heuristics. Zero fields take the
// defaults.
type Options struct {
	// PrintableThreshold is the minimum printability score an 8-bit
	// decode needs before it can displace the UTF-16 reading.
	PrintableThreshold float64

	// ShortStringMin is the rune count below which a winning 8-bit
	// decode is still distrusted when the UTF-16 reading is longer.
	ShortStringMin int
}

// DefaultOptions returns the thresholds used by Decode. The values are
// empirical and carried over from years of files seen in the wild.
func DefaultOptions() Options {
	return Options{PrintableThreshold: 0.7, ShortStringMin: 5}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PrintableThreshold <= 0 {
		o.PrintableThreshold = def.PrintableThreshold
	}
	if o.ShortStringMin <= 0 {
		o.ShortStringMin = def.ShortStringMin
	}
	return o
}

// Decode parses an MSG compound file into a Message.
func Decode(data []byte) (*Message, error) {
	return DecodeWithOptions(data, DefaultOptions())
}

// DecodeWithOptions is Decode with explicit heuristic thresholds. It
// returns cfb.ErrTooSmall or cfb.ErrInvalidSignature when the buffer is
// not a compound file; corruption past the header degrades to missing
// fields instead of failing.
func DecodeWithOptions(data []byte, opt Options) (*Message, error) {
	r, err := cfb.NewReader(data)
	if err != nil {
		return nil, err
	}
	d := &decoder{r: r, opt: opt.withDefaults()}
	return d.run(), nil
}

type decoder struct {
	r   *cfb.Reader
	opt Options
}

func (d *decoder) run() *Message {
	msg := &Message{Properties: make(map[int]Property)}
	entries := d.r.Entries()

	// Storage subtrees hold recipient and attachment property sets;
	// their streams must not leak into the message-level walk.
	nested := make(map[int]bool)
	for i := range entries {
		e := &entries[i]
		if e.Kind != cfb.KindStorage {
			continue
		}
		ids := d.subtree(e.Child)
		nested[e.ID] = true
		for _, id := range ids {
			nested[id] = true
		}
		if strings.HasPrefix(e.Name, recipStoragePrefix) {
			msg.Recipients = append(msg.Recipients, d.readRecipient(ids))
		}
	}

	for i := range entries {
		e := &entries[i]
		if nested[e.ID] || e.Kind != cfb.KindStream {
			continue
		}
		id, tag, ok := parseStreamName(e.Name)
		if !ok {
			continue
		}
		p := d.property(id, tag, d.r.ReadStream(e))
		if old, dup := msg.Properties[id]; !dup || replaces(old, p) {
			msg.Properties[id] = p
		}
	}

	d.finish(msg)
	return msg
}

// subtree collects every entry id reachable from start through the
// sibling and child links. The walk is iterative with a visited set:
// sibling trees in corrupt files can self-reference, and the walk must
// terminate anyway.
func (d *decoder) subtree(start uint32) []int {
	var ids []int
	seen := make(map[uint32]bool)
	stack := []uint32{start}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ref == cfb.NoStream || seen[ref] {
			continue
		}
		seen[ref] = true
		e := d.r.Entry(ref)
		if e == nil {
			continue
		}
		ids = append(ids, e.ID)
		stack = append(stack, e.Left, e.Right, e.Child)
	}
	return ids
}

// property decodes one raw stream into a typed Property. String values
// go through the encoding contest; body streams do too even when their
// tag claims binary, since producers mislabel them routinely.
func (d *decoder) property(id, tag int, raw []byte) Property {
	p := Property{ID: id, Tag: tag, Raw: raw}
	if p.IsText() || id == PropBody || id == PropBodyHTML {
		p.Text = decodeString(raw, tag, d.opt)
	}
	return p
}

func (d *decoder) finish(msg *Message) {
	msg.Subject = msg.PropertyString(PropSubject)
	if p, ok := msg.Property(PropBody); ok {
		msg.Body = textutil.StripHTML(p.Text)
	}
	if p, ok := msg.Property(PropBodyHTML); ok {
		msg.BodyHTML = strings.TrimSpace(p.Text)
	}
	for _, id := range []int{PropMessageTime, PropClientSubmit} {
		if p, ok := msg.Property(id); ok && p.Tag == TypeSystime {
			msg.Date = timeValue(p.Raw)
			break
		}
	}
	if msg.Body == "" && msg.BodyHTML == "" {
		d.rtfBody(msg)
	}
	reconcile(msg.Recipients,
		msg.PropertyString(PropDisplayTo),
		msg.PropertyString(PropDisplayCc))
}

// rtfBody recovers a body from the compressed RTF stream when neither
// body stream survived. Messages composed as HTML keep the original
// markup inside the RTF.
func (d *decoder) rtfBody(msg *Message) {
	p, ok := msg.Property(PropRTFCompressed)
	if !ok {
		return
	}
	rtf, err := DecompressRTF(p.Raw)
	if err != nil {
		return
	}
	msg.BodyRTF = string(rtf)
	if html := EncapsulatedHTML(rtf); html != "" {
		msg.BodyHTML = html
		msg.Body = textutil.StripHTML(html)
	}
}
