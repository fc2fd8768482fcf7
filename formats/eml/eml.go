// Package eml registers MIME text messages with the formats registry
// on import. Detection is structural: the first line must look like a
// header field, which binary containers and mbox postmarks do not
// produce.
package eml

import (
	"bytes"

	"github.com/ekayaprod/mailto/formats"
	"github.com/ekayaprod/mailto/message"
)

func init() {
	formats.Register(&format{})
}

type format struct{}

func (f *format) Name() string {
	return "MIME message"
}

func (f *format) Extensions() []string {
	return []string{".eml", ".txt"}
}

// Match accepts buffers whose first line is a header field: a name of
// letters, digits, hyphens, and underscores followed by a colon.
func (f *format) Match(data []byte) bool {
	line := data
	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return false
	}
	for _, b := range line[:colon] {
		if !headerNameByte(b) {
			return false
		}
	}
	return true
}

func headerNameByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' ||
		b >= '0' && b <= '9' || b == '-' || b == '_'
}

func (f *format) Decode(data []byte) ([]formats.Result, error) {
	return formats.Render(message.Decode(data), "", nil), nil
}
