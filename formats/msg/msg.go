// Package msg registers the compound-file message format with the
// formats registry on import.
package msg

import (
	"github.com/ekayaprod/mailto/formats"
	"github.com/ekayaprod/mailto/message"
	"github.com/ekayaprod/mailto/parsers/cfb"
)

func init() {
	formats.Register(&format{})
}

type format struct{}

func (f *format) Name() string {
	return "Outlook message"
}

func (f *format) Extensions() []string {
	return []string{".msg"}
}

func (f *format) Match(data []byte) bool {
	return cfb.Matches(data)
}

func (f *format) Decode(data []byte) ([]formats.Result, error) {
	return formats.Render(message.Decode(data), "", nil), nil
}
